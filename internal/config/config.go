package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	AppEnv         string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel    string `envconfig:"APP_LOG_LEVEL" default:"info"`
	Port           string `envconfig:"PORT" default:"8080"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// DatabaseURL accepts postgres:// or sqlite://; when empty the DB_* fields are used.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"consultlink_forum"`

	RedisURL string `envconfig:"REDIS_URL"`

	MeiliSearchHost string `envconfig:"MEILISEARCH_HOST"`
	MeiliMasterKey  string `envconfig:"MEILI_MASTER_KEY"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	RateLimitGlobal  time.Duration `envconfig:"RATE_LIMIT_GLOBAL" default:"5s"`
	RateLimitThread  time.Duration `envconfig:"RATE_LIMIT_THREAD" default:"5m"`
	RateLimitComment time.Duration `envconfig:"RATE_LIMIT_COMMENT" default:"15s"`
	RateLimitReport  time.Duration `envconfig:"RATE_LIMIT_REPORT" default:"30s"`

	// per-IP token bucket on mutating routes
	WriteRPS   float64 `envconfig:"WRITE_RPS" default:"5"`
	WriteBurst int     `envconfig:"WRITE_BURST" default:"10"`

	ReconcileSchedule string `envconfig:"RECONCILE_SCHEDULE" default:"@every 30m"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		c.JWTSecret = "development-secret"
		log.Warn("JWT_SECRET not set, using development secret")
	}
	if _, err := log.ParseLevel(c.AppLogLevel); err != nil {
		return fmt.Errorf("invalid APP_LOG_LEVEL %q: %w", c.AppLogLevel, err)
	}
	if c.DatabaseURL != "" &&
		!strings.HasPrefix(c.DatabaseURL, "postgres://") &&
		!strings.HasPrefix(c.DatabaseURL, "postgresql://") &&
		!strings.HasPrefix(c.DatabaseURL, "sqlite://") {
		return fmt.Errorf("DATABASE_URL must start with postgres:// or sqlite://")
	}
	if c.RateLimitGlobal < 0 || c.RateLimitThread < 0 || c.RateLimitComment < 0 || c.RateLimitReport < 0 {
		return fmt.Errorf("rate limit durations must not be negative")
	}
	if c.WriteRPS <= 0 || c.WriteBurst <= 0 {
		return fmt.Errorf("WRITE_RPS and WRITE_BURST must be > 0")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if _, err := cron.ParseStandard(c.ReconcileSchedule); err != nil {
		return fmt.Errorf("invalid RECONCILE_SCHEDULE: %w", err)
	}
	return nil
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
