package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		AppEnv:            "development",
		AppLogLevel:       "info",
		JWTSecret:         "secret",
		JWTTTL:            time.Hour,
		WriteRPS:          5,
		WriteBurst:        10,
		ReconcileSchedule: "@every 30m",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "sqlite url", mutate: func(c *Config) { c.DatabaseURL = "sqlite://forum.db" }},
		{name: "mysql url", mutate: func(c *Config) { c.DatabaseURL = "mysql://x" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.AppLogLevel = "loud" }, wantErr: true},
		{name: "negative cooldown", mutate: func(c *Config) { c.RateLimitReport = -time.Second }, wantErr: true},
		{name: "zero burst", mutate: func(c *Config) { c.WriteBurst = 0 }, wantErr: true},
		{name: "bad schedule", mutate: func(c *Config) { c.ReconcileSchedule = "every now and then" }, wantErr: true},
		{name: "missing secret in production", mutate: func(c *Config) {
			c.AppEnv = "production"
			c.JWTSecret = ""
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFillsDevelopmentSecret(t *testing.T) {
	cfg := validConfig()
	cfg.JWTSecret = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.JWTSecret == "" {
		t.Fatal("expected a development secret to be filled in")
	}
}

func TestOrigins(t *testing.T) {
	cfg := Config{AllowedOrigins: "http://a.test, ,http://b.test"}
	got := cfg.Origins()
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("Origins() = %v", got)
	}
}
