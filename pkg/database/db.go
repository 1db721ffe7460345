package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options describes how to reach the database. URL wins over the discrete DB_* fields.
type Options struct {
	URL      string
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	Debug    bool
}

// Connect opens a gorm connection. "sqlite://<path>" selects the embedded driver,
// "postgres://..." or an empty URL selects PostgreSQL.
func Connect(opts Options) (*gorm.DB, error) {
	dialector, err := dialectorFor(opts)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Silent
	if opts.Debug {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if db.Dialector.Name() == "sqlite" {
		// single writer keeps sqlite from returning SQLITE_BUSY under concurrent transactions
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.WithField("driver", db.Dialector.Name()).Info("database connection established")
	return db, nil
}

func dialectorFor(opts Options) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(opts.URL, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(opts.URL, "sqlite://")), nil
	case strings.HasPrefix(opts.URL, "postgres://"), strings.HasPrefix(opts.URL, "postgresql://"):
		return postgres.Open(opts.URL), nil
	case opts.URL == "":
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			opts.Host, opts.User, opts.Password, opts.Name, opts.Port,
		)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("invalid DATABASE_URL %q: must start with postgres:// or sqlite://", opts.URL)
	}
}

// OpenMemory returns an isolated in-memory sqlite database, used by tests and local tooling.
func OpenMemory(name string) (*gorm.DB, error) {
	return Connect(Options{URL: fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", name)})
}
