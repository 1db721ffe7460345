package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"consultlink.id/forum/internal/bootstrap"
	"consultlink.id/forum/internal/config"
	searchService "consultlink.id/forum/internal/modules/search/service"
	"consultlink.id/forum/internal/server"
	"consultlink.id/forum/pkg/database"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	setupLogging(cfg)

	db, err := database.Connect(database.Options{
		URL:      cfg.DatabaseURL,
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
		Debug:    !cfg.IsProduction(),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}

	if err := bootstrap.Migrate(db); err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	if err := bootstrap.SeedRoles(db); err != nil {
		log.WithError(err).Fatal("failed to seed roles")
	}
	if cfg.AppEnv == "development" {
		if err := bootstrap.SeedAdminUser(context.Background(), db); err != nil {
			log.WithError(err).Fatal("failed to seed admin user")
		}
	}

	redisClient := connectRedis(cfg.RedisURL)
	search := connectSearch(cfg.MeiliSearchHost, cfg.MeiliMasterKey)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.NewServer(cfg, db, redisClient, search)

	go func() {
		if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
			log.WithError(err).Fatal("server exited with error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.WithField("signal", sig.String()).Info("shutting down")

	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped")
}

func setupLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(cfg.AppLogLevel)
	if err == nil {
		log.SetLevel(level)
	}
}

// connectRedis returns nil when REDIS_URL is unset or unreachable.
func connectRedis(url string) *redis.Client {
	if url == "" {
		log.Warn("REDIS_URL not set, cooldowns and leaderboard cache disabled")
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.WithError(err).Warn("invalid REDIS_URL, cooldowns and leaderboard cache disabled")
		return nil
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable, cooldowns and leaderboard cache disabled")
		_ = client.Close()
		return nil
	}

	log.Info("connected to redis")
	return client
}

func connectSearch(host, key string) searchService.SearchService {
	if host == "" {
		log.Warn("MEILISEARCH_HOST not set, search indexing disabled")
		return nil
	}
	if !strings.HasPrefix(host, "http") {
		host = "http://" + host + ":7700"
	}

	client := meilisearch.New(host, meilisearch.WithAPIKey(key))
	return searchService.NewMeiliSearchService(client)
}
