package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/JONIJAIN/bms/api"
	"github.com/JONIJAIN/bms/batching"
	"github.com/JONIJAIN/bms/config"
	"github.com/JONIJAIN/bms/domain"
	"github.com/JONIJAIN/bms/lifecycle"
	"github.com/JONIJAIN/bms/storage"
	"github.com/JONIJAIN/bms/timestats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := newLogger(cfg.Log)

	store, err := storage.New(cfg.Storage.ConnectionString, tablesFromConfig(cfg.Storage), domain.SystemClock)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}

	var rc *redis.Client
	var deduper api.Deduper
	if cfg.Redis.ConnectionString != "" {
		rc = redis.NewClient(redisOptions(cfg.Redis.ConnectionString))
		deduper = api.NewRedisDeduper(rc, cfg.Redis.DeduperTTL)
	} else {
		logger.Warn("redis not configured; caching and request deduplication disabled")
	}
	cached := storage.NewCache(store, rc, cfg.Redis.CacheTTL)

	auth, err := newAuth(cfg.Auth)
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}

	svc := api.Services{
		Lifecycle: lifecycle.NewService(cached, domain.SystemClock, logger),
		Batching:  batching.NewAnalyzer(cached, batching.DefaultConfig(), logger),
		Stats:     timestats.NewService(cached, domain.SystemClock, logger),
		Settings:  cached,
		Clock:     domain.SystemClock,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.Register(e, svc, auth, deduper, logger)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
	if rc != nil {
		_ = rc.Close()
	}
}

func newLogger(cfg config.LogConfig) *log.Logger {
	logger := log.New()
	if level, err := log.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	}
	return logger
}

func tablesFromConfig(cfg config.StorageConfig) storage.Tables {
	return storage.Tables{
		Companies:   cfg.CompaniesTable,
		Captures:    cfg.CapturesTable,
		Schedule:    cfg.ScheduleTable,
		Waiting:     cfg.WaitingTable,
		Someday:     cfg.SomedayTable,
		TimeEntries: cfg.TimeTable,
		Settings:    cfg.SettingsTable,
		NotifyQueue: cfg.NotifyQueue,
	}
}

func newAuth(cfg config.AuthConfig) (*api.Auth, error) {
	if cfg.TestMode {
		return api.NewTestAuth([]byte(cfg.TestSecret)), nil
	}
	jwks, err := keyfunc.Get(cfg.JWKSURL(), keyfunc.Options{})
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	return api.NewAuth(jwks, cfg.Audience, cfg.Issuer()), nil
}

// redisOptions accepts both redis URLs and the comma-separated
// host,password=...,ssl=true form Azure hands out.
func redisOptions(connStr string) *redis.Options {
	opts, err := redis.ParseURL(connStr)
	if err == nil {
		return opts
	}
	parts := strings.Split(connStr, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
