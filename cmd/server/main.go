// Package main is the entry point for the nedlog API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"nedlog/internal/config"
	"nedlog/internal/domain/analysis"
	"nedlog/internal/domain/auth"
	"nedlog/internal/domain/export"
	"nedlog/internal/domain/session"
	"nedlog/internal/infrastructure/frappe"
	v1 "nedlog/internal/infrastructure/http/v1"
	"nedlog/internal/infrastructure/http/v1/handlers"
	"nedlog/internal/infrastructure/storage/sessionstore"
	"nedlog/internal/metadata"
	"nedlog/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// janitorInterval is how often the in-memory store drops expired sessions.
const janitorInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("starting nedlog server", "version", version, "erp", cfg.ERP.BaseURL)

	// --- ERP client ---
	client, err := frappe.NewClient(frappe.Config{
		BaseURL:   cfg.ERP.BaseURL,
		APIKey:    cfg.ERP.APIKey,
		APISecret: cfg.ERP.APISecret,
		App:       cfg.ERP.App,
		Timeout:   cfg.ERP.Timeout,
	})
	if err != nil {
		log.Fatalw("invalid erp configuration", "error", err)
	}
	checks := map[string]handlers.Pinger{"erp": client}

	// --- Session store ---
	codec, err := sessionstore.NewCodec(0)
	if err != nil {
		log.Fatalw("failed to create session codec", "error", err)
	}

	var store session.Store
	switch cfg.Session.Store {
	case "redis":
		rdb, err := sessionstore.NewRedisClient(ctx, sessionstore.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer rdb.Close()

		redisStore := sessionstore.NewRedisStore(rdb, codec, cfg.Session.TTL)
		checks["redis"] = redisStore
		store = redisStore
	default:
		memStore := sessionstore.NewMemoryStore(codec, cfg.Session.TTL)
		memStore.Start(ctx, janitorInterval)
		defer memStore.Stop()
		store = memStore
	}
	log.Infow("session store ready", "store", cfg.Session.Store, "ttl", cfg.Session.TTL)

	// --- Services ---
	analyzer := analysis.NewAnalyzer(client)
	sessions := session.NewService(analyzer, store, metadata.DefaultRegistry(), export.NewService(client))

	jwtService := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		AccessTokenTTL: cfg.JWT.AccessTokenTTL,
	})

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:           log,
		JWTValidator:     jwtService,
		Sessions:         sessions,
		MaterialRequests: analyzer,
		HealthChecks:     checks,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		Version:          version,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
