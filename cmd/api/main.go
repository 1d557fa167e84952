package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docaidkit/medkit/internal/auth"
	"github.com/docaidkit/medkit/internal/config"
	"github.com/docaidkit/medkit/internal/domain/account"
	httpx "github.com/docaidkit/medkit/internal/http"
	"github.com/docaidkit/medkit/internal/observability"
	"github.com/docaidkit/medkit/internal/prefs"
	"github.com/docaidkit/medkit/internal/proxy"
	"github.com/docaidkit/medkit/internal/storage"
	"github.com/docaidkit/medkit/internal/store"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// local development convenience; absence is fine
	_ = godotenv.Load()

	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	// tracing is optional; without an endpoint we skip the exporter
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), "medkit-api", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = shutdownTracer(ctx)
			}()
		}
	}

	registry := prometheus.NewRegistry()
	prom := observability.NewProm(registry)

	// storage backend selection
	st, ping, closeStorage, err := buildStorage(cfg)

	if err != nil {
		log.Error("storage init failed", "backend", cfg.StorageBackend, "err", err)
		os.Exit(1)
	}
	defer closeStorage()

	users := store.NewUsersStore(st, prom)
	sessions := store.NewSessionsStore(st, prom)

	// bootstrap accounts
	seedCtx, cancelSeed := config.WithTimeout(5 * time.Second)
	err = users.SeedDefaults(seedCtx, []store.SeedAccount{
		{Name: cfg.AdminName, Email: cfg.AdminEmail, Password: cfg.AdminPassword, Role: account.RoleAdmin},
		{Name: cfg.DoctorName, Email: cfg.DoctorEmail, Password: cfg.DoctorPassword, Role: account.RoleDoctor},
	})
	cancelSeed()

	if err != nil {
		log.Error("seeding bootstrap accounts failed", "err", err)
		os.Exit(1)
	}

	authSvc := auth.NewService(users, sessions, log)

	prefsStore := prefs.NewStore(st)

	// log preference changes as they are published
	prefsCh, cancelPrefs := prefsStore.Subscribe()
	defer cancelPrefs()

	go func() {
		for p := range prefsCh {
			log.Info("preferences changed", "language", p.Language, "theme", p.Theme)
		}
	}()

	chat := proxy.NewChatRelay(cfg.ChatUpstreamURL, prom)
	drugs := proxy.NewDrugsClient(cfg.DrugAPIURL, cfg.DrugDescriptionURL, prom)
	imaging := proxy.NewProtectedPredictor(
		proxy.NewImagingClient(cfg.ImagingURLs, prom),
		proxy.ProtectedPredictorConfig{},
	)

	router := httpx.NewRouter(log, httpx.Deps{
		Cfg:      cfg,
		Auth:     authSvc,
		Users:    users,
		Prefs:    prefsStore,
		Chat:     chat,
		Drugs:    drugs,
		Imaging:  imaging,
		Prom:     prom,
		Registry: registry,
		Ping:     ping,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.StorageBackend)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

// buildStorage picks the configured backend. The returned ping feeds the
// readiness probe and may be nil.
func buildStorage(cfg config.Config) (storage.Storage, func() error, func(), error) {
	switch cfg.StorageBackend {
	case "redis":
		rs := storage.NewRedisStorage(storage.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		ping := func() error {
			ctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()
			return rs.Ping(ctx)
		}

		return rs, ping, func() { _ = rs.Close() }, nil

	case "postgres":
		pool, err := storage.NewPool(cfg.DBURL)

		if err != nil {
			return nil, nil, nil, err
		}

		ping := func() error {
			ctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()
			return pool.Ping(ctx)
		}

		return storage.NewPostgresStorage(pool), ping, pool.Close, nil

	case "memory":
		return storage.NewMemoryStorage(), nil, func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
