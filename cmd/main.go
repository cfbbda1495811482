package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/logger/pkg/logger"
	"github.com/cwrk-planet/voice-service/config"
	"github.com/cwrk-planet/voice-service/internal/gateway"
	"github.com/cwrk-planet/voice-service/internal/platform"
	"github.com/cwrk-planet/voice-service/internal/postgres"
	"github.com/cwrk-planet/voice-service/internal/service"
	"github.com/cwrk-planet/voice-service/internal/store"
	httpx "github.com/cwrk-planet/voice-service/internal/transport/http"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting voice-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- state store ---
	var st store.Store
	switch cfg.Storage.Backend {
	case "postgres":
		pool, err := postgres.New(ctx, cfg.Storage.DSN)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()
		repo := postgres.NewStateRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("schema: %v", err)
		}
		st = repo
	default:
		fs, err := store.NewFileStore(cfg.Storage.Path)
		if err != nil {
			log.Fatalf("file store: %v", err)
		}
		st = fs
	}

	// --- platform & services ---
	pc := platform.NewRESTClient(cfg.Platform.APIBase, cfg.Platform.Token)
	sched := service.NewCleanupScheduler()
	defer sched.Stop()

	svc := service.NewLifecycleService(service.Settings{
		Zones:         cfg.ZoneConfigs(),
		Keepalive:     cfg.KeepaliveDuration(),
		OwnershipLock: cfg.OwnershipLockDuration(),
		BoosterRole:   cfg.Lifecycle.BoosterRole,
	}, st, pc, sched)

	// после рестарта чистим призраков и доводим брошенные комнаты
	if err := svc.Reconcile(ctx); err != nil {
		slog.Error("reconcile:", slog.Any("err", err))
	}

	// --- gateway feed ---
	gw := gateway.NewClient(cfg.Platform.GatewayURL, cfg.Platform.Token, svc)

	// --- HTTP ---
	handler := httpx.NewHandler(svc)
	router := httpx.NewRouter(handler, cfg.HTTP.AllowedOrigins)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		slog.Info("gateway connect", "url", cfg.Platform.GatewayURL)
		if err := gw.Run(ctx); err != nil && ctx.Err() == nil {
			errCh <- err
		}
	}()

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
