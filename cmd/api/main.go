package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/your-org/lpr/internal/api"
	"github.com/your-org/lpr/internal/api/ws"
	"github.com/your-org/lpr/internal/catalog"
	"github.com/your-org/lpr/internal/config"
	"github.com/your-org/lpr/internal/detect"
	"github.com/your-org/lpr/internal/observability"
	"github.com/your-org/lpr/internal/queue"
	"github.com/your-org/lpr/internal/runs"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting LPR API service", "port", cfg.Server.Port)

	cat := catalog.Builtin()
	if cfg.Catalog.Path != "" {
		cat, err = catalog.Load(cfg.Catalog.Path)
		if err != nil {
			slog.Error("load model catalog", "error", err)
			os.Exit(1)
		}
	}
	if cfg.Simulation.DefaultModel != "" {
		if _, ok := cat.Lookup(cfg.Simulation.DefaultModel); !ok {
			slog.Warn("default model not in catalog", "model", cfg.Simulation.DefaultModel)
		}
	}
	slog.Info("model catalog ready", "models", len(cat.Models()), "path", cfg.Catalog.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Without NATS the hub is fed directly. With NATS every instance
	// publishes and relays what the broker delivers back to its clients.
	notifiers := detect.Notifiers{observability.LogNotifier{Logger: slog.Default()}}
	var ping func() error

	if cfg.NATS.URL != "" {
		publisher, err := queue.NewPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			slog.Error("connect to nats", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()

		subscriber, err := queue.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Error("create notification subscriber", "error", err)
			os.Exit(1)
		}
		defer subscriber.Close()

		if err := subscriber.Subscribe(ctx, cfg.NATS.SubjectPrefix, hub.Notify); err != nil {
			slog.Error("subscribe notifications", "error", err)
			os.Exit(1)
		}

		notifiers = append(notifiers, publisher)
		ping = publisher.Ping
	} else {
		notifiers = append(notifiers, hub)
	}

	sim := detect.New(
		detect.WithCatalog(cat),
		detect.WithNotifier(notifiers),
	)

	manager := runs.NewManager(ctx, sim)
	go manager.PruneEvery(ctx, cfg.Simulation.PruneInterval, cfg.Simulation.RunTTL)

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		Catalog:        cat,
		Runs:           manager,
		Hub:            hub,
		Ping:           ping,
		DefaultModel:   cfg.Simulation.DefaultModel,
		MaxUploadBytes: cfg.Simulation.MaxUploadBytes,
		WaitTimeout:    cfg.Simulation.WaitTimeout,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  2 * cfg.Server.ReadTimeout,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Pending runs are canceled with the manager context.
	cancel()

	slog.Info("API server stopped")
}
