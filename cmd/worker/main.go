// Command worker audits run notifications published by API instances:
// it logs every notification and exports per-kind counters.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/lpr/internal/config"
	"github.com/your-org/lpr/internal/models"
	"github.com/your-org/lpr/internal/observability"
	"github.com/your-org/lpr/internal/queue"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	metricsAddr := flag.String("metrics-addr", ":8082", "metrics listen address")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	if cfg.NATS.URL == "" {
		slog.Error("nats.url is required for the notification worker")
		os.Exit(1)
	}

	slog.Info("starting LPR notification worker", "subject_prefix", cfg.NATS.SubjectPrefix)

	subscriber, err := queue.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		slog.Error("create subscriber", "error", err)
		os.Exit(1)
	}
	defer subscriber.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	audit := observability.LogNotifier{Logger: slog.Default().With("component", "audit")}
	err = subscriber.Subscribe(ctx, cfg.NATS.SubjectPrefix, func(n models.Notification) {
		observability.NotificationsReceived.WithLabelValues(string(n.Kind), n.ModelID).Inc()
		audit.Notify(n)
	})
	if err != nil {
		slog.Error("subscribe notifications", "error", err)
		os.Exit(1)
	}

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		slog.Info("worker metrics listening", "addr", *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			slog.Error("metrics server error", "error", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	cancel()
	slog.Info("worker stopped")
}
