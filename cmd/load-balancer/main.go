package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatgrid/internal/config"
	"chatgrid/internal/lb"
	"chatgrid/internal/observability"
)

func main() {
	cfg, err := config.LoadBalancer()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	observability.InitLogger(logLevel, logFormat)

	slog.Info("starting load balancer",
		slog.Int("backends", len(cfg.Backends)),
		slog.String("sticky_cookie", cfg.StickyCookieName))

	server := lb.NewServer(cfg)
	defer server.Stop()

	proberCtx, proberCancel := context.WithCancel(context.Background())
	defer proberCancel()

	prober := lb.NewProber(server.Pool(), server.Registry(), cfg.HealthCheckInterval, cfg.HealthCheckTimeout)
	go prober.Run(proberCtx)
	slog.Info("health prober started",
		slog.String("interval", cfg.HealthCheckInterval.String()),
		slog.String("timeout", cfg.HealthCheckTimeout.String()))

	srv := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: server.Handler(),
		// No write timeout: proxied WebSocket sessions outlive any sane value
		// and hijacked connections manage their own deadlines.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("load balancer listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down load balancer")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	proberCancel()

	slog.Info("load balancer stopped gracefully")
}
