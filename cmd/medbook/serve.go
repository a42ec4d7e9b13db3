package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"medbook/internal/api"
	"medbook/internal/booking"
	"medbook/internal/i18n"
	"medbook/internal/metrics"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the booking API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger
	cfg := a.cfg

	if err := a.watchCatalog(ctx); err != nil {
		logger.Error().Err(err).Msg("catalog watch failed, using built-in catalog")
	}

	lang, err := language.Parse(cfg.Server.DefaultLanguage)
	if err != nil {
		lang = i18n.English
	}

	server := api.NewServer(api.Deps{
		Catalog:           a.catalog,
		Store:             a.store,
		Booking:           a.service,
		Sessions:          booking.NewSessionStore(cfg.SessionTimeout()),
		Logger:            logger,
		DefaultLanguage:   lang,
		RequestsPerSecond: rateLimit(cfg.RateLimit.Enabled, cfg.RateLimit.RequestsPerSecond),
		Burst:             cfg.RateLimit.Burst,
	})
	server.StartCleanup(ctx, time.Minute)

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, a.healthChecks(), &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if svc := a.backupService(); svc != nil && cfg.Backup.Enabled {
		go svc.Start(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().
		Str("addr", cfg.Server.Address).
		Str("storage", cfg.Storage.Backend).
		Str("timezone", a.location.String()).
		Msg("medbook API started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	logger.Info().Msg("medbook API stopped")
	return nil
}

func rateLimit(enabled bool, rps float64) float64 {
	if !enabled {
		return 0
	}
	return rps
}

func (a *app) healthChecks() []api.Check {
	var checks []api.Check
	if a.storage.db != nil {
		checks = append(checks, api.Check{Name: "db", Ping: a.storage.db.PingContext})
	}
	if a.storage.rdb != nil {
		rdb := a.storage.rdb
		checks = append(checks, api.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	return checks
}

func startHealthServer(ctx context.Context, port int, checks []api.Check, logger *zerolog.Logger) {
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: api.HealthHandler(checks...), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
