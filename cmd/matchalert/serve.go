package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/matchalert/internal/config"
	"github.com/hamed0406/matchalert/internal/fixtures"
	"github.com/hamed0406/matchalert/internal/httpapi"
	"github.com/hamed0406/matchalert/internal/logging"
	"github.com/hamed0406/matchalert/internal/metrics"
	"github.com/hamed0406/matchalert/internal/scheduler"
)

func serveCmd() *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the alert loop and the health endpoint until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("configuration: %w", err)
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("interval") {
				if interval <= 0 {
					return fmt.Errorf("--interval must be > 0")
				}
				cfg.CheckInterval = interval
			}
			return serve(cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "health listener address (overrides ADDR)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "check interval (overrides CHECK_INTERVAL_SECONDS)")
	return cmd
}

func serve(cfg config.Config) error {
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("ledger_open_failed", zap.Error(err))
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	ev := scheduler.NewEvaluator(
		logger,
		fixtures.NewFileSource(cfg.FixturesFile, cfg.AlertLocation),
		store,
		newTelegram(cfg),
		m,
		scheduler.EvaluatorConfig{
			Tolerance: cfg.Tolerance,
			Title:     cfg.AlertTitle,
			Location:  cfg.AlertLocation,
		},
	)
	loop := scheduler.NewLoop(logger, ev, cfg.CheckInterval)

	api := httpapi.NewServer(logger, loop, reg)
	api.MetricsKeys = cfg.MetricsKeys
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(cfg.HealthRPM, cfg.HealthBurst),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("matchalert_start",
		zap.String("addr", cfg.Addr),
		zap.String("fixtures_file", cfg.FixturesFile),
		zap.String("ledger", ledgerKind(cfg)),
		zap.Duration("interval", cfg.CheckInterval),
		zap.Duration("tolerance", cfg.Tolerance),
		zap.String("timezone", cfg.AlertLocation.String()),
	)

	if err := loop.Start(ctx); err != nil {
		return err
	}

	srvErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown_requested")
	case runErr = <-srvErr:
		logger.Error("http_server_failed", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http_shutdown_error", zap.Error(err))
	}

	// An in-flight cycle gets up to one interval to finish.
	loopCtx, cancelLoop := context.WithTimeout(context.Background(), cfg.CheckInterval)
	defer cancelLoop()
	if err := loop.Stop(loopCtx); err != nil {
		logger.Warn("scheduler_stop_timeout", zap.Error(err))
	}
	logger.Info("matchalert_stopped")
	return runErr
}
