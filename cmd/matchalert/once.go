package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/matchalert/internal/config"
	"github.com/hamed0406/matchalert/internal/domain"
	"github.com/hamed0406/matchalert/internal/fixtures"
	"github.com/hamed0406/matchalert/internal/logging"
	"github.com/hamed0406/matchalert/internal/metrics"
	"github.com/hamed0406/matchalert/internal/notify"
	"github.com/hamed0406/matchalert/internal/scheduler"
)

func onceCmd() *cobra.Command {
	var (
		dryRun bool
		at     string
	)
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single evaluation cycle and exit",
		Long: "Run a single evaluation cycle and exit.\n\n" +
			"With --dry-run alerts are printed to stdout instead of Telegram and\n" +
			"the ledger is read but never written, so no credentials are needed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return fmt.Errorf("configuration: %w", err)
			}
			if !dryRun {
				if err := cfg.RequireTelegram(); err != nil {
					return fmt.Errorf("configuration: %w", err)
				}
			}

			logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store, closeStore, err := openLedger(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			var n notify.Notifier = newTelegram(cfg)
			if dryRun {
				n = notify.NewConsole(cmd.OutOrStdout())
			}
			ev := scheduler.NewEvaluator(
				logger,
				fixtures.NewFileSource(cfg.FixturesFile, cfg.AlertLocation),
				store,
				n,
				metrics.New(prometheus.NewRegistry()),
				scheduler.EvaluatorConfig{
					Tolerance: cfg.Tolerance,
					Title:     cfg.AlertTitle,
					Location:  cfg.AlertLocation,
					DryRun:    dryRun,
				},
			)
			if at != "" {
				now, err := domain.ParseTimestamp(at, cfg.AlertLocation)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				ev.Now = func() time.Time { return now }
			}

			rep, err := ev.RunCycle(ctx)
			fmt.Fprintf(cmd.ErrOrStderr(),
				"cycle %s: fixtures=%d acknowledged=%d due=%d sent=%d failed=%d (%s)\n",
				rep.CycleID, rep.Fixtures, rep.Acknowledged, rep.Due, rep.Sent, rep.Failed,
				rep.Duration.Round(time.Millisecond))
			if err != nil {
				if errors.Is(err, scheduler.ErrPersist) {
					logger.Error("ledger_persist_failed", zap.String("cycle_id", rep.CycleID), zap.Error(err))
				}
				return err
			}
			return rep.DeliveryErr
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print alerts instead of sending; do not write the ledger")
	cmd.Flags().StringVar(&at, "at", "", "evaluate as if the clock read this timestamp")
	return cmd
}
