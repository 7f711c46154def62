package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/matchalert/internal/config"
	"github.com/hamed0406/matchalert/internal/fixtures"
)

var errPreflight = errors.New("preflight failed")

func preflightCmd() *cobra.Command {
	var skipTelegram bool
	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check configuration, fixtures, ledger and Telegram credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return preflight(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), skipTelegram)
		},
	}
	cmd.Flags().BoolVar(&skipTelegram, "skip-telegram", false, "do not call the Telegram API")
	return cmd
}

func preflight(ctx context.Context, stdout, stderr io.Writer, skipTelegram bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	failed := false
	fail := func(msg string) {
		fmt.Fprintln(stderr, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	cfg, err := config.FromEnv()
	if err != nil {
		fail(err.Error())
		return errPreflight
	}
	if err := cfg.RequireTelegram(); err != nil {
		fail(err.Error())
	} else {
		ok(fmt.Sprintf("TELEGRAM_CHAT_ID=%d", cfg.ChatID))
	}

	if strings.Contains(os.Getenv("METRICS_API_KEYS"), " ") {
		warn("METRICS_API_KEYS contains spaces; use comma-separated with no spaces, e.g. key1,key2")
	}
	if len(cfg.MetricsKeys) == 0 {
		warn("METRICS_API_KEYS empty; /metrics is open to anyone who can reach ADDR.")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	list, err := fixtures.NewFileSource(cfg.FixturesFile, cfg.AlertLocation).Load(ctx)
	switch {
	case err != nil:
		fail(err.Error())
	case len(list) == 0:
		warn(cfg.FixturesFile + " holds no fixtures; nothing will ever be sent.")
	default:
		ok(fmt.Sprintf("%s: %d fixtures", cfg.FixturesFile, len(list)))
	}

	store, closeStore, err := openLedger(ctx, cfg, zap.NewNop())
	if err != nil {
		fail(err.Error())
	} else {
		defer closeStore()
		if set, err := store.Load(ctx); err != nil {
			fail(err.Error())
		} else {
			ok(fmt.Sprintf("ledger %s: %d acknowledged", ledgerKind(cfg), set.Len()))
		}
	}

	if skipTelegram {
		warn("Telegram check skipped.")
	} else if cfg.BotToken != "" {
		name, err := newTelegram(cfg).Ping(ctx)
		if err != nil {
			fail("telegram getMe: " + err.Error())
		} else {
			ok("telegram bot @" + name)
		}
	}

	if failed {
		return errPreflight
	}
	ok("preflight passed")
	return nil
}
