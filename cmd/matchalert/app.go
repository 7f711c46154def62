package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hamed0406/matchalert/internal/config"
	"github.com/hamed0406/matchalert/internal/ledger"
	"github.com/hamed0406/matchalert/internal/ledger/postgres"
	"github.com/hamed0406/matchalert/internal/notify"
)

// openLedger picks the postgres ledger when a DSN is configured, the JSON
// file otherwise. The returned func releases it.
func openLedger(ctx context.Context, cfg config.Config, logger *zap.Logger) (ledger.Store, func(), error) {
	if cfg.LedgerDSN == "" {
		return ledger.NewFile(cfg.SentAlertsFile), func() {}, nil
	}
	pg, err := postgres.New(ctx, cfg.LedgerDSN, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres ledger: %w", err)
	}
	return pg, pg.Close, nil
}

func newTelegram(cfg config.Config) *notify.Telegram {
	return notify.NewTelegram(notify.TelegramConfig{
		APIBase:       cfg.TelegramAPI,
		Token:         cfg.BotToken,
		ChatID:        cfg.ChatID,
		Timeout:       cfg.NotifyTimeout,
		RatePerSecond: cfg.NotifyRate,
	})
}

func ledgerKind(cfg config.Config) string {
	if cfg.LedgerDSN != "" {
		return "postgres"
	}
	return "file:" + cfg.SentAlertsFile
}
