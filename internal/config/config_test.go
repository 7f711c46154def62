package config

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "8168882419:AAtestTOKEN_value-1")
	t.Setenv("TELEGRAM_CHAT_ID", "28388796")
}

func TestFromEnv_ParsesAndDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("ADDR", "")
	t.Setenv("PORT", "9090")
	t.Setenv("CHECK_INTERVAL_SECONDS", "60")
	t.Setenv("TIME_TOLERANCE_MINUTES", "5")
	t.Setenv("ALERT_TIMEZONE", "UTC")
	t.Setenv("METRICS_API_KEYS", "k1, k2,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChatID != 28388796 || cfg.Addr != ":9090" {
		t.Fatalf("chat/addr wrong: %+v", cfg)
	}
	if cfg.CheckInterval != time.Minute || cfg.Tolerance != 5*time.Minute {
		t.Fatalf("tunables wrong: interval=%s tol=%s", cfg.CheckInterval, cfg.Tolerance)
	}
	if cfg.NotifyTimeout != 10*time.Second || cfg.NotifyRate != 1 {
		t.Fatalf("notify defaults wrong: %+v", cfg)
	}
	if cfg.FixturesFile != "./fixtures_alert_over25.json" || cfg.SentAlertsFile != "./sent_alerts.json" {
		t.Fatalf("file defaults wrong: %+v", cfg)
	}
	if len(cfg.MetricsKeys) != 2 || cfg.MetricsKeys[1] != "k2" {
		t.Fatalf("metrics keys wrong: %v", cfg.MetricsKeys)
	}
	if cfg.AlertLocation != time.UTC {
		t.Fatalf("location: %v", cfg.AlertLocation)
	}
}

func TestFromEnv_DefaultTunables(t *testing.T) {
	setRequired(t)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.CheckInterval != 300*time.Second || cfg.Tolerance != 2*time.Minute {
		t.Fatalf("defaults wrong: interval=%s tol=%s", cfg.CheckInterval, cfg.Tolerance)
	}
}

func TestFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")

	if _, err := FromEnv(); err != nil {
		t.Fatalf("FromEnv must tolerate absent credentials: %v", err)
	}
	_, err := Load()
	if err == nil {
		t.Fatalf("expected error")
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Fatalf("want both problems reported, got %d: %v", n, err)
	}
}

func TestFromEnv_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"TELEGRAM_BOT_TOKEN":     "not-a-token",
		"TELEGRAM_CHAT_ID":       "@channel",
		"CHECK_INTERVAL_SECONDS": "0",
		"TIME_TOLERANCE_MINUTES": "two",
		"NOTIFY_TIMEOUT_SECONDS": "-1",
		"NOTIFY_RATE_PER_SECOND": "fast",
		"ALERT_TIMEZONE":         "Mars/Olympus",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, val)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), key) {
				t.Fatalf("want error naming %s, got %v", key, err)
			}
		})
	}
}
