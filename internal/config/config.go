package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
)

type Config struct {
	// Telegram destination
	BotToken       string
	ChatID         int64
	TelegramAPI    string
	NotifyTimeout  time.Duration
	NotifyRate     float64 // messages per second; <= 0 disables pacing
	AlertTitle     string
	AlertLocation  *time.Location
	AlertTimezone  string
	FixturesFile   string
	SentAlertsFile string
	LedgerDSN      string // postgres ledger when set

	CheckInterval time.Duration
	Tolerance     time.Duration

	Addr        string // health listener, e.g. ":8000"
	LogDir      string
	LogLevel    string
	HealthRPM   int
	HealthBurst int
	MetricsKeys []string
}

var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// FromEnv reads the environment. Every problem found is returned together so
// a misconfigured deploy fails once with the full list. Absent Telegram
// credentials are not an error here; see RequireTelegram.
func FromEnv() (Config, error) {
	var errs error

	cfg := Config{
		TelegramAPI:    envOr("TELEGRAM_API_BASE", "https://api.telegram.org"),
		AlertTitle:     envOr("ALERT_TITLE", "ALERT OVER 2.5"),
		AlertTimezone:  strings.TrimSpace(os.Getenv("ALERT_TIMEZONE")),
		FixturesFile:   envOr("FIXTURES_FILE", "./fixtures_alert_over25.json"),
		SentAlertsFile: envOr("SENT_ALERTS_FILE", "./sent_alerts.json"),
		LedgerDSN:      os.Getenv("LEDGER_DATABASE_URL"),
		LogDir:         envOr("LOG_DIR", "logs"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
	}

	// Bind address; PORT is what most PaaS hosts inject.
	cfg.Addr = os.Getenv("ADDR")
	if cfg.Addr == "" {
		if p := os.Getenv("PORT"); p != "" {
			cfg.Addr = ":" + p
		} else {
			cfg.Addr = ":8000"
		}
	}

	cfg.BotToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	if cfg.BotToken != "" && !tokenPattern.MatchString(cfg.BotToken) {
		errs = multierr.Append(errs, errors.New("TELEGRAM_BOT_TOKEN is not a bot token (<id>:<secret>)"))
	}
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id == 0 {
			errs = multierr.Append(errs, fmt.Errorf("TELEGRAM_CHAT_ID must be a non-zero integer, got %q", v))
		}
		cfg.ChatID = id
	}

	var (
		interval  = envInt("CHECK_INTERVAL_SECONDS", 300, &errs)
		tolerance = envInt("TIME_TOLERANCE_MINUTES", 2, &errs)
		timeout   = envInt("NOTIFY_TIMEOUT_SECONDS", 10, &errs)
	)
	if interval <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("CHECK_INTERVAL_SECONDS must be > 0, got %d", interval))
	}
	if tolerance < 0 {
		errs = multierr.Append(errs, fmt.Errorf("TIME_TOLERANCE_MINUTES must be >= 0, got %d", tolerance))
	}
	if timeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("NOTIFY_TIMEOUT_SECONDS must be > 0, got %d", timeout))
	}
	cfg.CheckInterval = time.Duration(interval) * time.Second
	cfg.Tolerance = time.Duration(tolerance) * time.Minute
	cfg.NotifyTimeout = time.Duration(timeout) * time.Second

	cfg.NotifyRate = 1
	if v := os.Getenv("NOTIFY_RATE_PER_SECOND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("NOTIFY_RATE_PER_SECOND: %w", err))
		}
		cfg.NotifyRate = f
	}

	cfg.HealthRPM = envInt("HEALTH_RPM", 600, &errs)
	cfg.HealthBurst = envInt("HEALTH_BURST", 60, &errs)
	cfg.MetricsKeys = envList("METRICS_API_KEYS")

	cfg.AlertLocation = time.Local
	if cfg.AlertTimezone != "" {
		loc, err := time.LoadLocation(cfg.AlertTimezone)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("ALERT_TIMEZONE: %w", err))
		} else {
			cfg.AlertLocation = loc
		}
	}

	return cfg, errs
}

// RequireTelegram reports missing delivery credentials. Anything that sends
// real messages calls it before starting.
func (c Config) RequireTelegram() error {
	var errs error
	if c.BotToken == "" {
		errs = multierr.Append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if c.ChatID == 0 {
		errs = multierr.Append(errs, errors.New("TELEGRAM_CHAT_ID is required"))
	}
	return errs
}

// Load is FromEnv plus RequireTelegram.
func Load() (Config, error) {
	cfg, err := FromEnv()
	return cfg, multierr.Append(err, cfg.RequireTelegram())
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// envInt returns fallback when key is unset; a set but unparsable value is
// recorded in errs.
func envInt(key string, fallback int, errs *error) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = multierr.Append(*errs, fmt.Errorf("%s must be an integer, got %q", key, v))
		return fallback
	}
	return n
}

func envList(key string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
