package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v3"
)

const DefaultTelegramAPI = tele.DefaultApiURL

type TelegramConfig struct {
	APIBase       string // defaults to DefaultTelegramAPI
	Token         string
	ChatID        int64
	ParseMode     tele.ParseMode // defaults to Markdown
	Timeout       time.Duration  // per request, defaults to 10s
	RatePerSecond float64        // <= 0 disables pacing
}

// Telegram posts messages to one chat through the Bot API. The bot is built
// offline: it never polls for updates and makes no call until Send or Ping.
// It never retries; a failed send is reported and left to the caller.
type Telegram struct {
	bot       *tele.Bot
	token     string
	chat      tele.ChatID
	parseMode tele.ParseMode
	limiter   *rate.Limiter
	initErr   error
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultTelegramAPI
	}
	if cfg.ParseMode == "" {
		cfg.ParseMode = tele.ModeMarkdown
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	t := &Telegram{
		token:     cfg.Token,
		chat:      tele.ChatID(cfg.ChatID),
		parseMode: cfg.ParseMode,
	}
	if cfg.RatePerSecond > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	if cfg.Token == "" {
		return t
	}
	t.bot, t.initErr = tele.NewBot(tele.Settings{
		URL:     strings.TrimRight(cfg.APIBase, "/"),
		Token:   cfg.Token,
		Client:  &http.Client{Timeout: cfg.Timeout},
		Offline: true,
	})
	return t
}

// Send delivers text to the configured chat. ctx bounds the pacing wait and
// gates the call; the client timeout bounds the request itself.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if err := t.ready(); err != nil {
		return err
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Send(t.chat, text, &tele.SendOptions{ParseMode: t.parseMode})
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", t.redact(err))
	}
	return nil
}

// Ping calls getMe and returns the bot username.
func (t *Telegram) Ping(ctx context.Context) (string, error) {
	if err := t.ready(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := t.bot.Raw("getMe", nil)
	if err != nil {
		return "", fmt.Errorf("telegram getMe: %w", t.redact(err))
	}
	var resp struct {
		Result tele.User `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("telegram getMe: %w", err)
	}
	return resp.Result.Username, nil
}

func (t *Telegram) ready() error {
	if t == nil || t.token == "" {
		return errors.New("telegram disabled")
	}
	if t.initErr != nil {
		return fmt.Errorf("telegram init: %w", t.redact(t.initErr))
	}
	return nil
}

// redact strips the bot token from errors. Transport errors embed the
// request URL, and the token is part of its path.
func (t *Telegram) redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return &url.Error{
			Op:  ue.Op,
			URL: strings.ReplaceAll(ue.URL, t.token, "<token>"),
			Err: ue.Err,
		}
	}
	if strings.Contains(err.Error(), t.token) {
		return errors.New(strings.ReplaceAll(err.Error(), t.token, "<token>"))
	}
	return err
}

var _ Notifier = (*Telegram)(nil)
var _ Notifier = (*Console)(nil)
