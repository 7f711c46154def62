package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/matchalert/internal/domain"
	"github.com/hamed0406/matchalert/internal/fixtures"
	"github.com/hamed0406/matchalert/internal/ledger"
	"github.com/hamed0406/matchalert/internal/metrics"
	"github.com/hamed0406/matchalert/internal/notify"
)

const DefaultTitle = "ALERT OVER 2.5"

// ErrPersist wraps ledger write failures. Fixtures sent in that cycle will be
// announced again next cycle unless the write recovers.
var ErrPersist = errors.New("persist ledger")

type EvaluatorConfig struct {
	Tolerance time.Duration  // symmetric window around alert time
	Title     string         // headline of every message
	Location  *time.Location // clock used for HH:MM in messages
	DryRun    bool           // skip persisting the ledger
}

// Evaluator runs one check-and-notify pass over the fixture source.
type Evaluator struct {
	logger   *zap.Logger
	fixtures fixtures.Source
	ledger   ledger.Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
	cfg      EvaluatorConfig

	// Now is the clock; tests replace it.
	Now func() time.Time
}

func NewEvaluator(
	logger *zap.Logger,
	src fixtures.Source,
	store ledger.Store,
	notifier notify.Notifier,
	m *metrics.Metrics,
	cfg EvaluatorConfig,
) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Tolerance < 0 {
		cfg.Tolerance = -cfg.Tolerance
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Evaluator{
		logger:   logger,
		fixtures: src,
		ledger:   store,
		notifier: notifier,
		metrics:  m,
		cfg:      cfg,
		Now:      time.Now,
	}
}

// Report summarises one cycle.
type Report struct {
	CycleID      string
	Fixtures     int
	Acknowledged int // skipped because already in the ledger
	Due          int
	Sent         int
	Failed       int
	DeliveryErr  error // every failed send, combined
	Duration     time.Duration
}

// RunCycle loads the ledger and fixtures, notifies every due fixture not yet
// acknowledged, and persists the ledger once. A load failure aborts the cycle
// before any send and without touching the persisted ledger. A failed send
// only leaves that fixture unacknowledged; the others still go out.
func (e *Evaluator) RunCycle(ctx context.Context) (rep Report, err error) {
	start := time.Now()
	rep.CycleID = uuid.NewString()
	log := e.logger.With(zap.String("cycle_id", rep.CycleID))
	defer func() {
		rep.Duration = time.Since(start)
		e.metrics.ObserveCycle(err, rep.Duration)
	}()

	sent, err := e.ledger.Load(ctx)
	if err != nil {
		return rep, fmt.Errorf("load ledger: %w", err)
	}
	list, err := e.fixtures.Load(ctx)
	if err != nil {
		return rep, fmt.Errorf("load fixtures: %w", err)
	}
	rep.Fixtures = len(list)

	now := e.Now()
	for _, f := range list {
		if sent.Has(f.MatchID) {
			rep.Acknowledged++
			continue
		}
		if !IsDue(now, f.AlertAt, e.cfg.Tolerance) {
			continue
		}
		rep.Due++

		sendErr := e.notifier.Send(ctx, FormatMessage(e.cfg.Title, f, e.cfg.Location))
		e.metrics.Delivery(sendErr)
		if sendErr != nil {
			rep.Failed++
			rep.DeliveryErr = multierr.Append(rep.DeliveryErr,
				fmt.Errorf("match %s: %w", f.MatchID, sendErr))
			log.Warn("delivery_failed",
				zap.Stringer("match_id", f.MatchID),
				zap.Time("alert_at", f.AlertAt),
				zap.Error(sendErr),
			)
			continue
		}
		sent.Add(f.MatchID)
		rep.Sent++
		log.Info("alert_sent",
			zap.Stringer("match_id", f.MatchID),
			zap.String("home_team", f.HomeTeam),
			zap.String("away_team", f.AwayTeam),
			zap.Time("alert_at", f.AlertAt),
		)
	}

	e.metrics.LedgerSize(sent.Len())
	if e.cfg.DryRun {
		return rep, nil
	}
	if err := e.ledger.Save(ctx, sent); err != nil {
		return rep, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return rep, nil
}

// IsDue reports whether now lies within tol of at, bounds included.
func IsDue(now, at time.Time, tol time.Duration) bool {
	d := now.Sub(at)
	if d < 0 {
		d = -d
	}
	return d <= tol
}

// FormatMessage renders the Telegram Markdown text for one fixture.
func FormatMessage(title string, f domain.Fixture, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return fmt.Sprintf("🔥 *%s*\n\n*%s* vs *%s*\n%s\n\n⏱ %s",
		escapeMarkdown(title), escapeMarkdown(f.HomeTeam), escapeMarkdown(f.AwayTeam),
		escapeMarkdown(f.LeagueName), f.AlertAt.In(loc).Format("15:04"))
}

// Telegram's legacy Markdown rejects the whole message on an unbalanced
// marker, so names like "Team_B" must be escaped.
var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }
