package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var ErrAlreadyRunning = errors.New("scheduler already running")

// Cycler is one evaluation pass; *Evaluator implements it.
type Cycler interface {
	RunCycle(ctx context.Context) (Report, error)
}

// Loop drives a Cycler on a fixed interval from a single goroutine, so two
// cycles never overlap. It is owned by the process entry point and shared by
// reference with whatever reports liveness.
type Loop struct {
	logger   *zap.Logger
	cycler   Cycler
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
}

func NewLoop(logger *zap.Logger, c Cycler, interval time.Duration) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 300 * time.Second
	}
	return &Loop{logger: logger, cycler: c, interval: interval}
}

// Start launches the loop. It does an immediate pass, then one per tick,
// until ctx is cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running.Load() {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	l.running.Store(true)
	go l.run(ctx, l.done)
	return nil
}

// Stop asks the loop to exit and waits for it, or for ctx to expire. A cycle
// already in progress is allowed to finish.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for scheduler: %w", ctx.Err())
	}
}

func (l *Loop) IsRunning() bool { return l.running.Load() }

// Done is closed when the current run exits. Nil before the first Start.
func (l *Loop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer l.running.Store(false)

	l.logger.Info("scheduler_started", zap.Duration("interval", l.interval))
	t := time.NewTicker(l.interval)
	defer t.Stop()

	l.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("scheduler_stopped")
			return
		case <-t.C:
			// both cases may be ready; stop wins
			if ctx.Err() != nil {
				l.logger.Info("scheduler_stopped")
				return
			}
			l.runOnce(ctx)
		}
	}
}

func (l *Loop) runOnce(ctx context.Context) {
	l.logger.Info("cycle_start", zap.Time("at", time.Now()))
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("cycle_panic", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	// Stop must not cut an in-flight send short; the notifier's own timeout
	// bounds how long this can take.
	rep, err := l.cycler.RunCycle(context.WithoutCancel(ctx))
	fields := []zap.Field{
		zap.String("cycle_id", rep.CycleID),
		zap.Int("fixtures", rep.Fixtures),
		zap.Int("acknowledged", rep.Acknowledged),
		zap.Int("due", rep.Due),
		zap.Int("sent", rep.Sent),
		zap.Int("failed", rep.Failed),
		zap.Duration("duration", rep.Duration),
	}
	if rep.DeliveryErr != nil {
		fields = append(fields, zap.NamedError("delivery_errors", rep.DeliveryErr))
	}
	switch {
	case errors.Is(err, ErrPersist):
		l.logger.Error("ledger_persist_failed", append(fields, zap.Error(err))...)
		return
	case err != nil:
		l.logger.Error("cycle_failed", append(fields, zap.Error(err))...)
		return
	}
	l.logger.Info("cycle_complete", fields...)
}
