// Package watch runs the digest pipeline on a schedule, either a fixed
// interval or a daily clock time, until the context is cancelled.
package watch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/id/uuid"
)

// Runner executes one digest pass.
type Runner interface {
	RunOnce(ctx context.Context) (int, error)
}

// Pinger announces watcher startup. Optional.
type Pinger interface {
	PushStartup(ctx context.Context, interval time.Duration) error
}

// Watcher polls the pipeline on a schedule. A failed round is logged and
// the loop keeps going; only context cancellation stops it.
type Watcher struct {
	runner   Runner
	pinger   Pinger
	interval time.Duration
	logger   *zap.Logger
	ids      *uuid.Generator
	now      func() time.Time

	// next yields the wait before the following round; immediate fires
	// the first round without waiting.
	next      func(now time.Time) time.Duration
	immediate bool
}

// New builds an interval Watcher. The first round fires immediately.
// pinger may be nil.
func New(runner Runner, pinger Pinger, interval time.Duration, logger *zap.Logger) *Watcher {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	w := newWatcher(runner, pinger, interval, logger)
	w.next = func(time.Time) time.Duration { return interval }
	w.immediate = true
	return w
}

// NewDaily builds a Watcher that runs once per day at the given local clock
// time, waiting for the next occurrence before the first round.
func NewDaily(runner Runner, pinger Pinger, hour, minute int, logger *zap.Logger) *Watcher {
	w := newWatcher(runner, pinger, 24*time.Hour, logger)
	w.next = func(now time.Time) time.Duration { return untilClock(now, hour, minute) }
	return w
}

func newWatcher(runner Runner, pinger Pinger, interval time.Duration, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		runner:   runner,
		pinger:   pinger,
		interval: interval,
		logger:   logger,
		ids:      uuid.New(),
		now:      time.Now,
	}
}

// ParseClock parses an "HH:MM" daily schedule string.
func ParseClock(s string) (hour, minute int, err error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("parse schedule %q: %w", s, err)
	}
	return parsed.Hour(), parsed.Minute(), nil
}

// untilClock returns the wait until the next occurrence of hour:minute in
// now's location. A time that already passed today lands on tomorrow.
func untilClock(now time.Time, hour, minute int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watch loop starting", zap.Duration("interval", w.interval))

	if w.pinger != nil {
		if err := w.pinger.PushStartup(ctx, w.interval); err != nil {
			w.logger.Warn("startup notification failed", zap.Error(err))
		}
	}

	first := time.Duration(0)
	if !w.immediate {
		first = w.next(w.now())
		w.logger.Info("waiting for first scheduled round", zap.Duration("wait", first))
	}
	timer := time.NewTimer(first)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch loop stopping", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-timer.C:
		}

		w.round(ctx)

		timer.Reset(w.next(w.now()))
	}
}

func (w *Watcher) round(ctx context.Context) {
	log := w.logger.With(zap.String("round_id", w.ids.NewID()))
	log.Info("round starting")

	published, err := w.runner.RunOnce(ctx)
	switch {
	case err != nil:
		log.Error("round failed", zap.Error(err))
	case published == 0:
		log.Info("round finished, nothing new")
	default:
		log.Info("round finished", zap.Int("published", published))
	}
}
