// Package periodic runs fixed-period passes.
package periodic

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Pass is one execution of a periodic job. A returned error is logged and the
// loop continues.
type Pass func(ctx context.Context) error

// Task is a named periodic pass.
type Task struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single pass. Zero means the pass gets the loop context.
	Timeout time.Duration
	Pass    Pass

	running atomic.Bool
	runs    atomic.Uint64
}

// Runs returns how many passes have completed.
func (t *Task) Runs() uint64 {
	return t.runs.Load()
}

// Run fires the pass every Interval until ctx is done. Passes run on the
// loop goroutine, so a slow pass delays the next tick rather than
// overlapping it. Ticks that arrive while a pass is running are dropped by
// the ticker.
func (t *Task) Run(ctx context.Context, log *slog.Logger) error {
	log = log.With("pass", t.Name)
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	log.Debug("periodic pass started", "interval", t.Interval)
	for {
		select {
		case <-ctx.Done():
			log.Debug("periodic pass stopped")
			return nil
		case <-ticker.C:
			t.fire(ctx, log)
		}
	}
}

// Fire runs the pass once unless one is already in progress. It reports
// whether the pass ran.
func (t *Task) Fire(ctx context.Context, log *slog.Logger) bool {
	return t.fire(ctx, log.With("pass", t.Name))
}

func (t *Task) fire(ctx context.Context, log *slog.Logger) bool {
	if !t.running.CompareAndSwap(false, true) {
		log.Warn("previous pass still running, skipping")
		return false
	}
	defer t.running.Store(false)

	passCtx := ctx
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	if err := t.Pass(passCtx); err != nil {
		log.Warn("periodic pass failed", "error", err)
	}
	t.runs.Add(1)
	return true
}
