package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/pulsedash/automation/pkg/persistence"
)

const (
	defaultSweepInterval = 5 * time.Second
	defaultSweepBatch    = 100
)

// Sweeper is the timer loop that resumes suspended branches. Each tick pops
// the continuations due by now and hands them to the engine. No goroutine
// ever waits on an individual fire time.
type Sweeper struct {
	engine   *Engine
	queue    persistence.ContinuationQueue
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

func NewSweeper(engine *Engine, queue persistence.ContinuationQueue, interval time.Duration, batch int, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	if batch <= 0 {
		batch = defaultSweepBatch
	}

	return &Sweeper{
		engine:   engine,
		queue:    queue,
		interval: interval,
		batch:    batch,
		logger:   logger.With("module", "sweeper"),
	}
}

// Start runs the sweep loop until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "Continuation sweeper started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Continuation sweeper stopped")

			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep pops and resumes one batch of due continuations.
func (s *Sweeper) Sweep(ctx context.Context) {
	due, err := s.queue.PopDue(ctx, s.engine.now(), s.batch)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to pop due continuations", "error", err)

		return
	}

	for _, c := range due {
		if err := s.engine.ResumeContinuation(ctx, c); err != nil {
			s.logger.ErrorContext(ctx, "Failed to resume continuation",
				"run_id", c.RunID, "node_id", c.NodeID, "error", err)
		}
	}

	if len(due) > 0 {
		s.logger.InfoContext(ctx, "Resumed due continuations", "count", len(due))
	}
}
