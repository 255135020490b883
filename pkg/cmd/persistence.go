// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/pulsedash/automation/pkg/persistence"
	"github.com/pulsedash/automation/pkg/persistence/file"
	"github.com/pulsedash/automation/pkg/persistence/postgresql"
	"github.com/pulsedash/automation/pkg/persistence/redisq"
)

// NewPersistence creates the persistence backend selected by the database
// URL scheme: postgres://... for PostgreSQL, anything else is treated as a
// file root. A non-empty redis URL moves the continuation queue and event
// deduplication onto Redis while definitions and runs stay in the store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL, redisURL string) persistence.Persistence {
	var base persistence.Persistence

	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create postgres persistence: %w", err))
		}

		base = p
	default:
		base = file.NewPersistence(databaseURL)
	}

	if redisURL == "" {
		return base
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		panic(fmt.Errorf("failed to parse redis URL: %w", err))
	}

	client := redis.NewClient(opts)

	return &redisBackedPersistence{
		Persistence: base,
		queue:       redisq.NewContinuationQueue(client),
		dedup:       redisq.NewEventDedup(client),
	}
}

// redisBackedPersistence overlays Redis continuations and dedup on another
// store.
type redisBackedPersistence struct {
	persistence.Persistence

	queue *redisq.ContinuationQueue
	dedup *redisq.EventDedup
}

func (p *redisBackedPersistence) Continuations() persistence.ContinuationQueue {
	return p.queue
}

func (p *redisBackedPersistence) EventDedup() persistence.EventDedup {
	return p.dedup
}
