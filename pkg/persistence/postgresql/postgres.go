// Package postgresql provides the PostgreSQL persistence implementation.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/pulsedash/automation/pkg/persistence"
	"github.com/pulsedash/automation/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence backed by PostgreSQL.
// Definitions and runs store their graph and outcome payloads as JSONB;
// continuations and dedup markers are plain indexed rows.
type Persistence struct {
	db            *sql.DB
	logger        *slog.Logger
	definitions   *DefinitionRepository
	runs          *RunRepository
	continuations *ContinuationQueue
	dedup         *EventDedup
}

// NewPersistence creates a PostgreSQL persistence, pings the database and
// runs pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Persistence{db: db, logger: logger}
	p.definitions = &DefinitionRepository{db: db}
	p.runs = &RunRepository{db: db}
	p.continuations = &ContinuationQueue{db: db}
	p.dedup = &EventDedup{db: db}

	manager := sqlbase.NewMigrationManager(logger, db, migrations())
	if err := manager.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return p, nil
}

func (p *Persistence) Definitions() persistence.DefinitionRepository {
	return p.definitions
}

func (p *Persistence) Runs() persistence.RunRepository {
	return p.runs
}

func (p *Persistence) Continuations() persistence.ContinuationQueue {
	return p.continuations
}

func (p *Persistence) EventDedup() persistence.EventDedup {
	return p.dedup
}

// HealthCheck verifies database connectivity.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection pool.
func (p *Persistence) Close(_ context.Context) error {
	return p.db.Close()
}
