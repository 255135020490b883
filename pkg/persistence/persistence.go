// Package persistence provides the data storage abstraction for workflow
// definitions, run history, continuations and event deduplication.
package persistence

import (
	"context"
	"time"

	"github.com/pulsedash/automation/pkg/models"
)

// DefinitionRepository stores workflow definition versions, retrievable by id
// and by tenant.
type DefinitionRepository interface {
	Save(ctx context.Context, def *models.WorkflowDefinition) error
	GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*models.WorkflowDefinition, error)
	ListActive(ctx context.Context) ([]*models.WorkflowDefinition, error)
	Delete(ctx context.Context, id string) error
}

// RunRepository is the durable run store. Outcome history is append-only;
// dashboards read it through GetRun and ListRuns.
type RunRepository interface {
	SaveRun(ctx context.Context, run *models.Run) error
	AppendOutcome(ctx context.Context, runID string, outcome models.NodeOutcome) error
	UpdateStatus(ctx context.Context, runID string, status models.RunStatus, cause string) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, definitionID string) ([]*models.Run, error)
}

// ContinuationQueue holds suspended branch markers ordered by fire time. The
// sweep pops due entries; cancelling a run removes its entries so a later
// sweep is a no-op.
type ContinuationQueue interface {
	Push(ctx context.Context, c models.Continuation) error
	PopDue(ctx context.Context, now time.Time, limit int) ([]models.Continuation, error)

	// RemoveByRun removes and returns all entries of a run, so the caller
	// can mark the suspended branches as skipped.
	RemoveByRun(ctx context.Context, runID string) ([]models.Continuation, error)

	// CountByRun reports how many branches of a run are still suspended.
	CountByRun(ctx context.Context, runID string) (int, error)
}

// EventDedup records processed external event IDs so that at-least-once
// webhook delivery starts at most one run per event.
type EventDedup interface {
	// MarkProcessed returns false when the event ID was already recorded.
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
}

type Persistence interface {
	Definitions() DefinitionRepository
	Runs() RunRepository
	Continuations() ContinuationQueue
	EventDedup() EventDedup

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
