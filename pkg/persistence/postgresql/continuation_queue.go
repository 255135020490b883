package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pulsedash/automation/pkg/models"
)

// ContinuationQueue stores suspended branch markers as rows indexed by fire
// time. PopDue deletes and returns due rows in one statement so concurrent
// sweepers never resume the same branch twice.
type ContinuationQueue struct {
	db *sql.DB
}

func (q *ContinuationQueue) Push(ctx context.Context, c models.Continuation) error {
	query := `
		INSERT INTO continuations (run_id, node_id, definition_id, fire_at, degraded)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id, node_id) DO UPDATE SET
			fire_at = EXCLUDED.fire_at,
			degraded = EXCLUDED.degraded
	`

	_, err := q.db.ExecContext(ctx, query, c.RunID, c.NodeID, c.DefinitionID, c.FireAt, c.Degraded)
	if err != nil {
		return fmt.Errorf("failed to push continuation: %w", err)
	}

	return nil
}

func (q *ContinuationQueue) PopDue(ctx context.Context, now time.Time, limit int) ([]models.Continuation, error) {
	query := `
		DELETE FROM continuations
		WHERE (run_id, node_id) IN (
			SELECT run_id, node_id FROM continuations
			WHERE fire_at <= $1
			ORDER BY fire_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING run_id, node_id, definition_id, fire_at, degraded
	`

	rows, err := q.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to pop continuations: %w", err)
	}
	defer rows.Close()

	due := []models.Continuation{}

	for rows.Next() {
		var c models.Continuation
		if err := rows.Scan(&c.RunID, &c.NodeID, &c.DefinitionID, &c.FireAt, &c.Degraded); err != nil {
			return nil, err
		}

		due = append(due, c)
	}

	return due, rows.Err()
}

func (q *ContinuationQueue) RemoveByRun(ctx context.Context, runID string) ([]models.Continuation, error) {
	query := `
		DELETE FROM continuations
		WHERE run_id = $1
		RETURNING run_id, node_id, definition_id, fire_at, degraded
	`

	rows, err := q.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove continuations: %w", err)
	}
	defer rows.Close()

	removed := []models.Continuation{}

	for rows.Next() {
		var c models.Continuation
		if err := rows.Scan(&c.RunID, &c.NodeID, &c.DefinitionID, &c.FireAt, &c.Degraded); err != nil {
			return nil, err
		}

		removed = append(removed, c)
	}

	return removed, rows.Err()
}

func (q *ContinuationQueue) CountByRun(ctx context.Context, runID string) (int, error) {
	var count int

	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM continuations WHERE run_id = $1", runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count continuations: %w", err)
	}

	return count, nil
}

// EventDedup records processed event IDs. The insert is the check: a
// conflict means another worker already claimed the event.
type EventDedup struct {
	db *sql.DB
}

func (d *EventDedup) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	result, err := d.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id) VALUES ($1) ON CONFLICT (event_id) DO NOTHING", eventID)
	if err != nil {
		return false, fmt.Errorf("failed to mark event processed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
