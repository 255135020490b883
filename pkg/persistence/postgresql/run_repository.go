package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pulsedash/automation/pkg/models"
	"github.com/pulsedash/automation/pkg/persistence"
)

// RunRepository stores runs with their outcome history as JSONB. Outcome
// appends and status updates re-check the terminal guard inside the
// transaction so a cancelled run can never grow new history.
type RunRepository struct {
	db *sql.DB
}

func (r *RunRepository) SaveRun(ctx context.Context, run *models.Run) error {
	outcomes, err := json.Marshal(run.Outcomes)
	if err != nil {
		return persistence.NewRunError("SaveRun", run.ID, fmt.Errorf("encode outcomes: %w", err))
	}

	var triggerEvent []byte

	if run.TriggerEvent != nil {
		triggerEvent, err = json.Marshal(run.TriggerEvent)
		if err != nil {
			return persistence.NewRunError("SaveRun", run.ID, fmt.Errorf("encode trigger event: %w", err))
		}
	}

	query := `
		INSERT INTO workflow_runs
			(id, definition_id, definition_version, tenant_id, origin, trigger_event_id,
			 trigger_event, trigger_node_id, status, outcomes, failure_cause, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			outcomes = EXCLUDED.outcomes,
			failure_cause = EXCLUDED.failure_cause,
			finished_at = EXCLUDED.finished_at
	`

	_, err = r.db.ExecContext(ctx, query,
		run.ID, run.DefinitionID, run.DefinitionVersion, run.TenantID, run.Origin,
		run.TriggerEventID, triggerEvent, run.TriggerNodeID, run.Status, outcomes,
		run.FailureCause, run.StartedAt, run.FinishedAt)
	if err != nil {
		return persistence.NewRunError("SaveRun", run.ID, err)
	}

	return nil
}

func (r *RunRepository) AppendOutcome(ctx context.Context, runID string, outcome models.NodeOutcome) error {
	encoded, err := json.Marshal(outcome)
	if err != nil {
		return persistence.NewRunError("AppendOutcome", runID, fmt.Errorf("encode outcome: %w", err))
	}

	query := `
		UPDATE workflow_runs
		SET outcomes = outcomes || $2::jsonb
		WHERE id = $1 AND status NOT IN ('completed', 'failed', 'cancelled')
	`

	result, err := r.db.ExecContext(ctx, query, runID, encoded)
	if err != nil {
		return persistence.NewRunError("AppendOutcome", runID, err)
	}

	return r.checkGuarded(ctx, "AppendOutcome", runID, result)
}

func (r *RunRepository) UpdateStatus(ctx context.Context, runID string, status models.RunStatus, cause string) error {
	var finishedAt *time.Time

	if status.Terminal() {
		now := time.Now().UTC()
		finishedAt = &now
	}

	query := `
		UPDATE workflow_runs
		SET status = $2, failure_cause = $3, finished_at = COALESCE($4, finished_at)
		WHERE id = $1 AND status NOT IN ('completed', 'failed', 'cancelled')
	`

	result, err := r.db.ExecContext(ctx, query, runID, status, cause, finishedAt)
	if err != nil {
		return persistence.NewRunError("UpdateStatus", runID, err)
	}

	return r.checkGuarded(ctx, "UpdateStatus", runID, result)
}

func (r *RunRepository) GetRun(ctx context.Context, id string) (*models.Run, error) {
	query := `
		SELECT id, definition_id, definition_version, tenant_id, origin, trigger_event_id,
			trigger_event, trigger_node_id, status, outcomes, failure_cause, started_at, finished_at
		FROM workflow_runs
		WHERE id = $1
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRunError("GetRun", id, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewRunError("GetRun", id, err)
	}

	return run, nil
}

func (r *RunRepository) ListRuns(ctx context.Context, definitionID string) ([]*models.Run, error) {
	query := `
		SELECT id, definition_id, definition_version, tenant_id, origin, trigger_event_id,
			trigger_event, trigger_node_id, status, outcomes, failure_cause, started_at, finished_at
		FROM workflow_runs
		WHERE definition_id = $1
		ORDER BY started_at
	`

	rows, err := r.db.QueryContext(ctx, query, definitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.Run{}

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// checkGuarded distinguishes a missing run from a terminal one when the
// guarded update touched no rows.
func (r *RunRepository) checkGuarded(ctx context.Context, op, runID string, result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewRunError(op, runID, err)
	}

	if affected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM workflow_runs WHERE id = $1)", runID).Scan(&exists); err != nil {
		return persistence.NewRunError(op, runID, err)
	}

	if !exists {
		return persistence.NewRunError(op, runID, persistence.ErrRunNotFound)
	}

	return persistence.NewRunError(op, runID, persistence.ErrRunTerminal)
}

func scanRun(row rowScanner) (*models.Run, error) {
	var (
		run          models.Run
		outcomes     []byte
		triggerEvent []byte
	)

	err := row.Scan(&run.ID, &run.DefinitionID, &run.DefinitionVersion, &run.TenantID,
		&run.Origin, &run.TriggerEventID, &triggerEvent, &run.TriggerNodeID, &run.Status,
		&outcomes, &run.FailureCause, &run.StartedAt, &run.FinishedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(outcomes, &run.Outcomes); err != nil {
		return nil, fmt.Errorf("decode outcomes: %w", err)
	}

	if len(triggerEvent) > 0 {
		run.TriggerEvent = &models.Event{}
		if err := json.Unmarshal(triggerEvent, run.TriggerEvent); err != nil {
			return nil, fmt.Errorf("decode trigger event: %w", err)
		}
	}

	return &run, nil
}
