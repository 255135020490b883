package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pulsedash/automation/pkg/models"
	"github.com/pulsedash/automation/pkg/persistence"
)

// RunRepository stores one JSON file per run. Appends rewrite the file under
// the shared lock, preserving the append-only view of outcome history.
type RunRepository struct {
	persistence *Persistence
}

func (r *RunRepository) SaveRun(ctx context.Context, run *models.Run) error {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	return r.write(run)
}

func (r *RunRepository) AppendOutcome(ctx context.Context, runID string, outcome models.NodeOutcome) error {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	run, err := r.read(runID)
	if err != nil {
		return persistence.NewRunError("AppendOutcome", runID, err)
	}

	if run.Status.Terminal() {
		return persistence.NewRunError("AppendOutcome", runID, persistence.ErrRunTerminal)
	}

	run.Outcomes = append(run.Outcomes, outcome)

	return r.write(run)
}

func (r *RunRepository) UpdateStatus(ctx context.Context, runID string, status models.RunStatus, cause string) error {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	run, err := r.read(runID)
	if err != nil {
		return persistence.NewRunError("UpdateStatus", runID, err)
	}

	if run.Status.Terminal() {
		return persistence.NewRunError("UpdateStatus", runID, persistence.ErrRunTerminal)
	}

	run.Status = status
	run.FailureCause = cause

	if status.Terminal() {
		now := time.Now().UTC()
		run.FinishedAt = &now
	}

	return r.write(run)
}

func (r *RunRepository) GetRun(ctx context.Context, id string) (*models.Run, error) {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	run, err := r.read(id)
	if err != nil {
		return nil, persistence.NewRunError("GetRun", id, err)
	}

	return run, nil
}

func (r *RunRepository) ListRuns(ctx context.Context, definitionID string) ([]*models.Run, error) {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	dir, err := r.persistence.dir("runs")
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list run files: %w", err)
	}

	runs := make([]*models.Run, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		run, err := r.read(entry.Name()[:len(entry.Name())-len(".json")])
		if err != nil {
			return nil, err
		}

		if run.DefinitionID == definitionID {
			runs = append(runs, run)
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})

	return runs, nil
}

func (r *RunRepository) read(id string) (*models.Run, error) {
	dir, err := r.persistence.dir("runs")
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrRunNotFound
		}

		return nil, err
	}

	var run models.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}

	return &run, nil
}

func (r *RunRepository) write(run *models.Run) error {
	dir, err := r.persistence.dir("runs")
	if err != nil {
		return persistence.NewRunError("Save", run.ID, err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return persistence.NewRunError("Save", run.ID, err)
	}

	if err := os.WriteFile(filepath.Join(dir, run.ID+".json"), data, 0o644); err != nil {
		return persistence.NewRunError("Save", run.ID, err)
	}

	return nil
}
