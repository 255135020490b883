package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pulsedash/automation/pkg/models"
	"github.com/pulsedash/automation/pkg/persistence"
)

// DefinitionRepository stores one JSON file per workflow definition version.
type DefinitionRepository struct {
	persistence *Persistence
}

func (r *DefinitionRepository) Save(ctx context.Context, def *models.WorkflowDefinition) error {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	dir, err := r.persistence.dir("definitions")
	if err != nil {
		return persistence.NewDefinitionError("Save", def.ID, err)
	}

	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return persistence.NewDefinitionError("Save", def.ID, err)
	}

	path := filepath.Join(dir, def.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return persistence.NewDefinitionError("Save", def.ID, err)
	}

	return nil
}

func (r *DefinitionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	dir, err := r.persistence.dir("definitions")
	if err != nil {
		return nil, persistence.NewDefinitionError("GetByID", id, err)
	}

	data, err := os.ReadFile(filepath.Join(dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewDefinitionError("GetByID", id, persistence.ErrDefinitionNotFound)
		}

		return nil, persistence.NewDefinitionError("GetByID", id, err)
	}

	var def models.WorkflowDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, persistence.NewDefinitionError("GetByID", id, fmt.Errorf("decode definition: %w", err))
	}

	return &def, nil
}

func (r *DefinitionRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.WorkflowDefinition, error) {
	all, err := r.list(ctx)
	if err != nil {
		return nil, err
	}

	defs := make([]*models.WorkflowDefinition, 0, len(all))

	for _, def := range all {
		if def.TenantID == tenantID {
			defs = append(defs, def)
		}
	}

	return defs, nil
}

func (r *DefinitionRepository) ListActive(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	all, err := r.list(ctx)
	if err != nil {
		return nil, err
	}

	defs := make([]*models.WorkflowDefinition, 0, len(all))

	for _, def := range all {
		if def.Status == models.DefinitionStatusActive {
			defs = append(defs, def)
		}
	}

	return defs, nil
}

func (r *DefinitionRepository) Delete(ctx context.Context, id string) error {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	dir, err := r.persistence.dir("definitions")
	if err != nil {
		return persistence.NewDefinitionError("Delete", id, err)
	}

	if err := os.Remove(filepath.Join(dir, id+".json")); err != nil {
		if os.IsNotExist(err) {
			return persistence.NewDefinitionError("Delete", id, persistence.ErrDefinitionNotFound)
		}

		return persistence.NewDefinitionError("Delete", id, err)
	}

	return nil
}

func (r *DefinitionRepository) list(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	dir, err := r.persistence.dir("definitions")
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list definition files: %w", err)
	}

	defs := make([]*models.WorkflowDefinition, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		id := entry.Name()[:len(entry.Name())-len(".json")]

		def, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool {
		return defs[i].CreatedAt.Before(defs[j].CreatedAt)
	})

	return defs, nil
}
