package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pulsedash/automation/pkg/models"
	"github.com/pulsedash/automation/pkg/persistence"
)

// DefinitionRepository stores workflow definitions with the node and edge
// graphs serialized as JSONB.
type DefinitionRepository struct {
	db *sql.DB
}

func (r *DefinitionRepository) Save(ctx context.Context, def *models.WorkflowDefinition) error {
	nodes, err := json.Marshal(def.Nodes)
	if err != nil {
		return persistence.NewDefinitionError("Save", def.ID, fmt.Errorf("encode nodes: %w", err))
	}

	edges, err := json.Marshal(def.Edges)
	if err != nil {
		return persistence.NewDefinitionError("Save", def.ID, fmt.Errorf("encode edges: %w", err))
	}

	query := `
		INSERT INTO workflow_definitions
			(id, tenant_id, name, description, status, version, group_id, nodes, edges, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			version = EXCLUDED.version,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		def.ID, def.TenantID, def.Name, def.Description, def.Status, def.Version,
		def.GroupID, nodes, edges, def.CreatedAt, def.UpdatedAt)
	if err != nil {
		return persistence.NewDefinitionError("Save", def.ID, err)
	}

	return nil
}

func (r *DefinitionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	query := `
		SELECT id, tenant_id, name, description, status, version, group_id, nodes, edges, created_at, updated_at
		FROM workflow_definitions
		WHERE id = $1
	`

	def, err := scanDefinition(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewDefinitionError("GetByID", id, persistence.ErrDefinitionNotFound)
		}

		return nil, persistence.NewDefinitionError("GetByID", id, err)
	}

	return def, nil
}

func (r *DefinitionRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.WorkflowDefinition, error) {
	query := `
		SELECT id, tenant_id, name, description, status, version, group_id, nodes, edges, created_at, updated_at
		FROM workflow_definitions
		WHERE tenant_id = $1
		ORDER BY created_at
	`

	return r.query(ctx, query, tenantID)
}

func (r *DefinitionRepository) ListActive(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	query := `
		SELECT id, tenant_id, name, description, status, version, group_id, nodes, edges, created_at, updated_at
		FROM workflow_definitions
		WHERE status = $1
		ORDER BY created_at
	`

	return r.query(ctx, query, models.DefinitionStatusActive)
}

func (r *DefinitionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM workflow_definitions WHERE id = $1", id)
	if err != nil {
		return persistence.NewDefinitionError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewDefinitionError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewDefinitionError("Delete", id, persistence.ErrDefinitionNotFound)
	}

	return nil
}

func (r *DefinitionRepository) query(ctx context.Context, query string, args ...any) ([]*models.WorkflowDefinition, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query definitions: %w", err)
	}
	defer rows.Close()

	defs := []*models.WorkflowDefinition{}

	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}

		defs = append(defs, def)
	}

	return defs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (*models.WorkflowDefinition, error) {
	var (
		def   models.WorkflowDefinition
		nodes []byte
		edges []byte
	)

	err := row.Scan(&def.ID, &def.TenantID, &def.Name, &def.Description, &def.Status,
		&def.Version, &def.GroupID, &nodes, &edges, &def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(nodes, &def.Nodes); err != nil {
		return nil, fmt.Errorf("decode nodes: %w", err)
	}

	if err := json.Unmarshal(edges, &def.Edges); err != nil {
		return nil, fmt.Errorf("decode edges: %w", err)
	}

	return &def, nil
}
