package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/pulsedash/automation/pkg/models"
	"github.com/pulsedash/automation/pkg/persistence"
	"github.com/pulsedash/automation/pkg/validation"
)

// ErrDefinitionNotFound is returned when a definition is not found.
var ErrDefinitionNotFound = persistence.ErrDefinitionNotFound

// Definitions is the definition lifecycle service: CRUD on drafts, the
// validation gate and the activation state machine.
type Definitions struct {
	persistence persistence.Persistence
	validate    *validator.Validate
}

func NewDefinitions(persistence persistence.Persistence) *Definitions {
	return &Definitions{
		persistence: persistence,
		validate:    validator.New(),
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Definitions) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := s.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// CreateDefinitionRequest carries the editable fields of a new draft.
type CreateDefinitionRequest struct {
	TenantID    string         `json:"tenant_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Nodes       []*models.Node `json:"nodes"`
	Edges       []*models.Edge `json:"edges"`
}

// Create stores a new draft definition.
func (s *Definitions) Create(ctx context.Context, req CreateDefinitionRequest) (*models.WorkflowDefinition, error) {
	if req.TenantID == "" {
		return nil, ErrTenantRequired
	}

	if req.Name == "" {
		return nil, ErrNameRequired
	}

	def := models.NewWorkflowDefinition(req.TenantID, req.Name)
	def.Description = req.Description

	for _, node := range req.Nodes {
		if err := def.AddNode(node); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
		}
	}

	for _, edge := range req.Edges {
		if err := def.AddEdge(edge.SourceNodeID, edge.TargetNodeID); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
		}
	}

	if err := s.validate.Struct(def); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}

	if err := s.persistence.Definitions().Save(ctx, def); err != nil {
		return nil, fmt.Errorf("save definition: %w", err)
	}

	return def, nil
}

// UpdateDefinitionRequest carries a full graph replacement for a draft.
type UpdateDefinitionRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Nodes       []*models.Node `json:"nodes"`
	Edges       []*models.Edge `json:"edges"`
}

// Update replaces the graph of a draft definition. Non-draft definitions
// reject the edit; callers clone a new version instead.
func (s *Definitions) Update(ctx context.Context, id string, req UpdateDefinitionRequest) (*models.WorkflowDefinition, error) {
	def, err := s.persistence.Definitions().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !def.Editable() {
		return nil, fmt.Errorf("definition %s is %s: %w", id, def.Status, ErrCannotModifyActive)
	}

	if req.Name != "" {
		def.Name = req.Name
	}

	def.Description = req.Description
	def.Nodes = []*models.Node{}
	def.Edges = []*models.Edge{}

	for _, node := range req.Nodes {
		if err := def.AddNode(node); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
		}
	}

	for _, edge := range req.Edges {
		if err := def.AddEdge(edge.SourceNodeID, edge.TargetNodeID); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
		}
	}

	if err := s.validate.Struct(def); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}

	if err := s.persistence.Definitions().Save(ctx, def); err != nil {
		return nil, fmt.Errorf("save definition: %w", err)
	}

	return def, nil
}

// Get retrieves one definition by ID.
func (s *Definitions) Get(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	return s.persistence.Definitions().GetByID(ctx, id)
}

// List retrieves all definitions of a tenant.
func (s *Definitions) List(ctx context.Context, tenantID string) ([]*models.WorkflowDefinition, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}

	return s.persistence.Definitions().ListByTenant(ctx, tenantID)
}

// Validate runs the structural validator without changing any state.
func (s *Definitions) Validate(ctx context.Context, id string) (*validation.Result, error) {
	def, err := s.persistence.Definitions().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := validation.Validate(def)

	return &result, nil
}

// Activate gates the draft through validation and transitions it to active.
// The returned violations are non-nil exactly when activation was blocked.
func (s *Definitions) Activate(ctx context.Context, id string) ([]validation.Violation, error) {
	def, err := s.persistence.Definitions().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := validation.Validate(def)
	if !result.Valid() {
		return result.Violations, fmt.Errorf("definition %s: %w", id, ErrDefinitionInvalid)
	}

	if err := def.Transition(models.DefinitionStatusActive); err != nil {
		return nil, err
	}

	if err := s.persistence.Definitions().Save(ctx, def); err != nil {
		return nil, fmt.Errorf("save definition: %w", err)
	}

	return nil, nil
}

// Pause transitions an active definition to paused.
func (s *Definitions) Pause(ctx context.Context, id string) error {
	return s.transition(ctx, id, models.DefinitionStatusPaused)
}

// Resume transitions a paused definition back to active. The graph was
// already validated on first activation and is immutable since.
func (s *Definitions) Resume(ctx context.Context, id string) error {
	return s.transition(ctx, id, models.DefinitionStatusActive)
}

// Archive retires a definition. Archived definitions stay readable for run
// history.
func (s *Definitions) Archive(ctx context.Context, id string) error {
	return s.transition(ctx, id, models.DefinitionStatusArchived)
}

// Clone creates a new draft version of the definition in the same group.
func (s *Definitions) Clone(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	def, err := s.persistence.Definitions().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	clone := def.CloneDraft()

	if err := s.persistence.Definitions().Save(ctx, clone); err != nil {
		return nil, fmt.Errorf("save cloned definition: %w", err)
	}

	return clone, nil
}

// Delete removes a definition. Active definitions must be archived first.
func (s *Definitions) Delete(ctx context.Context, id string) error {
	def, err := s.persistence.Definitions().GetByID(ctx, id)
	if err != nil {
		return err
	}

	if def.Status == models.DefinitionStatusActive {
		return fmt.Errorf("definition %s: %w", id, ErrCannotDeleteActive)
	}

	return s.persistence.Definitions().Delete(ctx, id)
}

// GetRun retrieves one run by ID.
func (s *Definitions) GetRun(ctx context.Context, runID string) (*models.Run, error) {
	return s.persistence.Runs().GetRun(ctx, runID)
}

// ListRuns retrieves the run history of a definition.
func (s *Definitions) ListRuns(ctx context.Context, definitionID string) ([]*models.Run, error) {
	return s.persistence.Runs().ListRuns(ctx, definitionID)
}

func (s *Definitions) transition(ctx context.Context, id string, target models.DefinitionStatus) error {
	def, err := s.persistence.Definitions().GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := def.Transition(target); err != nil {
		return err
	}

	if err := s.persistence.Definitions().Save(ctx, def); err != nil {
		return fmt.Errorf("save definition: %w", err)
	}

	return nil
}
