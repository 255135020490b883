// Package registry holds the action factories available to the engine,
// keyed by the terminal node type they serve.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/pulsedash/automation/pkg/models"
	"github.com/pulsedash/automation/pkg/protocol"
)

type Registry struct {
	logger          *slog.Logger
	actionFactories map[models.NodeType]protocol.ActionFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:          log,
		actionFactories: make(map[models.NodeType]protocol.ActionFactory),
	}
}

func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.NodeType()] = factory
}

// CreateAction builds an action for the given terminal node type.
func (r *Registry) CreateAction(nodeType models.NodeType) (protocol.Action, error) {
	factory, ok := r.actionFactories[nodeType]
	if !ok {
		return nil, fmt.Errorf("no action registered for node type '%s'", nodeType)
	}

	return factory.Create(r.logger.With("module", "action", "node_type", string(nodeType)))
}

// IsActionRegistered checks whether an action serves the node type.
func (r *Registry) IsActionRegistered(nodeType models.NodeType) bool {
	_, exists := r.actionFactories[nodeType]

	return exists
}

// AvailableActions returns the node types with a registered action.
func (r *Registry) AvailableActions() []models.NodeType {
	types := make([]models.NodeType, 0, len(r.actionFactories))
	for nodeType := range r.actionFactories {
		types = append(types, nodeType)
	}

	return types
}

// ActionSchemas returns the JSON Schemas published by each registered
// factory, keyed by node type, for the editor surface.
func (r *Registry) ActionSchemas() map[models.NodeType]map[string]any {
	schemas := make(map[models.NodeType]map[string]any, len(r.actionFactories))
	for nodeType, factory := range r.actionFactories {
		schemas[nodeType] = factory.Schema()
	}

	return schemas
}
