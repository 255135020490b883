// Package protocol defines the interfaces and contracts for pluggable
// collaborators: terminal node actions, best-time scheduling and sentiment
// analysis. The engine treats every implementation as a black box with the
// retry and timeout policy applied outside it.
package protocol

import (
	"context"
	"log/slog"

	"github.com/pulsedash/automation/pkg/models"
)

// Action executes the external side effect of a terminal node: publishing
// content or reading analytics. Implementations must be safe for concurrent
// use; the engine may invoke one action for many runs at once.
type Action interface {
	Execute(ctx context.Context, node *models.Node, event *models.Event, actx *models.AccountContext) (map[string]any, error)
}

// ActionFactory creates Action instances for one node type and describes the
// configuration it accepts.
type ActionFactory interface {
	// Create builds an action bound to the given logger.
	Create(logger *slog.Logger) (Action, error)

	// NodeType returns the node type this factory serves.
	NodeType() models.NodeType

	// Name returns a human-readable collaborator name.
	Name() string

	// Description explains what the action does.
	Description() string

	// Schema returns a JSON Schema describing the node config fields the
	// action consumes, for the editor and for payload validation.
	Schema() map[string]any
}
