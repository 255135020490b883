package registry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsedash/automation/pkg/models"
	"github.com/pulsedash/automation/pkg/protocol"
)

type noopAction struct{}

func (noopAction) Execute(_ context.Context, _ *models.Node, _ *models.Event, _ *models.AccountContext) (map[string]any, error) {
	return map[string]any{}, nil
}

type noopFactory struct {
	nodeType models.NodeType
}

func (f *noopFactory) Create(_ *slog.Logger) (protocol.Action, error) { return noopAction{}, nil }
func (f *noopFactory) NodeType() models.NodeType                      { return f.nodeType }
func (f *noopFactory) Name() string                                   { return "noop" }
func (f *noopFactory) Description() string                            { return "does nothing" }
func (f *noopFactory) Schema() map[string]any {
	return map[string]any{"type": "object"}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(slog.Default())
	reg.RegisterAction(&noopFactory{nodeType: models.NodeTypeContent})
	reg.RegisterAction(&noopFactory{nodeType: models.NodeTypeAnalytics})

	t.Run("create registered action", func(t *testing.T) {
		action, err := reg.CreateAction(models.NodeTypeContent)

		require.NoError(t, err)
		assert.NotNil(t, action)
	})

	t.Run("create unregistered action", func(t *testing.T) {
		_, err := reg.CreateAction(models.NodeTypeSchedule)
		assert.Error(t, err)
	})

	t.Run("is registered", func(t *testing.T) {
		assert.True(t, reg.IsActionRegistered(models.NodeTypeContent))
		assert.False(t, reg.IsActionRegistered(models.NodeTypeFilter))
	})

	t.Run("available actions", func(t *testing.T) {
		assert.ElementsMatch(t,
			[]models.NodeType{models.NodeTypeContent, models.NodeTypeAnalytics},
			reg.AvailableActions())
	})

	t.Run("schemas keyed by node type", func(t *testing.T) {
		schemas := reg.ActionSchemas()

		require.Len(t, schemas, 2)
		assert.Equal(t, map[string]any{"type": "object"}, schemas[models.NodeTypeContent])
	})

	t.Run("re-registering replaces the factory", func(t *testing.T) {
		replacement := &noopFactory{nodeType: models.NodeTypeContent}
		reg.RegisterAction(replacement)

		assert.Len(t, reg.AvailableActions(), 2)
	})
}
