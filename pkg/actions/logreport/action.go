// Package logreport provides a development collaborator that logs instead of
// calling a platform gateway. Register it for the content node type when no
// gateway is configured.
package logreport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pulsedash/automation/pkg/models"
	"github.com/pulsedash/automation/pkg/protocol"
)

type Action struct {
	logger *slog.Logger
}

func NewAction(logger *slog.Logger) *Action {
	return &Action{logger: logger}
}

func (a *Action) Execute(ctx context.Context, node *models.Node, event *models.Event, actx *models.AccountContext) (map[string]any, error) {
	cfg, ok := node.Config.(*models.ContentConfig)
	if !ok {
		return nil, fmt.Errorf("node %s is not a content node", node.ID)
	}

	eventID := ""
	if event != nil {
		eventID = event.ID
	}

	a.logger.InfoContext(ctx, "Would publish content",
		"node_id", node.ID,
		"content_type", string(cfg.ContentType),
		"message", cfg.Message,
		"in_reply_to", eventID)

	return map[string]any{
		"published": false,
		"dry_run":   true,
	}, nil
}

// ActionFactory creates log reporter actions.
type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (f *ActionFactory) Create(logger *slog.Logger) (protocol.Action, error) {
	return NewAction(logger), nil
}

func (f *ActionFactory) NodeType() models.NodeType {
	return models.NodeTypeContent
}

func (f *ActionFactory) Name() string {
	return "Log Reporter"
}

func (f *ActionFactory) Description() string {
	return "Logs the content that would be published. Development stand-in for the platform gateway."
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content_type": map[string]any{
				"type": "string",
				"enum": []string{"text", "image", "video", "link"},
			},
			"message": map[string]any{
				"type": "string",
			},
		},
		"required": []string{"content_type", "message"},
	}
}
