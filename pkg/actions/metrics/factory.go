package metrics

import (
	"log/slog"

	"github.com/pulsedash/automation/pkg/models"
	"github.com/pulsedash/automation/pkg/protocol"
)

// ActionFactory creates metric reader actions bound to one source.
type ActionFactory struct {
	source Source
}

func NewActionFactory(source Source) *ActionFactory {
	return &ActionFactory{source: source}
}

func (f *ActionFactory) Create(logger *slog.Logger) (protocol.Action, error) {
	return NewAction(f.source, logger), nil
}

func (f *ActionFactory) NodeType() models.NodeType {
	return models.NodeTypeAnalytics
}

func (f *ActionFactory) Name() string {
	return "Metrics Reader"
}

func (f *ActionFactory) Description() string {
	return "Collects the configured account metric over a period and reports it against an optional target."
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"metric": map[string]any{
				"type":        "string",
				"description": "Metric to collect",
				"enum":        []string{"engagement", "reach", "followers", "clicks"},
			},
			"period_days": map[string]any{
				"type":        "integer",
				"description": "Collection window in days",
				"minimum":     1,
			},
			"target": map[string]any{
				"type":        "string",
				"description": "Optional numeric target the value is compared against",
			},
		},
		"required": []string{"metric", "period_days"},
	}
}
