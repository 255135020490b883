package publisher

import (
	"log/slog"
	"net/http"

	"github.com/pulsedash/automation/pkg/models"
	"github.com/pulsedash/automation/pkg/protocol"
)

// ActionFactory creates content publisher actions bound to one platform
// gateway URL.
type ActionFactory struct {
	baseURL string
	client  *http.Client
}

func NewActionFactory(baseURL string, client *http.Client) *ActionFactory {
	return &ActionFactory{
		baseURL: baseURL,
		client:  client,
	}
}

func (f *ActionFactory) Create(logger *slog.Logger) (protocol.Action, error) {
	return NewAction(f.baseURL, f.client, logger), nil
}

func (f *ActionFactory) NodeType() models.NodeType {
	return models.NodeTypeContent
}

func (f *ActionFactory) Name() string {
	return "Content Publisher"
}

func (f *ActionFactory) Description() string {
	return "Posts the configured content to the platform gateway, optionally in reply to the triggering event."
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content_type": map[string]any{
				"type":        "string",
				"description": "Kind of content to publish",
				"enum":        []string{"text", "image", "video", "link"},
			},
			"message": map[string]any{
				"type":        "string",
				"description": "Post body or reply text",
			},
			"media_url": map[string]any{
				"type":        "string",
				"description": "Media attachment URL for image and video content",
			},
			"link_url": map[string]any{
				"type":        "string",
				"description": "Link target for link content",
			},
		},
		"required": []string{"content_type", "message"},
	}
}
