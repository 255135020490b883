// Package publisher provides the HTTP content publisher collaborator for
// content nodes: it posts the configured content to the platform gateway.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/pulsedash/automation/pkg/models"
)

// ErrPublishFailed is returned when the platform gateway rejects a post.
var ErrPublishFailed = errors.New("content publish failed")

// Action posts content node payloads to the platform gateway. One instance
// serves many concurrent runs; it holds no per-run state.
type Action struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// postRequest is the gateway wire format for a publish call.
type postRequest struct {
	TenantID    string             `json:"tenant_id"`
	Platform    models.Platform    `json:"platform"`
	ContentType models.ContentType `json:"content_type"`
	Message     string             `json:"message"`
	MediaURL    string             `json:"media_url,omitempty"`
	LinkURL     string             `json:"link_url,omitempty"`
	InReplyTo   string             `json:"in_reply_to,omitempty"`
}

func NewAction(baseURL string, client *http.Client, logger *slog.Logger) *Action {
	if client == nil {
		client = http.DefaultClient
	}

	return &Action{
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}
}

func (a *Action) Execute(ctx context.Context, node *models.Node, event *models.Event, actx *models.AccountContext) (map[string]any, error) {
	cfg, ok := node.Config.(*models.ContentConfig)
	if !ok {
		return nil, fmt.Errorf("node %s is not a content node", node.ID)
	}

	payload := postRequest{
		ContentType: cfg.ContentType,
		Message:     cfg.Message,
		MediaURL:    cfg.MediaURL,
		LinkURL:     cfg.LinkURL,
	}

	if actx != nil {
		payload.TenantID = actx.TenantID
	}

	if event != nil {
		payload.Platform = event.Platform
		payload.InReplyTo = event.ID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/posts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build publish request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("publish content: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read publish response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: gateway returned %d: %s", ErrPublishFailed, resp.StatusCode, string(responseBody))
	}

	result := map[string]any{
		"status_code": resp.StatusCode,
	}

	var decoded map[string]any
	if err := json.Unmarshal(responseBody, &decoded); err == nil {
		result["response"] = decoded
	}

	a.logger.InfoContext(ctx, "Content published",
		"node_id", node.ID, "content_type", string(cfg.ContentType), "status_code", resp.StatusCode)

	return result, nil
}
