package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsedash/automation/pkg/models"
)

func contentNode(cfg *models.ContentConfig) *models.Node {
	return &models.Node{ID: "content-1", Type: models.NodeTypeContent, Config: cfg}
}

func TestExecutePostsToGateway(t *testing.T) {
	var received postRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/posts", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"post_id":"post-42"}`))
	}))
	defer server.Close()

	action := NewAction(server.URL, server.Client(), slog.Default())

	event := &models.Event{
		ID:       "evt-1",
		TenantID: "tenant-1",
		Platform: models.PlatformInstagram,
		Type:     models.EventTypeNewComment,
	}
	actx := &models.AccountContext{TenantID: "tenant-1"}

	output, err := action.Execute(context.Background(), contentNode(&models.ContentConfig{
		ContentType: models.ContentTypeText,
		Message:     "Check your DMs!",
	}), event, actx)

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, output["status_code"])
	assert.Equal(t, map[string]any{"post_id": "post-42"}, output["response"])

	assert.Equal(t, "tenant-1", received.TenantID)
	assert.Equal(t, models.PlatformInstagram, received.Platform)
	assert.Equal(t, "Check your DMs!", received.Message)
	assert.Equal(t, "evt-1", received.InReplyTo)
}

func TestExecuteGatewayRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	action := NewAction(server.URL, server.Client(), slog.Default())

	_, err := action.Execute(context.Background(), contentNode(&models.ContentConfig{
		ContentType: models.ContentTypeText,
		Message:     "hello",
	}), nil, nil)

	assert.ErrorIs(t, err, ErrPublishFailed)
}

func TestExecuteRejectsWrongNodeType(t *testing.T) {
	action := NewAction("http://gateway.invalid", nil, slog.Default())

	node := &models.Node{
		ID: "filter-1", Type: models.NodeTypeFilter,
		Config: &models.FilterConfig{Field: "message", Condition: models.ConditionContains, Value: "x"},
	}

	_, err := action.Execute(context.Background(), node, nil, nil)
	assert.Error(t, err)
}
