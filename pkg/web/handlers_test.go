package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsedash/automation/pkg/engine"
	"github.com/pulsedash/automation/pkg/eventbus"
	"github.com/pulsedash/automation/pkg/ingest"
	"github.com/pulsedash/automation/pkg/models"
	"github.com/pulsedash/automation/pkg/persistence/file"
	"github.com/pulsedash/automation/pkg/registry"
	"github.com/pulsedash/automation/pkg/schedule"
	"github.com/pulsedash/automation/pkg/services"
	"github.com/pulsedash/automation/pkg/web"
)

type nullPublisher struct{}

func (nullPublisher) Publish(_ context.Context, _ string, _ eventbus.Event) error { return nil }

func setupApp(t *testing.T) (*fiber.App, *services.Definitions) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	logger := slog.Default()

	definitionService := services.NewDefinitions(store)

	ingestService, err := ingest.NewService(logger, nullPublisher{}, store.EventDedup())
	require.NoError(t, err)

	reg := registry.NewRegistry(logger)

	eng := engine.NewEngine(logger, store, reg, schedule.NewScheduler(nil, logger), engine.Options{})

	handlers := web.NewAPIHandlers(definitionService, eng, ingestService, reg)

	app := fiber.New()

	d := app.Group("/definitions")
	d.Get("/", handlers.GetDefinitions)
	d.Post("/", handlers.CreateDefinition)
	d.Get("/:id", handlers.GetDefinition)
	d.Patch("/:id", handlers.UpdateDefinition)
	d.Delete("/:id", handlers.DeleteDefinition)
	d.Post("/:id/validate", handlers.ValidateDefinition)
	d.Post("/:id/activate", handlers.ActivateDefinition)
	d.Post("/:id/pause", handlers.PauseDefinition)
	d.Post("/:id/clone", handlers.CloneDefinition)
	d.Get("/:id/runs", handlers.GetRuns)

	r := app.Group("/runs")
	r.Get("/:id", handlers.GetRun)
	r.Post("/:id/cancel", handlers.CancelRun)

	app.Post("/events", handlers.SubmitEvent)
	app.Get("/schemas", handlers.GetSchemas)
	app.Get("/health", handlers.HealthCheck)

	return app, definitionService
}

func jsonRequest(method, target string, payload any) *http.Request {
	var body io.Reader

	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")

	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func createRequest() services.CreateDefinitionRequest {
	return services.CreateDefinitionRequest{
		TenantID: "tenant-1",
		Name:     "Comment replies",
		Nodes: []*models.Node{
			{
				ID: "trigger-1", Type: models.NodeTypeTrigger,
				Config: &models.TriggerConfig{
					Platform:  models.PlatformInstagram,
					EventType: models.EventTypeNewComment,
				},
			},
			{
				ID: "content-1", Type: models.NodeTypeContent,
				Config: &models.ContentConfig{
					ContentType: models.ContentTypeText,
					Message:     "Thanks!",
				},
			},
		},
		Edges: []*models.Edge{{SourceNodeID: "trigger-1", TargetNodeID: "content-1"}},
	}
}

func createDefinitionViaAPI(t *testing.T, app *fiber.App) models.WorkflowDefinition {
	t.Helper()

	resp, err := app.Test(jsonRequest(http.MethodPost, "/definitions/", createRequest()))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var def models.WorkflowDefinition
	decodeBody(t, resp, &def)

	return def
}

func TestDefinitionEndpoints(t *testing.T) {
	app, _ := setupApp(t)

	def := createDefinitionViaAPI(t, app)
	assert.Equal(t, models.DefinitionStatusDraft, def.Status)

	t.Run("get by id", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodGet, "/definitions/"+def.ID, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var loaded models.WorkflowDefinition
		decodeBody(t, resp, &loaded)
		assert.Equal(t, def.ID, loaded.ID)
	})

	t.Run("get unknown id", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodGet, "/definitions/missing", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("list requires tenant", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodGet, "/definitions/", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("list by tenant", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodGet, "/definitions/?tenant_id=tenant-1", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Count int `json:"count"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, 1, body.Count)
	})

	t.Run("validate", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/definitions/"+def.ID+"/validate", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Valid bool `json:"valid"`
		}
		decodeBody(t, resp, &body)
		assert.True(t, body.Valid)
	})

	t.Run("activate then pause", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/definitions/"+def.ID+"/activate", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = app.Test(jsonRequest(http.MethodPost, "/definitions/"+def.ID+"/pause", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("update non-draft conflicts", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodPatch, "/definitions/"+def.ID, services.UpdateDefinitionRequest{
			Name: "Renamed",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("clone paused definition", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/definitions/"+def.ID+"/clone", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var clone models.WorkflowDefinition
		decodeBody(t, resp, &clone)
		assert.Equal(t, 2, clone.Version)
		assert.Equal(t, models.DefinitionStatusDraft, clone.Status)
	})
}

func TestActivateInvalidDefinitionReturnsViolations(t *testing.T) {
	app, _ := setupApp(t)

	// Trigger only: no terminal action node.
	req := createRequest()
	req.Nodes = req.Nodes[:1]
	req.Edges = nil

	resp, err := app.Test(jsonRequest(http.MethodPost, "/definitions/", req))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var def models.WorkflowDefinition
	decodeBody(t, resp, &def)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/definitions/"+def.ID+"/activate", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Valid      bool             `json:"valid"`
		Violations []map[string]any `json:"violations"`
	}
	decodeBody(t, resp, &body)
	assert.False(t, body.Valid)
	assert.NotEmpty(t, body.Violations)
}

func TestDeleteDefinitionEndpoint(t *testing.T) {
	app, _ := setupApp(t)
	def := createDefinitionViaAPI(t, app)

	resp, err := app.Test(jsonRequest(http.MethodDelete, "/definitions/"+def.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodGet, "/definitions/"+def.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitEventEndpoint(t *testing.T) {
	app, _ := setupApp(t)

	body := map[string]any{
		"id":        "evt-1",
		"tenant_id": "tenant-1",
		"platform":  "instagram",
		"type":      "new_comment",
		"payload":   "what's the price?",
	}

	resp, err := app.Test(jsonRequest(http.MethodPost, "/events", body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted struct {
		EventID string `json:"event_id"`
		Status  string `json:"status"`
	}
	decodeBody(t, resp, &accepted)
	assert.Equal(t, "evt-1", accepted.EventID)
	assert.Equal(t, "accepted", accepted.Status)

	t.Run("duplicate conflicts", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/events", body))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("invalid payload rejected", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/events", map[string]any{
			"id": "evt-2", "platform": "myspace",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRunEndpoints(t *testing.T) {
	app, _ := setupApp(t)

	t.Run("unknown run", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodGet, "/runs/missing", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("cancel unknown run", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/runs/missing/cancel", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("empty run history", func(t *testing.T) {
		def := createDefinitionViaAPI(t, app)

		resp, err := app.Test(jsonRequest(http.MethodGet, "/definitions/"+def.ID+"/runs", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Count int `json:"count"`
		}
		decodeBody(t, resp, &body)
		assert.Zero(t, body.Count)
	})
}

func TestSchemasEndpoint(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/schemas", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		NodeTypes []models.ConfigSchema `json:"node_types"`
		Actions   map[string]any        `json:"actions"`
	}
	decodeBody(t, resp, &body)

	require.Len(t, body.NodeTypes, len(models.NodeTypes()))

	for i, nodeType := range models.NodeTypes() {
		assert.Equal(t, nodeType, body.NodeTypes[i].NodeType)
	}
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
}
