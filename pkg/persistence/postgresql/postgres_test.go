package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/pulsedash/automation/pkg/models"
	"github.com/pulsedash/automation/pkg/persistence"
	"github.com/pulsedash/automation/pkg/persistence/postgresql"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"processed_events", "continuations", "workflow_runs", "workflow_definitions", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("automation_test"),
			postgres.WithUsername("automation"),
			postgres.WithPassword("automation"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func storedDefinition(ctx context.Context, t *testing.T, p *postgresql.Persistence, status models.DefinitionStatus) *models.WorkflowDefinition {
	t.Helper()

	def := models.NewWorkflowDefinition("tenant-1", "Integration graph")

	require.NoError(t, def.AddNode(&models.Node{
		ID: "trigger-1", Type: models.NodeTypeTrigger,
		Config: &models.TriggerConfig{
			Platform:  models.PlatformInstagram,
			EventType: models.EventTypeNewComment,
			Keywords:  []string{"price"},
		},
	}))
	require.NoError(t, def.AddNode(&models.Node{
		ID: "content-1", Type: models.NodeTypeContent,
		Config: &models.ContentConfig{
			ContentType: models.ContentTypeText, Message: "Thanks!",
		},
	}))
	require.NoError(t, def.AddEdge("trigger-1", "content-1"))

	if status != models.DefinitionStatusDraft {
		require.NoError(t, def.Transition(status))
	}

	require.NoError(t, p.Definitions().Save(ctx, def))

	return def
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	var exists bool

	for _, table := range []string{"workflow_definitions", "workflow_runs", "continuations", "processed_events", "schema_migrations"} {
		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 5, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	assert.NoError(t, p.HealthCheck(ctx))
}

func TestDefinitionRepository_RoundTrip(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	def := storedDefinition(ctx, t, p, models.DefinitionStatusDraft)

	loaded, err := p.Definitions().GetByID(ctx, def.ID)
	require.NoError(t, err)

	assert.Equal(t, def.Name, loaded.Name)
	assert.Equal(t, def.TenantID, loaded.TenantID)
	require.Len(t, loaded.Nodes, 2)

	cfg, ok := loaded.NodeByID("trigger-1").Config.(*models.TriggerConfig)
	require.True(t, ok)
	assert.Equal(t, []string{"price"}, cfg.Keywords)

	// Save is an upsert.
	loaded.Name = "Renamed graph"
	require.NoError(t, p.Definitions().Save(ctx, loaded))

	again, err := p.Definitions().GetByID(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed graph", again.Name)
}

func TestDefinitionRepository_Listing(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	storedDefinition(ctx, t, p, models.DefinitionStatusDraft)
	active := storedDefinition(ctx, t, p, models.DefinitionStatusActive)

	byTenant, err := p.Definitions().ListByTenant(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Len(t, byTenant, 2)

	actives, err := p.Definitions().ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, actives, 1)
	assert.Equal(t, active.ID, actives[0].ID)
}

func TestDefinitionRepository_Delete(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	def := storedDefinition(ctx, t, p, models.DefinitionStatusDraft)

	require.NoError(t, p.Definitions().Delete(ctx, def.ID))

	_, err := p.Definitions().GetByID(ctx, def.ID)
	assert.ErrorIs(t, err, persistence.ErrDefinitionNotFound)

	assert.ErrorIs(t, p.Definitions().Delete(ctx, def.ID), persistence.ErrDefinitionNotFound)
}

func TestRunRepository_OutcomesAndTerminalGuard(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	def := storedDefinition(ctx, t, p, models.DefinitionStatusActive)
	run := models.NewRun(def, "trigger-1", models.OriginEvent, "evt-1")
	run.TriggerEvent = &models.Event{
		ID:       "evt-1",
		TenantID: "tenant-1",
		Platform: models.PlatformInstagram,
		Type:     models.EventTypeNewComment,
		Payload:  "what's the price?",
	}
	require.NoError(t, p.Runs().SaveRun(ctx, run))

	require.NoError(t, p.Runs().AppendOutcome(ctx, run.ID, models.NodeOutcome{
		NodeID: "trigger-1", Status: models.OutcomeMatched, Timestamp: time.Now().UTC(),
	}))
	require.NoError(t, p.Runs().AppendOutcome(ctx, run.ID, models.NodeOutcome{
		NodeID: "content-1", Status: models.OutcomeExecuted, Timestamp: time.Now().UTC(),
	}))

	loaded, err := p.Runs().GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Outcomes, 2)
	assert.Equal(t, "trigger-1", loaded.Outcomes[0].NodeID)
	require.NotNil(t, loaded.TriggerEvent)
	assert.Equal(t, "what's the price?", loaded.TriggerEvent.Payload)

	require.NoError(t, p.Runs().UpdateStatus(ctx, run.ID, models.RunStatusCompleted, ""))

	loaded, err = p.Runs().GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.NotNil(t, loaded.FinishedAt)

	err = p.Runs().AppendOutcome(ctx, run.ID, models.NodeOutcome{NodeID: "late", Status: models.OutcomeSkipped})
	assert.ErrorIs(t, err, persistence.ErrRunTerminal)

	err = p.Runs().UpdateStatus(ctx, run.ID, models.RunStatusFailed, "late")
	assert.ErrorIs(t, err, persistence.ErrRunTerminal)

	_, err = p.Runs().GetRun(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrRunNotFound)
}

func TestContinuationQueue_PopDueAndCancel(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	now := time.Now().UTC()
	q := p.Continuations()

	require.NoError(t, q.Push(ctx, models.Continuation{
		RunID: "run-1", NodeID: "node-a", DefinitionID: "def-1", FireAt: now.Add(-time.Minute),
	}))
	require.NoError(t, q.Push(ctx, models.Continuation{
		RunID: "run-1", NodeID: "node-b", DefinitionID: "def-1", FireAt: now.Add(time.Hour),
	}))
	require.NoError(t, q.Push(ctx, models.Continuation{
		RunID: "run-2", NodeID: "node-c", DefinitionID: "def-1", FireAt: now.Add(-time.Hour),
	}))

	due, err := q.PopDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "node-c", due[0].NodeID, "oldest fire time pops first")

	again, err := q.PopDue(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, again)

	count, err := q.CountByRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	removed, err := q.RemoveByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "node-b", removed[0].NodeID)

	count, err = q.CountByRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEventDedup_MarkProcessed(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	fresh, err := p.EventDedup().MarkProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, fresh)

	dup, err := p.EventDedup().MarkProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, dup)
}
