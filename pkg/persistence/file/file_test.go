package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsedash/automation/pkg/models"
	"github.com/pulsedash/automation/pkg/persistence"
)

func testStore(t *testing.T) *Persistence {
	t.Helper()

	return NewPersistence(t.TempDir())
}

func storedDefinition(t *testing.T, p *Persistence, tenantID, name string, status models.DefinitionStatus) *models.WorkflowDefinition {
	t.Helper()

	def := models.NewWorkflowDefinition(tenantID, name)

	require.NoError(t, def.AddNode(&models.Node{
		ID: "trigger-1", Type: models.NodeTypeTrigger,
		Config: &models.TriggerConfig{
			Platform:  models.PlatformInstagram,
			EventType: models.EventTypeNewComment,
		},
	}))

	if status != models.DefinitionStatusDraft {
		require.NoError(t, def.Transition(status))
	}

	require.NoError(t, p.Definitions().Save(context.Background(), def))

	return def
}

func TestDefinitionRepository(t *testing.T) {
	p := testStore(t)
	ctx := context.Background()

	t.Run("round trip preserves typed config", func(t *testing.T) {
		def := storedDefinition(t, p, "tenant-1", "Round trip", models.DefinitionStatusDraft)

		loaded, err := p.Definitions().GetByID(ctx, def.ID)
		require.NoError(t, err)

		assert.Equal(t, def.Name, loaded.Name)

		cfg, ok := loaded.NodeByID("trigger-1").Config.(*models.TriggerConfig)
		require.True(t, ok)
		assert.Equal(t, models.PlatformInstagram, cfg.Platform)
	})

	t.Run("get unknown id", func(t *testing.T) {
		_, err := p.Definitions().GetByID(ctx, "missing")
		assert.ErrorIs(t, err, persistence.ErrDefinitionNotFound)
	})

	t.Run("list by tenant", func(t *testing.T) {
		storedDefinition(t, p, "tenant-a", "A1", models.DefinitionStatusDraft)
		storedDefinition(t, p, "tenant-a", "A2", models.DefinitionStatusActive)
		storedDefinition(t, p, "tenant-b", "B1", models.DefinitionStatusDraft)

		defs, err := p.Definitions().ListByTenant(ctx, "tenant-a")
		require.NoError(t, err)
		assert.Len(t, defs, 2)
	})

	t.Run("list active crosses tenants", func(t *testing.T) {
		store := testStore(t)

		storedDefinition(t, store, "tenant-a", "Active A", models.DefinitionStatusActive)
		storedDefinition(t, store, "tenant-b", "Active B", models.DefinitionStatusActive)
		storedDefinition(t, store, "tenant-a", "Draft A", models.DefinitionStatusDraft)

		defs, err := store.Definitions().ListActive(ctx)
		require.NoError(t, err)
		assert.Len(t, defs, 2)
	})

	t.Run("delete", func(t *testing.T) {
		def := storedDefinition(t, p, "tenant-1", "Doomed", models.DefinitionStatusDraft)

		require.NoError(t, p.Definitions().Delete(ctx, def.ID))

		_, err := p.Definitions().GetByID(ctx, def.ID)
		assert.ErrorIs(t, err, persistence.ErrDefinitionNotFound)

		assert.ErrorIs(t, p.Definitions().Delete(ctx, def.ID), persistence.ErrDefinitionNotFound)
	})
}

func TestRunRepository(t *testing.T) {
	p := testStore(t)
	ctx := context.Background()

	def := storedDefinition(t, p, "tenant-1", "Runs", models.DefinitionStatusActive)

	newStoredRun := func(t *testing.T) *models.Run {
		t.Helper()

		run := models.NewRun(def, "trigger-1", models.OriginEvent, "evt-1")
		run.TriggerEvent = &models.Event{
			ID:       "evt-1",
			TenantID: "tenant-1",
			Platform: models.PlatformInstagram,
			Type:     models.EventTypeNewComment,
			Payload:  "what's the price?",
		}
		require.NoError(t, p.Runs().SaveRun(ctx, run))

		return run
	}

	t.Run("append outcome", func(t *testing.T) {
		run := newStoredRun(t)

		require.NoError(t, p.Runs().AppendOutcome(ctx, run.ID, models.NodeOutcome{
			NodeID: "trigger-1", Status: models.OutcomeMatched, Timestamp: time.Now().UTC(),
		}))

		loaded, err := p.Runs().GetRun(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Outcomes, 1)
		assert.Equal(t, models.OutcomeMatched, loaded.Outcomes[0].Status)
		require.NotNil(t, loaded.TriggerEvent)
		assert.Equal(t, "what's the price?", loaded.TriggerEvent.Payload)
	})

	t.Run("terminal run rejects mutation", func(t *testing.T) {
		run := newStoredRun(t)

		require.NoError(t, p.Runs().UpdateStatus(ctx, run.ID, models.RunStatusCompleted, ""))

		err := p.Runs().AppendOutcome(ctx, run.ID, models.NodeOutcome{NodeID: "n", Status: models.OutcomeSkipped})
		assert.ErrorIs(t, err, persistence.ErrRunTerminal)

		err = p.Runs().UpdateStatus(ctx, run.ID, models.RunStatusFailed, "late")
		assert.ErrorIs(t, err, persistence.ErrRunTerminal)
	})

	t.Run("terminal status sets finished_at", func(t *testing.T) {
		run := newStoredRun(t)

		require.NoError(t, p.Runs().UpdateStatus(ctx, run.ID, models.RunStatusFailed, "boom"))

		loaded, err := p.Runs().GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.NotNil(t, loaded.FinishedAt)
		assert.Equal(t, "boom", loaded.FailureCause)
	})

	t.Run("get unknown run", func(t *testing.T) {
		_, err := p.Runs().GetRun(ctx, "missing")
		assert.ErrorIs(t, err, persistence.ErrRunNotFound)
	})

	t.Run("list runs filters by definition", func(t *testing.T) {
		other := storedDefinition(t, p, "tenant-1", "Other", models.DefinitionStatusActive)
		otherRun := models.NewRun(other, "trigger-1", models.OriginEvent, "evt-2")
		require.NoError(t, p.Runs().SaveRun(ctx, otherRun))

		runs, err := p.Runs().ListRuns(ctx, other.ID)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, otherRun.ID, runs[0].ID)
	})
}

func TestContinuationQueue(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	push := func(t *testing.T, q persistence.ContinuationQueue, runID, nodeID string, fireAt time.Time) {
		t.Helper()
		require.NoError(t, q.Push(ctx, models.Continuation{
			RunID: runID, NodeID: nodeID, DefinitionID: "def-1", FireAt: fireAt,
		}))
	}

	t.Run("pop due respects fire time and order", func(t *testing.T) {
		q := testStore(t).Continuations()

		push(t, q, "run-1", "node-a", base.Add(time.Hour))
		push(t, q, "run-1", "node-b", base.Add(-time.Hour))
		push(t, q, "run-2", "node-c", base.Add(-2*time.Hour))

		due, err := q.PopDue(ctx, base, 10)
		require.NoError(t, err)
		require.Len(t, due, 2)
		assert.Equal(t, "node-c", due[0].NodeID)
		assert.Equal(t, "node-b", due[1].NodeID)

		// Popped entries are gone.
		again, err := q.PopDue(ctx, base, 10)
		require.NoError(t, err)
		assert.Empty(t, again)

		remaining, err := q.CountByRun(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, 1, remaining)
	})

	t.Run("pop due honors the batch limit", func(t *testing.T) {
		q := testStore(t).Continuations()

		push(t, q, "run-1", "node-a", base.Add(-time.Minute))
		push(t, q, "run-1", "node-b", base.Add(-2*time.Minute))
		push(t, q, "run-1", "node-c", base.Add(-3*time.Minute))

		due, err := q.PopDue(ctx, base, 2)
		require.NoError(t, err)
		assert.Len(t, due, 2)

		rest, err := q.PopDue(ctx, base, 2)
		require.NoError(t, err)
		assert.Len(t, rest, 1)
	})

	t.Run("remove by run returns the removed entries", func(t *testing.T) {
		q := testStore(t).Continuations()

		push(t, q, "run-1", "node-a", base.Add(time.Hour))
		push(t, q, "run-1", "node-b", base.Add(2*time.Hour))
		push(t, q, "run-2", "node-c", base.Add(time.Hour))

		removed, err := q.RemoveByRun(ctx, "run-1")
		require.NoError(t, err)
		assert.Len(t, removed, 2)

		count, err := q.CountByRun(ctx, "run-1")
		require.NoError(t, err)
		assert.Zero(t, count)

		count, err = q.CountByRun(ctx, "run-2")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("push upserts per run and node", func(t *testing.T) {
		q := testStore(t).Continuations()

		push(t, q, "run-1", "node-a", base.Add(time.Hour))
		push(t, q, "run-1", "node-a", base.Add(-time.Hour))

		due, err := q.PopDue(ctx, base, 10)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, base.Add(-time.Hour), due[0].FireAt.UTC())
	})
}

func TestEventDedup(t *testing.T) {
	p := testStore(t)
	ctx := context.Background()

	fresh, err := p.EventDedup().MarkProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, fresh)

	dup, err := p.EventDedup().MarkProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, dup)

	other, err := p.EventDedup().MarkProcessed(ctx, "evt-2")
	require.NoError(t, err)
	assert.True(t, other)
}

func TestHealthCheck(t *testing.T) {
	p := testStore(t)
	assert.NoError(t, p.HealthCheck(context.Background()))
}
