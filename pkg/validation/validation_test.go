package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsedash/automation/pkg/models"
)

func triggerNode(id string) *models.Node {
	return &models.Node{
		ID:   id,
		Type: models.NodeTypeTrigger,
		Config: &models.TriggerConfig{
			Platform:  models.PlatformInstagram,
			EventType: models.EventTypeNewComment,
		},
	}
}

func filterNode(id string) *models.Node {
	return &models.Node{
		ID:   id,
		Type: models.NodeTypeFilter,
		Config: &models.FilterConfig{
			Field:     "message",
			Condition: models.ConditionContains,
			Value:     "price",
		},
	}
}

func contentNode(id string) *models.Node {
	return &models.Node{
		ID:   id,
		Type: models.NodeTypeContent,
		Config: &models.ContentConfig{
			ContentType: models.ContentTypeText,
			Message:     "Check your DMs!",
		},
	}
}

func validDefinition(t *testing.T) *models.WorkflowDefinition {
	t.Helper()

	def := models.NewWorkflowDefinition("tenant-1", "Price inquiries")

	require.NoError(t, def.AddNode(triggerNode("trigger-1")))
	require.NoError(t, def.AddNode(filterNode("filter-1")))
	require.NoError(t, def.AddNode(contentNode("content-1")))
	require.NoError(t, def.AddEdge("trigger-1", "filter-1"))
	require.NoError(t, def.AddEdge("filter-1", "content-1"))

	return def
}

func kinds(result Result) []ViolationKind {
	out := make([]ViolationKind, 0, len(result.Violations))
	for _, v := range result.Violations {
		out = append(out, v.Kind)
	}

	return out
}

func TestValidateAcceptsWellFormedGraph(t *testing.T) {
	result := Validate(validDefinition(t))

	assert.True(t, result.Valid(), "unexpected violations: %v", result.Violations)
}

func TestValidateMissingRequiredFields(t *testing.T) {
	def := models.NewWorkflowDefinition("tenant-1", "Broken filter")

	require.NoError(t, def.AddNode(triggerNode("trigger-1")))
	require.NoError(t, def.AddNode(&models.Node{
		ID:     "filter-1",
		Type:   models.NodeTypeFilter,
		Config: &models.FilterConfig{},
	}))
	require.NoError(t, def.AddNode(contentNode("content-1")))
	require.NoError(t, def.AddEdge("trigger-1", "filter-1"))
	require.NoError(t, def.AddEdge("filter-1", "content-1"))

	result := Validate(def)

	require.False(t, result.Valid())

	fields := make(map[string]bool)

	for _, v := range result.Violations {
		assert.Equal(t, KindSchemaViolation, v.Kind)
		assert.Equal(t, "filter-1", v.NodeID)
		fields[v.Field] = true
	}

	// One violation per missing field, not one blanket error.
	assert.Equal(t, map[string]bool{"field": true, "condition": true, "value": true}, fields)
}

func TestValidateEnumOutOfRange(t *testing.T) {
	def := validDefinition(t)
	def.NodeByID("trigger-1").Config.(*models.TriggerConfig).Platform = "myspace"

	result := Validate(def)

	require.Len(t, result.Violations, 1)
	assert.Equal(t, KindSchemaViolation, result.Violations[0].Kind)
	assert.Equal(t, "platform", result.Violations[0].Field)
}

func TestValidateNilConfigReportsEachRequiredField(t *testing.T) {
	def := models.NewWorkflowDefinition("tenant-1", "No config")

	require.NoError(t, def.AddNode(triggerNode("trigger-1")))
	require.NoError(t, def.AddNode(&models.Node{ID: "content-1", Type: models.NodeTypeContent}))
	require.NoError(t, def.AddEdge("trigger-1", "content-1"))

	result := Validate(def)

	require.False(t, result.Valid())

	for _, v := range result.Violations {
		assert.Equal(t, KindSchemaViolation, v.Kind)
		assert.Equal(t, "content-1", v.NodeID)
	}
}

func TestValidateCycleDetected(t *testing.T) {
	def := validDefinition(t)

	require.NoError(t, def.AddNode(filterNode("filter-2")))
	require.NoError(t, def.AddEdge("filter-1", "filter-2"))
	require.NoError(t, def.AddEdge("filter-2", "filter-1"))

	result := Validate(def)

	assert.Contains(t, kinds(result), KindCycleDetected)
	// Reachability is skipped when the graph is cyclic; no spurious
	// unreachable violations should pile on.
	assert.NotContains(t, kinds(result), KindUnreachable)
}

func TestValidateUnreachableNode(t *testing.T) {
	def := validDefinition(t)

	require.NoError(t, def.AddNode(contentNode("content-2")))
	require.NoError(t, def.AddNode(filterNode("filter-2")))
	require.NoError(t, def.AddEdge("filter-2", "content-2"))

	result := Validate(def)

	unreachable := make(map[string]bool)

	for _, v := range result.Violations {
		if v.Kind == KindUnreachable {
			unreachable[v.NodeID] = true
		}
	}

	assert.True(t, unreachable["filter-2"])
	assert.True(t, unreachable["content-2"])
}

func TestValidateTopology(t *testing.T) {
	t.Run("trigger with incoming edge", func(t *testing.T) {
		def := validDefinition(t)
		require.NoError(t, def.AddEdge("filter-1", "trigger-1"))

		result := Validate(def)

		// The added edge also creates trigger->filter->trigger ordering
		// problems only if it closes a cycle; here it does.
		assert.Contains(t, kinds(result), KindCycleDetected)
	})

	t.Run("trigger fed by separate branch", func(t *testing.T) {
		def := validDefinition(t)
		require.NoError(t, def.AddNode(triggerNode("trigger-2")))
		require.NoError(t, def.AddEdge("filter-1", "trigger-2"))

		result := Validate(def)

		found := false

		for _, v := range result.Violations {
			if v.Kind == KindTopologyViolation && v.NodeID == "trigger-2" {
				found = true
			}
		}

		assert.True(t, found, "expected a topology violation for the fed trigger")
	})

	t.Run("orphan non-trigger node", func(t *testing.T) {
		def := validDefinition(t)
		require.NoError(t, def.AddNode(contentNode("orphan")))

		result := Validate(def)

		var orphanKinds []ViolationKind

		for _, v := range result.Violations {
			if v.NodeID == "orphan" {
				orphanKinds = append(orphanKinds, v.Kind)
			}
		}

		assert.Contains(t, orphanKinds, KindTopologyViolation)
		assert.Contains(t, orphanKinds, KindUnreachable)
	})
}

func TestValidateNoTerminalAction(t *testing.T) {
	def := models.NewWorkflowDefinition("tenant-1", "Dead end")

	require.NoError(t, def.AddNode(triggerNode("trigger-1")))
	require.NoError(t, def.AddNode(filterNode("filter-1")))
	require.NoError(t, def.AddEdge("trigger-1", "filter-1"))

	result := Validate(def)

	assert.Contains(t, kinds(result), KindNoTerminalAction)
}

func TestValidateScheduleConditionalRequirements(t *testing.T) {
	tests := []struct {
		name      string
		config    *models.ScheduleConfig
		wantField string
	}{
		{
			name: "queue without slot",
			config: &models.ScheduleConfig{
				ScheduleType: models.ScheduleQueue,
				Frequency:    models.FrequencyOnce,
			},
			wantField: "queue_slot",
		},
		{
			name: "specific time without target",
			config: &models.ScheduleConfig{
				ScheduleType: models.ScheduleSpecificTime,
				Frequency:    models.FrequencyOnce,
			},
			wantField: "target_time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := models.NewWorkflowDefinition("tenant-1", "Schedules")

			require.NoError(t, def.AddNode(triggerNode("trigger-1")))
			require.NoError(t, def.AddNode(&models.Node{
				ID: "schedule-1", Type: models.NodeTypeSchedule, Config: tt.config,
			}))
			require.NoError(t, def.AddNode(contentNode("content-1")))
			require.NoError(t, def.AddEdge("trigger-1", "schedule-1"))
			require.NoError(t, def.AddEdge("schedule-1", "content-1"))

			result := Validate(def)

			found := false

			for _, v := range result.Violations {
				if v.Kind == KindSchemaViolation && v.Field == tt.wantField {
					found = true
				}
			}

			assert.True(t, found, "expected a violation on %s, got %v", tt.wantField, result.Violations)
		})
	}
}
