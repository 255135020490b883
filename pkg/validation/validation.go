// Package validation checks workflow graphs for structural and configuration
// correctness before activation. All violations are accumulated so the editor
// can surface every problem at once.
package validation

import (
	"fmt"
	"slices"

	"github.com/pulsedash/automation/pkg/models"
)

// ViolationKind classifies a validation failure.
type ViolationKind string

const (
	KindSchemaViolation   ViolationKind = "schema_violation"
	KindCycleDetected     ViolationKind = "cycle_detected"
	KindUnreachable       ViolationKind = "unreachable"
	KindTopologyViolation ViolationKind = "topology_violation"
	KindNoTerminalAction  ViolationKind = "no_terminal_action"
)

// Violation is one structured validation failure. NodeID and Field are empty
// when the violation concerns the graph as a whole.
type Violation struct {
	Kind   ViolationKind `json:"kind"`
	NodeID string        `json:"node_id,omitempty"`
	Field  string        `json:"field,omitempty"`
	Reason string        `json:"reason"`
}

func (v Violation) String() string {
	if v.NodeID != "" {
		return fmt.Sprintf("%s [node %s]: %s", v.Kind, v.NodeID, v.Reason)
	}

	return fmt.Sprintf("%s: %s", v.Kind, v.Reason)
}

// Result is the outcome of validating one definition.
type Result struct {
	Violations []Violation `json:"violations"`
}

// Valid reports whether the definition may transition draft -> active.
func (r Result) Valid() bool {
	return len(r.Violations) == 0
}

func (r *Result) add(kind ViolationKind, nodeID, field, reason string) {
	r.Violations = append(r.Violations, Violation{Kind: kind, NodeID: nodeID, Field: field, Reason: reason})
}

// Validate runs all checks over the definition: per-node config schemas,
// acyclicity and reachability, topology rules, and terminal-action presence.
func Validate(def *models.WorkflowDefinition) Result {
	var result Result

	for _, node := range def.Nodes {
		validateConfig(&result, node)
	}

	triggers := def.TriggerNodes()

	if hasCycle(def) {
		result.add(KindCycleDetected, "", "", "workflow graph contains a cycle")
	} else {
		triggerIDs := make([]string, 0, len(triggers))
		for _, t := range triggers {
			triggerIDs = append(triggerIDs, t.ID)
		}

		reached := def.Reachable(triggerIDs)

		for _, node := range def.Nodes {
			if !reached[node.ID] {
				result.add(KindUnreachable, node.ID, "", "node is not reachable from any trigger")
			}
		}
	}

	for _, node := range def.Nodes {
		incoming := len(def.IncomingEdges(node.ID))

		switch {
		case node.Type == models.NodeTypeTrigger && incoming > 0:
			result.add(KindTopologyViolation, node.ID, "", "trigger node must not have incoming edges")
		case node.Type != models.NodeTypeTrigger && incoming == 0:
			result.add(KindTopologyViolation, node.ID, "", "non-trigger node must have at least one incoming edge")
		}
	}

	if !hasTerminalAction(def) {
		result.add(KindNoTerminalAction, "", "", "workflow has no terminal content or analytics node")
	}

	return result
}

// hasTerminalAction reports whether at least one content or analytics node
// has no outgoing edges.
func hasTerminalAction(def *models.WorkflowDefinition) bool {
	for _, node := range def.Nodes {
		if node.IsTerminalType() && len(def.OutgoingEdges(node.ID)) == 0 {
			return true
		}
	}

	return false
}

// hasCycle runs Kahn's algorithm over the edge set.
func hasCycle(def *models.WorkflowDefinition) bool {
	indegree := make(map[string]int, len(def.Nodes))
	for _, node := range def.Nodes {
		indegree[node.ID] = 0
	}

	for _, edge := range def.Edges {
		if _, ok := indegree[edge.TargetNodeID]; ok {
			indegree[edge.TargetNodeID]++
		}
	}

	queue := make([]string, 0, len(def.Nodes))

	for id, deg := range indegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		visited++

		for _, edge := range def.OutgoingEdges(current) {
			if _, ok := indegree[edge.TargetNodeID]; !ok {
				continue
			}

			indegree[edge.TargetNodeID]--
			if indegree[edge.TargetNodeID] == 0 {
				queue = append(queue, edge.TargetNodeID)
			}
		}
	}

	return visited < len(def.Nodes)
}

// validateConfig checks one node's config against its type schema: required
// fields present, enum values in range, numbers non-negative. The config
// structs are a closed set, so this is exhaustive pattern matching rather
// than runtime field probing.
func validateConfig(result *Result, node *models.Node) {
	schema, ok := models.SchemaFor(node.Type)
	if !ok {
		result.add(KindSchemaViolation, node.ID, "type", fmt.Sprintf("unknown node type %q", node.Type))

		return
	}

	if node.Config == nil {
		for _, field := range schema.Fields {
			if field.Required {
				result.add(KindSchemaViolation, node.ID, field.Name, "required field is missing")
			}
		}

		return
	}

	if node.Config.ConfigType() != node.Type {
		result.add(KindSchemaViolation, node.ID, "type",
			fmt.Sprintf("config type %s does not match node type %s", node.Config.ConfigType(), node.Type))

		return
	}

	switch cfg := node.Config.(type) {
	case *models.TriggerConfig:
		requireEnum(result, node.ID, schema, "platform", string(cfg.Platform))
		requireEnum(result, node.ID, schema, "event_type", string(cfg.EventType))
	case *models.FilterConfig:
		requireText(result, node.ID, "field", cfg.Field)
		requireEnum(result, node.ID, schema, "condition", string(cfg.Condition))
		requireText(result, node.ID, "value", cfg.Value)
	case *models.AudienceConfig:
		requireEnum(result, node.ID, schema, "segment_type", string(cfg.SegmentType))
		requireNonNegative(result, node.ID, "min_engagement", cfg.MinEngagement)
	case *models.ContentConfig:
		requireEnum(result, node.ID, schema, "content_type", string(cfg.ContentType))
		requireText(result, node.ID, "message", cfg.Message)
	case *models.ScheduleConfig:
		requireEnum(result, node.ID, schema, "schedule_type", string(cfg.ScheduleType))
		requireEnum(result, node.ID, schema, "frequency", string(cfg.Frequency))
		optionalEnum(result, node.ID, schema, "queue_slot", string(cfg.QueueSlot))
		requireNonNegative(result, node.ID, "delay_minutes", cfg.DelayMinutes)

		if cfg.ScheduleType == models.ScheduleQueue && cfg.QueueSlot == "" {
			result.add(KindSchemaViolation, node.ID, "queue_slot", "queue schedules require a queue slot")
		}

		if cfg.ScheduleType == models.ScheduleSpecificTime && cfg.TargetTime == nil {
			result.add(KindSchemaViolation, node.ID, "target_time", "specific-time schedules require a target time")
		}
	case *models.AnalyticsConfig:
		requireEnum(result, node.ID, schema, "metric", string(cfg.Metric))
		requireNonNegative(result, node.ID, "period_days", cfg.PeriodDays)
	}
}

func fieldSpec(schema models.ConfigSchema, name string) (models.FieldSpec, bool) {
	for _, f := range schema.Fields {
		if f.Name == name {
			return f, true
		}
	}

	return models.FieldSpec{}, false
}

func requireText(result *Result, nodeID, field, value string) {
	if value == "" {
		result.add(KindSchemaViolation, nodeID, field, "required field is missing")
	}
}

func requireEnum(result *Result, nodeID string, schema models.ConfigSchema, field, value string) {
	if value == "" {
		result.add(KindSchemaViolation, nodeID, field, "required field is missing")

		return
	}

	checkEnum(result, nodeID, schema, field, value)
}

// optionalEnum accepts an empty value but rejects values outside the allowed
// set.
func optionalEnum(result *Result, nodeID string, schema models.ConfigSchema, field, value string) {
	if value == "" {
		return
	}

	checkEnum(result, nodeID, schema, field, value)
}

func checkEnum(result *Result, nodeID string, schema models.ConfigSchema, field, value string) {
	spec, ok := fieldSpec(schema, field)
	if !ok || len(spec.Options) == 0 {
		return
	}

	if !slices.Contains(spec.Options, value) {
		result.add(KindSchemaViolation, nodeID, field, fmt.Sprintf("value %q is not one of the allowed options", value))
	}
}

func requireNonNegative(result *Result, nodeID, field string, value int) {
	if value < 0 {
		result.add(KindSchemaViolation, nodeID, field, "value must not be negative")
	}
}
