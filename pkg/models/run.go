package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of one execution instance.
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusEvaluating RunStatus = "evaluating"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
	RunStatusCancelled  RunStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed || s == RunStatusCancelled
}

// OutcomeStatus records how a single node resolved within a run.
type OutcomeStatus string

const (
	OutcomeSkipped  OutcomeStatus = "skipped"
	OutcomeMatched  OutcomeStatus = "matched"
	OutcomeFailed   OutcomeStatus = "failed"
	OutcomeExecuted OutcomeStatus = "executed"
)

// NodeOutcome is one append-only audit record: what happened at a node.
type NodeOutcome struct {
	NodeID    string        `json:"node_id"`
	Status    OutcomeStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Detail    string        `json:"detail,omitempty"`
}

// RunOrigin says what started a run.
type RunOrigin string

const (
	OriginEvent    RunOrigin = "event"
	OriginSchedule RunOrigin = "schedule"
)

// Run is one execution of a workflow definition version against one event or
// scheduled firing. Outcomes are append-only while the run is live; the whole
// record is immutable once the status is terminal.
type Run struct {
	ID                string        `json:"id"`
	DefinitionID      string        `json:"definition_id"`
	DefinitionVersion int           `json:"definition_version"`
	TenantID          string        `json:"tenant_id"`
	Origin            RunOrigin     `json:"origin"`
	TriggerEventID    string        `json:"trigger_event_id,omitempty"`
	TriggerEvent      *Event        `json:"trigger_event,omitempty"` // Snapshot evaluated by branches resumed after suspension
	TriggerNodeID     string        `json:"trigger_node_id"`
	Status            RunStatus     `json:"status"`
	Outcomes          []NodeOutcome `json:"outcomes"`
	FailureCause      string        `json:"failure_cause,omitempty"`
	StartedAt         time.Time     `json:"started_at"`
	FinishedAt        *time.Time    `json:"finished_at,omitempty"`
}

// NewRun creates a pending run for a definition version.
func NewRun(def *WorkflowDefinition, triggerNodeID string, origin RunOrigin, eventID string) *Run {
	return &Run{
		ID:                uuid.New().String(),
		DefinitionID:      def.ID,
		DefinitionVersion: def.Version,
		TenantID:          def.TenantID,
		Origin:            origin,
		TriggerEventID:    eventID,
		TriggerNodeID:     triggerNodeID,
		Status:            RunStatusPending,
		Outcomes:          []NodeOutcome{},
		StartedAt:         time.Now().UTC(),
	}
}

// Continuation is a persisted marker for a suspended scheduled branch. A
// timer sweep resumes the branch at or after FireAt; no goroutine waits on
// it in the meantime.
type Continuation struct {
	RunID        string    `json:"run_id"`
	NodeID       string    `json:"node_id"`
	DefinitionID string    `json:"definition_id"`
	FireAt       time.Time `json:"fire_at"`
	Degraded     bool      `json:"degraded,omitempty"` // Best-time resolution fell back to queue semantics
}

// Due reports whether the continuation should fire at the given time.
func (c Continuation) Due(now time.Time) bool {
	return !c.FireAt.After(now)
}
