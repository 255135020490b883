// Package events defines event types and structures for run lifecycle
// notifications consumed by dashboards and audit subscribers.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/pulsedash/automation/pkg/models"
)

type EventType string

// Bus topics: Topic carries run lifecycle events, IngestTopic carries
// accepted inbound platform events on their way to the engine worker.
const Topic = "pulse.automation.events"
const IngestTopic = "pulse.automation.platform_events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Run lifecycle.
	RunStartedEvent   EventType = "run.started"
	RunCompletedEvent EventType = "run.completed"
	RunFailedEvent    EventType = "run.failed"
	RunCancelledEvent EventType = "run.cancelled"

	// Node outcomes within a run.
	NodeExecutedEvent    EventType = "run.node.executed"
	NodeFailedEvent      EventType = "run.node.failed"
	BranchSuspendedEvent EventType = "run.branch.suspended"

	// Inbound platform events accepted by ingestion.
	PlatformEventReceived EventType = "platform.event.received"
)

type BaseEvent struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
	DefinitionID string         `json:"definition_id,omitempty"`
	TenantID     string         `json:"tenant_id,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, definitionID, tenantID string) BaseEvent {
	return BaseEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		DefinitionID: definitionID,
		TenantID:     tenantID,
		Metadata:     make(map[string]any),
	}
}

type RunStarted struct {
	BaseEvent

	RunID         string           `json:"run_id"`
	TriggerNodeID string           `json:"trigger_node_id"`
	Origin        models.RunOrigin `json:"origin"`
	EventID       string           `json:"event_id,omitempty"`
}

func (e RunStarted) GetType() EventType { return RunStartedEvent }

type RunCompleted struct {
	BaseEvent

	RunID         string `json:"run_id"`
	DurationMs    int64  `json:"duration_ms"`
	NodesResolved int    `json:"nodes_resolved"`
}

func (e RunCompleted) GetType() EventType { return RunCompletedEvent }

type RunFailed struct {
	BaseEvent

	RunID      string `json:"run_id"`
	Cause      string `json:"cause"`
	DurationMs int64  `json:"duration_ms"`
}

func (e RunFailed) GetType() EventType { return RunFailedEvent }

type RunCancelled struct {
	BaseEvent

	RunID       string `json:"run_id"`
	CancelledBy string `json:"cancelled_by,omitempty"`
}

func (e RunCancelled) GetType() EventType { return RunCancelledEvent }

type NodeExecuted struct {
	BaseEvent

	RunID      string         `json:"run_id"`
	NodeID     string         `json:"node_id"`
	NodeType   models.NodeType `json:"node_type"`
	Output     map[string]any `json:"output,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

func (e NodeExecuted) GetType() EventType { return NodeExecutedEvent }

type NodeFailed struct {
	BaseEvent

	RunID    string          `json:"run_id"`
	NodeID   string          `json:"node_id"`
	NodeType models.NodeType `json:"node_type"`
	Error    string          `json:"error"`
	Attempts int             `json:"attempts"`
}

func (e NodeFailed) GetType() EventType { return NodeFailedEvent }

type BranchSuspended struct {
	BaseEvent

	RunID    string    `json:"run_id"`
	NodeID   string    `json:"node_id"`
	FireAt   time.Time `json:"fire_at"`
	Degraded bool      `json:"degraded"`
}

func (e BranchSuspended) GetType() EventType { return BranchSuspendedEvent }

// PlatformEvent wraps an accepted inbound platform event for bus consumers.
type PlatformEvent struct {
	BaseEvent

	Event *models.Event `json:"event"`
}

func (e PlatformEvent) GetType() EventType { return PlatformEventReceived }
