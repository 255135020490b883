// Package models defines the core domain models for node-based social automation workflows.
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefinitionStatus represents the lifecycle state of a workflow definition.
type DefinitionStatus string

const (
	DefinitionStatusDraft    DefinitionStatus = "draft"    // Editable, not executable
	DefinitionStatusActive   DefinitionStatus = "active"   // Immutable, trigger-matched by the engine
	DefinitionStatusPaused   DefinitionStatus = "paused"   // Immutable, ignored by trigger matching
	DefinitionStatusArchived DefinitionStatus = "archived" // Terminal, kept for run history
)

// ErrInvalidState is returned for illegal lifecycle transitions and for
// structural mutations attempted on a non-draft definition.
var ErrInvalidState = errors.New("invalid definition state")

// WorkflowDefinition is a directed acyclic graph of typed nodes describing an
// automation: when an event arrives on a platform, under which conditions,
// which actions run and on what schedule. Once a definition is active it is
// read-only; edits go through CloneDraft, which produces a new version.
type WorkflowDefinition struct {
	ID          string           `json:"id"                     validate:"required"`
	TenantID    string           `json:"tenant_id"              validate:"required"`
	Name        string           `json:"name"                   validate:"required,min=3"`
	Description string           `json:"description"`
	Status      DefinitionStatus `json:"status"                 validate:"required"`
	Version     int              `json:"version"`
	GroupID     string           `json:"group_id"` // Stable ID linking all versions
	Nodes       []*Node          `json:"nodes"`
	Edges       []*Edge          `json:"edges"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	ActivatedAt *time.Time       `json:"activated_at,omitempty"`
}

// Edge is an ordered pair of node IDs. An output produced by the source node
// becomes an input candidate for the target node.
type Edge struct {
	ID           string `json:"id"`
	SourceNodeID string `json:"source_node_id" validate:"required"`
	TargetNodeID string `json:"target_node_id" validate:"required"`
}

// NewWorkflowDefinition creates an empty draft definition for a tenant.
func NewWorkflowDefinition(tenantID, name string) *WorkflowDefinition {
	now := time.Now().UTC()

	return &WorkflowDefinition{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Name:      name,
		Status:    DefinitionStatusDraft,
		Version:   1,
		GroupID:   uuid.New().String(),
		Nodes:     []*Node{},
		Edges:     []*Edge{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Editable reports whether structural mutations are allowed.
func (d *WorkflowDefinition) Editable() bool {
	return d.Status == DefinitionStatusDraft
}

// AddNode appends a node to the graph. Fails with ErrInvalidState unless the
// definition is a draft, and rejects duplicate node IDs.
func (d *WorkflowDefinition) AddNode(node *Node) error {
	if !d.Editable() {
		return fmt.Errorf("add node to %s definition %s: %w", d.Status, d.ID, ErrInvalidState)
	}

	if d.NodeByID(node.ID) != nil {
		return fmt.Errorf("node %s already exists in definition %s", node.ID, d.ID)
	}

	d.Nodes = append(d.Nodes, node)
	d.UpdatedAt = time.Now().UTC()

	return nil
}

// RemoveNode deletes a node and every edge touching it.
func (d *WorkflowDefinition) RemoveNode(nodeID string) error {
	if !d.Editable() {
		return fmt.Errorf("remove node from %s definition %s: %w", d.Status, d.ID, ErrInvalidState)
	}

	kept := d.Nodes[:0]

	found := false

	for _, n := range d.Nodes {
		if n.ID == nodeID {
			found = true

			continue
		}

		kept = append(kept, n)
	}

	if !found {
		return fmt.Errorf("node %s not found in definition %s", nodeID, d.ID)
	}

	d.Nodes = kept

	edges := d.Edges[:0]

	for _, e := range d.Edges {
		if e.SourceNodeID == nodeID || e.TargetNodeID == nodeID {
			continue
		}

		edges = append(edges, e)
	}

	d.Edges = edges
	d.UpdatedAt = time.Now().UTC()

	return nil
}

// AddEdge connects two existing nodes. Cycle detection is deferred to the
// validator so that an editor can stage an invalid intermediate state.
func (d *WorkflowDefinition) AddEdge(sourceID, targetID string) error {
	if !d.Editable() {
		return fmt.Errorf("add edge to %s definition %s: %w", d.Status, d.ID, ErrInvalidState)
	}

	if d.NodeByID(sourceID) == nil {
		return fmt.Errorf("edge source node %s not found in definition %s", sourceID, d.ID)
	}

	if d.NodeByID(targetID) == nil {
		return fmt.Errorf("edge target node %s not found in definition %s", targetID, d.ID)
	}

	d.Edges = append(d.Edges, &Edge{
		ID:           uuid.New().String(),
		SourceNodeID: sourceID,
		TargetNodeID: targetID,
	})
	d.UpdatedAt = time.Now().UTC()

	return nil
}

// RemoveEdge deletes an edge by ID.
func (d *WorkflowDefinition) RemoveEdge(edgeID string) error {
	if !d.Editable() {
		return fmt.Errorf("remove edge from %s definition %s: %w", d.Status, d.ID, ErrInvalidState)
	}

	for i, e := range d.Edges {
		if e.ID == edgeID {
			d.Edges = append(d.Edges[:i], d.Edges[i+1:]...)
			d.UpdatedAt = time.Now().UTC()

			return nil
		}
	}

	return fmt.Errorf("edge %s not found in definition %s", edgeID, d.ID)
}

// NodeByID returns the node with the given ID, or nil.
func (d *WorkflowDefinition) NodeByID(id string) *Node {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n
		}
	}

	return nil
}

// OutgoingEdges enumerates edges whose source is the given node.
func (d *WorkflowDefinition) OutgoingEdges(nodeID string) []*Edge {
	var out []*Edge

	for _, e := range d.Edges {
		if e.SourceNodeID == nodeID {
			out = append(out, e)
		}
	}

	return out
}

// IncomingEdges enumerates edges whose target is the given node.
func (d *WorkflowDefinition) IncomingEdges(nodeID string) []*Edge {
	var in []*Edge

	for _, e := range d.Edges {
		if e.TargetNodeID == nodeID {
			in = append(in, e)
		}
	}

	return in
}

// TriggerNodes returns all nodes of type trigger.
func (d *WorkflowDefinition) TriggerNodes() []*Node {
	var triggers []*Node

	for _, n := range d.Nodes {
		if n.Type == NodeTypeTrigger {
			triggers = append(triggers, n)
		}
	}

	return triggers
}

// Reachable returns the set of node IDs reachable from the start set,
// including the start nodes themselves.
func (d *WorkflowDefinition) Reachable(start []string) map[string]bool {
	reached := make(map[string]bool, len(d.Nodes))
	queue := make([]string, 0, len(start))

	for _, id := range start {
		if d.NodeByID(id) != nil && !reached[id] {
			reached[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, e := range d.OutgoingEdges(current) {
			if !reached[e.TargetNodeID] {
				reached[e.TargetNodeID] = true
				queue = append(queue, e.TargetNodeID)
			}
		}
	}

	return reached
}

// CloneDraft creates a new draft version of this definition in the same
// group. Nodes and edges are deep-copied so concurrent runs against the
// original never observe an edit in progress.
func (d *WorkflowDefinition) CloneDraft() *WorkflowDefinition {
	now := time.Now().UTC()

	clone := &WorkflowDefinition{
		ID:          uuid.New().String(),
		TenantID:    d.TenantID,
		Name:        d.Name,
		Description: d.Description,
		Status:      DefinitionStatusDraft,
		Version:     d.Version + 1,
		GroupID:     d.GroupID,
		Nodes:       make([]*Node, 0, len(d.Nodes)),
		Edges:       make([]*Edge, 0, len(d.Edges)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, n := range d.Nodes {
		clone.Nodes = append(clone.Nodes, n.Clone())
	}

	for _, e := range d.Edges {
		edge := *e
		clone.Edges = append(clone.Edges, &edge)
	}

	return clone
}

// Transition moves the definition to the requested status, enforcing the
// legal lifecycle: draft->active, active->paused, paused->active, and any
// non-archived state -> archived. Activation additionally requires the caller
// to have validated the graph; services gate that upstream.
func (d *WorkflowDefinition) Transition(target DefinitionStatus) error {
	allowed := map[DefinitionStatus][]DefinitionStatus{
		DefinitionStatusDraft:  {DefinitionStatusActive, DefinitionStatusArchived},
		DefinitionStatusActive: {DefinitionStatusPaused, DefinitionStatusArchived},
		DefinitionStatusPaused: {DefinitionStatusActive, DefinitionStatusArchived},
	}

	for _, next := range allowed[d.Status] {
		if next == target {
			if target == DefinitionStatusActive && d.ActivatedAt == nil {
				now := time.Now().UTC()
				d.ActivatedAt = &now
			}

			d.Status = target
			d.UpdatedAt = time.Now().UTC()

			return nil
		}
	}

	return fmt.Errorf("transition %s -> %s for definition %s: %w", d.Status, target, d.ID, ErrInvalidState)
}
