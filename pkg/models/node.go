package models

import (
	"encoding/json"
	"fmt"
)

// NodeType is the closed set of node variants the engine understands.
type NodeType string

const (
	NodeTypeTrigger   NodeType = "trigger"
	NodeTypeContent   NodeType = "content"
	NodeTypeSchedule  NodeType = "schedule"
	NodeTypeFilter    NodeType = "filter"
	NodeTypeAudience  NodeType = "audience"
	NodeTypeAnalytics NodeType = "analytics"
)

// NodeTypes lists every valid node type, in schema-registry order.
func NodeTypes() []NodeType {
	return []NodeType{
		NodeTypeTrigger,
		NodeTypeContent,
		NodeTypeSchedule,
		NodeTypeFilter,
		NodeTypeAudience,
		NodeTypeAnalytics,
	}
}

// NodeConfig is implemented by the per-type configuration structs. The
// concrete type of a node's config always corresponds to its NodeType.
type NodeConfig interface {
	ConfigType() NodeType
}

// Node is one step in a workflow graph. Position is a presentation hint for
// the external editor and is ignored by the engine.
type Node struct {
	ID        string     `json:"id"   validate:"required"`
	Type      NodeType   `json:"type" validate:"required"`
	Name      string     `json:"name"`
	Config    NodeConfig `json:"-"`
	PositionX int        `json:"position_x"`
	PositionY int        `json:"position_y"`
}

// IsTerminalType reports whether this node type may terminate a branch with
// an external action.
func (n *Node) IsTerminalType() bool {
	return n.Type == NodeTypeContent || n.Type == NodeTypeAnalytics
}

// Clone returns a deep copy of the node, including its config.
func (n *Node) Clone() *Node {
	clone := *n
	clone.Config = cloneConfig(n.Config)

	return &clone
}

func cloneConfig(c NodeConfig) NodeConfig {
	switch cfg := c.(type) {
	case *TriggerConfig:
		cp := *cfg
		cp.Keywords = append([]string(nil), cfg.Keywords...)

		return &cp
	case *FilterConfig:
		cp := *cfg

		return &cp
	case *AudienceConfig:
		cp := *cfg

		return &cp
	case *ContentConfig:
		cp := *cfg

		return &cp
	case *ScheduleConfig:
		cp := *cfg

		return &cp
	case *AnalyticsConfig:
		cp := *cfg

		return &cp
	default:
		return c
	}
}

// nodeJSON is the wire shape of a node; config travels as a raw object keyed
// by the node type so the editor can round-trip it untouched.
type nodeJSON struct {
	ID        string          `json:"id"`
	Type      NodeType        `json:"type"`
	Name      string          `json:"name"`
	Config    json.RawMessage `json:"config,omitempty"`
	PositionX int             `json:"position_x"`
	PositionY int             `json:"position_y"`
}

// MarshalJSON encodes the node with its typed config inlined.
func (n *Node) MarshalJSON() ([]byte, error) {
	var (
		raw []byte
		err error
	)

	if n.Config != nil {
		raw, err = json.Marshal(n.Config)
		if err != nil {
			return nil, fmt.Errorf("marshal config of node %s: %w", n.ID, err)
		}
	}

	return json.Marshal(nodeJSON{
		ID:        n.ID,
		Type:      n.Type,
		Name:      n.Name,
		Config:    raw,
		PositionX: n.PositionX,
		PositionY: n.PositionY,
	})
}

// UnmarshalJSON decodes the config into the struct matching the node type.
// An unknown type is an error; a missing config yields the type's zero
// config so the validator can report the individual missing fields.
func (n *Node) UnmarshalJSON(data []byte) error {
	var wire nodeJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	n.ID = wire.ID
	n.Type = wire.Type
	n.Name = wire.Name
	n.PositionX = wire.PositionX
	n.PositionY = wire.PositionY

	config, err := NewConfig(wire.Type)
	if err != nil {
		return fmt.Errorf("node %s: %w", wire.ID, err)
	}

	if len(wire.Config) > 0 {
		if err := json.Unmarshal(wire.Config, config); err != nil {
			return fmt.Errorf("decode config of node %s: %w", wire.ID, err)
		}
	}

	n.Config = config

	return nil
}

// NewConfig returns the zero config struct for a node type.
func NewConfig(t NodeType) (NodeConfig, error) {
	switch t {
	case NodeTypeTrigger:
		return &TriggerConfig{}, nil
	case NodeTypeContent:
		return &ContentConfig{}, nil
	case NodeTypeSchedule:
		return &ScheduleConfig{}, nil
	case NodeTypeFilter:
		return &FilterConfig{}, nil
	case NodeTypeAudience:
		return &AudienceConfig{}, nil
	case NodeTypeAnalytics:
		return &AnalyticsConfig{}, nil
	default:
		return nil, fmt.Errorf("unknown node type %q", t)
	}
}
