package graph

import (
	"encoding/json"
	"fmt"
)

// NodeType identifies the behavior of a workflow node.
type NodeType string

const (
	// NodeTypeTrigger is a workflow entry point.
	NodeTypeTrigger NodeType = "trigger"
	// NodeTypeConditional branches the workflow into true/false slots.
	NodeTypeConditional NodeType = "conditional"
	// NodeTypeAgent is an AI agent step.
	NodeTypeAgent NodeType = "ai-agent"
	// NodeTypeBridgeBase transfers assets over the Base bridge.
	NodeTypeBridgeBase NodeType = "bridge-base"
	// NodeTypeBridgeHedera transfers assets over the Hedera bridge.
	NodeTypeBridgeHedera NodeType = "bridge-hedera"
	// NodeTypeBridgeDA is a data-availability bridge node executed by the
	// batch executor strategy rather than the sequential loop.
	NodeTypeBridgeDA NodeType = "bridge-da"
	// NodeTypeNotification delivers a message through the notification adapter.
	NodeTypeNotification NodeType = "notification"
)

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeTrigger, NodeTypeConditional, NodeTypeAgent,
		NodeTypeBridgeBase, NodeTypeBridgeHedera, NodeTypeBridgeDA,
		NodeTypeNotification:
		return true
	}
	return false
}

// IsBridge reports whether t performs a bridge transfer.
func (t NodeType) IsBridge() bool {
	switch t {
	case NodeTypeBridgeBase, NodeTypeBridgeHedera, NodeTypeBridgeDA:
		return true
	}
	return false
}

// IsBatch reports whether t belongs to the alternate executor family.
// A plan containing any batch node is delegated whole to the batch executor.
func (t NodeType) IsBatch() bool {
	return t == NodeTypeBridgeDA
}

// Branch selects which logical output of a conditional parent a node is
// attached to. Empty for children of non-conditional parents.
type Branch string

const (
	BranchNone  Branch = ""
	BranchTrue  Branch = "true"
	BranchFalse Branch = "false"
)

// Valid reports whether b is a recognized branch value.
func (b Branch) Valid() bool {
	return b == BranchNone || b == BranchTrue || b == BranchFalse
}

// Position is a canvas coordinate. Presentation only, irrelevant to
// execution semantics.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the closed set of per-type node payloads. Each node type has
// exactly one variant carrying only the fields that type needs.
type NodeData interface {
	// Kind returns the node type this payload belongs to.
	Kind() NodeType
	// Clone returns a deep copy of the payload.
	Clone() NodeData
}

// TriggerData configures a trigger node.
type TriggerData struct {
	Event string `json:"event,omitempty"`
}

func (d TriggerData) Kind() NodeType  { return NodeTypeTrigger }
func (d TriggerData) Clone() NodeData { return d }

// Condition is a single stored condition row on a conditional node. The
// planner never evaluates it; the taken branch is always the true slot.
type Condition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// ConditionalData configures a conditional node.
type ConditionalData struct {
	Conditions []Condition `json:"conditions,omitempty"`
}

func (d ConditionalData) Kind() NodeType { return NodeTypeConditional }

func (d ConditionalData) Clone() NodeData {
	out := ConditionalData{}
	if d.Conditions != nil {
		out.Conditions = make([]Condition, len(d.Conditions))
		copy(out.Conditions, d.Conditions)
	}
	return out
}

// AgentData configures an AI agent node.
type AgentData struct {
	Model          string `json:"model,omitempty"`
	Prompt         string `json:"prompt,omitempty"`
	CredentialsRef string `json:"credentials_ref,omitempty"`
}

func (d AgentData) Kind() NodeType  { return NodeTypeAgent }
func (d AgentData) Clone() NodeData { return d }

// BridgeData configures a bridge transfer node. RecipientAddress and Amount
// fall back to configured defaults when empty.
type BridgeData struct {
	RecipientAddress string `json:"recipient_address,omitempty"`
	Amount           string `json:"amount,omitempty"`
	SourceChain      string `json:"source_chain,omitempty"`
	TargetChain      string `json:"target_chain,omitempty"`
}

func (d BridgeData) Kind() NodeType  { return NodeTypeBridgeBase }
func (d BridgeData) Clone() NodeData { return d }

// NotificationData configures a notification node.
type NotificationData struct {
	ChatID  string `json:"chat_id,omitempty"`
	Message string `json:"message,omitempty"`
}

func (d NotificationData) Kind() NodeType  { return NodeTypeNotification }
func (d NotificationData) Clone() NodeData { return d }

// Node is a single unit in the workflow graph.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	ParentID string   `json:"parent_id,omitempty"`
	Branch   Branch   `json:"branch,omitempty"`
	Position Position `json:"position"`
	Data     NodeData `json:"-"`
}

// IsRoot reports whether the node has no parent.
func (n Node) IsRoot() bool {
	return n.ParentID == ""
}

// clone returns a deep copy of the node.
func (n Node) clone() Node {
	out := n
	if n.Data != nil {
		out.Data = n.Data.Clone()
	}
	return out
}

// nodeEnvelope is the wire shape of a Node. Data is a raw payload decoded
// by Type.
type nodeEnvelope struct {
	ID       string          `json:"id"`
	Type     NodeType        `json:"type"`
	ParentID string          `json:"parent_id,omitempty"`
	Branch   Branch          `json:"branch,omitempty"`
	Position Position        `json:"position"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON serializes the node with its typed data payload inline.
func (n Node) MarshalJSON() ([]byte, error) {
	env := nodeEnvelope{
		ID:       n.ID,
		Type:     n.Type,
		ParentID: n.ParentID,
		Branch:   n.Branch,
		Position: n.Position,
	}
	if n.Data != nil {
		raw, err := json.Marshal(n.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal node data: %w", err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

// UnmarshalJSON deserializes the node, decoding the data payload into the
// variant selected by Type.
func (n *Node) UnmarshalJSON(data []byte) error {
	var env nodeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("unmarshal node: %w", err)
	}
	n.ID = env.ID
	n.Type = env.Type
	n.ParentID = env.ParentID
	n.Branch = env.Branch
	n.Position = env.Position

	payload, err := decodeNodeData(env.Type, env.Data)
	if err != nil {
		return err
	}
	n.Data = payload
	return nil
}

// decodeNodeData decodes a raw payload into the variant for t. A missing
// payload yields the type's zero-value variant.
func decodeNodeData(t NodeType, raw json.RawMessage) (NodeData, error) {
	switch t {
	case NodeTypeTrigger:
		return decodeAs[TriggerData](t, raw)
	case NodeTypeConditional:
		return decodeAs[ConditionalData](t, raw)
	case NodeTypeAgent:
		return decodeAs[AgentData](t, raw)
	case NodeTypeBridgeBase, NodeTypeBridgeHedera, NodeTypeBridgeDA:
		return decodeAs[BridgeData](t, raw)
	case NodeTypeNotification:
		return decodeAs[NotificationData](t, raw)
	default:
		return nil, fmt.Errorf("unknown node type: %s", t)
	}
}

func decodeAs[T NodeData](t NodeType, raw json.RawMessage) (NodeData, error) {
	var d T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("unmarshal %s data: %w", t, err)
		}
	}
	return d, nil
}

// DefaultDataFor returns the zero-value payload variant for t.
func DefaultDataFor(t NodeType) (NodeData, error) {
	return decodeNodeData(t, nil)
}

// ParseData decodes a raw JSON payload into the variant for t. A nil
// payload yields the type's zero-value variant.
func ParseData(t NodeType, raw json.RawMessage) (NodeData, error) {
	return decodeNodeData(t, raw)
}
