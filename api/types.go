package api

import (
	"encoding/json"
	"time"

	"github.com/flowbridge/flowbridge/engine"
	"github.com/flowbridge/flowbridge/graph"
)

// AddNodeRequest creates a workflow node. Data, when present, must match
// the node type's payload shape.
type AddNodeRequest struct {
	Type     graph.NodeType  `json:"type"`
	Data     json.RawMessage `json:"data,omitempty"`
	Position *graph.Position `json:"position,omitempty"`
}

// ConnectRequest attaches a node to a parent. Branch is required for
// conditional parents and must be empty otherwise.
type ConnectRequest struct {
	ParentID string       `json:"parent_id"`
	Branch   graph.Branch `json:"branch,omitempty"`
}

// UpdateDataRequest replaces a node's payload.
type UpdateDataRequest struct {
	Data json.RawMessage `json:"data"`
}

// MoveNodeRequest updates a node's canvas position.
type MoveNodeRequest struct {
	Position graph.Position `json:"position"`
}

// SaveWorkflowRequest persists the current graph under a name. ID is
// optional; a fresh one is generated when omitted.
type SaveWorkflowRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// WorkflowSummary describes a saved workflow without its node payload.
type WorkflowSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunView is the API projection of a run.
type RunView struct {
	RunID         string           `json:"run_id"`
	Status        engine.RunStatus `json:"status"`
	Order         []string         `json:"order"`
	CurrentNodeID string           `json:"current_node_id,omitempty"`
	StatusLine    string           `json:"status_line,omitempty"`
	FailedNodes   int              `json:"failed_nodes"`
	Results       []NodeResultView `json:"results,omitempty"`
}

// NodeResultView is the API projection of a node outcome.
type NodeResultView struct {
	NodeID   string            `json:"node_id"`
	NodeType graph.NodeType    `json:"node_type"`
	Status   engine.NodeStatus `json:"status"`
	Message  string            `json:"message,omitempty"`
	TxHash   string            `json:"tx_hash,omitempty"`
}

// NewRunView projects a run context for API responses.
func NewRunView(rc *engine.RunContext) RunView {
	view := RunView{
		RunID:         rc.ID(),
		Status:        rc.Status(),
		Order:         rc.Order(),
		CurrentNodeID: rc.CurrentNodeID(),
		StatusLine:    rc.StatusLine(),
		FailedNodes:   rc.FailedCount(),
	}
	for _, r := range rc.Results() {
		view.Results = append(view.Results, NodeResultView{
			NodeID:   r.NodeID,
			NodeType: r.NodeType,
			Status:   r.Status,
			Message:  r.Message,
			TxHash:   r.TxHash,
		})
	}
	return view
}
