package engine

import (
	"sync"
	"time"

	"github.com/flowbridge/flowbridge/graph"
)

// NodeStatus is the lifecycle of a single node within a run.
type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "pending"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusSucceeded NodeStatus = "succeeded"
	NodeStatusFailed    NodeStatus = "failed"
)

// RunStatus is the lifecycle of a whole run. Node failures do not fail the
// run; RunStatusFailed is reserved for runs that could not proceed at all
// (batch delegation failure, cancelled context).
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// EventType tags run events delivered to observers.
type EventType string

const (
	EventRunStarted     EventType = "run-started"
	EventNodeStarted    EventType = "node-started"
	EventNodeFinished   EventType = "node-finished"
	EventBridgeProgress EventType = "bridge-progress"
	EventRunFinished    EventType = "run-finished"
)

// Event is a read-only snapshot of a run state change.
type Event struct {
	Type      EventType      `json:"type"`
	RunID     string         `json:"run_id"`
	NodeID    string         `json:"node_id,omitempty"`
	NodeType  graph.NodeType `json:"node_type,omitempty"`
	Status    NodeStatus     `json:"status,omitempty"`
	Message   string         `json:"message,omitempty"`
	TxHash    string         `json:"tx_hash,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ObserverFunc receives run events. Observers are invoked synchronously on
// the run goroutine and must not block.
type ObserverFunc func(Event)

// NodeResult is the per-node outcome within a run.
type NodeResult struct {
	NodeID    string         `json:"node_id"`
	NodeType  graph.NodeType `json:"node_type"`
	Status    NodeStatus     `json:"status"`
	Message   string         `json:"message,omitempty"`
	TxHash    string         `json:"tx_hash,omitempty"`
	StartTime time.Time      `json:"start_time,omitempty"`
	EndTime   time.Time      `json:"end_time,omitempty"`
}

// RunContext carries the execution state of one run. It replaces ambient
// mutable flags with an explicit object: the executor writes through it,
// observers and the API read read-only copies.
type RunContext struct {
	mu         sync.RWMutex
	id         string
	order      []string
	results    map[string]*NodeResult
	currentID  string
	statusLine string
	status     RunStatus
	startTime  time.Time
	endTime    time.Time
	emit       ObserverFunc
	runErr     error
	done       chan struct{}
}

func newRunContext(id string, order []string, snap *graph.Snapshot, emit ObserverFunc) *RunContext {
	rc := &RunContext{
		id:        id,
		order:     append([]string(nil), order...),
		results:   make(map[string]*NodeResult, len(order)),
		status:    RunStatusRunning,
		startTime: time.Now(),
		emit:      emit,
		done:      make(chan struct{}),
	}
	for _, nodeID := range order {
		node, _ := snap.Get(nodeID)
		rc.results[nodeID] = &NodeResult{
			NodeID:   nodeID,
			NodeType: node.Type,
			Status:   NodeStatusPending,
		}
	}
	return rc
}

// ID returns the run id.
func (rc *RunContext) ID() string {
	return rc.id
}

// Order returns a copy of the planned node order.
func (rc *RunContext) Order() []string {
	return append([]string(nil), rc.order...)
}

// Status returns the run-level status.
func (rc *RunContext) Status() RunStatus {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.status
}

// CurrentNodeID returns the node currently executing, empty when the run
// is not on a node (before start, between nodes, after the run).
func (rc *RunContext) CurrentNodeID() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.currentID
}

// StatusLine returns the run-scoped status text, driven by bridge progress
// events.
func (rc *RunContext) StatusLine() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.statusLine
}

// Result returns a copy of the result of a planned node.
func (rc *RunContext) Result(nodeID string) (NodeResult, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	r, ok := rc.results[nodeID]
	if !ok {
		return NodeResult{}, false
	}
	return *r, true
}

// Results returns copies of all node results in plan order.
func (rc *RunContext) Results() []NodeResult {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	out := make([]NodeResult, 0, len(rc.order))
	for _, id := range rc.order {
		out = append(out, *rc.results[id])
	}
	return out
}

// FailedCount returns the number of failed nodes.
func (rc *RunContext) FailedCount() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	n := 0
	for _, r := range rc.results {
		if r.Status == NodeStatusFailed {
			n++
		}
	}
	return n
}

// Duration returns the run duration; for an in-flight run, the time since
// start.
func (rc *RunContext) Duration() time.Duration {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	if rc.endTime.IsZero() {
		return time.Since(rc.startTime)
	}
	return rc.endTime.Sub(rc.startTime)
}

func (rc *RunContext) publish(ev Event) {
	ev.RunID = rc.id
	ev.Timestamp = time.Now()
	if rc.emit != nil {
		rc.emit(ev)
	}
}

// StartNode marks a planned node as running and publishes a node-started
// event. It is the reporting entry point for batch executors; the sequential
// loop uses it too. Node ids outside the plan are ignored.
func (rc *RunContext) StartNode(nodeID string) {
	rc.mu.Lock()
	r, ok := rc.results[nodeID]
	if !ok {
		rc.mu.Unlock()
		return
	}
	r.Status = NodeStatusRunning
	r.StartTime = time.Now()
	rc.currentID = nodeID
	nodeType := r.NodeType
	rc.mu.Unlock()

	rc.publish(Event{
		Type:     EventNodeStarted,
		NodeID:   nodeID,
		NodeType: nodeType,
		Status:   NodeStatusRunning,
	})
}

// FinishNode records the terminal status of a planned node and publishes a
// node-finished event. Node ids outside the plan are ignored.
func (rc *RunContext) FinishNode(nodeID string, status NodeStatus, message, txHash string) {
	rc.mu.Lock()
	r, ok := rc.results[nodeID]
	if !ok {
		rc.mu.Unlock()
		return
	}
	r.Status = status
	r.Message = message
	if txHash != "" {
		r.TxHash = txHash
	}
	r.EndTime = time.Now()
	rc.currentID = ""
	nodeType := r.NodeType
	tx := r.TxHash
	rc.mu.Unlock()

	rc.publish(Event{
		Type:     EventNodeFinished,
		NodeID:   nodeID,
		NodeType: nodeType,
		Status:   status,
		Message:  message,
		TxHash:   tx,
	})
}

func (rc *RunContext) setStatusLine(nodeID, line, txHash string) {
	rc.mu.Lock()
	rc.statusLine = line
	var nodeType graph.NodeType
	if r, ok := rc.results[nodeID]; ok {
		if txHash != "" {
			r.TxHash = txHash
		}
		nodeType = r.NodeType
	}
	rc.mu.Unlock()

	rc.publish(Event{
		Type:     EventBridgeProgress,
		NodeID:   nodeID,
		NodeType: nodeType,
		Message:  line,
		TxHash:   txHash,
	})
}

// Done is closed once the run has fully finished and its terminal error,
// if any, is recorded.
func (rc *RunContext) Done() <-chan struct{} {
	return rc.done
}

// Err returns the run's terminal error. Valid after Done is closed; node
// failures are not terminal errors.
func (rc *RunContext) Err() error {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.runErr
}

// complete records the terminal error and signals Done. Called exactly
// once by the executor.
func (rc *RunContext) complete(err error) {
	rc.mu.Lock()
	rc.runErr = err
	rc.mu.Unlock()
	close(rc.done)
}

func (rc *RunContext) finish(status RunStatus, message string) {
	rc.mu.Lock()
	rc.status = status
	rc.currentID = ""
	rc.endTime = time.Now()
	rc.mu.Unlock()

	rc.publish(Event{
		Type:    EventRunFinished,
		Message: message,
	})
}
