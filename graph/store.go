package graph

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flowbridge/flowbridge/types"
)

// Store holds the authoritative set of workflow nodes and answers
// structural queries. It is safe for concurrent use; the executor never
// reads it directly during a run but works from a Snapshot taken at run
// start, so concurrent edits cannot corrupt an in-flight plan.
type Store struct {
	mu     sync.RWMutex
	nodes  map[string]*Node
	order  []string // insertion order, drives deterministic planning
	logger *zap.Logger
}

// NewStore creates an empty store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		nodes:  make(map[string]*Node),
		logger: logger.With(zap.String("component", "graph_store")),
	}
}

// AddNode inserts a node of the given type with a fresh id and returns it.
// A nil data payload defaults to the type's zero-value variant.
func (s *Store) AddNode(t NodeType, data NodeData) (Node, error) {
	if !t.Valid() {
		return Node{}, types.NewError(types.ErrInvalidNodeType, fmt.Sprintf("unknown node type: %s", t))
	}
	if data == nil {
		var err error
		data, err = DefaultDataFor(t)
		if err != nil {
			return Node{}, types.NewError(types.ErrInvalidNodeType, "no data variant for type").WithCause(err)
		}
	} else if !dataMatchesType(t, data) {
		return Node{}, types.NewError(types.ErrInvalidNodeType,
			fmt.Sprintf("data variant %s does not match node type %s", data.Kind(), t))
	}

	node := &Node{
		ID:   uuid.NewString(),
		Type: t,
		Data: data.Clone(),
	}

	s.mu.Lock()
	s.nodes[node.ID] = node
	s.order = append(s.order, node.ID)
	s.mu.Unlock()

	s.logger.Debug("node added",
		zap.String("node_id", node.ID),
		zap.String("node_type", string(t)),
	)
	return node.clone(), nil
}

// AddConnection attaches child to parent on the given branch. A non-empty
// branch requires a conditional parent. Connections that would introduce a
// cycle are refused.
func (s *Store) AddConnection(childID, parentID string, branch Branch) error {
	if !branch.Valid() {
		return types.NewError(types.ErrInvalidBranch, fmt.Sprintf("unknown branch value: %q", branch))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	child, ok := s.nodes[childID]
	if !ok {
		return types.NewError(types.ErrNotFound, fmt.Sprintf("node not found: %s", childID))
	}
	parent, ok := s.nodes[parentID]
	if !ok {
		return types.NewError(types.ErrNotFound, fmt.Sprintf("node not found: %s", parentID))
	}
	if childID == parentID {
		return types.NewError(types.ErrGraphInvariantViolated, "node cannot be its own parent")
	}
	if branch != BranchNone && parent.Type != NodeTypeConditional {
		return types.NewError(types.ErrInvalidBranch,
			fmt.Sprintf("branch %q requires a conditional parent, parent is %s", branch, parent.Type))
	}

	// Refuse a connection that would close a cycle: the candidate parent
	// must not be a descendant of the child.
	for cursor := parent; cursor != nil && cursor.ParentID != ""; {
		if cursor.ParentID == childID {
			return types.NewError(types.ErrGraphInvariantViolated,
				fmt.Sprintf("connecting %s under %s would create a cycle", childID, parentID))
		}
		cursor = s.nodes[cursor.ParentID]
	}

	child.ParentID = parentID
	child.Branch = branch

	s.logger.Debug("connection added",
		zap.String("child_id", childID),
		zap.String("parent_id", parentID),
		zap.String("branch", string(branch)),
	)
	return nil
}

// DeleteNode removes the node. Children of the deleted node are promoted
// to roots: their parent reference and branch are cleared rather than left
// dangling.
func (s *Store) DeleteNode(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[id]; !ok {
		return types.NewError(types.ErrNotFound, fmt.Sprintf("node not found: %s", id))
	}

	delete(s.nodes, id)
	for i, nid := range s.order {
		if nid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	promoted := 0
	for _, n := range s.nodes {
		if n.ParentID == id {
			n.ParentID = ""
			n.Branch = BranchNone
			promoted++
		}
	}

	s.logger.Debug("node deleted",
		zap.String("node_id", id),
		zap.Int("children_promoted", promoted),
	)
	return nil
}

// UpdateNodeData replaces the node's data payload. The payload variant must
// match the node's type. Returns NotFound for unknown ids instead of
// silently dropping the update.
func (s *Store) UpdateNodeData(id string, data NodeData) error {
	if data == nil {
		return types.NewError(types.ErrInvalidNodeType, "data payload is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return types.NewError(types.ErrNotFound, fmt.Sprintf("node not found: %s", id))
	}
	if !dataMatchesType(node.Type, data) {
		return types.NewError(types.ErrInvalidNodeType,
			fmt.Sprintf("data variant %s does not match node type %s", data.Kind(), node.Type))
	}

	node.Data = data.Clone()
	return nil
}

// UpdatePosition moves the node on the canvas. Position carries no
// execution semantics.
func (s *Store) UpdatePosition(id string, pos Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return types.NewError(types.ErrNotFound, fmt.Sprintf("node not found: %s", id))
	}
	node.Position = pos
	return nil
}

// Get returns a copy of the node with the given id.
func (s *Store) Get(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return node.clone(), true
}

// ChildrenOf returns nodes whose parent is id, in insertion order.
func (s *Store) ChildrenOf(id string) []Node {
	return s.childrenFiltered(id, nil)
}

// ChildrenOn returns nodes attached to id on the given branch, in
// insertion order.
func (s *Store) ChildrenOn(id string, branch Branch) []Node {
	return s.childrenFiltered(id, &branch)
}

func (s *Store) childrenFiltered(id string, branch *Branch) []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Node
	for _, nid := range s.order {
		n := s.nodes[nid]
		if n.ParentID != id {
			continue
		}
		if branch != nil && n.Branch != *branch {
			continue
		}
		out = append(out, n.clone())
	}
	return out
}

// Roots returns nodes with no parent, in insertion order.
func (s *Store) Roots() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Node
	for _, nid := range s.order {
		if n := s.nodes[nid]; n.ParentID == "" {
			out = append(out, n.clone())
		}
	}
	return out
}

// Len returns the number of nodes in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Snapshot returns a deep, immutable copy of the graph. Planning and
// execution read only from snapshots; later store mutations do not affect
// a snapshot already taken.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		nodes: make(map[string]Node, len(s.nodes)),
		order: make([]string, len(s.order)),
	}
	copy(snap.order, s.order)
	for id, n := range s.nodes {
		snap.nodes[id] = n.clone()
	}
	return snap
}

// Export serializes all nodes to the persistence wire shape, in insertion
// order.
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	nodes := make([]Node, 0, len(s.order))
	for _, id := range s.order {
		nodes = append(nodes, s.nodes[id].clone())
	}
	s.mu.RUnlock()

	data, err := json.Marshal(nodes)
	if err != nil {
		return nil, fmt.Errorf("export graph: %w", err)
	}
	return data, nil
}

// Import replaces the store contents with the given serialized node list.
func (s *Store) Import(data []byte) error {
	var nodes []Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = make(map[string]*Node, len(nodes))
	s.order = s.order[:0]
	for i := range nodes {
		n := nodes[i]
		s.nodes[n.ID] = &n
		s.order = append(s.order, n.ID)
	}

	s.logger.Info("graph imported", zap.Int("nodes", len(nodes)))
	return nil
}

func dataMatchesType(t NodeType, data NodeData) bool {
	if data.Kind() == t {
		return true
	}
	// All bridge families share the BridgeData variant.
	if t.IsBridge() {
		_, ok := data.(BridgeData)
		return ok
	}
	return false
}

// Snapshot is an immutable copy of the graph taken at run start.
type Snapshot struct {
	nodes map[string]Node
	order []string
}

// Get returns the node with the given id.
func (s *Snapshot) Get(id string) (Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Len returns the number of nodes in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.nodes)
}

// Roots returns the ids of nodes with no parent, in insertion order. A node
// whose parent id is absent from the snapshot (an imported graph with a
// dangling reference) is treated as a root.
func (s *Snapshot) Roots() []string {
	var out []string
	for _, id := range s.order {
		n := s.nodes[id]
		if n.ParentID == "" {
			out = append(out, id)
			continue
		}
		if _, ok := s.nodes[n.ParentID]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// ChildrenOf returns the nodes attached to id, in insertion order.
func (s *Snapshot) ChildrenOf(id string) []Node {
	var out []Node
	for _, nid := range s.order {
		n := s.nodes[nid]
		if n.ParentID == id {
			out = append(out, n)
		}
	}
	return out
}
