package graph

import (
	"fmt"

	"github.com/flowbridge/flowbridge/types"
)

// Plan computes the execution order for a graph snapshot.
//
// The order is a breadth-first walk from the roots: siblings before
// grandchildren, each node at most once. Children attached to the false
// branch of a conditional are permanently excluded from the plan, together
// with everything reachable only through them. The stored conditions are
// never evaluated here; taking the true branch is the documented default
// policy, condition evaluation happens upstream of the engine.
//
// The parent relation is expected to be a forest. The walk itself cannot
// loop (a visited set guards re-entry), but a parent chain that closes on
// itself means the store invariant was bypassed, so planning aborts with
// GRAPH_INVARIANT_VIOLATED rather than silently dropping the cycle's nodes.
func Plan(snap *Snapshot) ([]string, error) {
	if snap == nil || snap.Len() == 0 {
		return nil, nil
	}

	if err := checkAcyclic(snap); err != nil {
		return nil, err
	}

	visited := make(map[string]bool, snap.Len())
	queue := snap.Roots()
	order := make([]string, 0, snap.Len())

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if visited[id] {
			continue
		}
		visited[id] = true
		order = append(order, id)

		for _, child := range snap.ChildrenOf(id) {
			// False-branch children are excluded from this run, not
			// deferred.
			if child.Branch == BranchFalse {
				continue
			}
			if !visited[child.ID] {
				queue = append(queue, child.ID)
			}
		}
	}

	return order, nil
}

// checkAcyclic walks every node's parent chain. A chain longer than the
// node count can only mean the chain revisits itself.
func checkAcyclic(snap *Snapshot) error {
	limit := snap.Len()
	for _, id := range snap.order {
		cursor := snap.nodes[id]
		for steps := 0; cursor.ParentID != ""; steps++ {
			if steps > limit {
				return types.NewError(types.ErrGraphInvariantViolated,
					fmt.Sprintf("cycle detected in parent chain of node %s", id))
			}
			parent, ok := snap.nodes[cursor.ParentID]
			if !ok {
				break // dangling parent, node is treated as a root
			}
			cursor = parent
		}
	}
	return nil
}
