package engine

import (
	"context"

	"github.com/flowbridge/flowbridge/graph"
)

// BatchExecutor runs an entire plan as one unit when the plan contains a
// batch-family node. Implementations own node-level sequencing and report
// per-node progress via RunContext.StartNode and RunContext.FinishNode,
// exactly as the sequential loop does.
type BatchExecutor interface {
	ExecuteBatch(ctx context.Context, snap *graph.Snapshot, order []string, rc *RunContext) error
}

// BatchExecutorFunc adapts a function to the BatchExecutor interface.
type BatchExecutorFunc func(ctx context.Context, snap *graph.Snapshot, order []string, rc *RunContext) error

func (f BatchExecutorFunc) ExecuteBatch(ctx context.Context, snap *graph.Snapshot, order []string, rc *RunContext) error {
	return f(ctx, snap, order, rc)
}
