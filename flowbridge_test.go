package flowbridge_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/flowbridge/flowbridge"
	"github.com/flowbridge/flowbridge/engine"
	"github.com/flowbridge/flowbridge/graph"
)

func TestNewRunsLinearWorkflow(t *testing.T) {
	wf := flowbridge.New(
		flowbridge.WithLogger(zaptest.NewLogger(t)),
		flowbridge.WithPacing(time.Millisecond),
	)

	trigger, err := wf.Store.AddNode(graph.NodeTypeTrigger, nil)
	require.NoError(t, err)
	agent, err := wf.Store.AddNode(graph.NodeTypeAgent, nil)
	require.NoError(t, err)
	require.NoError(t, wf.Store.AddConnection(agent.ID, trigger.ID, graph.BranchNone))

	rc, err := wf.Executor.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.RunStatusCompleted, rc.Status())
	assert.Equal(t, []string{trigger.ID, agent.ID}, rc.Order())
}

func TestNewWithoutWalletFailsBridgePreconditions(t *testing.T) {
	wf := flowbridge.New(flowbridge.WithPacing(time.Millisecond))

	node, err := wf.Store.AddNode(graph.NodeTypeBridgeBase, graph.BridgeData{
		RecipientAddress: "0xdead",
		Amount:           "1.5",
	})
	require.NoError(t, err)

	rc, err := wf.Executor.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.RunStatusCompleted, rc.Status())

	result, ok := rc.Result(node.ID)
	require.True(t, ok)
	assert.Equal(t, engine.NodeStatusFailed, result.Status)
}

// A batch executor supplied from outside the engine package reports node
// lifecycle through RunContext.StartNode and RunContext.FinishNode.
func TestNewWithBatchExecutorReportsNodeResults(t *testing.T) {
	batch := engine.BatchExecutorFunc(func(ctx context.Context, snap *graph.Snapshot, order []string, rc *engine.RunContext) error {
		for _, id := range order {
			rc.StartNode(id)
			rc.FinishNode(id, engine.NodeStatusSucceeded, "batched", "0xbatch")
		}
		// Unplanned ids are ignored rather than panicking.
		rc.StartNode("not-in-plan")
		rc.FinishNode("not-in-plan", engine.NodeStatusFailed, "", "")
		return nil
	})

	wf := flowbridge.New(
		flowbridge.WithLogger(zaptest.NewLogger(t)),
		flowbridge.WithBatchExecutor(batch),
	)

	da, err := wf.Store.AddNode(graph.NodeTypeBridgeDA, graph.BridgeData{
		RecipientAddress: "0xdest",
		Amount:           "2",
	})
	require.NoError(t, err)

	rc, err := wf.Executor.Execute(context.Background())
	require.NoError(t, err)
	require.NoError(t, rc.Err())
	assert.Equal(t, engine.RunStatusCompleted, rc.Status())

	result, ok := rc.Result(da.ID)
	require.True(t, ok)
	assert.Equal(t, engine.NodeStatusSucceeded, result.Status)
	assert.Equal(t, "batched", result.Message)
	assert.Equal(t, "0xbatch", result.TxHash)

	for _, r := range rc.Results() {
		assert.NotEqual(t, engine.NodeStatusPending, r.Status)
	}
}
