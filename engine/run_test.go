package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowbridge/flowbridge/graph"
)

func newTestRunContext(t *testing.T, emit ObserverFunc) (*RunContext, []string) {
	t.Helper()

	s := graph.NewStore(nil)
	a, err := s.AddNode(graph.NodeTypeTrigger, nil)
	require.NoError(t, err)
	b, _ := s.AddNode(graph.NodeTypeAgent, nil)
	require.NoError(t, s.AddConnection(b.ID, a.ID, graph.BranchNone))

	order := []string{a.ID, b.ID}
	return newRunContext("run-1", order, s.Snapshot(), emit), order
}

func TestRunContextLifecycle(t *testing.T) {
	t.Parallel()

	rc, order := newTestRunContext(t, nil)

	assert.Equal(t, "run-1", rc.ID())
	assert.Equal(t, RunStatusRunning, rc.Status())
	assert.Equal(t, order, rc.Order())
	assert.Empty(t, rc.CurrentNodeID())

	for _, id := range order {
		result, ok := rc.Result(id)
		require.True(t, ok)
		assert.Equal(t, NodeStatusPending, result.Status)
	}

	rc.StartNode(order[0])
	assert.Equal(t, order[0], rc.CurrentNodeID())

	rc.FinishNode(order[0], NodeStatusSucceeded, "", "0xaa")
	assert.Empty(t, rc.CurrentNodeID())
	result, _ := rc.Result(order[0])
	assert.Equal(t, NodeStatusSucceeded, result.Status)
	assert.Equal(t, "0xaa", result.TxHash)

	rc.StartNode(order[1])
	rc.FinishNode(order[1], NodeStatusFailed, "boom", "")
	assert.Equal(t, 1, rc.FailedCount())

	rc.finish(RunStatusCompleted, "done")
	assert.Equal(t, RunStatusCompleted, rc.Status())
	assert.GreaterOrEqual(t, rc.Duration().Nanoseconds(), int64(0))
}

func TestRunContextResultsFollowPlanOrder(t *testing.T) {
	t.Parallel()

	rc, order := newTestRunContext(t, nil)
	results := rc.Results()
	require.Len(t, results, len(order))
	for i, r := range results {
		assert.Equal(t, order[i], r.NodeID)
	}
}

func TestRunContextPublishStampsEvents(t *testing.T) {
	t.Parallel()

	var events []Event
	rc, order := newTestRunContext(t, func(ev Event) {
		events = append(events, ev)
	})

	rc.StartNode(order[0])
	rc.setStatusLine(order[0], "submitting transaction", "0xbb")
	rc.FinishNode(order[0], NodeStatusSucceeded, "", "")
	rc.finish(RunStatusCompleted, "done")

	require.Len(t, events, 4)
	for _, ev := range events {
		assert.Equal(t, "run-1", ev.RunID)
		assert.False(t, ev.Timestamp.IsZero())
	}

	assert.Equal(t, EventNodeStarted, events[0].Type)
	assert.Equal(t, EventBridgeProgress, events[1].Type)
	assert.Equal(t, "submitting transaction", events[1].Message)
	assert.Equal(t, "0xbb", events[1].TxHash)

	// The tx hash observed during progress survives into the final result.
	assert.Equal(t, "0xbb", events[2].TxHash)
	assert.Equal(t, EventRunFinished, events[3].Type)

	assert.Equal(t, "submitting transaction", rc.StatusLine())
}
