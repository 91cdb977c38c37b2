package persist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowbridge/flowbridge/graph"
	"github.com/flowbridge/flowbridge/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(DatabaseConfig{Driver: "sqlite", Name: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndLoadWorkflow(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveWorkflow("wf-1", "bridge demo", []byte(`{"nodes":[]}`)))

	record, err := s.LoadWorkflow("wf-1")
	require.NoError(t, err)
	assert.Equal(t, "wf-1", record.ID)
	assert.Equal(t, "bridge demo", record.Name)
	assert.JSONEq(t, `{"nodes":[]}`, string(record.Nodes))
	assert.False(t, record.CreatedAt.IsZero())
}

func TestSaveWorkflowUpserts(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveWorkflow("wf-1", "v1", []byte(`{"nodes":[]}`)))
	require.NoError(t, s.SaveWorkflow("wf-1", "v2", []byte(`{"nodes":[{"id":"a"}]}`)))

	record, err := s.LoadWorkflow("wf-1")
	require.NoError(t, err)
	assert.Equal(t, "v2", record.Name)

	records, err := s.ListWorkflows()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLoadWorkflowNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LoadWorkflow("missing")
	require.Error(t, err)
	assert.Equal(t, types.ErrNotFound, types.GetErrorCode(err))
}

func TestListWorkflowsOmitsPayload(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveWorkflow("wf-1", "first", []byte(`{"nodes":[]}`)))
	require.NoError(t, s.SaveWorkflow("wf-2", "second", []byte(`{"nodes":[]}`)))

	records, err := s.ListWorkflows()
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.NotEmpty(t, r.ID)
		assert.NotEmpty(t, r.Name)
		assert.Empty(t, r.Nodes, "listing must not load node payloads")
	}
}

func TestDeleteWorkflow(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveWorkflow("wf-1", "doomed", []byte(`{"nodes":[]}`)))
	require.NoError(t, s.DeleteWorkflow("wf-1"))

	_, err := s.LoadWorkflow("wf-1")
	assert.Equal(t, types.ErrNotFound, types.GetErrorCode(err))

	err = s.DeleteWorkflow("wf-1")
	assert.Equal(t, types.ErrNotFound, types.GetErrorCode(err))
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(DatabaseConfig{Driver: "oracle"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

// A graph export round-trips through the database unchanged.
func TestWorkflowRoundTripThroughGraphStore(t *testing.T) {
	s := newTestStore(t)

	g := graph.NewStore(nil)
	trigger, err := g.AddNode(graph.NodeTypeTrigger, nil)
	require.NoError(t, err)
	br, _ := g.AddNode(graph.NodeTypeBridgeBase, graph.BridgeData{
		RecipientAddress: "0xdest", Amount: "1.5",
	})
	require.NoError(t, g.AddConnection(br.ID, trigger.ID, graph.BranchNone))

	exported, err := g.Export()
	require.NoError(t, err)
	require.NoError(t, s.SaveWorkflow("wf-1", "round trip", exported))

	record, err := s.LoadWorkflow("wf-1")
	require.NoError(t, err)

	restored := graph.NewStore(nil)
	require.NoError(t, restored.Import(record.Nodes))
	assert.Equal(t, 2, restored.Len())

	node, ok := restored.Get(br.ID)
	require.True(t, ok)
	data, ok := node.Data.(graph.BridgeData)
	require.True(t, ok)
	assert.Equal(t, "0xdest", data.RecipientAddress)
}

func TestDSNFormats(t *testing.T) {
	t.Parallel()

	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "fb", Password: "pw", Name: "flowbridge"}
	assert.Contains(t, pg.DSN(), "host=db")
	assert.Contains(t, pg.DSN(), "sslmode=disable")

	my := DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, User: "fb", Password: "pw", Name: "flowbridge"}
	assert.Contains(t, my.DSN(), "tcp(db:3306)")
	assert.Contains(t, my.DSN(), "parseTime=True")

	lite := DatabaseConfig{Driver: "sqlite", Name: "flowbridge.db"}
	assert.Equal(t, "flowbridge.db", lite.DSN())
}
