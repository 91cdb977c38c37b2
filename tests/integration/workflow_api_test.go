// Full-stack tests: HTTP API over a real store, executor, scripted
// bridge adapter, and SQLite persistence.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/flowbridge/flowbridge/api"
	"github.com/flowbridge/flowbridge/api/handlers"
	"github.com/flowbridge/flowbridge/bridge"
	"github.com/flowbridge/flowbridge/engine"
	"github.com/flowbridge/flowbridge/graph"
	"github.com/flowbridge/flowbridge/persist"
	"github.com/flowbridge/flowbridge/testutil"
	"github.com/flowbridge/flowbridge/testutil/mocks"
	"github.com/flowbridge/flowbridge/wallet"
)

type stack struct {
	server   *httptest.Server
	store    *graph.Store
	executor *engine.Executor
	adapter  *mocks.ScriptedAdapter
	notifier *mocks.RecordingNotifier
}

func newStack(t *testing.T) *stack {
	t.Helper()
	logger := zaptest.NewLogger(t)

	db, err := persist.Open(persist.DatabaseConfig{Driver: "sqlite", Name: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := graph.NewStore(logger)
	adapter := mocks.NewScriptedAdapter("base")
	notifier := &mocks.RecordingNotifier{}

	executor := engine.NewExecutor(store, engine.Deps{
		Wallet:   &wallet.Static{Account: "0xsender", Chain: "base-mainnet"},
		Bridges:  map[graph.NodeType]bridge.Adapter{graph.NodeTypeBridgeBase: adapter},
		Notifier: notifier,
	}, engine.Config{Pacing: time.Millisecond}, logger)

	mux := handlers.NewRouter(handlers.RouterDeps{
		Graph:  handlers.NewGraphHandler(store, db, nil, logger),
		Run:    handlers.NewRunHandler(executor, "", logger),
		Health: handlers.NewHealthHandler(logger),
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &stack{server: srv, store: store, executor: executor, adapter: adapter, notifier: notifier}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *stack) do(t *testing.T, method, path string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if out != nil && env.Data != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return resp.StatusCode
}

func (s *stack) addNode(t *testing.T, nodeType graph.NodeType, data any) graph.Node {
	t.Helper()
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		require.NoError(t, err)
		raw = b
	}
	var node graph.Node
	code := s.do(t, http.MethodPost, "/api/v1/nodes", api.AddNodeRequest{Type: nodeType, Data: raw}, &node)
	require.Equal(t, http.StatusCreated, code)
	return node
}

func (s *stack) connect(t *testing.T, childID, parentID string, branch graph.Branch) {
	t.Helper()
	code := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/nodes/%s/connection", childID),
		api.ConnectRequest{ParentID: parentID, Branch: branch}, nil)
	require.Equal(t, http.StatusOK, code)
}

func TestWorkflowLifecycleOverHTTP(t *testing.T) {
	s := newStack(t)

	trigger := s.addNode(t, graph.NodeTypeTrigger, nil)
	cond := s.addNode(t, graph.NodeTypeConditional, nil)
	transfer := s.addNode(t, graph.NodeTypeBridgeBase, graph.BridgeData{
		RecipientAddress: "0xcafe",
		Amount:           "2.5",
	})
	skipped := s.addNode(t, graph.NodeTypeAgent, nil)

	s.connect(t, cond.ID, trigger.ID, graph.BranchNone)
	s.connect(t, transfer.ID, cond.ID, graph.BranchTrue)
	s.connect(t, skipped.ID, cond.ID, graph.BranchFalse)

	var view api.RunView
	code := s.do(t, http.MethodPost, "/api/v1/execute", nil, &view)
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, []string{trigger.ID, cond.ID, transfer.ID}, view.Order)

	testutil.Eventually(t, func() bool {
		var current api.RunView
		if s.do(t, http.MethodGet, "/api/v1/runs/current", nil, &current) != http.StatusOK {
			return false
		}
		return current.Status == engine.RunStatusCompleted
	}, 5*time.Second, "run did not complete")

	var final api.RunView
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/runs/current", nil, &final))
	assert.Equal(t, 0, final.FailedNodes)
	require.Len(t, final.Results, 3)
	assert.Equal(t, "0xmock", final.Results[2].TxHash)

	// The false branch was never reached.
	require.Equal(t, 1, s.adapter.Calls())
	req := s.adapter.Requests()[0]
	assert.Equal(t, "0xcafe", req.RecipientAddress)
	assert.Equal(t, "2.5", req.Amount)
	assert.Equal(t, "0xsender", req.SenderAddress)

	require.NotEmpty(t, s.notifier.Messages())
	assert.Contains(t, s.notifier.Messages()[0], "0xmock")
}

func TestConcurrentExecuteRejectedOverHTTP(t *testing.T) {
	s := newStack(t)
	s.adapter.Gate = make(chan struct{})

	trigger := s.addNode(t, graph.NodeTypeTrigger, nil)
	transfer := s.addNode(t, graph.NodeTypeBridgeBase, graph.BridgeData{
		RecipientAddress: "0xcafe",
		Amount:           "1",
	})
	s.connect(t, transfer.ID, trigger.ID, graph.BranchNone)

	rc, err := s.executor.Start(testutil.TestContext(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	resp, err := s.server.Client().Post(s.server.URL+"/api/v1/execute", "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	close(s.adapter.Gate)
	testutil.WaitForRun(t, rc, 5*time.Second)
}

func TestSaveLoadWorkflowOverHTTP(t *testing.T) {
	s := newStack(t)

	trigger := s.addNode(t, graph.NodeTypeTrigger, nil)
	agent := s.addNode(t, graph.NodeTypeAgent, nil)
	s.connect(t, agent.ID, trigger.ID, graph.BranchNone)

	var saved api.WorkflowSummary
	code := s.do(t, http.MethodPost, "/api/v1/workflows", api.SaveWorkflowRequest{Name: "demo"}, &saved)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, saved.ID)

	var summaries []api.WorkflowSummary
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/workflows", nil, &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "demo", summaries[0].Name)

	// Wreck the canvas, then restore from the saved copy.
	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/v1/nodes/"+agent.ID, nil, nil))
	require.Equal(t, 1, s.store.Len())

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/workflows/"+saved.ID+"/load", nil, nil))
	assert.Equal(t, 2, s.store.Len())

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/v1/workflows/"+saved.ID, nil, nil))
	var after []api.WorkflowSummary
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/workflows", nil, &after))
	assert.Empty(t, after)
}
