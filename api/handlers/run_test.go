package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowbridge/flowbridge/api"
	"github.com/flowbridge/flowbridge/engine"
	"github.com/flowbridge/flowbridge/graph"
)

func newRunTestServer(t *testing.T, store *graph.Store) (*engine.Executor, *httptest.Server) {
	t.Helper()

	executor := engine.NewExecutor(store, engine.Deps{}, engine.Config{}, nil)
	mux := NewRouter(RouterDeps{
		Run: NewRunHandler(executor, "", nil),
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return executor, srv
}

func decodeRunView(t *testing.T, resp *http.Response) api.RunView {
	t.Helper()

	body := decodeBody(t, resp)
	raw, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var view api.RunView
	require.NoError(t, json.Unmarshal(raw, &view))
	return view
}

func waitForRun(t *testing.T, executor *engine.Executor) *engine.RunContext {
	t.Helper()

	rc := executor.Current()
	require.NotNil(t, rc)
	select {
	case <-rc.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish in time")
	}
	return rc
}

func TestHandleExecute(t *testing.T) {
	store := graph.NewStore(nil)
	trigger, err := store.AddNode(graph.NodeTypeTrigger, nil)
	require.NoError(t, err)
	agent, _ := store.AddNode(graph.NodeTypeAgent, nil)
	require.NoError(t, store.AddConnection(agent.ID, trigger.ID, graph.BranchNone))

	executor, srv := newRunTestServer(t, store)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/execute", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	view := decodeRunView(t, resp)
	assert.NotEmpty(t, view.RunID)
	assert.Equal(t, []string{trigger.ID, agent.ID}, view.Order)

	rc := waitForRun(t, executor)
	assert.Equal(t, engine.RunStatusCompleted, rc.Status())
}

func TestHandleExecuteConflictWhileRunning(t *testing.T) {
	store := graph.NewStore(nil)
	// A slow node keeps the first run busy.
	_, err := store.AddNode(graph.NodeTypeTrigger, nil)
	require.NoError(t, err)

	executor := engine.NewExecutor(store, engine.Deps{}, engine.Config{Pacing: 300 * time.Millisecond}, nil)
	mux := NewRouter(RouterDeps{Run: NewRunHandler(executor, "", nil)})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/execute", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/execute", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody(t, resp)
	require.NotNil(t, body.Error)
	assert.Equal(t, "RUN_ACTIVE", body.Error.Code)

	waitForRun(t, executor)
}

func TestHandleCurrentRun(t *testing.T) {
	store := graph.NewStore(nil)
	_, err := store.AddNode(graph.NodeTypeTrigger, nil)
	require.NoError(t, err)

	executor, srv := newRunTestServer(t, store)

	// Before any run.
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/runs/current", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/execute", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	waitForRun(t, executor)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/runs/current", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	view := decodeRunView(t, resp)
	assert.Equal(t, engine.RunStatusCompleted, view.Status)
	require.Len(t, view.Results, 1)
	assert.Equal(t, engine.NodeStatusSucceeded, view.Results[0].Status)
}

func TestHandleEventsStreamsRun(t *testing.T) {
	store := graph.NewStore(nil)
	trigger, err := store.AddNode(graph.NodeTypeTrigger, nil)
	require.NoError(t, err)
	_ = trigger

	executor, srv := newRunTestServer(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/runs/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/execute", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var seen []engine.EventType
	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)

		var ev engine.Event
		require.NoError(t, json.Unmarshal(data, &ev))
		seen = append(seen, ev.Type)
		if ev.Type == engine.EventRunFinished {
			break
		}
	}

	assert.Contains(t, seen, engine.EventNodeStarted)
	assert.Contains(t, seen, engine.EventNodeFinished)
	waitForRun(t, executor)
}
