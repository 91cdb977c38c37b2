package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/flowbridge/flowbridge/api"
	"github.com/flowbridge/flowbridge/engine"
	"github.com/flowbridge/flowbridge/types"
)

// RunHandler serves run control and live event streaming. It subscribes
// to the executor once and fans events out to connected WebSocket
// clients.
type RunHandler struct {
	executor      *engine.Executor
	logger        *zap.Logger
	allowedOrigin string

	mu     sync.Mutex
	nextID int
	subs   map[int]chan engine.Event
}

// NewRunHandler builds the handler and registers its event observer.
func NewRunHandler(executor *engine.Executor, allowedOrigin string, logger *zap.Logger) *RunHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &RunHandler{
		executor:      executor,
		logger:        logger.With(zap.String("component", "run_handler")),
		allowedOrigin: allowedOrigin,
		subs:          make(map[int]chan engine.Event),
	}
	executor.AddObserver(h.broadcast)
	return h
}

func (h *RunHandler) broadcast(ev engine.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		// Slow clients lose events rather than stalling the run.
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *RunHandler) subscribe() (int, chan engine.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	ch := make(chan engine.Event, 64)
	h.subs[id] = ch
	return id, ch
}

func (h *RunHandler) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

// HandleExecute serves POST /api/v1/execute: starts a run and returns
// 202 with the planned order. A run already in flight yields 409.
func (h *RunHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	// The run outlives the request.
	rc, err := h.executor.Start(context.WithoutCancel(r.Context()))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusAccepted, Response{
		Success:   true,
		Data:      api.NewRunView(rc),
		Timestamp: time.Now(),
	})
}

// HandleCurrentRun serves GET /api/v1/runs/current.
func (h *RunHandler) HandleCurrentRun(w http.ResponseWriter, r *http.Request) {
	rc := h.executor.Current()
	if rc == nil {
		WriteErrorMessage(w, types.ErrNotFound, "no run has been started", h.logger)
		return
	}
	WriteSuccess(w, api.NewRunView(rc))
}

// HandleEvents serves GET /api/v1/runs/ws: upgrades to WebSocket and
// streams run events as JSON text messages until the client disconnects.
func (h *RunHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if h.allowedOrigin != "" {
		opts.OriginPatterns = []string{h.allowedOrigin}
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}

	id, ch := h.subscribe()
	defer h.unsubscribe(id)

	ctx := conn.CloseRead(r.Context())

	// Writes are serialized by this loop; the connection has no other
	// writer.
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "closing")
			return
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				h.logger.Debug("websocket write failed", zap.Error(err))
				conn.Close(websocket.StatusNormalClosure, "write failed")
				return
			}
		}
	}
}
