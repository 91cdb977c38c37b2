package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flowbridge/flowbridge/api"
	"github.com/flowbridge/flowbridge/graph"
	"github.com/flowbridge/flowbridge/persist"
	"github.com/flowbridge/flowbridge/types"
)

// GraphHandler serves the node editing and workflow persistence
// endpoints. The persistence store and cache are optional; the related
// endpoints return 404 codes when no store is configured.
type GraphHandler struct {
	store   *graph.Store
	persist *persist.Store
	cache   *persist.Cache
	logger  *zap.Logger
}

// NewGraphHandler builds the handler. persistStore and cache may be nil.
func NewGraphHandler(store *graph.Store, persistStore *persist.Store, cache *persist.Cache, logger *zap.Logger) *GraphHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphHandler{
		store:   store,
		persist: persistStore,
		cache:   cache,
		logger:  logger.With(zap.String("component", "graph_handler")),
	}
}

// HandleAddNode serves POST /api/v1/nodes.
func (h *GraphHandler) HandleAddNode(w http.ResponseWriter, r *http.Request) {
	var req api.AddNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorMessage(w, types.ErrInvalidNodeType, "invalid request body", h.logger)
		return
	}

	data, err := graph.ParseData(req.Type, req.Data)
	if err != nil {
		WriteErrorMessage(w, types.ErrInvalidNodeType, err.Error(), h.logger)
		return
	}

	node, err := h.store.AddNode(req.Type, data)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	if req.Position != nil {
		if err := h.store.UpdatePosition(node.ID, *req.Position); err != nil {
			WriteError(w, err, h.logger)
			return
		}
		node, _ = h.store.Get(node.ID)
	}

	h.invalidateCachedGraph(r)
	WriteJSON(w, http.StatusCreated, Response{Success: true, Data: node, Timestamp: time.Now()})
}

// HandleConnect serves POST /api/v1/nodes/{id}/connection.
func (h *GraphHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req api.ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorMessage(w, types.ErrInvalidBranch, "invalid request body", h.logger)
		return
	}

	if err := h.store.AddConnection(id, req.ParentID, req.Branch); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	node, _ := h.store.Get(id)
	h.invalidateCachedGraph(r)
	WriteSuccess(w, node)
}

// HandleDeleteNode serves DELETE /api/v1/nodes/{id}.
func (h *GraphHandler) HandleDeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteNode(r.PathValue("id")); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	h.invalidateCachedGraph(r)
	WriteSuccess(w, nil)
}

// HandleUpdateData serves PATCH /api/v1/nodes/{id}/data.
func (h *GraphHandler) HandleUpdateData(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	node, ok := h.store.Get(id)
	if !ok {
		WriteErrorMessage(w, types.ErrNotFound, "node not found: "+id, h.logger)
		return
	}

	var req api.UpdateDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorMessage(w, types.ErrInvalidNodeType, "invalid request body", h.logger)
		return
	}

	data, err := graph.ParseData(node.Type, req.Data)
	if err != nil {
		WriteErrorMessage(w, types.ErrInvalidNodeType, err.Error(), h.logger)
		return
	}

	if err := h.store.UpdateNodeData(id, data); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	node, _ = h.store.Get(id)
	h.invalidateCachedGraph(r)
	WriteSuccess(w, node)
}

// HandleMoveNode serves PATCH /api/v1/nodes/{id}/position.
func (h *GraphHandler) HandleMoveNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req api.MoveNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorMessage(w, types.ErrInvalidNodeType, "invalid request body", h.logger)
		return
	}

	if err := h.store.UpdatePosition(id, req.Position); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	node, _ := h.store.Get(id)
	WriteSuccess(w, node)
}

// HandleGetWorkflow serves GET /api/v1/workflow: the current graph as its
// JSON export.
func (h *GraphHandler) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	data, err := h.store.Export()
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, json.RawMessage(data))
}

// HandleSaveWorkflow serves POST /api/v1/workflows: persists the current
// graph under a name.
func (h *GraphHandler) HandleSaveWorkflow(w http.ResponseWriter, r *http.Request) {
	if h.persist == nil {
		WriteErrorMessage(w, types.ErrNotFound, "workflow persistence is not configured", h.logger)
		return
	}

	var req api.SaveWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		WriteErrorMessage(w, types.ErrInvalidNodeType, "workflow name is required", h.logger)
		return
	}

	data, err := h.store.Export()
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	if err := h.persist.SaveWorkflow(id, req.Name, data); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, Response{
		Success:   true,
		Data:      api.WorkflowSummary{ID: id, Name: req.Name},
		Timestamp: time.Now(),
	})
}

// HandleListWorkflows serves GET /api/v1/workflows.
func (h *GraphHandler) HandleListWorkflows(w http.ResponseWriter, r *http.Request) {
	if h.persist == nil {
		WriteErrorMessage(w, types.ErrNotFound, "workflow persistence is not configured", h.logger)
		return
	}

	records, err := h.persist.ListWorkflows()
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	summaries := make([]api.WorkflowSummary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, api.WorkflowSummary{
			ID:        r.ID,
			Name:      r.Name,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		})
	}
	WriteSuccess(w, summaries)
}

// HandleLoadWorkflow serves POST /api/v1/workflows/{id}/load: replaces
// the current graph with a saved one.
func (h *GraphHandler) HandleLoadWorkflow(w http.ResponseWriter, r *http.Request) {
	if h.persist == nil {
		WriteErrorMessage(w, types.ErrNotFound, "workflow persistence is not configured", h.logger)
		return
	}

	record, err := h.persist.LoadWorkflow(r.PathValue("id"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := h.store.Import(record.Nodes); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	h.invalidateCachedGraph(r)
	WriteSuccess(w, api.WorkflowSummary{ID: record.ID, Name: record.Name})
}

// HandleDeleteWorkflow serves DELETE /api/v1/workflows/{id}.
func (h *GraphHandler) HandleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	if h.persist == nil {
		WriteErrorMessage(w, types.ErrNotFound, "workflow persistence is not configured", h.logger)
		return
	}

	if err := h.persist.DeleteWorkflow(r.PathValue("id")); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, nil)
}

// invalidateCachedGraph refreshes the Redis export after a mutation. Best
// effort; a cache failure never fails the request.
func (h *GraphHandler) invalidateCachedGraph(r *http.Request) {
	if h.cache == nil {
		return
	}
	data, err := h.store.Export()
	if err != nil {
		return
	}
	if err := h.cache.StoreGraph(r.Context(), data); err != nil {
		h.logger.Warn("graph cache refresh failed", zap.Error(err))
	}
}
