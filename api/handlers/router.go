package handlers

import (
	"net/http"
)

// RouterDeps collects the handlers mounted by NewRouter.
type RouterDeps struct {
	Graph  *GraphHandler
	Run    *RunHandler
	Health *HealthHandler
}

// NewRouter mounts the API surface on a ServeMux.
func NewRouter(deps RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()

	if deps.Graph != nil {
		mux.HandleFunc("POST /api/v1/nodes", deps.Graph.HandleAddNode)
		mux.HandleFunc("POST /api/v1/nodes/{id}/connection", deps.Graph.HandleConnect)
		mux.HandleFunc("DELETE /api/v1/nodes/{id}", deps.Graph.HandleDeleteNode)
		mux.HandleFunc("PATCH /api/v1/nodes/{id}/data", deps.Graph.HandleUpdateData)
		mux.HandleFunc("PATCH /api/v1/nodes/{id}/position", deps.Graph.HandleMoveNode)
		mux.HandleFunc("GET /api/v1/workflow", deps.Graph.HandleGetWorkflow)
		mux.HandleFunc("POST /api/v1/workflows", deps.Graph.HandleSaveWorkflow)
		mux.HandleFunc("GET /api/v1/workflows", deps.Graph.HandleListWorkflows)
		mux.HandleFunc("POST /api/v1/workflows/{id}/load", deps.Graph.HandleLoadWorkflow)
		mux.HandleFunc("DELETE /api/v1/workflows/{id}", deps.Graph.HandleDeleteWorkflow)
	}

	if deps.Run != nil {
		mux.HandleFunc("POST /api/v1/execute", deps.Run.HandleExecute)
		mux.HandleFunc("GET /api/v1/runs/current", deps.Run.HandleCurrentRun)
		mux.HandleFunc("GET /api/v1/runs/ws", deps.Run.HandleEvents)
	}

	if deps.Health != nil {
		mux.HandleFunc("GET /healthz", deps.Health.HandleHealthz)
		mux.HandleFunc("GET /readyz", deps.Health.HandleReady)
	}

	return mux
}
