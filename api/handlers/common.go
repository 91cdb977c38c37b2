package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/flowbridge/flowbridge/types"
)

// Response is the envelope shared by all API endpoints.
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorInfo carries the serialized error portion of a Response.
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Guidance  string `json:"guidance,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	NodeID    string `json:"node_id,omitempty"`
}

// WriteJSON writes data as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 envelope around data.
func WriteSuccess(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// WriteError writes an error envelope. The HTTP status is derived from
// the error code when err is a *types.Error; other errors map to 500.
func WriteError(w http.ResponseWriter, err error, logger *zap.Logger) {
	fbErr, ok := err.(*types.Error)
	if !ok {
		fbErr = types.NewError(types.ErrInternalError, err.Error())
	}

	status := mapErrorCodeToHTTPStatus(fbErr.Code)

	if logger != nil {
		logger.Error("API error",
			zap.String("code", string(fbErr.Code)),
			zap.String("message", fbErr.Message),
			zap.Int("status", status),
			zap.Error(fbErr.Cause),
		)
	}

	WriteJSON(w, status, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      string(fbErr.Code),
			Message:   fbErr.Message,
			Guidance:  fbErr.Guidance,
			Retryable: fbErr.Retryable,
			NodeID:    fbErr.NodeID,
		},
		Timestamp: time.Now(),
	})
}

// WriteErrorMessage writes an error envelope from a code and message.
func WriteErrorMessage(w http.ResponseWriter, code types.ErrorCode, message string, logger *zap.Logger) {
	WriteError(w, types.NewError(code, message), logger)
}

func mapErrorCodeToHTTPStatus(code types.ErrorCode) int {
	switch code {
	case types.ErrNotFound:
		return http.StatusNotFound
	case types.ErrInvalidNodeType, types.ErrInvalidBranch,
		types.ErrMissingRecipient, types.ErrMissingAmount, types.ErrInvalidAmount:
		return http.StatusBadRequest
	case types.ErrWalletNotConnected:
		return http.StatusPreconditionFailed
	case types.ErrRunActive, types.ErrGraphInvariantViolated:
		return http.StatusConflict
	case types.ErrNoBatchExecutor:
		return http.StatusNotImplemented
	case types.ErrBridgeUnavailable:
		return http.StatusBadGateway
	case types.ErrTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
