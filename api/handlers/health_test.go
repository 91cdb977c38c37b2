package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHealthz(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler(nil)
	rec := httptest.NewRecorder()
	h.HandleHealthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
}

func TestHandleReadyAllChecksPass(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler(nil)
	h.RegisterCheck(CheckFunc{CheckName: "database", Fn: func(ctx context.Context) error { return nil }})
	h.RegisterCheck(CheckFunc{CheckName: "redis", Fn: func(ctx context.Context) error { return nil }})

	rec := httptest.NewRecorder()
	h.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "pass", status.Checks["database"].Status)
	assert.Equal(t, "pass", status.Checks["redis"].Status)
}

func TestHandleReadyFailingCheck(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler(nil)
	h.RegisterCheck(CheckFunc{CheckName: "database", Fn: func(ctx context.Context) error { return nil }})
	h.RegisterCheck(CheckFunc{CheckName: "redis", Fn: func(ctx context.Context) error {
		return errors.New("connection refused")
	}})

	rec := httptest.NewRecorder()
	h.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "fail", status.Checks["redis"].Status)
	assert.Contains(t, status.Checks["redis"].Message, "connection refused")
}
