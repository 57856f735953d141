package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheckReportsModeAndDataset(t *testing.T) {
	h := NewHealthHandler("backtest", slog.New(slog.DiscardHandler)).
		WithDataset(1500).
		WithFilters(12)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "backtest", body["mode"])
	assert.Equal(t, float64(1500), body["ticks"])
	assert.Equal(t, float64(12), body["symbols"])
	assert.NotEmpty(t, body["uptime"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestHealthCheckOmitsUnwiredCounts(t *testing.T) {
	h := NewHealthHandler("live", slog.New(slog.DiscardHandler))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "live", body["mode"])
	assert.NotContains(t, body, "ticks")
	assert.NotContains(t, body, "symbols")
}
