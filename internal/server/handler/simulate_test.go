package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spotbot/internal/backtest"
	"github.com/alanyoungcy/spotbot/internal/domain"
)

func simulateWith(t *testing.T, csv, body string) *httptest.ResponseRecorder {
	t.Helper()
	store, err := backtest.Load(strings.NewReader(csv))
	require.NoError(t, err)

	h := NewSimulateHandler(backtest.NewSimulator(store), testLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/simulate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Simulate(rec, req)
	return rec
}

const simulateCSV = "Timestamp,Execution Price\n100,10\n200,20\n300,30\n"

func TestSimulateMarketAtLatestTick(t *testing.T) {
	rec := simulateWith(t, simulateCSV, `{"symbol":"BTCUSDT","side":"BUY","qty":1}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fillPrice":30`)
	assert.Contains(t, rec.Body.String(), `"mode":"BACKTEST"`)
}

func TestSimulateMarketWithReferenceTime(t *testing.T) {
	rec := simulateWith(t, simulateCSV,
		`{"symbol":"BTCUSDT","side":"BUY","qty":1,"at":150}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fillPrice":20`)
}

func TestSimulateLimitNeverCrossedIsOpen(t *testing.T) {
	rec := simulateWith(t, simulateCSV,
		`{"symbol":"BTCUSDT","side":"BUY","type":"LIMIT","qty":1,"limitPrice":5}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"`+string(domain.StatusOpen)+`"`)
}

func TestSimulateAfterDataEndReturnsErrorResult(t *testing.T) {
	rec := simulateWith(t, simulateCSV,
		`{"symbol":"BTCUSDT","side":"BUY","qty":1,"at":999}`)

	// No future tick exists; the outcome is still a structured result.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ERROR"`)
}

func TestSimulateRejectsMalformedBody(t *testing.T) {
	rec := simulateWith(t, simulateCSV, `{"symbol":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
