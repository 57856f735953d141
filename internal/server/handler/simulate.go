package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

// FillSimulator defines the methods that the simulate handler requires from
// the backtest layer.
type FillSimulator interface {
	SimulateMarket(intent domain.OrderIntent) (domain.FillResult, error)
	SimulateLimit(intent domain.OrderIntent) (domain.FillResult, error)
}

// SimulateHandler serves the backtest fill-simulation endpoint.
type SimulateHandler struct {
	sim    FillSimulator
	logger *slog.Logger
}

// NewSimulateHandler creates a SimulateHandler over a loaded simulator.
func NewSimulateHandler(sim FillSimulator, logger *slog.Logger) *SimulateHandler {
	return &SimulateHandler{
		sim:    sim,
		logger: logger,
	}
}

// simulateRequest is the JSON body for fill simulation. At is an optional
// reference time in epoch milliseconds; when absent, market orders fill at
// the latest tick and limit orders scan from the start of the data.
type simulateRequest struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Type       string  `json:"type"`
	Qty        float64 `json:"qty"`
	LimitPrice float64 `json:"limitPrice"`
	At         *int64  `json:"at"`
}

// Simulate replays an order against the historical tick data and returns the
// deterministic fill outcome. Failed simulations still return a structured
// result: status ERROR with the reason in the error field.
// POST /api/simulate
func (h *SimulateHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	side, kind, errMsg := validateOrderRequest(orderRequest{
		Symbol:     req.Symbol,
		Side:       req.Side,
		Type:       req.Type,
		Qty:        req.Qty,
		LimitPrice: req.LimitPrice,
	})
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	intent := domain.OrderIntent{
		Symbol:     req.Symbol,
		Side:       side,
		Kind:       kind,
		Quantity:   req.Qty,
		LimitPrice: req.LimitPrice,
	}
	if req.At != nil {
		at := time.UnixMilli(*req.At).UTC()
		intent.At = &at
	}

	var (
		res domain.FillResult
		err error
	)
	switch kind {
	case domain.OrderMarket:
		res, err = h.sim.SimulateMarket(intent)
	case domain.OrderLimit:
		res, err = h.sim.SimulateLimit(intent)
	}

	if err != nil {
		h.logger.InfoContext(r.Context(), "handler: simulation produced no fill",
			slog.String("symbol", req.Symbol),
			slog.String("error", err.Error()),
		)
	}

	// The ERROR-status result is a legitimate simulation outcome, not a
	// transport failure.
	writeJSON(w, http.StatusOK, res)
}
