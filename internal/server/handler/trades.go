package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

// TradesHandler serves the trade-log query endpoints.
type TradesHandler struct {
	trades domain.TradeLogStore
	logger *slog.Logger
}

// NewTradesHandler creates a TradesHandler over the given store.
func NewTradesHandler(trades domain.TradeLogStore, logger *slog.Logger) *TradesHandler {
	return &TradesHandler{
		trades: trades,
		logger: logger,
	}
}

// listTradesResponse wraps the trade-list responses.
type listTradesResponse struct {
	Trades []domain.FillResult `json:"trades"`
}

// ListRecent returns the most recent dispatch outcomes, newest first.
// GET /api/trades?limit=50
func (h *TradesHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	trades, err := h.trades.ListRecent(r.Context(), opts.Limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list trades failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}

	if trades == nil {
		trades = []domain.FillResult{}
	}
	writeJSON(w, http.StatusOK, listTradesResponse{Trades: trades})
}

// ListBySymbol returns dispatch outcomes for one symbol, newest first.
// GET /api/trades/{symbol}?limit=50&offset=0&since=...&until=...
func (h *TradesHandler) ListBySymbol(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "missing symbol")
		return
	}

	trades, err := h.trades.ListBySymbol(r.Context(), symbol, parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list trades by symbol failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}

	if trades == nil {
		trades = []domain.FillResult{}
	}
	writeJSON(w, http.StatusOK, listTradesResponse{Trades: trades})
}
