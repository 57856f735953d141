package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

// OrderService defines the methods that the order handler requires from the
// live dispatch layer.
type OrderService interface {
	PlaceMarket(ctx context.Context, symbol string, side domain.Side, qty float64) (domain.FillResult, error)
	PlaceLimit(ctx context.Context, symbol string, side domain.Side, qty, price float64, tif domain.TimeInForce) (domain.FillResult, error)
}

// OrderHandler serves the live order placement endpoint.
type OrderHandler struct {
	orders OrderService
	logger *slog.Logger
}

// NewOrderHandler creates an OrderHandler with the given service and logger.
func NewOrderHandler(orders OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger,
	}
}

// orderRequest is the JSON body for order placement.
type orderRequest struct {
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	Type        string  `json:"type"`
	Qty         float64 `json:"qty"`
	LimitPrice  float64 `json:"limitPrice"`
	TimeInForce string  `json:"timeInForce"`
}

// PlaceOrder quantizes, validates, and dispatches an order to the exchange.
// Rejected orders come back as a FillResult with status ERROR so the caller
// sees the same shape for every outcome.
// POST /api/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	side, kind, errMsg := validateOrderRequest(req)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	var (
		res domain.FillResult
		err error
	)
	switch kind {
	case domain.OrderMarket:
		res, err = h.orders.PlaceMarket(r.Context(), req.Symbol, side, req.Qty)
	case domain.OrderLimit:
		tif := domain.TimeInForce(req.TimeInForce)
		if tif == "" {
			tif = domain.TifGTC
		}
		res, err = h.orders.PlaceLimit(r.Context(), req.Symbol, side, req.Qty, req.LimitPrice, tif)
	}

	if err != nil {
		if isValidationErr(err) {
			writeJSON(w, http.StatusBadRequest, res)
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: place order failed",
			slog.String("symbol", req.Symbol),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusBadGateway, res)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// validateOrderRequest checks the request fields and resolves the side and
// order type. It returns a non-empty message on failure.
func validateOrderRequest(req orderRequest) (domain.Side, domain.OrderKind, string) {
	if req.Symbol == "" {
		return "", "", "symbol is required"
	}
	if req.Qty <= 0 {
		return "", "", "qty must be positive"
	}

	side := domain.Side(req.Side)
	if side != domain.SideBuy && side != domain.SideSell {
		return "", "", "side must be BUY or SELL"
	}

	kind := domain.OrderKind(req.Type)
	if kind == "" {
		kind = domain.OrderMarket
	}
	switch kind {
	case domain.OrderMarket:
	case domain.OrderLimit:
		if req.LimitPrice <= 0 {
			return "", "", "limitPrice must be positive for LIMIT orders"
		}
	default:
		return "", "", "type must be MARKET or LIMIT"
	}

	return side, kind, ""
}

// isValidationErr reports whether err is a pre-dispatch rejection rather
// than an exchange failure.
func isValidationErr(err error) bool {
	var notional *domain.NotionalError
	return errors.Is(err, domain.ErrUnknownSymbol) ||
		errors.Is(err, domain.ErrMissingFilter) ||
		errors.As(err, &notional)
}
