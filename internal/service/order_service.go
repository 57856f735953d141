package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alanyoungcy/spotbot/internal/domain"
	"github.com/alanyoungcy/spotbot/internal/quantize"
)

// Gateway submits exchange-legal orders to the exchange. It is the one
// external collaborator of the live dispatch path; timeout and retry policy,
// if any, live behind this interface, not here.
type Gateway interface {
	PlaceOrder(ctx context.Context, ord domain.GatewayOrder) (domain.GatewayAck, error)
}

// FillNotifier pushes dispatch outcomes to operator channels. Delivery is
// best effort and never blocks the order path.
type FillNotifier interface {
	NotifyFill(ctx context.Context, res domain.FillResult)
}

// OrderService is the live order dispatcher: it quantizes and validates a
// request, hands the exchange-legal order to the gateway, and maps the
// exchange response into a FillResult. Validation and gateway failures are
// recovered into a Status ERROR result at this boundary; callers always get
// a structured result.
type OrderService struct {
	quantizer *quantize.Quantizer
	gateway   Gateway
	trades    domain.TradeLogStore
	notifier  FillNotifier
	logger    *slog.Logger
}

// NewOrderService creates an OrderService over an immutable filter snapshot.
func NewOrderService(quantizer *quantize.Quantizer, gateway Gateway, logger *slog.Logger) *OrderService {
	return &OrderService{
		quantizer: quantizer,
		gateway:   gateway,
		logger:    logger.With(slog.String("component", "order_service")),
	}
}

// WithTradeLog attaches a trade log store so every dispatch outcome, errors
// included, is persisted. Without one the service only logs.
func (s *OrderService) WithTradeLog(trades domain.TradeLogStore) *OrderService {
	s.trades = trades
	return s
}

// WithNotifier attaches an operator notification channel for dispatch
// outcomes.
func (s *OrderService) WithNotifier(notifier FillNotifier) *OrderService {
	s.notifier = notifier
	return s
}

// PlaceMarket quantizes and dispatches a market order.
func (s *OrderService) PlaceMarket(ctx context.Context, symbol string, side domain.Side, qty float64) (domain.FillResult, error) {
	res := domain.FillResult{
		Mode:     domain.ModeLive,
		Kind:     domain.OrderMarket,
		Symbol:   symbol,
		Side:     side,
		Quantity: qty,
	}

	qo, err := s.quantizer.Validate(symbol, qty, nil)
	if err != nil {
		return s.reject(ctx, res, err)
	}
	res.Quantity = qo.Quantity

	return s.dispatch(ctx, res, domain.GatewayOrder{
		Symbol:        symbol,
		Side:          side,
		Kind:          domain.OrderMarket,
		Quantity:      qo.Quantity,
		ClientOrderID: clientOrderID(),
	})
}

// PlaceLimit quantizes and dispatches a limit order with the given
// time-in-force.
func (s *OrderService) PlaceLimit(ctx context.Context, symbol string, side domain.Side, qty, price float64, tif domain.TimeInForce) (domain.FillResult, error) {
	res := domain.FillResult{
		Mode:       domain.ModeLive,
		Kind:       domain.OrderLimit,
		Symbol:     symbol,
		Side:       side,
		Quantity:   qty,
		LimitPrice: price,
	}

	qo, err := s.quantizer.Validate(symbol, qty, &price)
	if err != nil {
		return s.reject(ctx, res, err)
	}
	res.Quantity = qo.Quantity
	res.LimitPrice = qo.Price

	return s.dispatch(ctx, res, domain.GatewayOrder{
		Symbol:        symbol,
		Side:          side,
		Kind:          domain.OrderLimit,
		Quantity:      qo.Quantity,
		Price:         qo.Price,
		TimeInForce:   tif,
		ClientOrderID: clientOrderID(),
	})
}

// dispatch sends the quantized order to the gateway and maps its response.
func (s *OrderService) dispatch(ctx context.Context, res domain.FillResult, ord domain.GatewayOrder) (domain.FillResult, error) {
	ack, err := s.gateway.PlaceOrder(ctx, ord)
	if err != nil {
		res.Status = domain.StatusError
		res.Err = err.Error()
		s.logger.ErrorContext(ctx, "order dispatch failed",
			slog.String("symbol", ord.Symbol),
			slog.String("side", string(ord.Side)),
			slog.String("type", string(ord.Kind)),
			slog.String("error", err.Error()),
		)
		s.record(ctx, res)
		return res, err
	}

	res.OrderID = ack.OrderID
	res.Status = mapAckStatus(ack.Status)
	if price, ok := averageFillPrice(ack.Fills); ok {
		res.FillPrice = price
	}
	if res.Status == domain.StatusFilled {
		at := ack.TransactTime
		res.FilledAt = &at
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", ack.OrderID),
		slog.String("symbol", ord.Symbol),
		slog.String("side", string(ord.Side)),
		slog.String("type", string(ord.Kind)),
		slog.Float64("qty", ord.Quantity),
		slog.String("status", string(res.Status)),
	)
	s.record(ctx, res)
	return res, nil
}

// reject recovers a validation failure into a Status ERROR result.
func (s *OrderService) reject(ctx context.Context, res domain.FillResult, err error) (domain.FillResult, error) {
	res.Status = domain.StatusError
	res.Err = err.Error()
	s.logger.WarnContext(ctx, "order rejected by validation",
		slog.String("symbol", res.Symbol),
		slog.String("side", string(res.Side)),
		slog.String("type", string(res.Kind)),
		slog.String("error", err.Error()),
	)
	s.record(ctx, res)
	return res, err
}

func (s *OrderService) record(ctx context.Context, res domain.FillResult) {
	if s.trades != nil {
		if err := s.trades.Insert(ctx, res); err != nil {
			s.logger.WarnContext(ctx, "trade log insert failed",
				slog.String("symbol", res.Symbol),
				slog.String("error", err.Error()),
			)
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyFill(ctx, res)
	}
}

// mapAckStatus maps the exchange's order status onto the shared result
// status: resting orders are OPEN, anything unexpected is ERROR.
func mapAckStatus(status string) domain.OrderStatus {
	switch status {
	case "FILLED":
		return domain.StatusFilled
	case "NEW", "PARTIALLY_FILLED":
		return domain.StatusOpen
	default:
		return domain.StatusError
	}
}

// averageFillPrice returns the quantity-weighted average over partial fills.
func averageFillPrice(fills []domain.GatewayFill) (float64, bool) {
	var notional, qty float64
	for _, f := range fills {
		notional += f.Price * f.Quantity
		qty += f.Quantity
	}
	if qty == 0 {
		return 0, false
	}
	return notional / qty, true
}

func clientOrderID() string {
	return "spotbot-" + uuid.NewString()
}
