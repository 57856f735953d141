package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spotbot/internal/domain"
	"github.com/alanyoungcy/spotbot/internal/quantize"
)

// fakeGateway records the last order and returns a canned ack or error.
type fakeGateway struct {
	lastOrder domain.GatewayOrder
	ack       domain.GatewayAck
	err       error
	calls     int
}

func (g *fakeGateway) PlaceOrder(_ context.Context, ord domain.GatewayOrder) (domain.GatewayAck, error) {
	g.calls++
	g.lastOrder = ord
	if g.err != nil {
		return domain.GatewayAck{}, g.err
	}
	return g.ack, nil
}

// memTradeLog is an in-memory TradeLogStore.
type memTradeLog struct {
	rows []domain.FillResult
}

func (m *memTradeLog) Insert(_ context.Context, res domain.FillResult) error {
	m.rows = append(m.rows, res)
	return nil
}

func (m *memTradeLog) ListRecent(_ context.Context, limit int) ([]domain.FillResult, error) {
	if limit > len(m.rows) {
		limit = len(m.rows)
	}
	return m.rows[len(m.rows)-limit:], nil
}

func (m *memTradeLog) ListBySymbol(_ context.Context, symbol string, _ domain.ListOpts) ([]domain.FillResult, error) {
	var out []domain.FillResult
	for _, r := range m.rows {
		if r.Symbol == symbol {
			out = append(out, r)
		}
	}
	return out, nil
}

func testQuantizer() *quantize.Quantizer {
	return quantize.New(domain.NewFilterTable([]domain.SymbolFilters{
		{
			Symbol:      "BTCUSDT",
			StepSize:    0.001,
			MinQty:      0.001,
			TickSize:    0.01,
			MinPrice:    0.01,
			MinNotional: 10,
		},
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestPlaceMarketQuantizesBeforeDispatch(t *testing.T) {
	gw := &fakeGateway{ack: domain.GatewayAck{
		OrderID:      "42",
		Status:       "FILLED",
		TransactTime: time.UnixMilli(1700000000000).UTC(),
		Fills:        []domain.GatewayFill{{Price: 30000, Quantity: 0.001}},
	}}
	trades := &memTradeLog{}
	svc := NewOrderService(testQuantizer(), gw, discardLogger()).WithTradeLog(trades)

	res, err := svc.PlaceMarket(context.Background(), "BTCUSDT", domain.SideBuy, 0.0015)
	require.NoError(t, err)

	// The gateway must receive the quantized quantity, not the raw request.
	assert.InDelta(t, 0.001, gw.lastOrder.Quantity, 1e-9)
	assert.NotEmpty(t, gw.lastOrder.ClientOrderID)

	assert.Equal(t, domain.ModeLive, res.Mode)
	assert.Equal(t, domain.StatusFilled, res.Status)
	assert.Equal(t, "42", res.OrderID)
	assert.Equal(t, 30000.0, res.FillPrice)
	require.NotNil(t, res.FilledAt)

	require.Len(t, trades.rows, 1)
	assert.Equal(t, domain.StatusFilled, trades.rows[0].Status)
}

func TestPlaceLimitQuantizesPrice(t *testing.T) {
	gw := &fakeGateway{ack: domain.GatewayAck{OrderID: "7", Status: "NEW"}}
	svc := NewOrderService(testQuantizer(), gw, discardLogger())

	res, err := svc.PlaceLimit(context.Background(), "BTCUSDT", domain.SideSell, 0.01, 30000.004, domain.TifGTC)
	require.NoError(t, err)

	assert.InDelta(t, 30000.00, gw.lastOrder.Price, 1e-9)
	assert.Equal(t, domain.TifGTC, gw.lastOrder.TimeInForce)

	// A resting limit order surfaces as OPEN.
	assert.Equal(t, domain.StatusOpen, res.Status)
	assert.Nil(t, res.FilledAt)
}

func TestPlaceLimitValidationFailureNeverReachesGateway(t *testing.T) {
	gw := &fakeGateway{}
	trades := &memTradeLog{}
	svc := NewOrderService(testQuantizer(), gw, discardLogger()).WithTradeLog(trades)

	// 0.001 * 1000 = 1 USDT, below the 10 USDT notional floor.
	res, err := svc.PlaceLimit(context.Background(), "BTCUSDT", domain.SideBuy, 0.001, 1000, domain.TifGTC)

	var notional *domain.NotionalError
	require.ErrorAs(t, err, &notional)
	assert.Zero(t, gw.calls)

	// The failure is recovered into a structured result.
	assert.Equal(t, domain.StatusError, res.Status)
	assert.NotEmpty(t, res.Err)
	assert.Equal(t, domain.ModeLive, res.Mode)

	require.Len(t, trades.rows, 1)
	assert.Equal(t, domain.StatusError, trades.rows[0].Status)
}

func TestPlaceMarketUnknownSymbol(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewOrderService(testQuantizer(), gw, discardLogger())

	res, err := svc.PlaceMarket(context.Background(), "DOGEUSDT", domain.SideBuy, 1)
	require.ErrorIs(t, err, domain.ErrUnknownSymbol)
	assert.Equal(t, domain.StatusError, res.Status)
	assert.Zero(t, gw.calls)
}

func TestGatewayFailureMapsToErrorResult(t *testing.T) {
	gw := &fakeGateway{err: errors.New("binance: POST /v3/order: status 503")}
	svc := NewOrderService(testQuantizer(), gw, discardLogger())

	res, err := svc.PlaceMarket(context.Background(), "BTCUSDT", domain.SideSell, 0.01)
	require.Error(t, err)
	assert.Equal(t, domain.StatusError, res.Status)
	assert.Contains(t, res.Err, "503")
}

func TestAverageFillPriceWeighted(t *testing.T) {
	gw := &fakeGateway{ack: domain.GatewayAck{
		OrderID: "9",
		Status:  "FILLED",
		Fills: []domain.GatewayFill{
			{Price: 4000, Quantity: 1},
			{Price: 3999, Quantity: 9},
		},
	}}
	svc := NewOrderService(testQuantizer(), gw, discardLogger())

	res, err := svc.PlaceMarket(context.Background(), "BTCUSDT", domain.SideSell, 10)
	require.NoError(t, err)
	assert.InDelta(t, 3999.1, res.FillPrice, 1e-9)
}
