package backtest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

func newSimulator(t *testing.T) *Simulator {
	t.Helper()
	store, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	return NewSimulator(store)
}

func at(ms int64) *time.Time {
	t := time.UnixMilli(ms).UTC()
	return &t
}

func TestSimulateMarketNoReferenceUsesLatestTick(t *testing.T) {
	sim := newSimulator(t)

	res, err := sim.SimulateMarket(domain.OrderIntent{
		Symbol:   "BTCUSDT",
		Side:     domain.SideBuy,
		Kind:     domain.OrderMarket,
		Quantity: 0.5,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ModeBacktest, res.Mode)
	assert.Equal(t, domain.StatusFilled, res.Status)
	assert.Equal(t, 30.0, res.FillPrice)
	require.NotNil(t, res.FilledAt)
	assert.Equal(t, int64(300), res.FilledAt.UnixMilli())
}

func TestSimulateMarketWithReferenceFillsNextTrade(t *testing.T) {
	sim := newSimulator(t)

	res, err := sim.SimulateMarket(domain.OrderIntent{
		Symbol:   "BTCUSDT",
		Side:     domain.SideSell,
		Kind:     domain.OrderMarket,
		Quantity: 1,
		At:       at(150),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFilled, res.Status)
	assert.Equal(t, 20.0, res.FillPrice)
	require.NotNil(t, res.FilledAt)
	assert.Equal(t, int64(200), res.FilledAt.UnixMilli())
}

func TestSimulateMarketNoFutureData(t *testing.T) {
	sim := newSimulator(t)

	res, err := sim.SimulateMarket(domain.OrderIntent{
		Symbol:   "BTCUSDT",
		Side:     domain.SideBuy,
		Kind:     domain.OrderMarket,
		Quantity: 1,
		At:       at(500),
	})
	require.ErrorIs(t, err, domain.ErrNoFutureData)

	assert.Equal(t, domain.StatusError, res.Status)
	assert.NotEmpty(t, res.Err)
	assert.Zero(t, res.FillPrice)
}

func TestSimulateLimitBuyCrossesAtFirstTickBelowLimit(t *testing.T) {
	sim := newSimulator(t)

	res, err := sim.SimulateLimit(domain.OrderIntent{
		Symbol:     "BTCUSDT",
		Side:       domain.SideBuy,
		Kind:       domain.OrderLimit,
		Quantity:   1,
		LimitPrice: 15,
		At:         at(0),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFilled, res.Status)
	assert.Equal(t, 10.0, res.FillPrice)
	require.NotNil(t, res.FilledAt)
	assert.Equal(t, int64(100), res.FilledAt.UnixMilli())
}

func TestSimulateLimitBuyNeverCrossesStaysOpen(t *testing.T) {
	sim := newSimulator(t)

	res, err := sim.SimulateLimit(domain.OrderIntent{
		Symbol:     "BTCUSDT",
		Side:       domain.SideBuy,
		Kind:       domain.OrderLimit,
		Quantity:   1,
		LimitPrice: 5,
		At:         at(0),
	})
	require.NoError(t, err)

	// OPEN is a valid terminal outcome, not an error.
	assert.Equal(t, domain.StatusOpen, res.Status)
	assert.Empty(t, res.Err)
	assert.Zero(t, res.FillPrice)
	assert.Nil(t, res.FilledAt)
}

func TestSimulateLimitSellCrossesAtOrAboveLimit(t *testing.T) {
	sim := newSimulator(t)

	res, err := sim.SimulateLimit(domain.OrderIntent{
		Symbol:     "BTCUSDT",
		Side:       domain.SideSell,
		Kind:       domain.OrderLimit,
		Quantity:   1,
		LimitPrice: 25,
		At:         at(0),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFilled, res.Status)
	assert.Equal(t, 30.0, res.FillPrice)
}

func TestSimulateLimitReferenceSkipsEarlierTicks(t *testing.T) {
	sim := newSimulator(t)

	// The tick at TS 100 would cross, but the order is placed at 150.
	res, err := sim.SimulateLimit(domain.OrderIntent{
		Symbol:     "BTCUSDT",
		Side:       domain.SideBuy,
		Kind:       domain.OrderLimit,
		Quantity:   1,
		LimitPrice: 15,
		At:         at(150),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusOpen, res.Status)
}

func TestSimulateLimitNoReferenceScansAll(t *testing.T) {
	sim := newSimulator(t)

	res, err := sim.SimulateLimit(domain.OrderIntent{
		Symbol:     "BTCUSDT",
		Side:       domain.SideSell,
		Kind:       domain.OrderLimit,
		Quantity:   1,
		LimitPrice: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFilled, res.Status)
	assert.Equal(t, 10.0, res.FillPrice)
}

func TestSimulatorUnusableStoreFailsFast(t *testing.T) {
	store, err := Load(strings.NewReader("Time,Execution Price\n100,10\n"))
	require.Error(t, err)
	sim := NewSimulator(store)

	market, merr := sim.SimulateMarket(domain.OrderIntent{Symbol: "BTCUSDT", Side: domain.SideBuy, Quantity: 1})
	require.Error(t, merr)
	assert.Equal(t, domain.StatusError, market.Status)
	assert.Equal(t, domain.ModeBacktest, market.Mode)

	limit, lerr := sim.SimulateLimit(domain.OrderIntent{Symbol: "BTCUSDT", Side: domain.SideBuy, Quantity: 1, LimitPrice: 10})
	require.Error(t, lerr)
	assert.Equal(t, domain.StatusError, limit.Status)

	var schema *domain.SchemaError
	assert.ErrorAs(t, merr, &schema)
	assert.ErrorAs(t, lerr, &schema)
}
