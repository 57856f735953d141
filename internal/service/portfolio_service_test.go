package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

// fakeAccount serves canned balances and ticker prices.
type fakeAccount struct {
	balances    []domain.Balance
	prices      map[string]float64
	tickerCalls int
}

func (a *fakeAccount) Account(_ context.Context) ([]domain.Balance, error) {
	return a.balances, nil
}

func (a *fakeAccount) TickerPrice(_ context.Context, symbol string) (float64, error) {
	a.tickerCalls++
	price, ok := a.prices[symbol]
	if !ok {
		return 0, errors.New("binance: unknown symbol")
	}
	return price, nil
}

// memPriceCache is an in-memory PriceCache.
type memPriceCache struct {
	prices map[string]float64
	times  map[string]time.Time
}

func newMemPriceCache() *memPriceCache {
	return &memPriceCache{prices: map[string]float64{}, times: map[string]time.Time{}}
}

func (c *memPriceCache) SetPrice(_ context.Context, symbol string, price float64, ts time.Time) error {
	c.prices[symbol] = price
	c.times[symbol] = ts
	return nil
}

func (c *memPriceCache) GetPrice(_ context.Context, symbol string) (float64, time.Time, error) {
	price, ok := c.prices[symbol]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	return price, c.times[symbol], nil
}

func (c *memPriceCache) GetPrices(_ context.Context, symbols []string) (map[string]float64, error) {
	out := map[string]float64{}
	for _, s := range symbols {
		if p, ok := c.prices[s]; ok {
			out[s] = p
		}
	}
	return out, nil
}

func TestSnapshotValuesHoldings(t *testing.T) {
	account := &fakeAccount{
		balances: []domain.Balance{
			{Asset: "BTC", Free: 0.5, Locked: 0.1},
			{Asset: "USDT", Free: 1000},
		},
		prices: map[string]float64{"BTCUSDT": 30000},
	}
	svc := NewPortfolioService(account, newMemPriceCache(), discardLogger())

	pf, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1000.0, pf.USDTBalance)
	assert.InDelta(t, 0.6*30000+1000, pf.TotalValue, 1e-9)

	require.Len(t, pf.Positions, 2)
	btc := pf.Positions[0]
	assert.Equal(t, "BTCUSDT", btc.Symbol)
	assert.InDelta(t, 18000, btc.Value, 1e-9)
}

func TestSnapshotPrefersFreshCachedPrice(t *testing.T) {
	account := &fakeAccount{
		balances: []domain.Balance{{Asset: "ETH", Free: 2}},
		prices:   map[string]float64{"ETHUSDT": 1900},
	}
	cache := newMemPriceCache()
	require.NoError(t, cache.SetPrice(context.Background(), "ETHUSDT", 1850, time.Now()))

	svc := NewPortfolioService(account, cache, discardLogger())
	pf, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Zero(t, account.tickerCalls)
	assert.InDelta(t, 3700, pf.TotalValue, 1e-9)
}

func TestSnapshotFallsBackToTickerWhenCacheStale(t *testing.T) {
	account := &fakeAccount{
		balances: []domain.Balance{{Asset: "ETH", Free: 1}},
		prices:   map[string]float64{"ETHUSDT": 1900},
	}
	cache := newMemPriceCache()
	require.NoError(t, cache.SetPrice(context.Background(), "ETHUSDT", 1850, time.Now().Add(-time.Minute)))

	svc := NewPortfolioService(account, cache, discardLogger())
	pf, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, account.tickerCalls)
	assert.InDelta(t, 1900, pf.TotalValue, 1e-9)

	// The fresh price lands back in the cache.
	price, _, err := cache.GetPrice(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, 1900.0, price)
}

func TestSnapshotUnpricedAssetValuedAtZero(t *testing.T) {
	account := &fakeAccount{
		balances: []domain.Balance{{Asset: "OBSCURE", Free: 100}},
		prices:   map[string]float64{},
	}
	svc := NewPortfolioService(account, nil, discardLogger())

	pf, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, pf.Positions, 1)
	assert.Zero(t, pf.Positions[0].Price)
	assert.Zero(t, pf.TotalValue)
}
