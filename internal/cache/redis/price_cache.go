package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

// PriceCache implements domain.PriceCache on Redis. Each symbol's last
// traded price lives in a hash at "ticker:{symbol}" with fields "price" and
// "ts" (Unix millisecond timestamp), written by the websocket feed and read
// by portfolio valuation.
type PriceCache struct {
	rdb *redis.Client
}

// NewPriceCache creates a PriceCache backed by the given Client.
func NewPriceCache(c *Client) *PriceCache {
	return &PriceCache{rdb: c.Underlying()}
}

func tickerKey(symbol string) string {
	return "ticker:" + symbol
}

// SetPrice stores the latest price and its timestamp for symbol.
func (pc *PriceCache) SetPrice(ctx context.Context, symbol string, price float64, ts time.Time) error {
	err := pc.rdb.HSet(ctx, tickerKey(symbol),
		"price", strconv.FormatFloat(price, 'f', -1, 64),
		"ts", strconv.FormatInt(ts.UnixMilli(), 10),
	).Err()
	if err != nil {
		return fmt.Errorf("redis: set ticker %s: %w", symbol, err)
	}
	return nil
}

// GetPrice returns the latest price and timestamp for symbol, or
// domain.ErrNotFound when the feed has not written it yet.
func (pc *PriceCache) GetPrice(ctx context.Context, symbol string) (float64, time.Time, error) {
	vals, err := pc.rdb.HGetAll(ctx, tickerKey(symbol)).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: get ticker %s: %w", symbol, err)
	}
	if len(vals) == 0 {
		return 0, time.Time{}, domain.ErrNotFound
	}

	price, err := strconv.ParseFloat(vals["price"], 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse ticker price %s: %w", symbol, err)
	}
	tsMilli, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse ticker ts %s: %w", symbol, err)
	}

	return price, time.UnixMilli(tsMilli).UTC(), nil
}

// GetPrices fetches prices for several symbols in one pipeline round trip.
// Symbols without a cached price are omitted from the result.
func (pc *PriceCache) GetPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	pipe := pc.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(symbols))
	for _, symbol := range symbols {
		cmds[symbol] = pipe.HGetAll(ctx, tickerKey(symbol))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get tickers: %w", err)
	}

	out := make(map[string]float64, len(symbols))
	for symbol, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		if price, err := strconv.ParseFloat(vals["price"], 64); err == nil {
			out[symbol] = price
		}
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.PriceCache = (*PriceCache)(nil)
