package domain

import (
	"context"
	"time"
)

// PriceCache provides fast access to the latest traded price per symbol.
// The websocket feed writes it; portfolio valuation reads it.
type PriceCache interface {
	SetPrice(ctx context.Context, symbol string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, symbol string) (float64, time.Time, error)
	GetPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}
