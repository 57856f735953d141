package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// TradeLogStore persists every dispatched or simulated order outcome. It
// replaces the flat-file trade log: each FillResult becomes one append-only
// row, errors included.
type TradeLogStore interface {
	Insert(ctx context.Context, res FillResult) error
	ListRecent(ctx context.Context, limit int) ([]FillResult, error)
	ListBySymbol(ctx context.Context, symbol string, opts ListOpts) ([]FillResult, error)
}
