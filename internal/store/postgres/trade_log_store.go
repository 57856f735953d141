package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

// TradeLogStore persists fill results to the trade_log table.
type TradeLogStore struct {
	pool *pgxpool.Pool
}

// NewTradeLogStore creates a TradeLogStore backed by the given Client.
func NewTradeLogStore(c *Client) *TradeLogStore {
	return &TradeLogStore{pool: c.Pool()}
}

// Insert records a fill result. Error results are stored too, so the log
// doubles as an audit trail of rejected orders.
func (s *TradeLogStore) Insert(ctx context.Context, res domain.FillResult) error {
	const q = `
		INSERT INTO trade_log
			(mode, order_type, symbol, side, order_id, qty, limit_price,
			 fill_price, status, filled_at, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	var filledAt *time.Time
	if res.FilledAt != nil {
		t := res.FilledAt.UTC()
		filledAt = &t
	}

	_, err := s.pool.Exec(ctx, q,
		string(res.Mode), string(res.Kind), res.Symbol, string(res.Side),
		res.OrderID, res.Quantity, res.LimitPrice, res.FillPrice,
		string(res.Status), filledAt, res.Err,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert trade log: %w", err)
	}
	return nil
}

// ListRecent returns the most recent fill results, newest first.
func (s *TradeLogStore) ListRecent(ctx context.Context, limit int) ([]domain.FillResult, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
		SELECT mode, order_type, symbol, side, order_id, qty, limit_price,
		       fill_price, status, filled_at, error
		FROM trade_log
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent trades: %w", err)
	}
	defer rows.Close()

	return scanFills(rows)
}

// ListBySymbol returns fill results for one symbol, newest first, honoring
// the pagination and time-window options in opts.
func (s *TradeLogStore) ListBySymbol(ctx context.Context, symbol string, opts domain.ListOpts) ([]domain.FillResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	q := `
		SELECT mode, order_type, symbol, side, order_id, qty, limit_price,
		       fill_price, status, filled_at, error
		FROM trade_log
		WHERE symbol = $1`
	args := []any{symbol}

	if !opts.Since.IsZero() {
		args = append(args, opts.Since)
		q += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !opts.Until.IsZero() {
		args = append(args, opts.Until)
		q += fmt.Sprintf(" AND created_at < $%d", len(args))
	}

	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades for %s: %w", symbol, err)
	}
	defer rows.Close()

	return scanFills(rows)
}

// ListBefore returns all fill results recorded strictly before the cutoff,
// oldest first. The archiver uses it to export the trade log in insertion
// order.
func (s *TradeLogStore) ListBefore(ctx context.Context, before time.Time) ([]domain.FillResult, error) {
	const q = `
		SELECT mode, order_type, symbol, side, order_id, qty, limit_price,
		       fill_price, status, filled_at, error
		FROM trade_log
		WHERE created_at < $1
		ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, q, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()

	return scanFills(rows)
}

func scanFills(rows pgx.Rows) ([]domain.FillResult, error) {
	var out []domain.FillResult
	for rows.Next() {
		var (
			res      domain.FillResult
			mode     string
			kind     string
			side     string
			status   string
			filledAt *time.Time
		)
		err := rows.Scan(&mode, &kind, &res.Symbol, &side, &res.OrderID,
			&res.Quantity, &res.LimitPrice, &res.FillPrice, &status,
			&filledAt, &res.Err)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan trade row: %w", err)
		}
		res.Mode = domain.FillMode(mode)
		res.Kind = domain.OrderKind(kind)
		res.Side = domain.Side(side)
		res.Status = domain.OrderStatus(status)
		res.FilledAt = filledAt
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate trade rows: %w", err)
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.TradeLogStore = (*TradeLogStore)(nil)
