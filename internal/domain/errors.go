package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownSymbol   = errors.New("unknown symbol")
	ErrMissingFilter   = errors.New("missing exchange filter")
	ErrDataUnavailable = errors.New("historical data unavailable")
	ErrNoData          = errors.New("no tick at or before timestamp")
	ErrNoFutureData    = errors.New("no tick at or after timestamp")
)

// NotionalError reports an order whose total value falls below the symbol's
// MIN_NOTIONAL filter. The check is fatal rather than auto-corrected: silently
// inflating an order to satisfy notional would change the caller's risk.
type NotionalError struct {
	Symbol      string
	Notional    float64
	MinNotional float64
}

func (e *NotionalError) Error() string {
	return fmt.Sprintf("order notional too small for %s: %g < %g", e.Symbol, e.Notional, e.MinNotional)
}

// SchemaError reports a historical data source missing a required column.
// It is raised once at load time; a store that failed its schema check stays
// unusable for its whole lifetime.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("historical data missing required column %q", e.Column)
}
