package backtest

import (
	"time"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

// Simulator replays order intents against a TickStore to produce
// deterministic fill outcomes. Every result carries Mode BACKTEST so callers
// can tell simulated fills from live ones. Simulation is a pure computation
// over the immutable store; concurrent calls need no synchronization.
type Simulator struct {
	store *TickStore
}

// NewSimulator creates a Simulator over a loaded tick store.
func NewSimulator(store *TickStore) *Simulator {
	return &Simulator{store: store}
}

// SimulateMarket fills a market order from historical data. Without a
// reference time the order fills at the most recent tick, modelling "fill now
// at the latest known price". With a reference time it fills at the first
// tick at or after it, modelling "placed at ts, filled by the next trade";
// no such tick is an error, not an open order.
//
// The returned error, when non-nil, is also recorded on the result as
// Status ERROR, so callers reading only the result see the failure too.
func (s *Simulator) SimulateMarket(intent domain.OrderIntent) (domain.FillResult, error) {
	res := domain.FillResult{
		Mode:     domain.ModeBacktest,
		Kind:     domain.OrderMarket,
		Symbol:   intent.Symbol,
		Side:     intent.Side,
		Quantity: intent.Quantity,
	}

	var (
		tick domain.Tick
		err  error
	)
	if intent.At == nil {
		tick, err = s.store.Latest()
	} else {
		tick, err = s.store.FirstAtOrAfter(intent.At.UnixMilli())
	}
	if err != nil {
		res.Status = domain.StatusError
		res.Err = err.Error()
		return res, err
	}

	return fill(res, tick), nil
}

// SimulateLimit fills a limit order by scanning forward from the reference
// time (or the start of the data when absent) for the first tick that
// crosses the limit price: price <= limit for BUY, price >= limit for SELL.
// The scan is linear with early exit on the first crossing; no best-price
// selection. A scan that never crosses yields Status OPEN, a valid terminal
// outcome distinct from ERROR.
func (s *Simulator) SimulateLimit(intent domain.OrderIntent) (domain.FillResult, error) {
	res := domain.FillResult{
		Mode:       domain.ModeBacktest,
		Kind:       domain.OrderLimit,
		Symbol:     intent.Symbol,
		Side:       intent.Side,
		Quantity:   intent.Quantity,
		LimitPrice: intent.LimitPrice,
	}

	if err := s.store.Err(); err != nil {
		res.Status = domain.StatusError
		res.Err = err.Error()
		return res, err
	}

	var from int64
	if intent.At != nil {
		from = intent.At.UnixMilli()
	}

	for _, tick := range s.store.From(from) {
		crossed := (intent.Side == domain.SideBuy && tick.Price <= intent.LimitPrice) ||
			(intent.Side == domain.SideSell && tick.Price >= intent.LimitPrice)
		if crossed {
			return fill(res, tick), nil
		}
	}

	// Quantity stays reserved but unfilled.
	res.Status = domain.StatusOpen
	return res, nil
}

func fill(res domain.FillResult, tick domain.Tick) domain.FillResult {
	at := time.UnixMilli(tick.TS).UTC()
	res.Status = domain.StatusFilled
	res.FillPrice = tick.Price
	res.FilledAt = &at
	return res
}
