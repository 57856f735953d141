// Package quantize adjusts requested order parameters to exchange-legal
// values using the per-symbol filter snapshot. All functions are pure over
// the injected FilterTable and safe for concurrent use.
package quantize

import (
	"fmt"
	"math"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

// stepEpsilon absorbs float64 representation error before flooring a value
// onto a step grid, so an already-quantized input maps back onto itself.
const stepEpsilon = 1e-9

// Quantizer turns raw quantities and prices into values that satisfy the
// exchange's LOT_SIZE, PRICE_FILTER, and MIN_NOTIONAL rules.
type Quantizer struct {
	table *domain.FilterTable
}

// New creates a Quantizer over an immutable filter snapshot.
func New(table *domain.FilterTable) *Quantizer {
	return &Quantizer{table: table}
}

// Quantity floors qty to an integer multiple of the symbol's step size, then
// raises it to the exchange minimum. Rounding is always downward so the
// caller never spends more than requested; the subsequent raise to minQty is
// the one exception and can exceed the requested quantity when the request is
// below the exchange floor.
func (q *Quantizer) Quantity(symbol string, qty float64) (float64, error) {
	f, err := q.table.Lookup(symbol)
	if err != nil {
		return 0, fmt.Errorf("quantize: quantity for %s: %w", symbol, err)
	}
	if f.StepSize <= 0 {
		return 0, fmt.Errorf("quantize: %s has no LOT_SIZE filter: %w", symbol, domain.ErrMissingFilter)
	}

	adj := math.Floor(qty/f.StepSize+stepEpsilon) * f.StepSize
	return math.Max(adj, f.MinQty), nil
}

// Price rounds price to the nearest integer multiple of the symbol's tick
// size, then raises it to the exchange minimum. Prices round to nearest, not
// down, so a limit price stays close to the caller's intent in both
// directions.
func (q *Quantizer) Price(symbol string, price float64) (float64, error) {
	f, err := q.table.Lookup(symbol)
	if err != nil {
		return 0, fmt.Errorf("quantize: price for %s: %w", symbol, err)
	}
	if f.TickSize <= 0 {
		return 0, fmt.Errorf("quantize: %s has no PRICE_FILTER filter: %w", symbol, domain.ErrMissingFilter)
	}

	adj := math.Round(price/f.TickSize) * f.TickSize
	return math.Max(adj, f.MinPrice), nil
}

// Validate quantizes an order request into an exchange-legal QuantizedOrder.
// Quantity is always quantized; price only when non-nil (limit orders). When
// the symbol declares a MIN_NOTIONAL filter and a price is present, an order
// whose quantized notional falls below the floor fails with NotionalError
// instead of being inflated to fit.
func (q *Quantizer) Validate(symbol string, qty float64, price *float64) (domain.QuantizedOrder, error) {
	adjQty, err := q.Quantity(symbol, qty)
	if err != nil {
		return domain.QuantizedOrder{}, err
	}

	out := domain.QuantizedOrder{Symbol: symbol, Quantity: adjQty}
	if price == nil {
		return out, nil
	}

	adjPrice, err := q.Price(symbol, *price)
	if err != nil {
		return domain.QuantizedOrder{}, err
	}
	out.Price = adjPrice

	f, err := q.table.Lookup(symbol)
	if err != nil {
		return domain.QuantizedOrder{}, fmt.Errorf("quantize: validate %s: %w", symbol, err)
	}
	if f.MinNotional > 0 {
		notional := adjQty * adjPrice
		if notional < f.MinNotional {
			return domain.QuantizedOrder{}, &domain.NotionalError{
				Symbol:      symbol,
				Notional:    notional,
				MinNotional: f.MinNotional,
			}
		}
	}

	return out, nil
}

// PositionSize computes the base-asset quantity to trade so that a stop-out
// at stopPrice loses riskPercent of the quote balance. Returns 0 when entry
// and stop coincide.
func PositionSize(quoteBalance, riskPercent, entryPrice, stopPrice float64) float64 {
	priceRisk := math.Abs(entryPrice - stopPrice)
	if priceRisk == 0 {
		return 0
	}
	riskAmount := quoteBalance * (riskPercent / 100.0)
	return riskAmount / priceRisk
}
