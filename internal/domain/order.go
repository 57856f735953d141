package domain

import "time"

// Side indicates whether this is a buy or sell.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderKind distinguishes market from limit orders.
type OrderKind string

const (
	OrderMarket OrderKind = "MARKET"
	OrderLimit  OrderKind = "LIMIT"
)

// TimeInForce is the exchange time-in-force policy for limit orders.
type TimeInForce string

const (
	TifGTC TimeInForce = "GTC" // Good-Till-Cancelled
	TifIOC TimeInForce = "IOC" // Immediate-Or-Cancel
	TifFOK TimeInForce = "FOK" // Fill-Or-Kill
)

// OrderStatus is the terminal state of a placed or simulated order.
type OrderStatus string

const (
	StatusFilled OrderStatus = "FILLED"
	StatusOpen   OrderStatus = "OPEN"
	StatusError  OrderStatus = "ERROR"
)

// FillMode distinguishes live exchange fills from simulated ones so callers
// can switch between the two paths transparently.
type FillMode string

const (
	ModeLive     FillMode = "LIVE"
	ModeBacktest FillMode = "BACKTEST"
)

// OrderIntent is a caller's raw order request before quantization. Quantity
// and price carry the values the caller asked for, not exchange-legal ones.
// At is the optional reference time for simulated orders; nil means "now".
type OrderIntent struct {
	Symbol     string
	Side       Side
	Kind       OrderKind
	Quantity   float64
	LimitPrice float64 // ignored for market orders
	At         *time.Time
}

// QuantizedOrder is an OrderIntent whose quantity and price have been
// adjusted to the symbol's exchange filters. Invariants: Quantity is an
// integer multiple of stepSize and >= minQty; Price, when set, is an integer
// multiple of tickSize and >= minPrice.
type QuantizedOrder struct {
	Symbol   string
	Quantity float64
	Price    float64 // 0 for market orders
}

// FillResult is the single result shape shared by the live dispatcher and
// the fill simulator. Validation failures surface here as Status ERROR with
// a human-readable message, never as an escaped error from the dispatcher.
type FillResult struct {
	Mode       FillMode    `json:"mode"`
	Kind       OrderKind   `json:"orderType"`
	Symbol     string      `json:"symbol"`
	Side       Side        `json:"side"`
	OrderID    string      `json:"orderId,omitempty"`
	Quantity   float64     `json:"qty"`
	LimitPrice float64     `json:"limitPrice,omitempty"`
	FillPrice  float64     `json:"fillPrice,omitempty"`
	Status     OrderStatus `json:"status"`
	FilledAt   *time.Time  `json:"filledAt,omitempty"`
	Err        string      `json:"error,omitempty"`
}
