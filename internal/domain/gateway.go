package domain

import "time"

// GatewayOrder is a quantized, exchange-legal order handed to the exchange
// gateway. Price and TimeInForce are only meaningful for limit orders.
type GatewayOrder struct {
	Symbol        string
	Side          Side
	Kind          OrderKind
	Quantity      float64
	Price         float64
	TimeInForce   TimeInForce
	ClientOrderID string
}

// GatewayFill is one partial execution reported by the exchange.
type GatewayFill struct {
	Price    float64
	Quantity float64
}

// GatewayAck is the exchange's structured response to a placed order. Status
// carries the exchange's own status string (NEW, FILLED, ...); the dispatcher
// maps it onto OrderStatus.
type GatewayAck struct {
	OrderID      string
	Status       string
	TransactTime time.Time
	Fills        []GatewayFill
}
