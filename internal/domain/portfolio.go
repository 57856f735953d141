package domain

// Balance is one asset's spot account balance.
type Balance struct {
	Asset  string
	Free   float64
	Locked float64
}

// Position is a spot holding valued against USDT for portfolio display.
type Position struct {
	Symbol string
	Free   float64
	Locked float64
	Price  float64 // current price in USDT, 0 when unavailable
	Value  float64 // (Free + Locked) * Price
}

// Portfolio is a point-in-time snapshot of all non-zero spot holdings.
type Portfolio struct {
	Positions   []Position
	TotalValue  float64
	USDTBalance float64
}
