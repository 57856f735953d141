package domain

// Tick is one historical executed-trade record. TS is the execution time in
// epoch milliseconds; ticks in a loaded store are sorted ascending by TS,
// with original file order preserved among equal timestamps.
type Tick struct {
	TS    int64
	Price float64
}
