package domain

// SymbolFilters holds the exchange-declared precision and limit rules for one
// trading pair, taken from the LOT_SIZE, PRICE_FILTER, and MIN_NOTIONAL
// entries of the exchangeInfo snapshot. A zero StepSize or TickSize means the
// exchange declared no such filter for the symbol; MinNotional 0 means no
// notional floor applies.
type SymbolFilters struct {
	Symbol      string
	StepSize    float64
	MinQty      float64
	TickSize    float64
	MinPrice    float64
	MinNotional float64
}

// FilterTable is an immutable snapshot of per-symbol trading constraints,
// built once from the exchange metadata fetch at process start and passed by
// reference to the quantizer and validator. It is never mutated afterwards,
// so concurrent readers need no locking. Rules going stale mid-session is an
// accepted limitation.
type FilterTable struct {
	symbols map[string]SymbolFilters
}

// NewFilterTable builds a FilterTable from per-symbol filters. The input
// slice is copied; later mutation of it does not affect the table.
func NewFilterTable(filters []SymbolFilters) *FilterTable {
	m := make(map[string]SymbolFilters, len(filters))
	for _, f := range filters {
		m[f.Symbol] = f
	}
	return &FilterTable{symbols: m}
}

// Lookup returns the filters for symbol, or ErrUnknownSymbol if the exchange
// snapshot did not contain it.
func (t *FilterTable) Lookup(symbol string) (SymbolFilters, error) {
	f, ok := t.symbols[symbol]
	if !ok {
		return SymbolFilters{}, ErrUnknownSymbol
	}
	return f, nil
}

// Symbols returns the number of symbols in the table.
func (t *FilterTable) Symbols() int {
	return len(t.symbols)
}
