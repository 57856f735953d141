package binance

import (
	"strconv"
	"time"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

// Binance filterType identifiers consumed from exchangeInfo.
const (
	filterLotSize     = "LOT_SIZE"
	filterPrice       = "PRICE_FILTER"
	filterMinNotional = "MIN_NOTIONAL"
	filterNotional    = "NOTIONAL"
)

// apiFilter is one entry of a symbol's filter list. Binance encodes every
// numeric field as a string.
type apiFilter struct {
	FilterType  string `json:"filterType"`
	StepSize    string `json:"stepSize,omitempty"`
	MinQty      string `json:"minQty,omitempty"`
	TickSize    string `json:"tickSize,omitempty"`
	MinPrice    string `json:"minPrice,omitempty"`
	MinNotional string `json:"minNotional,omitempty"`
	Notional    string `json:"notional,omitempty"`
}

// apiSymbol is one symbol's metadata from exchangeInfo.
type apiSymbol struct {
	Symbol  string      `json:"symbol"`
	Status  string      `json:"status"`
	Filters []apiFilter `json:"filters"`
}

// apiExchangeInfo is the GET /api/v3/exchangeInfo response.
type apiExchangeInfo struct {
	Symbols []apiSymbol `json:"symbols"`
}

// ToFilterTable flattens the exchangeInfo snapshot into the immutable filter
// table the quantizer consumes. Symbols not in TRADING status are skipped.
func (e apiExchangeInfo) ToFilterTable() *domain.FilterTable {
	filters := make([]domain.SymbolFilters, 0, len(e.Symbols))
	for _, s := range e.Symbols {
		if s.Status != "TRADING" {
			continue
		}
		f := domain.SymbolFilters{Symbol: s.Symbol}
		for _, af := range s.Filters {
			switch af.FilterType {
			case filterLotSize:
				f.StepSize = parseFloat(af.StepSize)
				f.MinQty = parseFloat(af.MinQty)
			case filterPrice:
				f.TickSize = parseFloat(af.TickSize)
				f.MinPrice = parseFloat(af.MinPrice)
			case filterMinNotional:
				// Older spot schema calls the field "notional".
				if af.MinNotional != "" {
					f.MinNotional = parseFloat(af.MinNotional)
				} else {
					f.MinNotional = parseFloat(af.Notional)
				}
			case filterNotional:
				f.MinNotional = parseFloat(af.MinNotional)
			}
		}
		filters = append(filters, f)
	}
	return domain.NewFilterTable(filters)
}

// apiTickerPrice is the GET /api/v3/ticker/price response.
type apiTickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// apiFill is one partial execution in an order response.
type apiFill struct {
	Price string `json:"price"`
	Qty   string `json:"qty"`
}

// apiOrderResult is the POST /api/v3/order response (FULL response type).
type apiOrderResult struct {
	Symbol        string    `json:"symbol"`
	OrderID       int64     `json:"orderId"`
	ClientOrderID string    `json:"clientOrderId"`
	TransactTime  int64     `json:"transactTime"`
	Price         string    `json:"price"`
	OrigQty       string    `json:"origQty"`
	ExecutedQty   string    `json:"executedQty"`
	Status        string    `json:"status"`
	Type          string    `json:"type"`
	Side          string    `json:"side"`
	Fills         []apiFill `json:"fills"`
}

// ToGatewayAck converts the exchange response into the dispatcher-facing
// shape.
func (r apiOrderResult) ToGatewayAck() domain.GatewayAck {
	ack := domain.GatewayAck{
		OrderID:      strconv.FormatInt(r.OrderID, 10),
		Status:       r.Status,
		TransactTime: time.UnixMilli(r.TransactTime).UTC(),
	}
	for _, f := range r.Fills {
		ack.Fills = append(ack.Fills, domain.GatewayFill{
			Price:    parseFloat(f.Price),
			Quantity: parseFloat(f.Qty),
		})
	}
	return ack
}

// apiBalance is one asset entry of the account response.
type apiBalance struct {
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}

// apiAccount is the GET /api/v3/account response.
type apiAccount struct {
	Balances []apiBalance `json:"balances"`
}

// ToBalances converts the account snapshot, dropping zero balances.
func (a apiAccount) ToBalances() []domain.Balance {
	out := make([]domain.Balance, 0, len(a.Balances))
	for _, b := range a.Balances {
		free := parseFloat(b.Free)
		locked := parseFloat(b.Locked)
		if free == 0 && locked == 0 {
			continue
		}
		out = append(out, domain.Balance{Asset: b.Asset, Free: free, Locked: locked})
	}
	return out
}

// apiError is Binance's error envelope, returned with non-2xx statuses.
type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
