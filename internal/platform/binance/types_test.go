package binance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exchangeInfoJSON = `{
  "symbols": [
    {
      "symbol": "BTCUSDT",
      "status": "TRADING",
      "filters": [
        {"filterType": "PRICE_FILTER", "minPrice": "0.01000000", "maxPrice": "1000000.00000000", "tickSize": "0.01000000"},
        {"filterType": "LOT_SIZE", "minQty": "0.00001000", "maxQty": "9000.00000000", "stepSize": "0.00001000"},
        {"filterType": "NOTIONAL", "minNotional": "5.00000000"}
      ]
    },
    {
      "symbol": "ETHUSDT",
      "status": "TRADING",
      "filters": [
        {"filterType": "PRICE_FILTER", "minPrice": "0.01000000", "tickSize": "0.01000000"},
        {"filterType": "LOT_SIZE", "minQty": "0.00010000", "stepSize": "0.00010000"},
        {"filterType": "MIN_NOTIONAL", "notional": "10.00000000"}
      ]
    },
    {
      "symbol": "DELISTED",
      "status": "BREAK",
      "filters": []
    }
  ]
}`

func TestExchangeInfoToFilterTable(t *testing.T) {
	var info apiExchangeInfo
	require.NoError(t, json.Unmarshal([]byte(exchangeInfoJSON), &info))

	table := info.ToFilterTable()
	assert.Equal(t, 2, table.Symbols())

	btc, err := table.Lookup("BTCUSDT")
	require.NoError(t, err)
	assert.InDelta(t, 0.00001, btc.StepSize, 1e-12)
	assert.InDelta(t, 0.00001, btc.MinQty, 1e-12)
	assert.InDelta(t, 0.01, btc.TickSize, 1e-12)
	assert.InDelta(t, 0.01, btc.MinPrice, 1e-12)
	assert.InDelta(t, 5.0, btc.MinNotional, 1e-12)

	// Legacy MIN_NOTIONAL schema carries the floor in "notional".
	eth, err := table.Lookup("ETHUSDT")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, eth.MinNotional, 1e-12)

	// Symbols not in TRADING status are excluded.
	_, err = table.Lookup("DELISTED")
	assert.Error(t, err)
}

func TestOrderResultToGatewayAck(t *testing.T) {
	raw := `{
	  "symbol": "BTCUSDT",
	  "orderId": 28,
	  "clientOrderId": "spotbot-1",
	  "transactTime": 1507725176595,
	  "price": "0.00000000",
	  "origQty": "10.00000000",
	  "executedQty": "10.00000000",
	  "status": "FILLED",
	  "type": "MARKET",
	  "side": "SELL",
	  "fills": [
	    {"price": "4000.00000000", "qty": "1.00000000"},
	    {"price": "3999.00000000", "qty": "9.00000000"}
	  ]
	}`

	var result apiOrderResult
	require.NoError(t, json.Unmarshal([]byte(raw), &result))

	ack := result.ToGatewayAck()
	assert.Equal(t, "28", ack.OrderID)
	assert.Equal(t, "FILLED", ack.Status)
	assert.Equal(t, int64(1507725176595), ack.TransactTime.UnixMilli())
	require.Len(t, ack.Fills, 2)
	assert.Equal(t, 4000.0, ack.Fills[0].Price)
	assert.Equal(t, 9.0, ack.Fills[1].Quantity)
}

func TestAccountToBalancesDropsZero(t *testing.T) {
	raw := `{
	  "balances": [
	    {"asset": "BTC", "free": "0.50000000", "locked": "0.10000000"},
	    {"asset": "LTC", "free": "0.00000000", "locked": "0.00000000"},
	    {"asset": "USDT", "free": "1000.00000000", "locked": "0.00000000"}
	  ]
	}`

	var account apiAccount
	require.NoError(t, json.Unmarshal([]byte(raw), &account))

	balances := account.ToBalances()
	require.Len(t, balances, 2)
	assert.Equal(t, "BTC", balances[0].Asset)
	assert.Equal(t, 0.5, balances[0].Free)
	assert.Equal(t, 0.1, balances[0].Locked)
	assert.Equal(t, "USDT", balances[1].Asset)
}
