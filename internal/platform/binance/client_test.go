package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		APISecret: "test-secret",
	})
}

func TestPlaceOrderSignsRequest(t *testing.T) {
	var captured url.Values

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v3/order", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-MBX-APIKEY"))
		captured = r.URL.Query()
		w.Write([]byte(`{"orderId": 12, "status": "NEW", "transactTime": 1700000000000}`))
	})

	ack, err := client.PlaceOrder(context.Background(), domain.GatewayOrder{
		Symbol:      "BTCUSDT",
		Side:        domain.SideBuy,
		Kind:        domain.OrderLimit,
		Quantity:    0.001,
		Price:       30000,
		TimeInForce: domain.TifGTC,
	})
	require.NoError(t, err)
	assert.Equal(t, "12", ack.OrderID)
	assert.Equal(t, "NEW", ack.Status)

	assert.Equal(t, "BTCUSDT", captured.Get("symbol"))
	assert.Equal(t, "BUY", captured.Get("side"))
	assert.Equal(t, "LIMIT", captured.Get("type"))
	assert.Equal(t, "0.001", captured.Get("quantity"))
	assert.Equal(t, "30000", captured.Get("price"))
	assert.Equal(t, "GTC", captured.Get("timeInForce"))
	assert.NotEmpty(t, captured.Get("timestamp"))
	assert.Equal(t, "5000", captured.Get("recvWindow"))

	// The signature must match HMAC-SHA256 over the query string minus the
	// signature parameter itself.
	sig := captured.Get("signature")
	require.NotEmpty(t, sig)
	unsigned := url.Values{}
	for k, vs := range captured {
		if k == "signature" {
			continue
		}
		for _, v := range vs {
			unsigned.Add(k, v)
		}
	}
	mac := hmac.New(sha256.New, []byte("test-secret"))
	mac.Write([]byte(unsigned.Encode()))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), sig)
}

func TestMarketOrderOmitsPriceAndTif(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "MARKET", q.Get("type"))
		assert.Empty(t, q.Get("price"))
		assert.Empty(t, q.Get("timeInForce"))
		w.Write([]byte(`{"orderId": 7, "status": "FILLED", "transactTime": 1700000000000}`))
	})

	_, err := client.PlaceOrder(context.Background(), domain.GatewayOrder{
		Symbol:   "BTCUSDT",
		Side:     domain.SideSell,
		Kind:     domain.OrderMarket,
		Quantity: 0.5,
	})
	require.NoError(t, err)
}

func TestAPIErrorSurfacesMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code": -1013, "msg": "Filter failure: LOT_SIZE"}`))
	})

	_, err := client.PlaceOrder(context.Background(), domain.GatewayOrder{
		Symbol:   "BTCUSDT",
		Side:     domain.SideBuy,
		Kind:     domain.OrderMarket,
		Quantity: 0.1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOT_SIZE")
	assert.Contains(t, err.Error(), "-1013")
}

func TestTickerPrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v3/ticker/price", r.URL.Path)
		assert.Equal(t, "ETHUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol": "ETHUSDT", "price": "1850.42000000"}`))
	})

	price, err := client.TickerPrice(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, 1850.42, price)
}
