// Package binance is the REST client for the Binance spot API. It handles
// request signing, the exchangeInfo metadata fetch, order placement, and
// account queries. The rest of the bot consumes it through narrow interfaces
// declared at the call sites.
package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

// Spot API hosts; the testnet switch in config selects between them.
const (
	MainnetBaseURL = "https://api.binance.com/api"
	TestnetBaseURL = "https://testnet.binance.vision/api"
)

// Client is a signed REST client for the Binance spot API. Private endpoints
// sign the query string with HMAC-SHA256 and send the API key in the
// X-MBX-APIKEY header.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	recvWindow int64
	httpClient *http.Client
}

// Config holds the client's connection and credential parameters.
type Config struct {
	BaseURL      string
	APIKey       string
	APISecret    string
	RecvWindowMs int64
	Timeout      time.Duration
}

// NewClient creates a Binance spot client. Zero-value config fields fall back
// to mainnet, a 5000 ms receive window, and a 30 s HTTP timeout.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = MainnetBaseURL
	}
	recvWindow := cfg.RecvWindowMs
	if recvWindow == 0 {
		recvWindow = 5000
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		recvWindow: recvWindow,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// sign appends the HMAC-SHA256 signature of the encoded query string.
func (c *Client) sign(params url.Values) url.Values {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(params.Encode()))
	params.Set("signature", hex.EncodeToString(mac.Sum(nil)))
	return params
}

// do performs a request against endpoint. Signed requests get the timestamp,
// recvWindow, and signature parameters plus the API key header.
func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, signed bool) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	if signed {
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		params.Set("recvWindow", strconv.FormatInt(c.recvWindow, 10))
		params = c.sign(params)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("binance: build request %s: %w", endpoint, err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("binance: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("binance: read response %s: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Msg != "" {
			return nil, fmt.Errorf("binance: %s %s: %s (code %d)", method, endpoint, apiErr.Msg, apiErr.Code)
		}
		return nil, fmt.Errorf("binance: %s %s: status %d", method, endpoint, resp.StatusCode)
	}

	return body, nil
}

// Ping checks connectivity to the REST API.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/v3/ping", nil, false)
	return err
}

// ExchangeInfo fetches the full exchange metadata snapshot and returns the
// per-symbol filter table. Called once at startup; the table never refreshes
// mid-session.
func (c *Client) ExchangeInfo(ctx context.Context) (*domain.FilterTable, error) {
	body, err := c.do(ctx, http.MethodGet, "/v3/exchangeInfo", nil, false)
	if err != nil {
		return nil, err
	}

	var info apiExchangeInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("binance: decode exchangeInfo: %w", err)
	}

	return info.ToFilterTable(), nil
}

// TickerPrice returns the latest traded price for symbol.
func (c *Client) TickerPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	body, err := c.do(ctx, http.MethodGet, "/v3/ticker/price", params, false)
	if err != nil {
		return 0, err
	}

	var ticker apiTickerPrice
	if err := json.Unmarshal(body, &ticker); err != nil {
		return 0, fmt.Errorf("binance: decode ticker for %s: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("binance: parse ticker price %q: %w", ticker.Price, err)
	}
	return price, nil
}

// PlaceOrder submits a quantized order and returns the exchange's structured
// response. Quantities and prices must already be exchange-legal; the client
// formats them with full precision and does no adjustment of its own.
func (c *Client) PlaceOrder(ctx context.Context, ord domain.GatewayOrder) (domain.GatewayAck, error) {
	params := url.Values{}
	params.Set("symbol", ord.Symbol)
	params.Set("side", string(ord.Side))
	params.Set("type", string(ord.Kind))
	params.Set("quantity", formatFloat(ord.Quantity))
	if ord.Kind == domain.OrderLimit {
		params.Set("price", formatFloat(ord.Price))
		tif := ord.TimeInForce
		if tif == "" {
			tif = domain.TifGTC
		}
		params.Set("timeInForce", string(tif))
	}
	if ord.ClientOrderID != "" {
		params.Set("newClientOrderId", ord.ClientOrderID)
	}
	params.Set("newOrderRespType", "FULL")

	body, err := c.do(ctx, http.MethodPost, "/v3/order", params, true)
	if err != nil {
		return domain.GatewayAck{}, err
	}

	var result apiOrderResult
	if err := json.Unmarshal(body, &result); err != nil {
		return domain.GatewayAck{}, fmt.Errorf("binance: decode order response: %w", err)
	}

	return result.ToGatewayAck(), nil
}

// CancelOrder cancels a resting order by exchange order ID.
func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", orderID)

	_, err := c.do(ctx, http.MethodDelete, "/v3/order", params, true)
	return err
}

// OpenOrders lists resting orders, optionally scoped to one symbol.
func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]domain.GatewayAck, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}

	body, err := c.do(ctx, http.MethodGet, "/v3/openOrders", params, true)
	if err != nil {
		return nil, err
	}

	var results []apiOrderResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("binance: decode open orders: %w", err)
	}

	acks := make([]domain.GatewayAck, 0, len(results))
	for _, r := range results {
		acks = append(acks, r.ToGatewayAck())
	}
	return acks, nil
}

// Account returns the spot account's non-zero balances.
func (c *Client) Account(ctx context.Context) ([]domain.Balance, error) {
	body, err := c.do(ctx, http.MethodGet, "/v3/account", nil, true)
	if err != nil {
		return nil, err
	}

	var account apiAccount
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, fmt.Errorf("binance: decode account: %w", err)
	}

	return account.ToBalances(), nil
}

// formatFloat renders a quantity or price without exponent notation and
// without trailing zeros, the format Binance accepts for decimal parameters.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
