// Package feed streams live market data into the price cache.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

const (
	// DefaultStreamURL is the Binance combined-stream endpoint.
	DefaultStreamURL = "wss://stream.binance.com:9443/stream"

	// TestnetStreamURL is the spot testnet combined-stream endpoint.
	TestnetStreamURL = "wss://stream.testnet.binance.vision/stream"

	// pongWait is the time allowed between server pings before the
	// connection is considered dead. Binance pings every 3 minutes.
	pongWait = 5 * time.Minute

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// streamFrame is the envelope of a combined-stream message.
type streamFrame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// tradeEvent is the payload of a <symbol>@trade stream message.
type tradeEvent struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	TradeTime int64  `json:"T"`
}

// BinanceWSFeed subscribes to the trade streams for the configured symbols
// and writes each traded price into the price cache. It reconnects with
// exponential backoff on disconnect.
type BinanceWSFeed struct {
	streamURL string
	symbols   []string
	cache     domain.PriceCache
	logger    *slog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// NewBinanceWSFeed creates a feed for the given symbols. streamURL may be
// empty, in which case the mainnet combined-stream endpoint is used.
func NewBinanceWSFeed(streamURL string, symbols []string, cache domain.PriceCache, logger *slog.Logger) *BinanceWSFeed {
	if streamURL == "" {
		streamURL = DefaultStreamURL
	}
	return &BinanceWSFeed{
		streamURL: streamURL,
		symbols:   symbols,
		cache:     cache,
		logger:    logger.With(slog.String("component", "binance_ws_feed")),
		done:      make(chan struct{}),
	}
}

// Run connects and streams trades until ctx is cancelled or Close is called.
func (f *BinanceWSFeed) Run(ctx context.Context) error {
	if len(f.symbols) == 0 {
		f.logger.Info("no symbols to subscribe, exiting")
		return nil
	}

	delay := reconnectDelay
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		f.logger.Warn("binance ws disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", delay))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// streamQuery builds the combined-stream query for the configured symbols.
// Stream names are lowercase, e.g. "btcusdt@trade".
func (f *BinanceWSFeed) streamQuery() string {
	streams := make([]string, 0, len(f.symbols))
	for _, symbol := range f.symbols {
		streams = append(streams, strings.ToLower(symbol)+"@trade")
	}
	return f.streamURL + "?streams=" + strings.Join(streams, "/")
}

func (f *BinanceWSFeed) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.streamQuery(), nil)
	if err != nil {
		return fmt.Errorf("feed: connect: %w", err)
	}
	defer conn.Close()

	// Binance sends pings; gorilla answers with pongs automatically, so the
	// handler only needs to push out the read deadline.
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
	})

	f.logger.Info("binance ws subscribed", slog.Int("symbols", len(f.symbols)))

	// Unblock the read loop when ctx is cancelled or Close is called.
	go func() {
		select {
		case <-ctx.Done():
		case <-f.done:
		}
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-f.done:
				return nil
			default:
			}
			return fmt.Errorf("feed: read: %w", err)
		}
		f.handleMessage(ctx, msg)
	}
}

func (f *BinanceWSFeed) handleMessage(ctx context.Context, msg []byte) {
	var frame streamFrame
	if err := json.Unmarshal(msg, &frame); err != nil {
		f.logger.Warn("binance ws bad frame", slog.String("error", err.Error()))
		return
	}

	var trade tradeEvent
	if err := json.Unmarshal(frame.Data, &trade); err != nil || trade.EventType != "trade" {
		return
	}

	price, err := strconv.ParseFloat(trade.Price, 64)
	if err != nil {
		f.logger.Warn("binance ws bad trade price",
			slog.String("symbol", trade.Symbol),
			slog.String("price", trade.Price))
		return
	}

	ts := time.UnixMilli(trade.TradeTime).UTC()
	if err := f.cache.SetPrice(ctx, trade.Symbol, price, ts); err != nil {
		f.logger.Warn("binance ws cache write failed",
			slog.String("symbol", trade.Symbol),
			slog.String("error", err.Error()))
	}
}

// Close stops the feed.
func (f *BinanceWSFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
