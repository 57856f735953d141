package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/spotbot/internal/feed"
	"github.com/alanyoungcy/spotbot/internal/server"
	"github.com/alanyoungcy/spotbot/internal/server/handler"
)

// LiveMode runs the exchange-connected dispatch path: the HTTP API for order
// placement, trade history, and portfolio valuation, plus the optional
// websocket market-data feed.
func (a *App) LiveMode(ctx context.Context, deps *Dependencies) error {
	if !a.cfg.Server.Enabled && !a.cfg.Feed.Enabled {
		return fmt.Errorf("app: live mode requires the server or the feed to be enabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	if a.cfg.Server.Enabled {
		a.startHTTPServer(gctx, g, server.Handlers{
			Health:    a.healthHandler(deps),
			Orders:    handler.NewOrderHandler(deps.Orders, a.logger),
			Trades:    a.tradesHandler(deps),
			Portfolio: handler.NewPortfolioHandler(deps.Portfolio, a.logger),
		})
	}
	a.startFeed(gctx, g, deps)

	return waitGroup(ctx, g)
}

// BacktestMode serves the fill-simulation API over the loaded historical
// dataset. No exchange connection is made.
func (a *App) BacktestMode(ctx context.Context, deps *Dependencies) error {
	if !a.cfg.Server.Enabled {
		return fmt.Errorf("app: backtest mode requires the server to be enabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	a.startHTTPServer(gctx, g, server.Handlers{
		Health:   a.healthHandler(deps),
		Simulate: handler.NewSimulateHandler(deps.Simulator, a.logger),
		Trades:   a.tradesHandler(deps),
	})

	return waitGroup(ctx, g)
}

// ServerMode exposes the full API surface: live dispatch, fill simulation
// (when a dataset is configured), trade history, and portfolio valuation,
// with the optional market-data feed alongside.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	if !a.cfg.Server.Enabled {
		return fmt.Errorf("app: server mode requires the server to be enabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	handlers := server.Handlers{
		Health:    a.healthHandler(deps),
		Orders:    handler.NewOrderHandler(deps.Orders, a.logger),
		Trades:    a.tradesHandler(deps),
		Portfolio: handler.NewPortfolioHandler(deps.Portfolio, a.logger),
	}
	if deps.Simulator != nil {
		handlers.Simulate = handler.NewSimulateHandler(deps.Simulator, a.logger)
	}

	a.startHTTPServer(gctx, g, handlers)
	a.startFeed(gctx, g, deps)

	return waitGroup(ctx, g)
}

// healthHandler builds the health endpoint, reporting the run mode plus the
// dataset and filter snapshot sizes when those are wired.
func (a *App) healthHandler(deps *Dependencies) *handler.HealthHandler {
	h := handler.NewHealthHandler(a.cfg.Mode, a.logger)
	if deps.Ticks != nil {
		h = h.WithDataset(deps.Ticks.Len())
	}
	if deps.FilterSymbols > 0 {
		h = h.WithFilters(deps.FilterSymbols)
	}
	return h
}

// tradesHandler returns a trade-history handler when the trade log store is
// wired, or nil so the route is skipped.
func (a *App) tradesHandler(deps *Dependencies) *handler.TradesHandler {
	if deps.TradeLog == nil {
		return nil
	}
	return handler.NewTradesHandler(deps.TradeLog, a.logger)
}

// startHTTPServer launches the API server on the errgroup along with a
// watcher that shuts it down gracefully when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, handlers server.Handlers) {
	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// startFeed launches the websocket market-data feed when it is enabled and a
// price cache is wired.
func (a *App) startFeed(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Feed.Enabled || deps.PriceCache == nil {
		return
	}

	streamURL := a.cfg.Feed.StreamURL
	if streamURL == "" && a.cfg.Binance.UseTestnet {
		streamURL = feed.TestnetStreamURL
	}
	f := feed.NewBinanceWSFeed(streamURL, a.cfg.Feed.Symbols, deps.PriceCache, a.logger)

	g.Go(func() error {
		return f.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		f.Close()
		return nil
	})
}

// waitGroup blocks on the errgroup and swallows the context-cancellation
// error that a clean shutdown produces.
func waitGroup(ctx context.Context, g *errgroup.Group) error {
	err := g.Wait()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
