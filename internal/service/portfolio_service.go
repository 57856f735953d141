package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

// maxPriceAge is how stale a cached price may be before the service falls
// back to a REST ticker lookup.
const maxPriceAge = 30 * time.Second

// AccountReader provides the spot balances and ticker prices the portfolio
// needs from the exchange.
type AccountReader interface {
	Account(ctx context.Context) ([]domain.Balance, error)
	TickerPrice(ctx context.Context, symbol string) (float64, error)
}

// PortfolioService values the spot account in USDT. Prices come from the
// cache when fresh (fed by the websocket feed) with a REST fallback; assets
// whose price cannot be resolved are included with value 0 rather than
// failing the whole snapshot.
type PortfolioService struct {
	account AccountReader
	prices  domain.PriceCache
	logger  *slog.Logger
}

// NewPortfolioService creates a PortfolioService. prices may be nil, in
// which case every lookup goes to the REST ticker.
func NewPortfolioService(account AccountReader, prices domain.PriceCache, logger *slog.Logger) *PortfolioService {
	return &PortfolioService{
		account: account,
		prices:  prices,
		logger:  logger.With(slog.String("component", "portfolio_service")),
	}
}

// Snapshot fetches balances and values every non-zero holding against USDT.
func (s *PortfolioService) Snapshot(ctx context.Context) (domain.Portfolio, error) {
	balances, err := s.account.Account(ctx)
	if err != nil {
		return domain.Portfolio{}, err
	}

	var pf domain.Portfolio
	for _, b := range balances {
		amount := b.Free + b.Locked

		if b.Asset == "USDT" {
			pf.USDTBalance = amount
			pf.TotalValue += amount
			pf.Positions = append(pf.Positions, domain.Position{
				Symbol: "USDT",
				Free:   b.Free,
				Locked: b.Locked,
				Price:  1,
				Value:  amount,
			})
			continue
		}

		symbol := b.Asset + "USDT"
		price := s.price(ctx, symbol)
		pf.Positions = append(pf.Positions, domain.Position{
			Symbol: symbol,
			Free:   b.Free,
			Locked: b.Locked,
			Price:  price,
			Value:  amount * price,
		})
		pf.TotalValue += amount * price
	}

	return pf, nil
}

// price resolves the latest USDT price for symbol, cache first.
func (s *PortfolioService) price(ctx context.Context, symbol string) float64 {
	if s.prices != nil {
		if price, ts, err := s.prices.GetPrice(ctx, symbol); err == nil && time.Since(ts) <= maxPriceAge {
			return price
		}
	}

	price, err := s.account.TickerPrice(ctx, symbol)
	if err != nil {
		s.logger.WarnContext(ctx, "price lookup failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		return 0
	}

	if s.prices != nil {
		if err := s.prices.SetPrice(ctx, symbol, price, time.Now().UTC()); err != nil {
			s.logger.WarnContext(ctx, "price cache update failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
		}
	}
	return price
}
