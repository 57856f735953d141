package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

// PortfolioService defines the methods that the portfolio handler requires.
type PortfolioService interface {
	Snapshot(ctx context.Context) (domain.Portfolio, error)
}

// PortfolioHandler serves the portfolio valuation endpoint.
type PortfolioHandler struct {
	portfolio PortfolioService
	logger    *slog.Logger
}

// NewPortfolioHandler creates a PortfolioHandler with the given service.
func NewPortfolioHandler(portfolio PortfolioService, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolio: portfolio,
		logger:    logger,
	}
}

// GetPortfolio returns current account holdings valued in USDT.
// GET /api/portfolio
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	pf, err := h.portfolio.Snapshot(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: portfolio snapshot failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to fetch portfolio")
		return
	}

	writeJSON(w, http.StatusOK, pf)
}
