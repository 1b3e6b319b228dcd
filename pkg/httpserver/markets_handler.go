package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mselser95/fpmm-quoter/internal/fees"
	"github.com/mselser95/fpmm-quoter/internal/markets"
	"github.com/mselser95/fpmm-quoter/internal/quoter"
	"github.com/mselser95/fpmm-quoter/pkg/types"
	"go.uber.org/zap"
)

// MarketOutcome is one outcome of a market with its reserve and current price.
type MarketOutcome struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Holdings string `json:"holdings"`
	Price    string `json:"price"`
}

// MarketResponse is the market snapshot returned by GET /api/markets/{address}.
type MarketResponse struct {
	Address       string          `json:"address"`
	Title         string          `json:"title"`
	Collateral    types.Token     `json:"collateral"`
	Fee           string          `json:"fee"`
	FeePercentage float64         `json:"fee_percentage"`
	Outcomes      []MarketOutcome `json:"outcomes"`
}

func (h *handlers) getMarket(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	mm, err := h.markets.MarketMaker(r.Context(), address)
	if err != nil {
		h.marketError(w, address, err)
		return
	}

	prices := quoter.PricesAfterTrade(mm.Holdings())
	resp := MarketResponse{
		Address:       mm.Address,
		Title:         mm.Title,
		Collateral:    mm.Collateral,
		Fee:           bigString(mm.Fee),
		FeePercentage: fees.FeePercentage(mm.Fee),
		Outcomes:      make([]MarketOutcome, len(mm.Balances)),
	}
	for i, b := range mm.Balances {
		resp.Outcomes[i] = MarketOutcome{
			Index:    b.OutcomeIndex,
			Name:     b.OutcomeName,
			Holdings: bigString(b.Holdings),
			Price:    prices[i].StringFixed(4),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) marketError(w http.ResponseWriter, address string, err error) {
	if errors.Is(err, markets.ErrMarketNotFound) {
		writeError(w, "market not found", http.StatusNotFound)
		return
	}
	h.logger.Warn("market-lookup-failed",
		zap.String("market", address),
		zap.Error(err))
	writeError(w, "market unavailable", http.StatusBadGateway)
}
