package httpserver

import (
	"context"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/mselser95/fpmm-quoter/internal/compound"
	"github.com/mselser95/fpmm-quoter/internal/fees"
	"github.com/mselser95/fpmm-quoter/internal/quoter"
	"github.com/mselser95/fpmm-quoter/internal/storage"
	"github.com/mselser95/fpmm-quoter/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FeeResponse is the fee accounting of a quote.
type FeeResponse struct {
	FeeFraction     string  `json:"fee_fraction"`
	FeePercentage   float64 `json:"fee_percentage"`
	FeePaid         string  `json:"fee_paid"`
	BaseCost        string  `json:"base_cost"`
	PotentialProfit string  `json:"potential_profit"`
}

// BaseDisplay restates cToken denominated amounts in the underlying token.
type BaseDisplay struct {
	Symbol          string   `json:"symbol"`
	Decimals        int      `json:"decimals"`
	AmountUsed      string   `json:"amount_used"`
	FeePaid         string   `json:"fee_paid"`
	BaseCost        string   `json:"base_cost"`
	PotentialProfit string   `json:"potential_profit"`
	NewShares       []string `json:"new_shares"`
}

// QuoteResponse is a quote with its fee accounting.
type QuoteResponse struct {
	ID                string       `json:"id"`
	Market            string       `json:"market"`
	Side              types.Side   `json:"side"`
	OutcomeIndex      int          `json:"outcome_index"`
	AmountUsed        string       `json:"amount_used"`
	TradedShares      string       `json:"traded_shares"`
	BalanceAfterTrade []string     `json:"balance_after_trade"`
	PricesAfterTrade  []string     `json:"prices_after_trade"`
	NewShares         []string     `json:"new_shares"`
	OracleFailed      bool         `json:"oracle_failed"`
	Fees              FeeResponse  `json:"fees"`
	Collateral        types.Token  `json:"collateral"`
	ValidationError   string       `json:"validation_error,omitempty"`
	Base              *BaseDisplay `json:"base,omitempty"`
	QuotedAt          time.Time    `json:"quoted_at"`
}

func newQuoteResponse(market string, q *quoter.TradeQuote, f fees.FeeQuote, feeFraction *big.Int) QuoteResponse {
	prices := make([]string, len(q.PricesAfterTrade))
	for i, p := range q.PricesAfterTrade {
		prices[i] = p.StringFixed(4)
	}
	return QuoteResponse{
		ID:                q.ID,
		Market:            market,
		Side:              q.Side,
		OutcomeIndex:      q.OutcomeIndex,
		AmountUsed:        bigString(q.AmountUsed),
		TradedShares:      bigString(q.TradedShares),
		BalanceAfterTrade: bigStrings(q.BalanceAfterTrade),
		PricesAfterTrade:  prices,
		NewShares:         bigStrings(q.NewShares),
		OracleFailed:      q.OracleFailed,
		Fees: FeeResponse{
			FeeFraction:     bigString(feeFraction),
			FeePercentage:   fees.FeePercentage(feeFraction),
			FeePaid:         bigString(f.FeePaid),
			BaseCost:        bigString(f.BaseCost),
			PotentialProfit: bigString(f.PotentialProfit),
		},
		QuotedAt: q.QuotedAt,
	}
}

func (h *handlers) getQuote(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	market := query.Get("market")
	if market == "" {
		writeError(w, "missing market", http.StatusBadRequest)
		return
	}

	side, err := types.ParseSide(query.Get("side"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	amount, err := parseAmount(query.Get("amount"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	outcome := 0
	if s := query.Get("outcome"); s != "" {
		outcome, err = strconv.Atoi(s)
		if err != nil {
			writeError(w, "invalid outcome "+strconv.Quote(s), http.StatusBadRequest)
			return
		}
	}
	shares, err := parseShares(query.Get("shares"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	mm, err := h.markets.MarketMaker(ctx, market)
	if err != nil {
		h.marketError(w, market, err)
		return
	}
	pool := mm.WithShares(shares)

	qt := h.quoters(market)
	var q *quoter.TradeQuote
	if side == types.SideSell {
		q = qt.QuoteSell(ctx, amount, outcome, pool)
	} else {
		q = qt.Quote(ctx, amount, outcome, pool)
	}
	f := fees.Compute(q.AmountUsed, q.TradedShares, mm.Fee)

	resp := newQuoteResponse(market, q, f, mm.Fee)
	resp.Collateral = mm.Collateral

	if side == types.SideBuy {
		balance, err := h.balance(ctx, query.Get("balance"), query.Get("owner"), mm.Collateral)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if vErr := quoter.CheckBalance(amount, balance, mm.Collateral); vErr != nil {
			resp.ValidationError = vErr.Error()
		}
	}

	resp.Base = h.baseDisplay(ctx, mm.Collateral, q, f)
	h.record(ctx, market, q, f)

	writeJSON(w, http.StatusOK, resp)
}

// balance resolves the trader's collateral balance from an explicit value or an
// on-chain lookup for owner. Nil means unknown.
func (h *handlers) balance(ctx context.Context, explicit, owner string, token types.Token) (*big.Int, error) {
	if explicit != "" {
		return parseAmount(explicit)
	}
	if owner == "" || h.balances == nil || token.Address == "" {
		return nil, nil
	}

	balance, err := h.balances.BalanceOf(ctx, token.Address, owner)
	if err != nil {
		// unknown balance skips validation
		h.logger.Warn("balance-lookup-failed",
			zap.String("token", token.Address),
			zap.String("owner", owner),
			zap.Error(err))
		return nil, nil
	}
	return balance, nil
}

// baseDisplay converts cToken amounts of q into the underlying token. It returns
// nil for other collateral or when no rate is available.
func (h *handlers) baseDisplay(ctx context.Context, collateral types.Token, q *quoter.TradeQuote, f fees.FeeQuote) *BaseDisplay {
	if h.rates == nil || !compound.IsCToken(collateral.Symbol) {
		return nil
	}
	decimals, ok := compound.BaseDecimals(collateral.Symbol)
	if !ok {
		return nil
	}

	conv, err := h.rates.Get(ctx, collateral.Address)
	if err != nil {
		h.logger.Warn("exchange-rate-unavailable",
			zap.String("ctoken", collateral.Symbol),
			zap.Error(err))
		return nil
	}
	if !conv.Ready() {
		return nil
	}

	return &BaseDisplay{
		Symbol:          compound.BaseSymbol(collateral.Symbol),
		Decimals:        decimals,
		AmountUsed:      bigString(conv.ToBase(q.AmountUsed, decimals)),
		FeePaid:         bigString(conv.ToBase(f.FeePaid, decimals)),
		BaseCost:        bigString(conv.ToBase(f.BaseCost, decimals)),
		PotentialProfit: bigString(signedToBase(conv, f.PotentialProfit, decimals)),
		NewShares:       bigStrings(conv.ToBaseAll(q.NewShares, decimals)),
	}
}

// signedToBase converts v keeping its sign, since profit may be negative.
func signedToBase(conv *compound.Converter, v *big.Int, decimals int) *big.Int {
	if v == nil || v.Sign() >= 0 {
		return conv.ToBase(v, decimals)
	}
	out := conv.ToBase(new(big.Int).Neg(v), decimals)
	return out.Neg(out)
}

// record journals a quote. Journal failures never fail the request.
func (h *handlers) record(ctx context.Context, market string, q *quoter.TradeQuote, f fees.FeeQuote) {
	if h.journal == nil || q.IsZero() {
		return
	}
	err := h.journal.StoreQuote(ctx, storage.NewQuoteRecord(market, q, f))
	if err != nil {
		h.logger.Warn("quote-journal-failed",
			zap.String("quote-id", q.ID),
			zap.Error(err))
	}
}

// formatUnits renders a base unit amount with the token decimals.
func formatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}
