package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mselser95/fpmm-quoter/internal/compound"
	"go.uber.org/zap"
)

const (
	directionToBase    = "to-base"
	directionToWrapped = "to-wrapped"
)

// ConvertResponse is a cToken/base conversion.
type ConvertResponse struct {
	CToken        string    `json:"ctoken"`
	Symbol        string    `json:"symbol"`
	BaseSymbol    string    `json:"base_symbol"`
	BaseDecimals  int       `json:"base_decimals"`
	Direction     string    `json:"direction"`
	Amount        string    `json:"amount"`
	Result        string    `json:"result"`
	ResultDisplay string    `json:"result_display"`
	Rate          string    `json:"rate"`
	RefreshedAt   time.Time `json:"refreshed_at"`
}

func (h *handlers) getConvert(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	address := query.Get("ctoken")
	if address == "" {
		writeError(w, "missing ctoken", http.StatusBadRequest)
		return
	}
	direction := query.Get("direction")
	if direction == "" {
		direction = directionToBase
	}
	if direction != directionToBase && direction != directionToWrapped {
		writeError(w, "direction must be to-base or to-wrapped", http.StatusBadRequest)
		return
	}
	amount, err := parseAmount(query.Get("amount"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	conv, err := h.rates.Get(r.Context(), address)
	if err != nil {
		h.logger.Warn("exchange-rate-unavailable",
			zap.String("ctoken", address),
			zap.Error(err))
		writeError(w, "exchange rate unavailable", http.StatusBadGateway)
		return
	}

	decimals, known := compound.BaseDecimals(conv.Symbol())
	if s := query.Get("decimals"); s != "" {
		decimals, err = strconv.Atoi(s)
		if err != nil || decimals < 0 {
			writeError(w, "invalid decimals "+strconv.Quote(s), http.StatusBadRequest)
			return
		}
		known = true
	}
	if !known {
		writeError(w, "unknown base token decimals", http.StatusBadRequest)
		return
	}

	rate, refreshedAt := conv.Rate()
	resp := ConvertResponse{
		CToken:       address,
		Symbol:       conv.Symbol(),
		BaseSymbol:   compound.BaseSymbol(conv.Symbol()),
		BaseDecimals: decimals,
		Direction:    direction,
		Amount:       amount.String(),
		Rate:         rate.String(),
		RefreshedAt:  refreshedAt,
	}
	if direction == directionToWrapped {
		result := conv.ToWrapped(amount, decimals)
		resp.Result = result.String()
		resp.ResultDisplay = formatUnits(result, compound.CTokenDecimals)
	} else {
		result := conv.ToBase(amount, decimals)
		resp.Result = result.String()
		resp.ResultDisplay = formatUnits(result, decimals)
	}

	writeJSON(w, http.StatusOK, resp)
}
