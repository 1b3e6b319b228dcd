package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mselser95/fpmm-quoter/internal/quoter"
	"github.com/mselser95/fpmm-quoter/pkg/types"
	"github.com/mselser95/fpmm-quoter/pkg/websocket"
	"go.uber.org/zap"
)

const (
	messageTypeQuote = "quote"
	messageTypeError = "error"
)

// QuoteInput is an inbound quote request on /ws/quote.
type QuoteInput struct {
	Amount       string `json:"amount"`
	OutcomeIndex int    `json:"outcome_index"`
	Side         string `json:"side"`
}

// SocketMessage is an outbound /ws/quote message.
type SocketMessage struct {
	Type       string         `json:"type"`
	Generation uint64         `json:"generation,omitempty"`
	Quote      *QuoteResponse `json:"quote,omitempty"`
	Error      string         `json:"error,omitempty"`
}

func parseQuoteInput(message []byte) (quoter.Input, error) {
	var raw QuoteInput
	err := json.Unmarshal(message, &raw)
	if err != nil {
		return quoter.Input{}, fmt.Errorf("decode input: %w", err)
	}
	side, err := types.ParseSide(raw.Side)
	if err != nil {
		return quoter.Input{}, err
	}
	amount, err := parseAmount(raw.Amount)
	if err != nil {
		return quoter.Input{}, err
	}
	return quoter.Input{
		Side:         side,
		Amount:       amount,
		OutcomeIndex: raw.OutcomeIndex,
	}, nil
}

// quoteSocket streams quotes for one market. Every inbound input supersedes the
// previous one, and only the quote for the latest input is delivered.
func (h *handlers) quoteSocket(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	market := query.Get("market")
	if market == "" {
		writeError(w, "missing market", http.StatusBadRequest)
		return
	}
	shares, err := parseShares(query.Get("shares"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	pipeline, err := quoter.NewPipeline(quoter.PipelineConfig{
		Quoter:   h.quoters(market),
		Source:   h.sources(market, shares),
		Debounce: h.debounce,
		Logger:   h.logger.With(zap.String("market", market)),
	})
	if err != nil {
		h.logger.Error("pipeline-create-failed", zap.Error(err))
		writeError(w, "quote pipeline unavailable", http.StatusInternalServerError)
		return
	}

	session, err := websocket.Upgrade(w, r, uuid.New().String(), h.ws)
	if err != nil {
		// the upgrader has already replied
		pipeline.Close()
		h.logger.Warn("websocket-upgrade-failed", zap.Error(err))
		return
	}

	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		h.forwardResults(session, market, pipeline)
	}()

	err = session.Run(r.Context(), func(_ context.Context, message []byte) error {
		in, err := parseQuoteInput(message)
		if err != nil {
			return sendIgnoringClosed(session, SocketMessage{Type: messageTypeError, Error: err.Error()})
		}
		pipeline.Submit(in)
		return nil
	})
	if err != nil {
		h.logger.Debug("quote-session-error",
			zap.String("session-id", session.ID()),
			zap.Error(err))
	}

	pipeline.Close()
	<-forwarded
}

// forwardResults delivers published results until the pipeline is closed.
func (h *handlers) forwardResults(session *websocket.Session, market string, pipeline *quoter.Pipeline) {
	for res := range pipeline.Results() {
		msg := SocketMessage{Type: messageTypeQuote, Generation: res.Generation}
		if res.Err != nil {
			msg.Type = messageTypeError
			msg.Error = res.Err.Error()
		} else {
			quote := newQuoteResponse(market, res.Quote, res.Fees, res.FeeFraction)
			msg.Quote = &quote
			h.record(session.Context(), market, res.Quote, res.Fees)
		}

		err := session.SendJSON(msg)
		if err != nil && !errors.Is(err, websocket.ErrSessionClosed) {
			h.logger.Warn("quote-send-failed",
				zap.String("session-id", session.ID()),
				zap.Error(err))
		}
	}
}

func sendIgnoringClosed(session *websocket.Session, msg SocketMessage) error {
	err := session.SendJSON(msg)
	if errors.Is(err, websocket.ErrSessionClosed) {
		return nil
	}
	return err
}
