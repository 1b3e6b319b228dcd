package httpserver

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gws "github.com/gorilla/websocket"
	"github.com/mselser95/fpmm-quoter/internal/compound"
	"github.com/mselser95/fpmm-quoter/internal/markets"
	"github.com/mselser95/fpmm-quoter/internal/outcomes"
	"github.com/mselser95/fpmm-quoter/internal/quoter"
	"github.com/mselser95/fpmm-quoter/internal/storage"
	"github.com/mselser95/fpmm-quoter/internal/testutil"
	"github.com/mselser95/fpmm-quoter/pkg/healthprobe"
	"github.com/mselser95/fpmm-quoter/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testMarket = "0x1111111111111111111111111111111111111111"

type stubMarkets struct {
	mm  *types.MarketMakerData
	err error
}

func (s *stubMarkets) MarketMaker(context.Context, string) (*types.MarketMakerData, error) {
	return s.mm, s.err
}

type stubRates struct {
	conv *compound.Converter
	err  error
}

func (s *stubRates) Get(context.Context, string) (*compound.Converter, error) {
	return s.conv, s.err
}

type stubBalances struct {
	balance *big.Int
	err     error
}

func (s *stubBalances) BalanceOf(context.Context, string, string) (*big.Int, error) {
	return s.balance, s.err
}

type recordingStorage struct {
	mu      sync.Mutex
	records []*storage.QuoteRecord
}

func (s *recordingStorage) StoreQuote(_ context.Context, rec *storage.QuoteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *recordingStorage) Close() error { return nil }

func (s *recordingStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// cdaiConverter returns a converter at 0.02 DAI per cDAI.
func cdaiConverter() *compound.Converter {
	conv := compound.NewConverter("cdai", testutil.NewMockRateSource("0"), zap.NewNop())
	conv.SetRate(new(big.Int).Mul(big.NewInt(2), new(big.Int).Exp(big.NewInt(10), big.NewInt(26), nil)))
	return conv
}

func newTestConfig(mm *types.MarketMakerData, oracle quoter.Oracle) *Config {
	logger := zap.NewNop()
	return &Config{
		Port:           "0",
		Logger:         logger,
		HealthChecker:  healthprobe.New(),
		AllowedOrigins: []string{"*"},
		Markets:        &stubMarkets{mm: mm},
		Quoters: func(string) *quoter.Quoter {
			return quoter.New(quoter.Config{Oracle: oracle, Logger: logger})
		},
		Sources: func(string, []*big.Int) quoter.MarketSource {
			return &testutil.MockMarketSource{Pool: mm.WithShares(nil), Fee: mm.Fee}
		},
		Drafts: outcomes.NewStore(logger),
	}
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNew(t *testing.T) {
	server := New(&Config{
		Port:          "8080",
		Logger:        zap.NewNop(),
		HealthChecker: healthprobe.New(),
	})
	require.NotNil(t, server)
	assert.Equal(t, ":8080", server.server.Addr)
	assert.Equal(t, 15*time.Second, server.server.ReadTimeout)
}

func TestServer_StartAndShutdown(t *testing.T) {
	server := New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: healthprobe.New(),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	hc := healthprobe.New()
	hc.SetReady(true)
	router := NewRouter(&Config{Logger: zap.NewNop(), HealthChecker: hc})

	assert.Equal(t, http.StatusOK, doRequest(t, router, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(t, router, http.MethodGet, "/ready", "").Code)

	rec := doRequest(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fpmm_http_requests_total")
}

func TestRouter_OptionalRoutesDisabled(t *testing.T) {
	router := NewRouter(&Config{Logger: zap.NewNop(), HealthChecker: healthprobe.New()})

	for _, target := range []string{"/api/quote?market=x&amount=1", "/api/convert?ctoken=x&amount=1", "/api/markets/x", "/ws/quote"} {
		assert.Equal(t, http.StatusNotFound, doRequest(t, router, http.MethodGet, target, "").Code, target)
	}
	assert.Equal(t, http.StatusNotFound, doRequest(t, router, http.MethodPost, "/api/outcomes", "").Code)
}

func TestRouter_CORS(t *testing.T) {
	router := NewRouter(&Config{
		Logger:         zap.NewNop(),
		HealthChecker:  healthprobe.New(),
		AllowedOrigins: []string{"https://app.example"},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGetMarket(t *testing.T) {
	mm := testutil.CreateTestMarketMaker(testMarket, testutil.DAI)
	router := NewRouter(newTestConfig(mm, testutil.NewMockOracle(0)))

	rec := doRequest(t, router, http.MethodGet, "/api/markets/"+testMarket, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[MarketResponse](t, rec)
	assert.Equal(t, "DAI", resp.Collateral.Symbol)
	assert.InDelta(t, 2.0, resp.FeePercentage, 1e-9)
	require.Len(t, resp.Outcomes, 2)
	assert.Equal(t, "Yes", resp.Outcomes[0].Name)
	assert.Equal(t, "50.0000", resp.Outcomes[0].Price)
	assert.Equal(t, "50.0000", resp.Outcomes[1].Price)
}

func TestGetMarket_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not_found", err: fmt.Errorf("fetch: %w", markets.ErrMarketNotFound), want: http.StatusNotFound},
		{name: "upstream", err: errors.New("subgraph down"), want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(testutil.CreateTestMarketMaker(testMarket, testutil.DAI), nil)
			cfg.Markets = &stubMarkets{err: tt.err}

			rec := doRequest(t, NewRouter(cfg), http.MethodGet, "/api/markets/"+testMarket, "")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetQuote_Buy(t *testing.T) {
	mm := testutil.CreateTestMarketMaker(testMarket, testutil.DAI)
	journal := &recordingStorage{}
	cfg := newTestConfig(mm, testutil.NewMockOracle(190))
	cfg.Journal = journal

	rec := doRequest(t, NewRouter(cfg), http.MethodGet, "/api/quote?market="+testMarket+"&amount=100&outcome=0", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[QuoteResponse](t, rec)
	assert.Equal(t, types.SideBuy, resp.Side)
	assert.Equal(t, "100", resp.AmountUsed)
	assert.Equal(t, "190", resp.TradedShares)
	assert.Equal(t, []string{"910", "1100"}, resp.BalanceAfterTrade)
	assert.Equal(t, []string{"190", "0"}, resp.NewShares)
	assert.Equal(t, "2", resp.Fees.FeePaid)
	assert.Equal(t, "98", resp.Fees.BaseCost)
	assert.Equal(t, "90", resp.Fees.PotentialProfit)
	assert.Empty(t, resp.ValidationError)
	assert.Nil(t, resp.Base)
	assert.Equal(t, 1, journal.count())
}

func TestGetQuote_Sell(t *testing.T) {
	mm := testutil.CreateTestMarketMaker(testMarket, testutil.DAI)
	router := NewRouter(newTestConfig(mm, testutil.NewMockOracle(20)))

	rec := doRequest(t, router, http.MethodGet, "/api/quote?market="+testMarket+"&amount=10&outcome=1&side=sell&shares=0,50", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[QuoteResponse](t, rec)
	assert.Equal(t, types.SideSell, resp.Side)
	assert.Equal(t, []string{"990", "1010"}, resp.BalanceAfterTrade)
	assert.Equal(t, []string{"0", "30"}, resp.NewShares)
}

func TestGetQuote_BalanceValidation(t *testing.T) {
	mm := testutil.CreateTestMarketMaker(testMarket, testutil.DAI)

	tests := []struct {
		name     string
		query    string
		balances BalanceProvider
		want     string
	}{
		{name: "within_balance", query: "&balance=100"},
		{name: "exceeds_balance", query: "&balance=50", want: "amount exceeds balance"},
		{name: "zero_balance", query: "&balance=0", want: "insufficient balance"},
		{name: "owner_lookup", query: "&owner=0xabc", balances: &stubBalances{balance: big.NewInt(10)}, want: "amount exceeds balance"},
		{name: "owner_lookup_failure_skips", query: "&owner=0xabc", balances: &stubBalances{err: errors.New("rpc down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(mm, testutil.NewMockOracle(190))
			cfg.Balances = tt.balances

			rec := doRequest(t, NewRouter(cfg), http.MethodGet, "/api/quote?market="+testMarket+"&amount=100"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code)

			resp := decode[QuoteResponse](t, rec)
			if tt.want == "" {
				assert.Empty(t, resp.ValidationError)
				return
			}
			assert.Contains(t, resp.ValidationError, tt.want)
		})
	}
}

func TestGetQuote_BadRequest(t *testing.T) {
	mm := testutil.CreateTestMarketMaker(testMarket, testutil.DAI)
	router := NewRouter(newTestConfig(mm, testutil.NewMockOracle(190)))

	for _, query := range []string{
		"amount=100",
		"market=" + testMarket,
		"market=" + testMarket + "&amount=abc",
		"market=" + testMarket + "&amount=-5",
		"market=" + testMarket + "&amount=1&side=hold",
		"market=" + testMarket + "&amount=1&outcome=x",
		"market=" + testMarket + "&amount=1&shares=1,x",
	} {
		rec := doRequest(t, router, http.MethodGet, "/api/quote?"+query, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestGetQuote_CTokenBaseDisplay(t *testing.T) {
	mm := testutil.CreateTestMarketMaker(testMarket, testutil.CDAI)
	cfg := newTestConfig(mm, testutil.NewMockOracle(19_000_000_000))
	cfg.Rates = &stubRates{conv: cdaiConverter()}

	rec := doRequest(t, NewRouter(cfg), http.MethodGet, "/api/quote?market="+testMarket+"&amount=10000000000", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[QuoteResponse](t, rec)
	require.NotNil(t, resp.Base)
	assert.Equal(t, "dai", resp.Base.Symbol)
	assert.Equal(t, 18, resp.Base.Decimals)
	assert.Equal(t, "2000000000000000000", resp.Base.AmountUsed)
	assert.Equal(t, "40000000000000000", resp.Base.FeePaid)
}

func TestGetConvert(t *testing.T) {
	mm := testutil.CreateTestMarketMaker(testMarket, testutil.DAI)
	cfg := newTestConfig(mm, nil)
	cfg.Rates = &stubRates{conv: cdaiConverter()}
	router := NewRouter(cfg)

	rec := doRequest(t, router, http.MethodGet, "/api/convert?ctoken="+testutil.CDAI.Address+"&amount=10000000000", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ConvertResponse](t, rec)
	assert.Equal(t, "2000000000000000000", resp.Result)
	assert.Equal(t, "2", resp.ResultDisplay)
	assert.Equal(t, "dai", resp.BaseSymbol)

	rec = doRequest(t, router, http.MethodGet, "/api/convert?ctoken="+testutil.CDAI.Address+"&direction=to-wrapped&amount=2000000000000000000", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = decode[ConvertResponse](t, rec)
	assert.Equal(t, "10000000000", resp.Result)
	assert.Equal(t, "100", resp.ResultDisplay)
}

func TestGetConvert_Errors(t *testing.T) {
	mm := testutil.CreateTestMarketMaker(testMarket, testutil.DAI)

	tests := []struct {
		name  string
		rates RateProvider
		query string
		want  int
	}{
		{name: "missing_ctoken", rates: &stubRates{conv: cdaiConverter()}, query: "amount=1", want: http.StatusBadRequest},
		{name: "bad_direction", rates: &stubRates{conv: cdaiConverter()}, query: "ctoken=0x1&amount=1&direction=sideways", want: http.StatusBadRequest},
		{name: "bad_decimals", rates: &stubRates{conv: cdaiConverter()}, query: "ctoken=0x1&amount=1&decimals=-1", want: http.StatusBadRequest},
		{name: "rate_unavailable", rates: &stubRates{err: errors.New("not a ctoken")}, query: "ctoken=0x1&amount=1", want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(mm, nil)
			cfg.Rates = tt.rates

			rec := doRequest(t, NewRouter(cfg), http.MethodGet, "/api/convert?"+tt.query, "")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestOutcomeDrafts(t *testing.T) {
	mm := testutil.CreateTestMarketMaker(testMarket, testutil.DAI)
	router := NewRouter(newTestConfig(mm, nil))

	rec := doRequest(t, router, http.MethodPost, "/api/outcomes", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	draft := decode[DraftResponse](t, rec)
	require.NotEmpty(t, draft.ID)
	assert.Len(t, draft.Outcomes, 2)
	assert.Equal(t, "100.00", draft.TotalDisplay)
	assert.Empty(t, draft.Messages)
	base := "/api/outcomes/" + draft.ID

	// binary sets keep their complement
	rec = doRequest(t, router, http.MethodPut, base+"/outcomes/0", `{"probability":30}`)
	require.Equal(t, http.StatusOK, rec.Code)
	draft = decode[DraftResponse](t, rec)
	require.NotNil(t, draft.Applied)
	assert.True(t, *draft.Applied)
	assert.InDelta(t, 30.0, draft.Outcomes[0].Probability, 1e-9)
	assert.InDelta(t, 70.0, draft.Outcomes[1].Probability, 1e-9)

	rec = doRequest(t, router, http.MethodPut, base+"/outcomes/1", `{"probability":120}`)
	draft = decode[DraftResponse](t, rec)
	assert.False(t, *draft.Applied)
	assert.InDelta(t, 70.0, draft.Outcomes[1].Probability, 1e-9)

	rec = doRequest(t, router, http.MethodPost, base+"/outcomes", `{"name":"Maybe"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	draft = decode[DraftResponse](t, rec)
	require.Len(t, draft.Outcomes, 3)
	assert.Equal(t, "Maybe", draft.Outcomes[2].Name)
	assert.InDelta(t, 0.0, draft.Outcomes[2].Probability, 1e-9)

	rec = doRequest(t, router, http.MethodPost, base+"/uniform", "")
	draft = decode[DraftResponse](t, rec)
	assert.True(t, draft.Uniform)
	for _, o := range draft.Outcomes {
		assert.InDelta(t, 100.0/3, o.Probability, 1e-9)
	}
	assert.Empty(t, draft.Messages)

	rec = doRequest(t, router, http.MethodPut, base+"/outcomes/0", `{"probability":10}`)
	draft = decode[DraftResponse](t, rec)
	assert.False(t, *draft.Applied)

	rec = doRequest(t, router, http.MethodDelete, base+"/outcomes/7", "")
	draft = decode[DraftResponse](t, rec)
	assert.False(t, *draft.Applied)

	rec = doRequest(t, router, http.MethodDelete, base+"/outcomes/2", "")
	draft = decode[DraftResponse](t, rec)
	assert.True(t, *draft.Applied)
	assert.Len(t, draft.Outcomes, 2)
	assert.InDelta(t, 50.0, draft.Outcomes[0].Probability, 1e-9)

	assert.Equal(t, http.StatusBadRequest, doRequest(t, router, http.MethodDelete, base+"/outcomes/x", "").Code)
	assert.Equal(t, http.StatusNoContent, doRequest(t, router, http.MethodDelete, base, "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(t, router, http.MethodGet, base, "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(t, router, http.MethodDelete, base, "").Code)
}

func TestOutcomeDrafts_CreateWithSet(t *testing.T) {
	mm := testutil.CreateTestMarketMaker(testMarket, testutil.DAI)
	router := NewRouter(newTestConfig(mm, nil))

	rec := doRequest(t, router, http.MethodPost, "/api/outcomes", `{"outcomes":[{"name":"A","probability":40},{"name":"a","probability":40}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	draft := decode[DraftResponse](t, rec)
	assert.InDelta(t, 20.0, draft.SuggestMax, 1e-9)
	assert.Len(t, draft.Messages, 2)

	rec = doRequest(t, router, http.MethodPost, "/api/outcomes", `{"outcomes":[{"name":"A","probability":140}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/outcomes", `{"outcomes":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func readSocketMessage(t *testing.T, conn *gws.Conn) SocketMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg SocketMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestQuoteSocket(t *testing.T) {
	mm := testutil.CreateTestMarketMaker(testMarket, testutil.DAI)
	journal := &recordingStorage{}
	cfg := newTestConfig(mm, testutil.NewMockOracle(190))
	cfg.Journal = journal

	srv := httptest.NewServer(NewRouter(cfg))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/quote?market=" + testMarket
	conn, resp, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(`{"amount":"100","outcome_index":0,"side":"buy"}`)))
	msg := readSocketMessage(t, conn)
	require.Equal(t, messageTypeQuote, msg.Type, msg.Error)
	require.NotNil(t, msg.Quote)
	assert.Equal(t, uint64(1), msg.Generation)
	assert.Equal(t, "190", msg.Quote.TradedShares)
	assert.Equal(t, "2", msg.Quote.Fees.FeePaid)
	assert.Eventually(t, func() bool { return journal.count() == 1 }, time.Second, 10*time.Millisecond)

	// bad input is reported without ending the session
	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(`{"amount":"abc"}`)))
	msg = readSocketMessage(t, conn)
	assert.Equal(t, messageTypeError, msg.Type)
	assert.Contains(t, msg.Error, "invalid amount")

	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(`{"amount":"10","outcome_index":1,"side":"sell"}`)))
	msg = readSocketMessage(t, conn)
	require.Equal(t, messageTypeQuote, msg.Type, msg.Error)
	assert.Equal(t, uint64(2), msg.Generation)
	assert.Equal(t, types.SideSell, msg.Quote.Side)
}

func TestQuoteSocket_MissingMarket(t *testing.T) {
	mm := testutil.CreateTestMarketMaker(testMarket, testutil.DAI)
	router := NewRouter(newTestConfig(mm, testutil.NewMockOracle(190)))

	rec := doRequest(t, router, http.MethodGet, "/ws/quote", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
