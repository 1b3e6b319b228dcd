package markets

import (
	"context"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/mselser95/fpmm-quoter/internal/testutil"
	"github.com/mselser95/fpmm-quoter/pkg/cache"
	"github.com/mselser95/fpmm-quoter/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testMarket = "0xABCDEF0000000000000000000000000000000001"

const marketMakerBody = `{"data":{"fixedProductMarketMaker":{
  "id":"0xabcdef0000000000000000000000000000000001",
  "title":"Will it rain tomorrow?",
  "outcomes":["Yes","No"],
  "fee":"20000000000000000",
  "collateralToken":"0x6b175474e89094c44da98b954eedeac495271d0f",
  "outcomeTokenAmounts":["100","300"]
}}}`

func newSubgraphServer(t *testing.T, status int, body string, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		assert.Equal(t, http.MethodPost, r.Method)

		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var req graphQLRequest
		assert.NoError(t, json.Unmarshal(raw, &req))
		assert.Contains(t, req.Query, "fixedProductMarketMaker")
		assert.Equal(t, "0xabcdef0000000000000000000000000000000001", req.Variables["id"])

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestCache(t *testing.T) *cache.RistrettoCache {
	t.Helper()
	c, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewClient(t *testing.T) {
	_, err := NewClient("", zap.NewNop())
	assert.Error(t, err)

	_, err = NewClient("http://localhost", nil)
	assert.Error(t, err)

	c, err := NewClient("http://localhost", zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, c.httpClient)
}

func TestClient_FetchMarketMaker(t *testing.T) {
	server := newSubgraphServer(t, http.StatusOK, marketMakerBody, nil)
	client, err := NewClient(server.URL, zap.NewNop())
	require.NoError(t, err)

	mm, err := client.FetchMarketMaker(context.Background(), testMarket)
	require.NoError(t, err)

	assert.Equal(t, "Will it rain tomorrow?", mm.Title)
	assert.Equal(t, testutil.FeeFraction(2), mm.Fee)
	require.Len(t, mm.Balances, 2)
	assert.Equal(t, "Yes", mm.Balances[0].OutcomeName)
	assert.Equal(t, big.NewInt(100), mm.Balances[0].Holdings)
	assert.Equal(t, big.NewInt(300), mm.Balances[1].Holdings)
	assert.Equal(t, 0, mm.Balances[1].Shares.Sign())
	assert.Equal(t, "0x6b175474e89094c44da98b954eedeac495271d0f", mm.Collateral.Address)
}

func TestClient_FetchMarketMaker_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{name: "http-error", status: http.StatusBadGateway, body: `oops`},
		{name: "graphql-error", status: http.StatusOK, body: `{"errors":[{"message":"indexing error"}]}`},
		{name: "not-found", status: http.StatusOK, body: `{"data":{"fixedProductMarketMaker":null}}`, sentinel: ErrMarketNotFound},
		{name: "bad-json", status: http.StatusOK, body: `{"data":`},
		{
			name:   "bad-amount",
			status: http.StatusOK,
			body:   `{"data":{"fixedProductMarketMaker":{"id":"0x1","fee":"0","outcomeTokenAmounts":["1.5"]}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newSubgraphServer(t, tt.status, tt.body, nil)
			client, err := NewClient(server.URL, zap.NewNop())
			require.NoError(t, err)

			_, err = client.FetchMarketMaker(context.Background(), testMarket)
			require.Error(t, err)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestSubgraphMarketMaker_DefaultOutcomeNames(t *testing.T) {
	s := &subgraphMarketMaker{ID: "0x1", Fee: "0", OutcomeTokenAmounts: []string{"1", "2", "3"}}

	mm, err := s.toMarketMaker()
	require.NoError(t, err)
	assert.Equal(t, "Outcome 3", mm.Balances[2].OutcomeName)
}

type stubTokens struct {
	token types.Token
	err   error
	calls atomic.Int64
}

func (s *stubTokens) Token(context.Context, string) (types.Token, error) {
	s.calls.Add(1)
	return s.token, s.err
}

func TestCachedClient_CachesSnapshot(t *testing.T) {
	var hits atomic.Int64
	server := newSubgraphServer(t, http.StatusOK, marketMakerBody, &hits)
	client, err := NewClient(server.URL, zap.NewNop())
	require.NoError(t, err)

	c := newTestCache(t)
	tokens := &stubTokens{token: testutil.DAI}
	cached, err := NewCachedClient(CachedClientConfig{
		Fetcher: client,
		Tokens:  tokens,
		Cache:   c,
		PoolTTL: time.Minute,
		Logger:  zap.NewNop(),
	})
	require.NoError(t, err)

	mm, err := cached.MarketMaker(context.Background(), testMarket)
	require.NoError(t, err)
	assert.Equal(t, "DAI", mm.Collateral.Symbol)
	c.Wait()

	_, err = cached.MarketMaker(context.Background(), testMarket)
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load(), "second read served from cache")

	cached.Invalidate(testMarket)
	c.Wait()

	_, err = cached.MarketMaker(context.Background(), testMarket)
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
	assert.Equal(t, int64(1), tokens.calls.Load(), "token metadata stays cached")
}

func TestCachedClient_TokenFailureKeepsSnapshot(t *testing.T) {
	server := newSubgraphServer(t, http.StatusOK, marketMakerBody, nil)
	client, err := NewClient(server.URL, zap.NewNop())
	require.NoError(t, err)

	cached, err := NewCachedClient(CachedClientConfig{
		Fetcher: client,
		Tokens:  &stubTokens{err: errors.New("rpc down")},
		Cache:   newTestCache(t),
		PoolTTL: time.Minute,
	})
	require.NoError(t, err)

	mm, err := cached.MarketMaker(context.Background(), testMarket)
	require.NoError(t, err)
	assert.Empty(t, mm.Collateral.Symbol)
	assert.Len(t, mm.Balances, 2)
}

func TestNewCachedClient_Validation(t *testing.T) {
	_, err := NewCachedClient(CachedClientConfig{Cache: newTestCache(t), PoolTTL: time.Second})
	assert.Error(t, err)

	_, err = NewCachedClient(CachedClientConfig{Fetcher: &Client{}, PoolTTL: time.Second})
	assert.Error(t, err)

	_, err = NewCachedClient(CachedClientConfig{Fetcher: &Client{}, Cache: newTestCache(t)})
	assert.Error(t, err)
}

func TestSource(t *testing.T) {
	server := newSubgraphServer(t, http.StatusOK, marketMakerBody, nil)
	client, err := NewClient(server.URL, zap.NewNop())
	require.NoError(t, err)
	cached, err := NewCachedClient(CachedClientConfig{Fetcher: client, Cache: newTestCache(t), PoolTTL: time.Minute})
	require.NoError(t, err)

	source := NewSource(cached, testMarket, []*big.Int{big.NewInt(7)})

	pool, err := source.CurrentPool(context.Background())
	require.NoError(t, err)
	require.Len(t, pool, 2)
	assert.Equal(t, big.NewInt(7), pool[0].Shares)
	assert.Equal(t, 0, pool[1].Shares.Sign())

	fee, err := source.CurrentFeeFraction(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testutil.FeeFraction(2), fee)
}
