// Package markets provides fixed product market maker snapshots from the Omen
// subgraph, cached in memory.
package markets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mselser95/fpmm-quoter/pkg/types"
	"go.uber.org/zap"
)

// ErrMarketNotFound is returned when the subgraph has no market maker at the address.
var ErrMarketNotFound = errors.New("market maker not found")

const marketMakerQuery = `query GetMarketMaker($id: ID!) {
  fixedProductMarketMaker(id: $id) {
    id
    title
    outcomes
    fee
    collateralToken
    outcomeTokenAmounts
  }
}`

// Client fetches market maker state from the subgraph GraphQL endpoint.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new subgraph client.
func NewClient(url string, logger *zap.Logger) (*Client, error) {
	if url == "" {
		return nil, errors.New("subgraph url cannot be empty")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}, nil
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type marketMakerResponse struct {
	Data struct {
		FixedProductMarketMaker *subgraphMarketMaker `json:"fixedProductMarketMaker"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type subgraphMarketMaker struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Outcomes            []string `json:"outcomes"`
	Fee                 string   `json:"fee"`
	CollateralToken     string   `json:"collateralToken"`
	OutcomeTokenAmounts []string `json:"outcomeTokenAmounts"`
}

// FetchMarketMaker fetches the current reserves and fee of the market maker at address.
// The returned collateral token carries only its address.
func (c *Client) FetchMarketMaker(ctx context.Context, address string) (mm *types.MarketMakerData, err error) {
	start := time.Now()
	defer func() {
		SubgraphFetchDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			SubgraphFetchErrorsTotal.Inc()
		}
	}()

	body, err := json.Marshal(graphQLRequest{
		Query:     marketMakerQuery,
		Variables: map[string]interface{}{"id": strings.ToLower(address)},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subgraph error: status %d", resp.StatusCode)
	}

	var decoded marketMakerResponse
	err = json.NewDecoder(resp.Body).Decode(&decoded)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(decoded.Errors) > 0 {
		return nil, fmt.Errorf("subgraph error: %s", decoded.Errors[0].Message)
	}
	if decoded.Data.FixedProductMarketMaker == nil {
		return nil, fmt.Errorf("%w: %s", ErrMarketNotFound, address)
	}

	mm, err = decoded.Data.FixedProductMarketMaker.toMarketMaker()
	if err != nil {
		return nil, fmt.Errorf("parse market maker %s: %w", address, err)
	}

	c.logger.Debug("market-maker-fetched",
		zap.String("address", mm.Address),
		zap.Int("outcomes", len(mm.Balances)),
		zap.Duration("duration", time.Since(start)))

	return mm, nil
}

func (s *subgraphMarketMaker) toMarketMaker() (*types.MarketMakerData, error) {
	fee, ok := new(big.Int).SetString(s.Fee, 10)
	if !ok {
		return nil, fmt.Errorf("invalid fee %q", s.Fee)
	}

	balances := make([]types.PoolBalance, len(s.OutcomeTokenAmounts))
	for i, raw := range s.OutcomeTokenAmounts {
		holdings, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return nil, fmt.Errorf("invalid outcome token amount %q", raw)
		}

		name := fmt.Sprintf("Outcome %d", i+1)
		if i < len(s.Outcomes) && s.Outcomes[i] != "" {
			name = s.Outcomes[i]
		}

		balances[i] = types.PoolBalance{
			OutcomeIndex: i,
			OutcomeName:  name,
			Holdings:     holdings,
			Shares:       new(big.Int),
		}
	}

	return &types.MarketMakerData{
		Address:    s.ID,
		Title:      s.Title,
		Collateral: types.Token{Address: s.CollateralToken},
		Fee:        fee,
		Balances:   balances,
	}, nil
}
