package markets

import (
	"context"
	"math/big"

	"github.com/mselser95/fpmm-quoter/pkg/types"
)

// Source serves one market's pool and fee to a quote pipeline.
// Trader share holdings are overlaid on the market maker reserves.
type Source struct {
	client  *CachedClient
	address string
	shares  []*big.Int
}

// NewSource creates a source for the market maker at address.
func NewSource(client *CachedClient, address string, shares []*big.Int) *Source {
	return &Source{
		client:  client,
		address: address,
		shares:  shares,
	}
}

// CurrentPool returns the pool balances with the trader's shares applied.
func (s *Source) CurrentPool(ctx context.Context) ([]types.PoolBalance, error) {
	mm, err := s.client.MarketMaker(ctx, s.address)
	if err != nil {
		return nil, err
	}
	return mm.WithShares(s.shares), nil
}

// CurrentFeeFraction returns the pool fee as an 18-decimal fraction.
func (s *Source) CurrentFeeFraction(ctx context.Context) (*big.Int, error) {
	mm, err := s.client.MarketMaker(ctx, s.address)
	if err != nil {
		return nil, err
	}
	if mm.Fee == nil {
		return new(big.Int), nil
	}
	return new(big.Int).Set(mm.Fee), nil
}
