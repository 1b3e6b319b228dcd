package cmd

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/mselser95/fpmm-quoter/internal/markets"
	"github.com/mselser95/fpmm-quoter/pkg/chain"
	"github.com/mselser95/fpmm-quoter/pkg/config"
	"github.com/mselser95/fpmm-quoter/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// parseUnits converts a human amount such as "1.5" into base units with decimals.
// Precision beyond decimals is truncated.
func parseUnits(amount string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative, got %s", amount)
	}
	return d.Shift(int32(decimals)).BigInt(), nil
}

// formatUnits renders base units as a human amount.
func formatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}

// parseShareList parses comma-separated human share amounts.
func parseShareList(list string, decimals int) ([]*big.Int, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	parts := strings.Split(list, ",")
	out := make([]*big.Int, len(parts))
	for i, p := range parts {
		v, err := parseUnits(p, decimals)
		if err != nil {
			return nil, fmt.Errorf("shares[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// loadMarket fetches a market maker snapshot and resolves its collateral token on chain.
func loadMarket(ctx context.Context, cfg *config.Config, logger *zap.Logger, client *ethclient.Client, address string) (*types.MarketMakerData, error) {
	subgraph, err := markets.NewClient(cfg.SubgraphURL, logger)
	if err != nil {
		return nil, err
	}

	mm, err := subgraph.FetchMarketMaker(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch market maker: %w", err)
	}

	token, err := chain.NewTokenReader(client).Token(ctx, mm.Collateral.Address)
	if err != nil {
		return nil, fmt.Errorf("resolve collateral: %w", err)
	}
	mm.Collateral = token

	return mm, nil
}
