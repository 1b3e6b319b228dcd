package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/mselser95/fpmm-quoter/internal/compound"
	"github.com/mselser95/fpmm-quoter/pkg/chain"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var apyCmd = &cobra.Command{
	Use:   "apy <ctoken-address>",
	Short: "Show the supply APY of a cToken",
	Long:  `Reads supplyRatePerBlock from the cToken and compounds it daily over a year.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAPY,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(apyCmd)
}

func runAPY(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return err
	}
	defer client.Close()

	ctoken, err := chain.NewCToken(args[0], client)
	if err != nil {
		return err
	}
	symbol, err := ctoken.Symbol(ctx)
	if err != nil {
		return fmt.Errorf("read symbol: %w", err)
	}
	rate, err := ctoken.SupplyRatePerBlock(ctx)
	if err != nil {
		return fmt.Errorf("read supply rate: %w", err)
	}

	fmt.Printf("%s supply APY: %.2f%%\n", symbol, compound.SupplyAPY(rate))
	return nil
}
