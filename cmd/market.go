package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mselser95/fpmm-quoter/internal/fees"
	"github.com/mselser95/fpmm-quoter/internal/quoter"
	"github.com/mselser95/fpmm-quoter/pkg/chain"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var marketCmd = &cobra.Command{
	Use:   "market <address>",
	Short: "Show a market maker's pool and current probabilities",
	Long:  `Fetches the market maker from the subgraph and displays its reserves, fee and marginal prices.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runMarket,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(marketCmd)
}

func runMarket(cmd *cobra.Command, args []string) error {
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

	mm, err := loadMarket(ctx, cfg, logger, client, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("=== %s ===\n\n", mm.Title)
	fmt.Printf("Address:    %s\n", mm.Address)
	fmt.Printf("Collateral: %s (%s)\n", mm.Collateral.Symbol, mm.Collateral.Address)
	fmt.Printf("Fee:        %.2f%%\n\n", fees.FeePercentage(mm.Fee))

	prices := quoter.PricesAfterTrade(mm.Holdings())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "#\tOUTCOME\tHOLDINGS\tPROBABILITY\n")
	fmt.Fprintf(w, "-\t-------\t--------\t-----------\n")
	for i, b := range mm.Balances {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s%%\n",
			b.OutcomeIndex,
			b.OutcomeName,
			formatUnits(b.Holdings, mm.Collateral.Decimals),
			prices[i].StringFixed(2))
	}
	w.Flush()

	return nil
}
