package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mselser95/fpmm-quoter/internal/compound"
	"github.com/mselser95/fpmm-quoter/internal/fees"
	"github.com/mselser95/fpmm-quoter/internal/quoter"
	"github.com/mselser95/fpmm-quoter/pkg/chain"
	"github.com/mselser95/fpmm-quoter/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Preview a trade against a market maker",
	Long: `Asks the market maker contract how many shares a trade would buy or sell and
displays the resulting reserves, probabilities, fee and potential profit.

Amounts are given in collateral units, e.g. --amount 1.5 for 1.5 DAI.`,
	RunE: runQuote,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.Flags().StringP("market", "m", "", "Market maker address")
	quoteCmd.Flags().StringP("amount", "a", "", "Collateral to invest (buy) or receive (sell)")
	quoteCmd.Flags().IntP("outcome", "o", 0, "Outcome index")
	quoteCmd.Flags().StringP("side", "s", "buy", "Trade side: buy or sell")
	quoteCmd.Flags().String("shares", "", "Your current shares per outcome, comma separated")
	quoteCmd.Flags().String("owner", "", "Wallet address whose collateral balance limits a buy")
	_ = quoteCmd.MarkFlagRequired("market")
	_ = quoteCmd.MarkFlagRequired("amount")
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	marketAddr, _ := cmd.Flags().GetString("market")
	amountStr, _ := cmd.Flags().GetString("amount")
	outcome, _ := cmd.Flags().GetInt("outcome")
	sideStr, _ := cmd.Flags().GetString("side")
	sharesStr, _ := cmd.Flags().GetString("shares")
	owner, _ := cmd.Flags().GetString("owner")

	side, err := types.ParseSide(sideStr)
	if err != nil {
		return err
	}

	client, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return err
	}
	defer client.Close()

	mm, err := loadMarket(ctx, cfg, logger, client, marketAddr)
	if err != nil {
		return err
	}
	decimals := mm.Collateral.Decimals

	amount, err := parseUnits(amountStr, decimals)
	if err != nil {
		return err
	}
	shares, err := parseShareList(sharesStr, decimals)
	if err != nil {
		return err
	}

	oracle, err := chain.NewMarketMaker(marketAddr, client)
	if err != nil {
		return fmt.Errorf("bind market maker: %w", err)
	}
	q := quoter.New(quoter.Config{Oracle: oracle, OracleTimeout: cfg.OracleTimeout, Logger: logger})

	pool := mm.WithShares(shares)
	var quote *quoter.TradeQuote
	if side == types.SideSell {
		quote = q.QuoteSell(ctx, amount, outcome, pool)
	} else {
		quote = q.Quote(ctx, amount, outcome, pool)
	}
	f := fees.Compute(quote.AmountUsed, quote.TradedShares, mm.Fee)

	symbol := mm.Collateral.Symbol
	fmt.Printf("=== %s ===\n\n", mm.Title)
	if quote.OracleFailed {
		fmt.Printf("Warning: market maker call failed, showing a zero-share quote\n\n")
	}
	fmt.Printf("Side:             %s outcome %d\n", quote.Side, quote.OutcomeIndex)
	fmt.Printf("Amount:           %s %s\n", formatUnits(quote.AmountUsed, decimals), symbol)
	fmt.Printf("Shares:           %s\n", formatUnits(quote.TradedShares, decimals))
	fmt.Printf("Fee:              %s %s (%.2f%%)\n", formatUnits(f.FeePaid, decimals), symbol, fees.FeePercentage(mm.Fee))
	fmt.Printf("Base cost:        %s %s\n", formatUnits(f.BaseCost, decimals), symbol)
	fmt.Printf("Potential profit: %s %s\n", formatUnits(f.PotentialProfit, decimals), symbol)

	if side == types.SideBuy && owner != "" {
		balance, err := chain.NewBalanceReader(client).BalanceOf(ctx, mm.Collateral.Address, owner)
		if err != nil {
			return fmt.Errorf("read balance: %w", err)
		}
		if vErr := quoter.CheckBalance(amount, balance, mm.Collateral); vErr != nil {
			fmt.Printf("Validation:       %s\n", vErr)
		}
	}

	printBaseEquivalent(ctx, logger, client, mm.Collateral, f)

	before := quoter.PricesAfterTrade(mm.Holdings())

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "#\tOUTCOME\tBEFORE\tAFTER\tHOLDINGS AFTER\tYOUR SHARES\n")
	fmt.Fprintf(w, "-\t-------\t------\t-----\t--------------\t-----------\n")
	for i, b := range pool {
		fmt.Fprintf(w, "%d\t%s\t%s%%\t%s%%\t%s\t%s\n",
			i,
			b.OutcomeName,
			before[i].StringFixed(2),
			quote.PricesAfterTrade[i].StringFixed(2),
			formatUnits(quote.BalanceAfterTrade[i], decimals),
			formatUnits(quote.NewShares[i], decimals))
	}
	w.Flush()

	return nil
}

// printBaseEquivalent restates cToken fee figures in the underlying token.
func printBaseEquivalent(ctx context.Context, logger *zap.Logger, client chain.Caller, collateral types.Token, f fees.FeeQuote) {
	baseDecimals, ok := compound.BaseDecimals(collateral.Symbol)
	if !ok {
		return
	}

	ctoken, err := chain.NewCToken(collateral.Address, client)
	if err != nil {
		return
	}
	conv := compound.NewConverter(collateral.Symbol, ctoken, logger)
	err = conv.Refresh(ctx)
	if err != nil {
		fmt.Printf("Exchange rate unavailable: %v\n", err)
		return
	}

	base := compound.BaseSymbol(collateral.Symbol)
	fmt.Printf("Base cost (%s):  %s\n", base, formatUnits(conv.ToBase(f.BaseCost, baseDecimals), baseDecimals))
	fmt.Printf("Fee (%s):        %s\n", base, formatUnits(conv.ToBase(f.FeePaid, baseDecimals), baseDecimals))
}
