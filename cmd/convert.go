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
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert between a cToken and its underlying token",
	Long: `Converts an amount between a Compound cToken and its underlying token at the
current exchange rate. Results are rounded to four decimal places.`,
	RunE: runConvert,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringP("ctoken", "c", "", "cToken contract address")
	convertCmd.Flags().StringP("amount", "a", "", "Amount to convert, in source token units")
	convertCmd.Flags().BoolP("to-wrapped", "w", false, "Convert underlying into cToken instead of cToken into underlying")
	convertCmd.Flags().Int("decimals", -1, "Underlying token decimals (defaults to the known value for the cToken)")
	_ = convertCmd.MarkFlagRequired("ctoken")
	_ = convertCmd.MarkFlagRequired("amount")
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	address, _ := cmd.Flags().GetString("ctoken")
	amountStr, _ := cmd.Flags().GetString("amount")
	toWrapped, _ := cmd.Flags().GetBool("to-wrapped")
	decimals, _ := cmd.Flags().GetInt("decimals")

	client, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return err
	}
	defer client.Close()

	ctoken, err := chain.NewCToken(address, client)
	if err != nil {
		return err
	}
	symbol, err := ctoken.Symbol(ctx)
	if err != nil {
		return fmt.Errorf("read symbol: %w", err)
	}
	if !compound.IsCToken(symbol) {
		return fmt.Errorf("%s (%s) is not a supported cToken", address, symbol)
	}

	if decimals < 0 {
		known, ok := compound.BaseDecimals(symbol)
		if !ok {
			return fmt.Errorf("unknown decimals for %s, pass --decimals", symbol)
		}
		decimals = known
	}

	conv := compound.NewConverter(symbol, ctoken, logger)
	err = conv.Refresh(ctx)
	if err != nil {
		return err
	}

	base := compound.BaseSymbol(symbol)
	if toWrapped {
		amount, err := parseUnits(amountStr, decimals)
		if err != nil {
			return err
		}
		result := conv.ToWrapped(amount, decimals)
		fmt.Printf("%s %s = %s %s\n", formatUnits(amount, decimals), base, formatUnits(result, compound.CTokenDecimals), symbol)
		return nil
	}

	amount, err := parseUnits(amountStr, compound.CTokenDecimals)
	if err != nil {
		return err
	}
	result := conv.ToBase(amount, decimals)
	fmt.Printf("%s %s = %s %s\n", formatUnits(amount, compound.CTokenDecimals), symbol, formatUnits(result, decimals), base)
	return nil
}
