package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mselser95/fpmm-quoter/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "fpmm-quoter",
	Short: "Trade quoting service for fixed product market makers",
	Long: `Quoting service for prediction markets backed by fixed product market makers.

It previews trades against a market maker pool (shares received, post-trade
reserves and probabilities, fees and potential profit), converts amounts
between Compound cTokens and their underlying tokens, and edits the outcome
list of markets being created.

Configuration is read from the environment and an optional .env file.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// a missing .env file is fine, the environment may be set directly
		_ = godotenv.Load()
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and creates the logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, logger, nil
}
