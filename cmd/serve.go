package cmd

import (
	"fmt"

	"github.com/mselser95/fpmm-quoter/internal/app"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the quoting service",
	Long: `Starts the HTTP and websocket quoting service, which will:
1. Serve market snapshots and one-off trade quotes over HTTP
2. Stream debounced quotes over /ws/quote, newest input wins
3. Convert cToken amounts at the current exchange rate, refreshed periodically
4. Journal published quotes to the console or PostgreSQL

Use --market to load markets at startup.`,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringSliceP("market", "m", nil, "Market maker address to load at startup (repeatable)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	marketAddrs, _ := cmd.Flags().GetStringSlice("market")

	application, err := app.New(cfg, logger, &app.Options{Markets: marketAddrs})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
