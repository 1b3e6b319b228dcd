package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// ConsoleStorage implements Storage by pretty-printing to a writer.
type ConsoleStorage struct {
	out    io.Writer
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage writing to stdout.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	return NewConsoleStorageWriter(os.Stdout, logger)
}

// NewConsoleStorageWriter creates a console storage writing to out.
func NewConsoleStorageWriter(out io.Writer, logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		out:    out,
		logger: logger,
	}
}

// StoreQuote pretty-prints a quote.
func (c *ConsoleStorage) StoreQuote(ctx context.Context, rec *QuoteRecord) error {
	id := rec.ID
	if len(id) > 8 {
		id = id[:8]
	}

	prices := make([]string, len(rec.PricesAfterTrade))
	for i, p := range rec.PricesAfterTrade {
		prices[i] = p.StringFixed(2) + "%"
	}

	var b strings.Builder
	fmt.Fprintln(&b, "\n"+rule)
	fmt.Fprintf(&b, "QUOTE %s\n", strings.ToUpper(rec.Side))
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "ID:       %s\n", id)
	fmt.Fprintf(&b, "Market:   %s\n", rec.Market)
	fmt.Fprintf(&b, "Outcome:  %d\n", rec.OutcomeIndex)
	fmt.Fprintf(&b, "Time:     %s\n", rec.QuotedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "  Amount:           %s\n", bigString(rec.AmountUsed))
	fmt.Fprintf(&b, "  Shares:           %s\n", bigString(rec.TradedShares))
	fmt.Fprintf(&b, "  Fee paid:         %s\n", bigString(rec.FeePaid))
	fmt.Fprintf(&b, "  Potential profit: %s\n", bigString(rec.PotentialProfit))
	fmt.Fprintf(&b, "  Prices after:     %s\n", strings.Join(prices, " / "))
	if rec.OracleFailed {
		fmt.Fprintln(&b, "  ⚠ oracle unavailable, shares fell back to zero")
	}
	fmt.Fprintln(&b, rule)

	_, err := io.WriteString(c.out, b.String())
	if err != nil {
		return fmt.Errorf("write quote: %w", err)
	}
	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
