package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const createQuotesTable = `
	CREATE TABLE IF NOT EXISTS quotes (
		id                 UUID PRIMARY KEY,
		market             TEXT NOT NULL,
		side               TEXT NOT NULL,
		outcome_index      INTEGER NOT NULL,
		amount_used        NUMERIC(78, 0) NOT NULL,
		traded_shares      NUMERIC(78, 0) NOT NULL,
		fee_paid           NUMERIC(78, 0) NOT NULL,
		potential_profit   NUMERIC(78, 0) NOT NULL,
		prices_after_trade JSONB NOT NULL,
		oracle_failed      BOOLEAN NOT NULL,
		quoted_at          TIMESTAMPTZ NOT NULL
	)
`

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage and ensures the schema exists.
func NewPostgresStorage(ctx context.Context, cfg *PostgresConfig) (*PostgresStorage, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	storage := &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}

	err = storage.EnsureSchema(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return storage, nil
}

// EnsureSchema creates the quotes table if missing.
func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, createQuotesTable)
	if err != nil {
		return fmt.Errorf("create quotes table: %w", err)
	}
	return nil
}

// StoreQuote stores a quote in PostgreSQL. Amounts are stored as exact NUMERIC
// and prices as a JSON array of decimal strings.
func (p *PostgresStorage) StoreQuote(ctx context.Context, rec *QuoteRecord) error {
	prices, err := json.Marshal(rec.PricesAfterTrade)
	if err != nil {
		return fmt.Errorf("marshal prices: %w", err)
	}

	query := `
		INSERT INTO quotes (
			id, market, side, outcome_index, amount_used, traded_shares,
			fee_paid, potential_profit, prices_after_trade, oracle_failed, quoted_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err = p.db.ExecContext(ctx, query,
		rec.ID,
		rec.Market,
		rec.Side,
		rec.OutcomeIndex,
		bigString(rec.AmountUsed),
		bigString(rec.TradedShares),
		bigString(rec.FeePaid),
		bigString(rec.PotentialProfit),
		string(prices),
		rec.OracleFailed,
		rec.QuotedAt,
	)
	if err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}

	p.logger.Debug("quote-stored",
		zap.String("quote-id", rec.ID),
		zap.String("market", rec.Market))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
