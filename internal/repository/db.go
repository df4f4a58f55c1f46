package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docufield/receipt-lens/internal/common"
)

// Open creates a pgx pool from the database config and pings it.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("connecting to database")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, err
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "receipt-lens"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}
	if cfg.DialTimeout > 0 {
		pc.ConnConfig.ConnectTimeout = cfg.DialTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("database ping failed", "error", err)
		return nil, common.WrapError(err, "database ping")
	}

	logger.Info("database connected")
	return pool, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS receipts (
	id						UUID PRIMARY KEY,
	classification			TEXT NOT NULL,
	merchant_name			TEXT,
	merchant_address		TEXT,
	merchant_phone			TEXT,
	tx_date					DATE,
	tx_time					TEXT,
	subtotal				NUMERIC(12,2),
	subtotal_currency		TEXT,
	tax						NUMERIC(12,2),
	tax_currency			TEXT,
	total					NUMERIC(12,2),
	total_currency			TEXT,
	raw_content				TEXT,
	content_confidence		DOUBLE PRECISION,
	provider				TEXT NOT NULL,
	model_id				TEXT NOT NULL,
	model_version			TEXT NOT NULL,
	created_at				TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS receipt_items (
	id						BIGSERIAL PRIMARY KEY,
	receipt_id				UUID NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
	position				INT NOT NULL,
	description				TEXT,
	quantity				NUMERIC(12,2),
	unit_price				NUMERIC(12,2),
	unit_price_currency		TEXT,
	total_price				NUMERIC(12,2),
	total_price_currency	TEXT,
	confidence				DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS receipts_tx_date_idx ON receipts (tx_date);
`

// EnsureSchema creates the receipt tables when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		return common.WrapError(err, "ensure schema")
	}
	logger.Info("database schema ready")
	return nil
}
