package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the schema if it does not exist yet. Signals and
// executions are append-only; only a signal's acted flag may ever change.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS strategies (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			symbol TEXT NOT NULL,
			exchange_name TEXT NOT NULL,
			status TEXT NOT NULL,
			prior_status TEXT,
			is_active BOOLEAN NOT NULL DEFAULT true,
			config JSONB NOT NULL,
			trigger_price DOUBLE PRECISION NOT NULL,
			stop_loss_price DOUBLE PRECISION NOT NULL,
			position JSONB,
			total_pnl DOUBLE PRECISION NOT NULL DEFAULT 0,
			error_message TEXT,
			started_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS signals (
			id BIGSERIAL PRIMARY KEY,
			strategy_id UUID NOT NULL REFERENCES strategies(id) ON DELETE CASCADE,
			signal_type TEXT NOT NULL,
			message TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			price_change_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
			acted BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS executions (
			id BIGSERIAL PRIMARY KEY,
			strategy_id UUID NOT NULL REFERENCES strategies(id) ON DELETE CASCADE,
			action TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			quantity DOUBLE PRECISION NOT NULL,
			pnl DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_strategies_active ON strategies (is_active, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_strategy ON signals (strategy_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_strategy ON executions (strategy_id, created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	fmt.Println("[DB] Schema up to date")
	return nil
}
