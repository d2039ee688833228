package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/swing-trade-backend/internal/models"
)

type SignalRepo struct {
	pool *pgxpool.Pool
}

func NewSignalRepo(pool *pgxpool.Pool) *SignalRepo {
	return &SignalRepo{pool: pool}
}

func (r *SignalRepo) Record(ctx context.Context, sig *models.Signal) (*models.Signal, error) {
	return insertSignal(ctx, r.pool, sig)
}

// ListByStrategy returns the most recent signals for a strategy.
func (r *SignalRepo) ListByStrategy(ctx context.Context, strategyID string, limit int) ([]models.Signal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT * FROM signals WHERE strategy_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		strategyID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSignals(rows)
}

func insertSignal(ctx context.Context, q querier, sig *models.Signal) (*models.Signal, error) {
	ts := sig.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	row := q.QueryRow(ctx,
		`INSERT INTO signals
		 (strategy_id, signal_type, message, price, price_change_percent, acted, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING *`,
		sig.StrategyID, sig.SignalType, sig.Message, sig.Price,
		sig.PriceChangePercent, sig.Acted, ts,
	)
	return scanSignal(row)
}

// --- scan helpers ---

func scanSignal(row scannable) (*models.Signal, error) {
	var s models.Signal
	err := row.Scan(
		&s.ID, &s.StrategyID, &s.SignalType, &s.Message,
		&s.Price, &s.PriceChangePercent, &s.Acted, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSignals(rows rowsIter) ([]models.Signal, error) {
	var out []models.Signal
	for rows.Next() {
		var s models.Signal
		if err := rows.Scan(
			&s.ID, &s.StrategyID, &s.SignalType, &s.Message,
			&s.Price, &s.PriceChangePercent, &s.Acted, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
