package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/swing-trade-backend/internal/models"
)

type ExecutionRepo struct {
	pool *pgxpool.Pool
}

func NewExecutionRepo(pool *pgxpool.Pool) *ExecutionRepo {
	return &ExecutionRepo{pool: pool}
}

func (r *ExecutionRepo) Record(ctx context.Context, exec *models.Execution) (*models.Execution, error) {
	return insertExecution(ctx, r.pool, exec)
}

// ListByStrategy returns the most recent executions for a strategy.
func (r *ExecutionRepo) ListByStrategy(ctx context.Context, strategyID string, limit int) ([]models.Execution, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT * FROM executions WHERE strategy_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		strategyID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExecutions(rows)
}

// CountToday counts successful orders placed since UTC midnight, across all
// strategies. Failed submissions are excluded.
func (r *ExecutionRepo) CountToday(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM executions
		 WHERE action IN ($1, $2)
		   AND created_at >= date_trunc('day', now() AT TIME ZONE 'utc')`,
		models.ActionBuy, models.ActionSell,
	).Scan(&count)
	return count, err
}

func insertExecution(ctx context.Context, q querier, exec *models.Execution) (*models.Execution, error) {
	ts := exec.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	row := q.QueryRow(ctx,
		`INSERT INTO executions
		 (strategy_id, action, price, quantity, pnl, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING *`,
		exec.StrategyID, exec.Action, exec.Price, exec.Quantity, exec.PnL, ts,
	)
	return scanExecution(row)
}

// --- scan helpers ---

func scanExecution(row scannable) (*models.Execution, error) {
	var e models.Execution
	err := row.Scan(&e.ID, &e.StrategyID, &e.Action, &e.Price, &e.Quantity, &e.PnL, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectExecutions(rows rowsIter) ([]models.Execution, error) {
	var out []models.Execution
	for rows.Next() {
		var e models.Execution
		if err := rows.Scan(&e.ID, &e.StrategyID, &e.Action, &e.Price, &e.Quantity, &e.PnL, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
