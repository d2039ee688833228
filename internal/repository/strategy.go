package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/swing-trade-backend/internal/models"
)

type StrategyRepo struct {
	pool *pgxpool.Pool
}

func NewStrategyRepo(pool *pgxpool.Pool) *StrategyRepo {
	return &StrategyRepo{pool: pool}
}

func (r *StrategyRepo) Create(ctx context.Context, s *models.Strategy) (*models.Strategy, error) {
	configJSON, positionJSON, err := marshalStrategyJSON(s)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO strategies
		 (id, name, symbol, exchange_name, status, prior_status, is_active,
		  config, trigger_price, stop_loss_price, position, total_pnl,
		  error_message, started_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		 RETURNING *`,
		s.ID, s.Name, s.Symbol, s.ExchangeName, s.Status, s.PriorStatus, s.IsActive,
		configJSON, s.TriggerPrice, s.StopLossPrice, positionJSON, s.TotalPnL,
		s.ErrorMessage, s.StartedAt,
	)
	return scanStrategy(row)
}

func (r *StrategyRepo) GetByID(ctx context.Context, id string) (*models.Strategy, error) {
	row := r.pool.QueryRow(ctx, `SELECT * FROM strategies WHERE id = $1`, id)
	s, err := scanStrategy(row)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// List returns strategies, newest first.
// If status is non-nil, filters by status.
func (r *StrategyRepo) List(ctx context.Context, status *models.Status, limit int) ([]models.Strategy, error) {
	query := `SELECT * FROM strategies WHERE 1=1`
	var args []any
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrategies(rows)
}

// ListActive returns every strategy the monitor should tick.
func (r *StrategyRepo) ListActive(ctx context.Context) ([]models.Strategy, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT * FROM strategies WHERE is_active = true ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrategies(rows)
}

// Update persists the full mutable state of a strategy row.
func (r *StrategyRepo) Update(ctx context.Context, s *models.Strategy) (*models.Strategy, error) {
	configJSON, positionJSON, err := marshalStrategyJSON(s)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, updateStrategySQL+` RETURNING *`,
		s.ID, s.Name, s.Status, s.PriorStatus, s.IsActive,
		configJSON, s.TriggerPrice, s.StopLossPrice, positionJSON,
		s.TotalPnL, s.ErrorMessage,
	)
	updated, err := scanStrategy(row)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

// UpdateFromTick persists one tick atomically: the advanced strategy
// snapshot, its signal, and the execution when one happened. The row is
// locked for the duration so concurrent writers of the same strategy
// serialize at the database as well.
func (r *StrategyRepo) UpdateFromTick(ctx context.Context, s *models.Strategy, sig *models.Signal, exec *models.Execution) error {
	configJSON, positionJSON, err := marshalStrategyJSON(s)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT 1 FROM strategies WHERE id = $1 FOR UPDATE`, s.ID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, updateStrategySQL,
		s.ID, s.Name, s.Status, s.PriorStatus, s.IsActive,
		configJSON, s.TriggerPrice, s.StopLossPrice, positionJSON,
		s.TotalPnL, s.ErrorMessage,
	); err != nil {
		return fmt.Errorf("update strategy: %w", err)
	}

	if sig != nil {
		if _, err := insertSignal(ctx, tx, sig); err != nil {
			return fmt.Errorf("insert signal: %w", err)
		}
	}
	if exec != nil {
		if _, err := insertExecution(ctx, tx, exec); err != nil {
			return fmt.Errorf("insert execution: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *StrategyRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM strategies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const updateStrategySQL = `UPDATE strategies
	 SET name = $2,
	     status = $3,
	     prior_status = $4,
	     is_active = $5,
	     config = $6,
	     trigger_price = $7,
	     stop_loss_price = $8,
	     position = $9,
	     total_pnl = $10,
	     error_message = $11,
	     updated_at = NOW()
	 WHERE id = $1`

// --- scan helpers ---

func marshalStrategyJSON(s *models.Strategy) (configJSON, positionJSON []byte, err error) {
	configJSON, err = json.Marshal(s.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal config: %w", err)
	}
	if s.Position != nil {
		positionJSON, err = json.Marshal(s.Position)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal position: %w", err)
		}
	}
	return configJSON, positionJSON, nil
}

func scanStrategyInto(row scannable, s *models.Strategy) error {
	var configJSON, positionJSON []byte
	err := row.Scan(
		&s.ID, &s.Name, &s.Symbol, &s.ExchangeName, &s.Status, &s.PriorStatus,
		&s.IsActive, &configJSON, &s.TriggerPrice, &s.StopLossPrice,
		&positionJSON, &s.TotalPnL, &s.ErrorMessage,
		&s.StartedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(configJSON, &s.Config); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	if len(positionJSON) > 0 {
		s.Position = &models.Position{}
		if err := json.Unmarshal(positionJSON, s.Position); err != nil {
			return fmt.Errorf("unmarshal position: %w", err)
		}
	}
	return nil
}

func scanStrategy(row scannable) (*models.Strategy, error) {
	var s models.Strategy
	if err := scanStrategyInto(row, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func collectStrategies(rows rowsIter) ([]models.Strategy, error) {
	var out []models.Strategy
	for rows.Next() {
		var s models.Strategy
		if err := scanStrategyInto(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
