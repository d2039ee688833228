package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kjannette/swing-trade-backend/internal/engine"
	"github.com/kjannette/swing-trade-backend/internal/exchange"
	"github.com/kjannette/swing-trade-backend/internal/metrics"
	"github.com/kjannette/swing-trade-backend/internal/models"
	"github.com/kjannette/swing-trade-backend/internal/notifications"
	"github.com/kjannette/swing-trade-backend/internal/repository"
	"github.com/kjannette/swing-trade-backend/internal/risk"
	"github.com/kjannette/swing-trade-backend/internal/strategy"
)

// Service owns the strategy lifecycle and runs ticks end to end: evaluate,
// submit the order when one is requested, persist. A per-strategy lock is
// held across the whole tick so the same strategy is never evaluated twice
// concurrently.
type Service struct {
	strategies *repository.StrategyRepo
	signals    *repository.SignalRepo
	executions *repository.ExecutionRepo
	feed       exchange.PriceFeed
	gateway    exchange.ExecutionGateway
	notify     *notifications.Sender
	guard      *risk.Guardian
	paperMode  bool
	locks      *keyedMutex
}

func New(
	strategies *repository.StrategyRepo,
	signals *repository.SignalRepo,
	executions *repository.ExecutionRepo,
	feed exchange.PriceFeed,
	gateway exchange.ExecutionGateway,
	notify *notifications.Sender,
	guard *risk.Guardian,
	paperMode bool,
) *Service {
	return &Service{
		strategies: strategies,
		signals:    signals,
		executions: executions,
		feed:       feed,
		gateway:    gateway,
		notify:     notify,
		guard:      guard,
		paperMode:  paperMode,
		locks:      newKeyedMutex(),
	}
}

// --- lifecycle ---

func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Strategy, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg := req.Config
	// The lot schedule is always derived from config, never taken from the
	// caller.
	cfg.GradualLots = strategy.GenerateLots(cfg.GradualSell)
	trigger, stopLoss := strategy.ComputePrices(cfg)

	exchangeName := req.ExchangeName
	if exchangeName == "" {
		exchangeName = "binance"
	}

	now := time.Now()
	created, err := s.strategies.Create(ctx, &models.Strategy{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Symbol:        req.Symbol,
		ExchangeName:  exchangeName,
		Status:        models.StatusMonitoring,
		IsActive:      true,
		Config:        cfg,
		TriggerPrice:  trigger,
		StopLossPrice: stopLoss,
		StartedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("create strategy: %w", err)
	}

	fmt.Printf("[STRATEGY] Created %q (%s on %s): trigger %.4f, stop %.4f, gradual=%v\n",
		created.Name, created.Symbol, created.ExchangeName,
		created.TriggerPrice, created.StopLossPrice, cfg.GradualSell)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Strategy, error) {
	return s.strategies.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, status *models.Status, limit int) ([]models.Strategy, error) {
	return s.strategies.List(ctx, status, limit)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*models.Strategy, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	strat, err := s.strategies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if strat.Status.IsTerminal() {
		return nil, fmt.Errorf("cannot update a strategy in terminal status %q", strat.Status)
	}

	cfg := req.Config
	if strategy.GradualInProgress(strat.Config.GradualLots) {
		// Executed lots are immutable; keep the running schedule.
		cfg.GradualSell = strat.Config.GradualSell
		cfg.GradualLots = strat.Config.GradualLots
	} else {
		cfg.GradualLots = strategy.GenerateLots(cfg.GradualSell)
	}

	strat.Config = cfg
	strat.TriggerPrice, strat.StopLossPrice = strategy.ComputePrices(cfg)
	if req.Name != nil {
		strat.Name = *req.Name
	}
	return s.strategies.Update(ctx, strat)
}

func (s *Service) Pause(ctx context.Context, id string) (*models.Strategy, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	strat, err := s.strategies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := strategy.CheckPause(strat.Status); err != nil {
		return nil, err
	}

	prior := strat.Status
	strat.PriorStatus = &prior
	strat.Status = models.StatusPaused
	strat.IsActive = false
	return s.strategies.Update(ctx, strat)
}

func (s *Service) Activate(ctx context.Context, id string) (*models.Strategy, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	strat, err := s.strategies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := strategy.ResumeStatus(strat)
	if err != nil {
		return nil, err
	}

	strat.Status = next
	strat.PriorStatus = nil
	strat.ErrorMessage = nil
	strat.IsActive = true
	return s.strategies.Update(ctx, strat)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)
	return s.strategies.Delete(ctx, id)
}

// RegisterPosition attaches an externally opened holding to the strategy and
// moves it to in_position. The engine itself never buys.
func (s *Service) RegisterPosition(ctx context.Context, id string, entryPrice, quantity float64) (*models.Strategy, error) {
	if entryPrice <= 0 {
		return nil, fmt.Errorf("entry_price: must be positive")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity: must be positive")
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	strat, err := s.strategies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch strat.Status {
	case models.StatusIdle, models.StatusMonitoring:
	default:
		return nil, fmt.Errorf("cannot register a position while status is %q", strat.Status)
	}

	strat.Position = &models.Position{
		EntryPrice:      entryPrice,
		Quantity:        quantity,
		InitialQuantity: quantity,
		MaxPriceSeen:    entryPrice,
		OpenedAt:        time.Now(),
	}
	strat.Status = models.StatusInPosition
	updated, err := s.strategies.Update(ctx, strat)
	if err != nil {
		return nil, err
	}

	fmt.Printf("[STRATEGY] Position registered on %q: %.6f %s @ %.4f\n",
		strat.Name, quantity, strat.Symbol, entryPrice)
	return updated, nil
}

func (s *Service) Signals(ctx context.Context, id string, limit int) ([]models.Signal, error) {
	if _, err := s.strategies.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.signals.ListByStrategy(ctx, id, limit)
}

func (s *Service) Executions(ctx context.Context, id string, limit int) ([]models.Execution, error) {
	if _, err := s.strategies.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.executions.ListByStrategy(ctx, id, limit)
}

// Stats summarizes realized and unrealized P&L, lot progress, and how much
// of the execution window remains. The unrealized figure degrades to zero
// when no price can be fetched.
func (s *Service) Stats(ctx context.Context, id string) (*models.StrategyStats, error) {
	strat, err := s.strategies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sum := strategy.Summarize(strat.Config.GradualLots)
	stats := &models.StrategyStats{
		StrategyID:   strat.ID,
		Status:       strat.Status,
		RealizedPnL:  strat.TotalPnL,
		ExecutedLots: sum.ExecutedCount,
		PendingLots:  sum.PendingCount,
	}

	now := time.Now()
	stats.ElapsedSeconds = engine.ElapsedSeconds(strat.StartedAt, now)
	stats.LimitSeconds = int64(strat.Config.TimeExecutionMin) * 60
	if remaining := stats.LimitSeconds - stats.ElapsedSeconds; remaining > 0 {
		stats.RemainingSeconds = remaining
	}

	if strat.Position != nil && strat.Position.Quantity > 0 {
		if price, perr := s.feed.CurrentPrice(ctx, strat.Symbol); perr == nil {
			stats.UnrealizedPnL = strat.Position.UnrealizedPnL(price)
		}
	}
	return stats, nil
}

// --- ticking ---

// RunTick evaluates one tick at the given price, blocking until the
// strategy's lock is free.
func (s *Service) RunTick(ctx context.Context, id string, price float64, now time.Time) (*engine.Outcome, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)
	return s.tickLocked(ctx, id, price, now)
}

// RunTickIfIdle is the monitor entry point: a tick already in flight for the
// same strategy means this cycle is skipped rather than queued.
func (s *Service) RunTickIfIdle(ctx context.Context, id string, price float64, now time.Time) (*engine.Outcome, bool, error) {
	if !s.locks.TryLock(id) {
		return nil, false, nil
	}
	defer s.locks.Unlock(id)
	out, err := s.tickLocked(ctx, id, price, now)
	return out, true, err
}

// TickWithFeedPrice fetches a fresh price and runs a tick with it.
func (s *Service) TickWithFeedPrice(ctx context.Context, id string) (*engine.Outcome, error) {
	strat, err := s.strategies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	price, err := s.feed.CurrentPrice(ctx, strat.Symbol)
	if err != nil {
		return nil, fmt.Errorf("price feed: %w", err)
	}
	return s.RunTick(ctx, id, price, time.Now())
}

func (s *Service) tickLocked(ctx context.Context, id string, price float64, now time.Time) (*engine.Outcome, error) {
	strat, err := s.strategies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, out := engine.Evaluate(strat, price, now)
	metrics.Ticks.WithLabelValues(string(out.Signal.SignalType)).Inc()

	if req := out.ExecutionRequest; req != nil {
		if s.guard != nil {
			if guardErr := s.guard.PreOrderCheck(ctx, req.Quantity*price); guardErr != nil {
				return s.persistFailedOrder(ctx, strat, &out, req, guardErr, price, now)
			}
		}

		fill, orderErr := s.gateway.PlaceOrder(ctx, exchange.OrderRequest{
			Symbol:         strat.Symbol,
			Side:           req.Action,
			Quantity:       req.Quantity,
			OrderType:      exchange.OrderTypeMarket,
			ReferencePrice: price,
		})
		if orderErr != nil {
			return s.persistFailedOrder(ctx, strat, &out, req, orderErr, price, now)
		}

		out.Signal.Acted = true
		pnl := next.TotalPnL - strat.TotalPnL
		execRow := &models.Execution{
			StrategyID: id,
			Action:     req.Action,
			Price:      fill.ExecutedPrice,
			Quantity:   fill.FilledQuantity,
			PnL:        &pnl,
			CreatedAt:  now,
		}
		metrics.Orders.WithLabelValues(s.mode(), string(req.Action)).Inc()
		metrics.Exits.WithLabelValues(string(req.Reason)).Inc()

		if err := s.strategies.UpdateFromTick(ctx, next, &out.Signal, execRow); err != nil {
			return nil, fmt.Errorf("persist tick: %w", err)
		}
		s.notify.Send(out.Signal.Message)
		return &out, nil
	}

	if err := s.strategies.UpdateFromTick(ctx, next, &out.Signal, nil); err != nil {
		return nil, fmt.Errorf("persist tick: %w", err)
	}

	if out.NewStatus != nil && *out.NewStatus == models.StatusExpired {
		metrics.Exits.WithLabelValues(string(models.SignalExpired)).Inc()
		s.notify.Send(out.Signal.Message)
	}
	return &out, nil
}

// persistFailedOrder records a classified failure and keeps the strategy
// exactly where it was so the next tick retries the exit.
func (s *Service) persistFailedOrder(ctx context.Context, strat *models.Strategy, out *engine.Outcome, req *engine.ExecutionRequest, orderErr error, price float64, now time.Time) (*engine.Outcome, error) {
	classified := exchange.ClassifyOrderError(orderErr.Error(), strat.Symbol, strat.ExchangeName)
	metrics.OrderFailures.WithLabelValues(classified.Category).Inc()
	fmt.Printf("[TICK] Order failed for %q (%s): %s\n", strat.Name, classified.Category, classified.Message)

	out.Signal.Message = classified.Message
	out.Signal.Acted = false
	out.NewStatus = nil
	out.ExecutionRequest = nil
	out.Error = classified.Message

	execRow := &models.Execution{
		StrategyID: strat.ID,
		Action:     failedAction(req.Action),
		Price:      price,
		Quantity:   req.Quantity,
		CreatedAt:  now,
	}
	if err := s.strategies.UpdateFromTick(ctx, strat, &out.Signal, execRow); err != nil {
		return nil, fmt.Errorf("persist failed order: %w", err)
	}

	if !classified.Retryable {
		s.notify.Send(classified.Message)
	}
	return out, nil
}

func (s *Service) ListActive(ctx context.Context) ([]models.Strategy, error) {
	return s.strategies.ListActive(ctx)
}

func (s *Service) mode() string {
	if s.paperMode {
		return "paper"
	}
	return "live"
}

func failedAction(a models.Action) models.Action {
	if a == models.ActionBuy {
		return models.ActionBuyFailed
	}
	return models.ActionSellFailed
}
