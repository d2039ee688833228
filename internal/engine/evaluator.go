package engine

import (
	"time"

	"github.com/kjannette/swing-trade-backend/internal/models"
	"github.com/kjannette/swing-trade-backend/internal/strategy"
)

// positionEpsilon is the quantity below which a position counts as closed.
const positionEpsilon = 1e-4

// ExecutionRequest asks the caller to place an order at the gateway.
// Quantity is in base asset units; all automated orders are market sells.
type ExecutionRequest struct {
	Action    models.Action
	Quantity  float64
	Reason    models.SignalType
	LotNumber *int
}

// Outcome is the result of evaluating one tick. Every tick emits exactly
// one Signal. Error carries a non-fatal upstream problem and never
// suppresses the signal.
type Outcome struct {
	StrategyID       string
	Symbol           string
	Price            float64
	Signal           models.Signal
	ExecutionRequest *ExecutionRequest
	NewStatus        *models.Status
	Error            string
}

// Evaluate runs one tick of the decision pipeline against a strategy
// snapshot and an observed price. It is pure: the input is never mutated,
// time comes in as a parameter, and all state advances live on the returned
// snapshot. The caller owns persistence and order submission.
//
// Pipeline order is fixed: unprocessable-status guard, config guard,
// expiration check, then status dispatch.
func Evaluate(in *models.Strategy, price float64, now time.Time) (*models.Strategy, Outcome) {
	s := cloneStrategy(in)
	out := Outcome{StrategyID: s.ID, Symbol: s.Symbol, Price: price}

	// 1. Terminal, paused and error strategies are a no-op, never a failure.
	if s.Status.IsTerminal() || s.Status == models.StatusPaused || s.Status == models.StatusError {
		out.Signal = newSignal(s, models.SignalInfo, price, now, composeGuard(s))
		return s, out
	}

	// 2. A non-positive base price makes every threshold meaningless.
	if s.Config.BasePrice <= 0 {
		msg := composeConfigError(s.Config.BasePrice)
		s.Status = models.StatusError
		s.IsActive = false
		s.ErrorMessage = &msg
		out.NewStatus = &s.Status
		out.Signal = newSignal(s, models.SignalInfo, price, now, msg)
		return s, out
	}

	if hasPosition(s) && price > s.Position.MaxPriceSeen {
		s.Position.MaxPriceSeen = price
	}

	// 3. Expiration applies only while no position is open; an open position
	// must be resolved through the trigger or the stop first.
	if !hasPosition(s) && IsExpired(s.StartedAt, s.Config.TimeExecutionMin, now) {
		elapsed := now.Sub(s.StartedAt)
		s.Status = models.StatusExpired
		s.IsActive = false
		out.NewStatus = &s.Status
		out.Signal = newSignal(s, models.SignalExpired, price, now, composeExpired(s, elapsed))
		return s, out
	}

	// 4. Status dispatch.
	switch s.Status {
	case models.StatusIdle:
		out.Signal = newSignal(s, models.SignalInfo, price, now, composeIdle(s))
		return s, out
	case models.StatusMonitoring:
		return evaluateMonitoring(s, price, now, out)
	case models.StatusInPosition:
		return evaluatePosition(s, price, now, out)
	case models.StatusGradualSelling:
		return evaluateGradual(s, price, now, out)
	default:
		out.Signal = newSignal(s, models.SignalInfo, price, now, composeGuard(s))
		return s, out
	}
}

func evaluateMonitoring(s *models.Strategy, price float64, now time.Time, out Outcome) (*models.Strategy, Outcome) {
	if hasPosition(s) {
		// A position opened while still in monitoring is evaluated with the
		// same exit rules as in_position.
		return evaluatePosition(s, price, now, out)
	}

	if price >= s.TriggerPrice {
		// Exit automation never opens positions; record the crossing only.
		out.Signal = newSignal(s, models.SignalTakeProfit, price, now, composeTriggerNoPosition(s, price))
		return s, out
	}

	out.Signal = newSignal(s, models.SignalInfo, price, now, composeMonitoringProgress(s, price))
	return s, out
}

func evaluatePosition(s *models.Strategy, price float64, now time.Time, out Outcome) (*models.Strategy, Outcome) {
	if !hasPosition(s) {
		// Position was registered and then drained externally; fall back to
		// plain monitoring semantics.
		s.Position = nil
		return evaluateMonitoring(s, price, now, out)
	}

	if price <= s.StopLossPrice {
		return exitStopLoss(s, price, now, out)
	}

	if price >= s.TriggerPrice {
		if s.Config.GradualSell && len(s.Config.GradualLots) > 0 {
			// The trigger crossing starts the gradual schedule with lot 1.
			s.Status = models.StatusGradualSelling
			out.NewStatus = &s.Status
			return sellNextLot(s, price, now, out)
		}
		return exitTakeProfit(s, price, now, out)
	}

	out.Signal = newSignal(s, models.SignalInfo, price, now, composePositionProgress(s, price))
	return s, out
}

func evaluateGradual(s *models.Strategy, price float64, now time.Time, out Outcome) (*models.Strategy, Outcome) {
	if !hasPosition(s) {
		s.Position = nil
		s.Status = models.StatusCompleted
		s.IsActive = false
		out.NewStatus = &s.Status
		out.Signal = newSignal(s, models.SignalInfo, price, now, composeGradualDrained(s))
		return s, out
	}

	if price <= s.StopLossPrice {
		return exitStopLoss(s, price, now, out)
	}

	lot := strategy.NextPendingLot(s.Config.GradualLots)
	if lot == nil {
		// All lots executed but quantity survived rounding; sweep it.
		return exitTakeProfit(s, price, now, out)
	}

	lotTrigger := strategy.GradualTriggerPrice(
		s.Config.BasePrice, s.Config.TakeProfitPercent, s.Config.FeePercent,
		s.Config.GradualTakePercent, lot.LotNumber-1)

	if price < lotTrigger {
		out.Signal = newSignal(s, models.SignalInfo, price, now, composeLotProgress(s, lot, lotTrigger, price))
		return s, out
	}

	// Pacing timer between consecutive lot sales.
	if s.Config.TimerGradualMin > 0 {
		if last := strategy.LastExecutedAt(s.Config.GradualLots); last != nil {
			wait := time.Duration(s.Config.TimerGradualMin) * time.Minute
			if elapsed := now.Sub(*last); elapsed < wait {
				out.Signal = newSignal(s, models.SignalInfo, price, now,
					composeLotTimer(s, lot, lotTrigger, wait-elapsed))
				return s, out
			}
		}
	}

	return sellNextLot(s, price, now, out)
}

// sellNextLot executes the first pending lot at the observed price and
// advances the snapshot. The final lot sells the entire remainder.
func sellNextLot(s *models.Strategy, price float64, now time.Time, out Outcome) (*models.Strategy, Outcome) {
	pos := s.Position
	lot := strategy.NextPendingLot(s.Config.GradualLots)
	if lot == nil {
		return exitTakeProfit(s, price, now, out)
	}

	qty := strategy.LotQuantity(lot, pos.InitialQuantity, pos.Quantity)
	pnl := strategy.ExecuteLot(lot, price, pos.EntryPrice, qty, s.Config.FeePercent, s.Config.DeductFeeFromPnL, now)
	pos.Quantity -= qty
	if pos.Quantity < positionEpsilon {
		pos.Quantity = 0
	}
	s.TotalPnL += pnl

	lotNum := lot.LotNumber
	out.ExecutionRequest = &ExecutionRequest{
		Action:    models.ActionSell,
		Quantity:  qty,
		Reason:    models.SignalGradualSell,
		LotNumber: &lotNum,
	}

	if strategy.AllExecuted(s.Config.GradualLots) || pos.Quantity == 0 {
		s.Status = models.StatusCompleted
		s.IsActive = false
		s.Position = nil
		out.NewStatus = &s.Status
		out.Signal = newSignal(s, models.SignalGradualSell, price, now, composeAllLotsDone(s, lot, price, qty, pnl))
		return s, out
	}

	out.Signal = newSignal(s, models.SignalGradualSell, price, now, composeLotExecuted(s, lot, price, qty, pnl, pos.Quantity))
	return s, out
}

func exitTakeProfit(s *models.Strategy, price float64, now time.Time, out Outcome) (*models.Strategy, Outcome) {
	qty := s.Position.Quantity
	pnl := realizedPnL(s, price, qty)
	s.TotalPnL += pnl
	s.Position = nil
	s.Status = models.StatusCompleted
	s.IsActive = false
	out.NewStatus = &s.Status
	out.ExecutionRequest = &ExecutionRequest{
		Action:   models.ActionSell,
		Quantity: qty,
		Reason:   models.SignalTakeProfit,
	}
	out.Signal = newSignal(s, models.SignalTakeProfit, price, now, composeFullExit(s, price, qty, pnl))
	return s, out
}

func exitStopLoss(s *models.Strategy, price float64, now time.Time, out Outcome) (*models.Strategy, Outcome) {
	qty := s.Position.Quantity
	pnl := realizedPnL(s, price, qty)
	s.TotalPnL += pnl
	s.Position = nil
	s.Status = models.StatusStoppedOut
	s.IsActive = false
	out.NewStatus = &s.Status
	out.ExecutionRequest = &ExecutionRequest{
		Action:   models.ActionSell,
		Quantity: qty,
		Reason:   models.SignalStopLoss,
	}
	out.Signal = newSignal(s, models.SignalStopLoss, price, now, composeStopLoss(s, price, qty, pnl))
	return s, out
}

func realizedPnL(s *models.Strategy, price, quantity float64) float64 {
	pnl := (price - s.Position.EntryPrice) * quantity
	if s.Config.DeductFeeFromPnL {
		pnl -= price * quantity * s.Config.FeePercent / 100
	}
	return pnl
}

func hasPosition(s *models.Strategy) bool {
	return s.Position != nil && s.Position.Quantity >= positionEpsilon
}

func newSignal(s *models.Strategy, st models.SignalType, price float64, now time.Time, msg string) models.Signal {
	return models.Signal{
		StrategyID:         s.ID,
		SignalType:         st,
		Message:            msg,
		Price:              price,
		PriceChangePercent: strategy.PriceChangePercent(s.Config.BasePrice, price),
		CreatedAt:          now,
	}
}

// cloneStrategy deep-copies the mutable parts of a strategy so Evaluate
// never aliases caller state.
func cloneStrategy(in *models.Strategy) *models.Strategy {
	s := *in
	if in.Config.GradualLots != nil {
		lots := make([]models.GradualLot, len(in.Config.GradualLots))
		copy(lots, in.Config.GradualLots)
		for i := range lots {
			lots[i].ExecutedPrice = clonePtr(in.Config.GradualLots[i].ExecutedPrice)
			lots[i].RealizedPnL = clonePtr(in.Config.GradualLots[i].RealizedPnL)
			lots[i].ExecutedAt = clonePtr(in.Config.GradualLots[i].ExecutedAt)
		}
		s.Config.GradualLots = lots
	}
	if in.Position != nil {
		pos := *in.Position
		s.Position = &pos
	}
	s.PriorStatus = clonePtr(in.PriorStatus)
	s.ErrorMessage = clonePtr(in.ErrorMessage)
	return &s
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
