package engine

import (
	"fmt"
	"time"

	"github.com/kjannette/swing-trade-backend/internal/models"
)

// Message composition for every tick outcome. Each evaluator path has its
// own composer so wording stays stable and testable.

func composeGuard(s *models.Strategy) string {
	switch s.Status {
	case models.StatusCompleted:
		return fmt.Sprintf("Strategy %q is completed with total P&L $%.2f; no further ticks are processed", s.Name, s.TotalPnL)
	case models.StatusStoppedOut:
		return fmt.Sprintf("Strategy %q was stopped out with total P&L $%.2f; no further ticks are processed", s.Name, s.TotalPnL)
	case models.StatusExpired:
		return fmt.Sprintf("Strategy %q expired; no further ticks are processed", s.Name)
	case models.StatusPaused:
		return fmt.Sprintf("Strategy %q is paused; activate it to resume monitoring", s.Name)
	case models.StatusError:
		msg := "unknown error"
		if s.ErrorMessage != nil {
			msg = *s.ErrorMessage
		}
		return fmt.Sprintf("Strategy %q is in error state (%s); correct the configuration and activate it", s.Name, msg)
	default:
		return fmt.Sprintf("Strategy %q status %q is not processable", s.Name, s.Status)
	}
}

func composeIdle(s *models.Strategy) string {
	return fmt.Sprintf("Strategy %q is idle and not evaluating prices yet; activate it to begin monitoring", s.Name)
}

func composeConfigError(basePrice float64) string {
	return fmt.Sprintf("Configuration error: base price must be positive, got %.4f; strategy moved to error state", basePrice)
}

func composeExpired(s *models.Strategy, elapsed time.Duration) string {
	return fmt.Sprintf("Strategy %q expired after %s with no open position (limit %d min)",
		s.Name, elapsed.Round(time.Second), s.Config.TimeExecutionMin)
}

func composeMonitoringProgress(s *models.Strategy, price float64) string {
	toTrigger := (s.TriggerPrice - price) / s.TriggerPrice * 100
	aboveStop := (price - s.StopLossPrice) / s.StopLossPrice * 100
	return fmt.Sprintf("Monitoring %s at %.4f: %.2f%% below trigger %.4f, %.2f%% above stop %.4f",
		s.Symbol, price, toTrigger, s.TriggerPrice, aboveStop, s.StopLossPrice)
}

func composeTriggerNoPosition(s *models.Strategy, price float64) string {
	return fmt.Sprintf("Take-profit trigger %.4f reached on %s at %.4f, but no position is open; no order placed",
		s.TriggerPrice, s.Symbol, price)
}

func composePositionProgress(s *models.Strategy, price float64) string {
	p := s.Position
	return fmt.Sprintf("Holding %.6f %s from %.4f: unrealized P&L $%.2f, trigger %.4f (%.2f%% away), stop %.4f (%.2f%% away), drawdown %.2f%% from high %.4f",
		p.Quantity, s.Symbol, p.EntryPrice, p.UnrealizedPnL(price),
		s.TriggerPrice, (s.TriggerPrice-price)/price*100,
		s.StopLossPrice, (price-s.StopLossPrice)/price*100,
		p.DrawdownPercent(price), p.MaxPriceSeen)
}

func composeFullExit(s *models.Strategy, price, quantity, pnl float64) string {
	return fmt.Sprintf("Take-profit trigger %.4f reached on %s: selling full position of %.6f at %.4f, realized P&L $%.2f",
		s.TriggerPrice, s.Symbol, quantity, price, pnl)
}

func composeStopLoss(s *models.Strategy, price, quantity, pnl float64) string {
	return fmt.Sprintf("Stop loss %.4f hit on %s at %.4f: selling remaining %.6f, realized P&L $%.2f",
		s.StopLossPrice, s.Symbol, price, quantity, pnl)
}

func composeLotExecuted(s *models.Strategy, lot *models.GradualLot, price, quantity, pnl, remaining float64) string {
	return fmt.Sprintf("Gradual sell: lot %d of %d sold %.6f %s at %.4f, P&L $%.2f, %.6f remaining",
		lot.LotNumber, len(s.Config.GradualLots), quantity, s.Symbol, price, pnl, remaining)
}

func composeAllLotsDone(s *models.Strategy, lot *models.GradualLot, price, quantity, pnl float64) string {
	return fmt.Sprintf("Gradual sell: final lot %d of %d sold %.6f %s at %.4f, P&L $%.2f; all lots completed, total P&L $%.2f",
		lot.LotNumber, len(s.Config.GradualLots), quantity, s.Symbol, price, pnl, s.TotalPnL)
}

func composeLotTimer(s *models.Strategy, lot *models.GradualLot, lotTrigger float64, remaining time.Duration) string {
	return fmt.Sprintf("Lot %d of %d armed at %.4f on %s, waiting %s for the pacing timer (%d min between lots)",
		lot.LotNumber, len(s.Config.GradualLots), lotTrigger, s.Symbol,
		remaining.Round(time.Second), s.Config.TimerGradualMin)
}

func composeLotProgress(s *models.Strategy, lot *models.GradualLot, lotTrigger, price float64) string {
	return fmt.Sprintf("Gradual selling %s at %.4f: lot %d of %d triggers at %.4f (%.2f%% away), stop %.4f",
		s.Symbol, price, lot.LotNumber, len(s.Config.GradualLots), lotTrigger,
		(lotTrigger-price)/price*100, s.StopLossPrice)
}

func composeGradualDrained(s *models.Strategy) string {
	return fmt.Sprintf("Gradual sell on %s finished: no position quantity remains, total P&L $%.2f", s.Symbol, s.TotalPnL)
}
