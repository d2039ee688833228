package strategy

import (
	"time"

	"github.com/kjannette/swing-trade-backend/internal/models"
)

const (
	LotCount       = 4
	LotSellPercent = 25.0
)

type LotSummary struct {
	ExecutedCount int     `json:"executedCount"`
	PendingCount  int     `json:"pendingCount"`
	RealizedPnL   float64 `json:"realizedPnl"`
}

// GenerateLots builds the fixed 4x25% exit schedule when gradual selling is
// enabled, and an empty schedule otherwise. Caller-supplied lots are always
// replaced by the output of this function.
func GenerateLots(gradualSell bool) []models.GradualLot {
	if !gradualSell {
		return nil
	}
	lots := make([]models.GradualLot, LotCount)
	for i := range lots {
		lots[i] = models.GradualLot{
			LotNumber:   i + 1,
			SellPercent: LotSellPercent,
		}
	}
	return lots
}

// NextPendingLot returns a pointer to the first unexecuted lot in ascending
// lot order, or nil when every lot has executed.
func NextPendingLot(lots []models.GradualLot) *models.GradualLot {
	for i := range lots {
		if !lots[i].Executed {
			return &lots[i]
		}
	}
	return nil
}

// LotQuantity is how much the given lot sells. The final lot takes the full
// remaining balance so rounding dust is never stranded.
func LotQuantity(lot *models.GradualLot, initialQuantity, remainingQuantity float64) float64 {
	if lot.LotNumber == LotCount {
		return remainingQuantity
	}
	qty := initialQuantity * lot.SellPercent / 100
	if qty > remainingQuantity {
		qty = remainingQuantity
	}
	return qty
}

// ExecuteLot marks a lot as sold at the given price and records its realized
// P&L. Once set, the execution fields are never cleared. Returns the P&L.
func ExecuteLot(lot *models.GradualLot, price, entryPrice, quantity, feePercent float64, deductFee bool, now time.Time) float64 {
	pnl := (price - entryPrice) * quantity
	if deductFee {
		pnl -= price * quantity * feePercent / 100
	}
	lot.Executed = true
	lot.ExecutedPrice = &price
	lot.RealizedPnL = &pnl
	at := now
	lot.ExecutedAt = &at
	return pnl
}

// AllExecuted reports whether every lot of a non-empty schedule has sold.
func AllExecuted(lots []models.GradualLot) bool {
	if len(lots) == 0 {
		return false
	}
	for _, l := range lots {
		if !l.Executed {
			return false
		}
	}
	return true
}

// LastExecutedAt returns the most recent lot execution time, or nil when no
// lot has executed yet. Used for pacing consecutive lot sales.
func LastExecutedAt(lots []models.GradualLot) *time.Time {
	var last *time.Time
	for i := range lots {
		at := lots[i].ExecutedAt
		if at != nil && (last == nil || at.After(*last)) {
			last = at
		}
	}
	return last
}

func Summarize(lots []models.GradualLot) LotSummary {
	var s LotSummary
	for _, l := range lots {
		if l.Executed {
			s.ExecutedCount++
			if l.RealizedPnL != nil {
				s.RealizedPnL += *l.RealizedPnL
			}
		} else {
			s.PendingCount++
		}
	}
	return s
}
