package risk

import (
	"context"
	"fmt"
)

// DailyOrderCounter abstracts the order-counting dependency so Guardian can
// be tested without a real database.
type DailyOrderCounter interface {
	CountToday(ctx context.Context) (int, error)
}

// Limits holds the operator-set order safety thresholds from config.
// A zero value for any field means that check is disabled.
type Limits struct {
	MaxOrderNotionalUSD float64
	MaxDailyOrders      int
}

// Guardian vets orders before they reach the exchange. It protects against
// runaway automation, not against market risk; the stop loss does that.
type Guardian struct {
	limits  Limits
	counter DailyOrderCounter
}

func NewGuardian(limits Limits, counter DailyOrderCounter) *Guardian {
	return &Guardian{limits: limits, counter: counter}
}

// PreOrderCheck validates one order before submission. Returns nil if the
// order may go out, a descriptive error if blocked. Blocked orders are
// recorded as failed executions and retried on later ticks.
func (g *Guardian) PreOrderCheck(ctx context.Context, notionalUSD float64) error {
	if g.limits.MaxOrderNotionalUSD > 0 && notionalUSD > g.limits.MaxOrderNotionalUSD {
		return fmt.Errorf("order blocked: notional $%.2f exceeds max $%.2f",
			notionalUSD, g.limits.MaxOrderNotionalUSD)
	}

	if g.limits.MaxDailyOrders > 0 && g.counter != nil {
		count, err := g.counter.CountToday(ctx)
		if err != nil {
			return fmt.Errorf("order blocked: unable to verify daily order count: %w", err)
		}
		if count >= g.limits.MaxDailyOrders {
			return fmt.Errorf("order blocked: daily limit of %d orders reached (%d placed today)",
				g.limits.MaxDailyOrders, count)
		}
	}

	return nil
}
