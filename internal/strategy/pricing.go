package strategy

import "github.com/kjannette/swing-trade-backend/internal/models"

// TriggerPrice is the level at which a take-profit exit is justified.
// The fee percentage is added on top so the exit clears costs.
func TriggerPrice(basePrice, takeProfitPercent, feePercent float64) float64 {
	return basePrice * (1 + takeProfitPercent/100 + feePercent/100)
}

// StopLossPrice is the level below which the position is cut.
func StopLossPrice(basePrice, stopLossPercent float64) float64 {
	return basePrice * (1 - stopLossPercent/100)
}

// GradualTriggerPrice is the threshold for lot index 0..3. Index 0 equals
// TriggerPrice exactly; each subsequent lot adds gradualTakePercent.
func GradualTriggerPrice(basePrice, takeProfitPercent, feePercent, gradualTakePercent float64, lotIndex int) float64 {
	return basePrice * (1 + takeProfitPercent/100 + feePercent/100 + gradualTakePercent/100*float64(lotIndex))
}

// ComputePrices derives the trigger and stop-loss levels from a config.
func ComputePrices(cfg models.StrategyConfig) (trigger, stopLoss float64) {
	trigger = TriggerPrice(cfg.BasePrice, cfg.TakeProfitPercent, cfg.FeePercent)
	stopLoss = StopLossPrice(cfg.BasePrice, cfg.StopLossPercent)
	return trigger, stopLoss
}

// PriceChangePercent returns how far price has moved from base, in percent.
// Returns 0 when base is not positive.
func PriceChangePercent(basePrice, price float64) float64 {
	if basePrice <= 0 {
		return 0
	}
	return (price - basePrice) / basePrice * 100
}
