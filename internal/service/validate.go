package service

import (
	"fmt"
	"strings"

	"github.com/kjannette/swing-trade-backend/internal/models"
)

type CreateRequest struct {
	Name         string                `json:"name"`
	Symbol       string                `json:"symbol"`
	ExchangeName string                `json:"exchangeName"`
	Config       models.StrategyConfig `json:"config"`
}

type UpdateRequest struct {
	Name   *string               `json:"name,omitempty"`
	Config models.StrategyConfig `json:"config"`
}

func (r *CreateRequest) Validate() error {
	var errs []string
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, "name: must not be empty")
	}
	if !strings.Contains(r.Symbol, "/") {
		errs = append(errs, "symbol: must contain a pair separator, e.g. BTC/USDT")
	}
	errs = append(errs, validateConfig(r.Config)...)
	return joinValidation(errs)
}

func (r *UpdateRequest) Validate() error {
	var errs []string
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		errs = append(errs, "name: must not be empty")
	}
	errs = append(errs, validateConfig(r.Config)...)
	return joinValidation(errs)
}

func validateConfig(cfg models.StrategyConfig) []string {
	var errs []string
	if cfg.BasePrice <= 0 {
		errs = append(errs, "base_price: must be positive")
	}
	if cfg.TakeProfitPercent < 0 || cfg.TakeProfitPercent > 100 {
		errs = append(errs, "take_profit_percent: must be between 0 and 100")
	}
	if cfg.StopLossPercent < 0 || cfg.StopLossPercent > 100 {
		errs = append(errs, "stop_loss_percent: must be between 0 and 100")
	}
	if cfg.FeePercent < 0 {
		errs = append(errs, "fee_percent: must not be negative")
	}
	if cfg.GradualSell && cfg.GradualTakePercent <= 0 {
		errs = append(errs, "gradual_take_percent: must be positive when gradual_sell is enabled")
	}
	if cfg.TimerGradualMin < 0 {
		errs = append(errs, "timer_gradual_min: must not be negative")
	}
	if cfg.TimeExecutionMin < 0 {
		errs = append(errs, "time_execution_min: must not be negative")
	}
	return errs
}

func joinValidation(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed: %s", strings.Join(errs, "; "))
}
