package models

import "time"

// Status is the lifecycle state of a strategy. Values are stored as-is in
// the database and returned as-is over the API, so they never change once
// released.
type Status string

const (
	StatusIdle           Status = "idle"
	StatusMonitoring     Status = "monitoring"
	StatusInPosition     Status = "in_position"
	StatusGradualSelling Status = "gradual_selling"
	StatusCompleted      Status = "completed"
	StatusStoppedOut     Status = "stopped_out"
	StatusExpired        Status = "expired"
	StatusPaused         Status = "paused"
	StatusError          Status = "error"
)

// IsTerminal reports whether the status can never be left again.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusStoppedOut || s == StatusExpired
}

func (s Status) IsValid() bool {
	switch s {
	case StatusIdle, StatusMonitoring, StatusInPosition, StatusGradualSelling,
		StatusCompleted, StatusStoppedOut, StatusExpired, StatusPaused, StatusError:
		return true
	}
	return false
}

type Strategy struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Symbol        string         `json:"symbol"`
	ExchangeName  string         `json:"exchangeName"`
	Status        Status         `json:"status"`
	PriorStatus   *Status        `json:"priorStatus,omitempty"` // set while paused
	IsActive      bool           `json:"isActive"`
	Config        StrategyConfig `json:"config"`
	TriggerPrice  float64        `json:"triggerPrice"`
	StopLossPrice float64        `json:"stopLossPrice"`
	Position      *Position      `json:"position,omitempty"`
	TotalPnL      float64        `json:"totalPnl"`
	ErrorMessage  *string        `json:"errorMessage,omitempty"`
	StartedAt     time.Time      `json:"startedAt"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

type StrategyConfig struct {
	BasePrice          float64      `json:"basePrice"`
	TakeProfitPercent  float64      `json:"takeProfitPercent"`
	StopLossPercent    float64      `json:"stopLossPercent"`
	GradualTakePercent float64      `json:"gradualTakePercent"`
	FeePercent         float64      `json:"feePercent"`
	GradualSell        bool         `json:"gradualSell"`
	GradualLots        []GradualLot `json:"gradualLots,omitempty"`
	TimerGradualMin    int          `json:"timerGradualMin"`
	TimeExecutionMin   int          `json:"timeExecutionMin"`
	DeductFeeFromPnL   bool         `json:"deductFeeFromPnl"`
}

type GradualLot struct {
	LotNumber     int        `json:"lotNumber"`
	SellPercent   float64    `json:"sellPercent"`
	Executed      bool       `json:"executed"`
	ExecutedPrice *float64   `json:"executedPrice,omitempty"`
	RealizedPnL   *float64   `json:"realizedPnl,omitempty"`
	ExecutedAt    *time.Time `json:"executedAt,omitempty"`
}

// Position tracks an externally opened holding the strategy is exiting.
// InitialQuantity stays fixed while Quantity shrinks as lots sell.
type Position struct {
	EntryPrice      float64   `json:"entryPrice"`
	Quantity        float64   `json:"quantity"`
	InitialQuantity float64   `json:"initialQuantity"`
	MaxPriceSeen    float64   `json:"maxPriceSeen"`
	OpenedAt        time.Time `json:"openedAt"`
}

// UnrealizedPnL is the mark-to-market gain on the remaining quantity.
func (p *Position) UnrealizedPnL(price float64) float64 {
	return (price - p.EntryPrice) * p.Quantity
}

// DrawdownPercent is how far price has fallen from the highest price seen
// since the position opened. Returns 0 when no high has been recorded.
func (p *Position) DrawdownPercent(price float64) float64 {
	if p.MaxPriceSeen <= 0 {
		return 0
	}
	return (p.MaxPriceSeen - price) / p.MaxPriceSeen * 100
}

type StrategyStats struct {
	StrategyID       string  `json:"strategyId"`
	Status           Status  `json:"status"`
	RealizedPnL      float64 `json:"realizedPnl"`
	UnrealizedPnL    float64 `json:"unrealizedPnl"`
	ExecutedLots     int     `json:"executedLots"`
	PendingLots      int     `json:"pendingLots"`
	ElapsedSeconds   int64   `json:"elapsedSeconds"`
	LimitSeconds     int64   `json:"limitSeconds"`
	RemainingSeconds int64   `json:"remainingSeconds"`
}
