package models

import "time"

// Action records what a tick actually did (or failed to do) at the exchange.
type Action string

const (
	ActionBuy        Action = "buy"
	ActionSell       Action = "sell"
	ActionBuyFailed  Action = "buy_failed"
	ActionSellFailed Action = "sell_failed"
)

type Execution struct {
	ID         int64     `json:"id"`
	StrategyID string    `json:"strategyId"`
	Action     Action    `json:"action"`
	Price      float64   `json:"price"`
	Quantity   float64   `json:"quantity"`
	PnL        *float64  `json:"pnl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
