package models

import "time"

// SignalType is the wire value identifying what a tick observed or decided.
type SignalType string

const (
	SignalTakeProfit  SignalType = "take_profit"
	SignalStopLoss    SignalType = "stop_loss"
	SignalGradualSell SignalType = "gradual_sell"
	SignalExpired     SignalType = "expired"
	SignalInfo        SignalType = "info"
)

type Signal struct {
	ID                 int64      `json:"id"`
	StrategyID         string     `json:"strategyId"`
	SignalType         SignalType `json:"signalType"`
	Message            string     `json:"message"`
	Price              float64    `json:"price"`
	PriceChangePercent float64    `json:"priceChangePercent"`
	Acted              bool       `json:"acted"`
	CreatedAt          time.Time  `json:"createdAt"`
}
