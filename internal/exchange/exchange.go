package exchange

import (
	"context"

	"github.com/kjannette/swing-trade-backend/internal/models"
)

// PriceFeed returns the latest traded price for a symbol.
type PriceFeed interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// OrderRequest is a market order handed to an execution gateway.
// ReferencePrice is the price observed by the tick that produced the order;
// live gateways ignore it, the paper gateway fills at it.
type OrderRequest struct {
	Symbol         string
	Side           models.Action
	Quantity       float64
	OrderType      string
	ReferencePrice float64
}

// Fill is a completed order.
type Fill struct {
	ExecutedPrice  float64
	FilledQuantity float64
}

// ExecutionGateway places orders against an exchange (or a simulation).
// Errors are raw gateway text, to be run through ClassifyOrderError.
type ExecutionGateway interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (*Fill, error)
}

const OrderTypeMarket = "market"
