package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// PaperGateway simulates order fills for safe operation without exchange
// keys. Every order fills completely at the tick's reference price; realized
// fills are kept in memory for inspection.
type PaperGateway struct {
	feePercent float64

	mu    sync.Mutex
	fills []PaperFill
}

type PaperFill struct {
	Symbol   string    `json:"symbol"`
	Side     string    `json:"side"`
	Price    float64   `json:"price"`
	Quantity float64   `json:"quantity"`
	FeePaid  float64   `json:"feePaid"`
	FilledAt time.Time `json:"filledAt"`
}

func NewPaperGateway(feePercent float64) *PaperGateway {
	return &PaperGateway{feePercent: feePercent}
}

func (p *PaperGateway) PlaceOrder(_ context.Context, req OrderRequest) (*Fill, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("insufficient balance: quantity %.8f is not sellable", req.Quantity)
	}
	if req.ReferencePrice <= 0 {
		return nil, fmt.Errorf("network error: no reference price available for %s", req.Symbol)
	}

	fee := req.ReferencePrice * req.Quantity * p.feePercent / 100

	p.mu.Lock()
	p.fills = append(p.fills, PaperFill{
		Symbol:   req.Symbol,
		Side:     string(req.Side),
		Price:    req.ReferencePrice,
		Quantity: req.Quantity,
		FeePaid:  fee,
		FilledAt: time.Now(),
	})
	p.mu.Unlock()

	fmt.Printf("[PAPER] %s %s %.6f filled @ %.4f (fee %.4f)\n",
		req.Side, req.Symbol, req.Quantity, req.ReferencePrice, fee)

	return &Fill{ExecutedPrice: req.ReferencePrice, FilledQuantity: req.Quantity}, nil
}

// Fills returns a copy of all simulated fills so far.
func (p *PaperGateway) Fills() []PaperFill {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PaperFill, len(p.fills))
	copy(out, p.fills)
	return out
}
