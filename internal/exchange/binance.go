package exchange

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2"
)

// BinanceClient implements PriceFeed and ExecutionGateway against Binance
// spot markets.
type BinanceClient struct {
	client *binance.Client
	name   string
}

func NewBinanceClient(apiKey, secretKey string) *BinanceClient {
	return &BinanceClient{
		client: binance.NewClient(apiKey, secretKey),
		name:   "binance",
	}
}

func (b *BinanceClient) Name() string { return b.name }

func (b *BinanceClient) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := b.client.NewListPricesService().Symbol(normalizeSymbol(symbol)).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch price for %s: %w", symbol, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("no price returned for %s", symbol)
	}
	p, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q for %s: %w", prices[0].Price, symbol, err)
	}
	return p, nil
}

func (b *BinanceClient) PlaceOrder(ctx context.Context, req OrderRequest) (*Fill, error) {
	side := binance.SideTypeSell
	if req.Side == "buy" {
		side = binance.SideTypeBuy
	}

	resp, err := b.client.NewCreateOrderService().
		Symbol(normalizeSymbol(req.Symbol)).
		Side(side).
		Type(binance.OrderTypeMarket).
		Quantity(formatQuantity(req.Quantity)).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	filled, err := strconv.ParseFloat(resp.ExecutedQuantity, 64)
	if err != nil || filled <= 0 {
		filled = req.Quantity
	}
	price := req.ReferencePrice
	if quote, qerr := strconv.ParseFloat(resp.CummulativeQuoteQuantity, 64); qerr == nil && quote > 0 && filled > 0 {
		price = quote / filled
	}

	fmt.Printf("[EXCHANGE] Order filled: %s %s %.6f @ %.4f (order id %d)\n",
		req.Side, req.Symbol, filled, price, resp.OrderID)
	return &Fill{ExecutedPrice: price, FilledQuantity: filled}, nil
}

// normalizeSymbol converts a pair like "BTC/USDT" into the slash-free form
// Binance expects.
func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

// formatQuantity trims trailing zeros so quantities like 0.25000000 are sent
// as 0.25.
func formatQuantity(q float64) string {
	s := strconv.FormatFloat(q, 'f', 8, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
