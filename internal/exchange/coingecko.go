package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kjannette/swing-trade-backend/internal/httputil"
)

const coingeckoURL = "https://api.coingecko.com/api/v3/simple/price"

// coinIDs maps base assets to CoinGecko coin identifiers. Symbols outside
// this table cannot use the CoinGecko feed.
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"BNB":   "binancecoin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"AVAX":  "avalanche-2",
	"MATIC": "matic-network",
	"LINK":  "chainlink",
}

// CoinGeckoFeed is a keyless fallback price source. It only quotes in USD,
// which is close enough to USDT/USDC pairs for exit decisions when the
// primary feed is down.
type CoinGeckoFeed struct {
	httpClient *http.Client
	retry      httputil.RetryConfig
}

func NewCoinGeckoFeed() *CoinGeckoFeed {
	return &CoinGeckoFeed{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    10 * time.Second,
		},
	}
}

func (c *CoinGeckoFeed) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	id, err := coinID(symbol)
	if err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s?ids=%s&vs_currencies=usd", coingeckoURL, id)
	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
	if err != nil {
		return 0, fmt.Errorf("coingecko fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("coingecko returned status %d", resp.StatusCode)
	}

	var data map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}

	price := data[id].USD
	if price <= 0 {
		return 0, fmt.Errorf("invalid price for %s: %f", symbol, price)
	}
	return price, nil
}

func coinID(symbol string) (string, error) {
	base := symbol
	if i := strings.Index(symbol, "/"); i > 0 {
		base = symbol[:i]
	}
	id, ok := coinIDs[strings.ToUpper(base)]
	if !ok {
		return "", fmt.Errorf("no coingecko mapping for symbol %s", symbol)
	}
	return id, nil
}

// FallbackFeed tries the primary feed and falls back to the secondary when
// the primary errors. Both failing returns the primary's error.
type FallbackFeed struct {
	primary   PriceFeed
	secondary PriceFeed
}

func NewFallbackFeed(primary, secondary PriceFeed) *FallbackFeed {
	return &FallbackFeed{primary: primary, secondary: secondary}
}

func (f *FallbackFeed) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	price, err := f.primary.CurrentPrice(ctx, symbol)
	if err == nil {
		return price, nil
	}

	fallbackPrice, fallbackErr := f.secondary.CurrentPrice(ctx, symbol)
	if fallbackErr != nil {
		return 0, err
	}
	fmt.Printf("[FEED] Primary feed failed for %s (%v), using fallback price %.4f\n", symbol, err, fallbackPrice)
	return fallbackPrice, nil
}
