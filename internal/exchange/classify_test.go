package exchange

import (
	"strings"
	"testing"
)

func TestClassifyOrderError_Categories(t *testing.T) {
	cases := []struct {
		raw       string
		category  string
		retryable bool
	}{
		{"Account has insufficient balance for requested action.", "insufficient_balance", false},
		{"Filter failure: MIN_NOTIONAL, order size too small", "minimum_order_size", false},
		{"API-key format invalid.", "authentication", false},
		{"Signature for this request is not valid.", "authentication", false},
		{"This action is forbidden for this account.", "permission", false},
		{"Too many requests; current limit is 1200 request weight per minute.", "rate_limit", true},
		{"dial tcp: i/o timeout", "network", true},
		{"Invalid symbol.", "symbol_not_found", false},
		{"Market is closed.", "market_closed", true},
		{"This request is not allowed from this IP address.", "ip_whitelist", false},
	}

	for _, tc := range cases {
		got := ClassifyOrderError(tc.raw, "BTC/USDT", "binance")
		if got.Category != tc.category {
			t.Fatalf("%q: expected category %q, got %q", tc.raw, tc.category, got.Category)
		}
		if got.Retryable != tc.retryable {
			t.Fatalf("%q: expected retryable=%v", tc.raw, tc.retryable)
		}
		if got.Message == "" {
			t.Fatalf("%q: empty message", tc.raw)
		}
	}
}

func TestClassifyOrderError_BalanceBeatsPermission(t *testing.T) {
	// "insufficient" errors often also mention permissions; the balance rule
	// must win.
	got := ClassifyOrderError("insufficient balance, operation not authorized", "BTC/USDT", "binance")
	if got.Category != "insufficient_balance" {
		t.Fatalf("expected insufficient_balance, got %q", got.Category)
	}
}

func TestClassifyOrderError_RetryablePhrasing(t *testing.T) {
	got := ClassifyOrderError("429 Too Many Requests", "BTC/USDT", "binance")
	if !got.Retryable {
		t.Fatal("rate limit should be retryable")
	}
	if !strings.Contains(got.Message, "retry on the next tick") {
		t.Fatalf("retryable message should promise a retry: %q", got.Message)
	}
}

func TestClassifyOrderError_StripsNamespacePrefix(t *testing.T) {
	got := ClassifyOrderError("ccxt.base.errors.InsufficientFunds: insufficient balance on account", "BTC/USDT", "kraken")
	if got.Category != "insufficient_balance" {
		t.Fatalf("expected insufficient_balance, got %q", got.Category)
	}
	if strings.Contains(got.Message, "ccxt.base.errors") {
		t.Fatalf("library namespace must not leak: %q", got.Message)
	}
	if !strings.Contains(got.Message, "kraken") {
		t.Fatalf("message should name the exchange: %q", got.Message)
	}
}

func TestClassifyOrderError_UnknownFallback(t *testing.T) {
	got := ClassifyOrderError("ccxt.base.errors.ExchangeError: weird unexpected thing happened", "ETH/USDT", "binance")
	if got.Category != "unknown" {
		t.Fatalf("expected unknown, got %q", got.Category)
	}
	if strings.Contains(got.Message, "ccxt.base.errors") {
		t.Fatalf("fallback must strip the prefix too: %q", got.Message)
	}
	if !strings.Contains(got.Message, "ETH/USDT") {
		t.Fatalf("fallback should name the symbol: %q", got.Message)
	}
	if got.Retryable {
		t.Fatal("unknown errors are not retryable")
	}
}

func TestStripNamespacePrefix(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{"ccxt.base.errors.InsufficientFunds: no funds", "no funds"},
		{"ccxt.base.errors.RateLimitExceeded", "ccxt.base.errors.RateLimitExceeded"},
		{"ccxt.base.errors.RateLimitExceeded:", "RateLimitExceeded"},
		{"HTTP 429: too many requests", "HTTP 429: too many requests"},
		{"plain error text", "plain error text"},
	}
	for _, tc := range cases {
		if got := stripNamespacePrefix(tc.in); got != tc.out {
			t.Fatalf("stripNamespacePrefix(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}
