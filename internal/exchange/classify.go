package exchange

import (
	"fmt"
	"strings"
)

// OrderError is a gateway failure translated into a user-facing message.
// Retryable failures are retried on the next tick; actionable ones need
// operator intervention.
type OrderError struct {
	Category  string
	Message   string
	Retryable bool
}

type errorRule struct {
	category  string
	retryable bool
	needles   []string
	message   func(symbol, exchange string) string
}

// Rules are checked in order; the first substring hit wins. Keep the
// balance rule ahead of the permission rule so "insufficient" text lands on
// the right category.
var errorRules = []errorRule{
	{
		category: "insufficient_balance",
		needles:  []string{"insufficient balance", "insufficient funds", "not enough", "balance"},
		message: func(symbol, exchange string) string {
			return fmt.Sprintf("Insufficient balance on %s to place the %s order. Top up the account or reduce the strategy quantity.", exchange, symbol)
		},
	},
	{
		category: "minimum_order_size",
		needles:  []string{"min notional", "minimum order", "order size", "lot size", "min_notional", "too small"},
		message: func(symbol, exchange string) string {
			return fmt.Sprintf("Order for %s is below the minimum size allowed by %s. Increase the position quantity or close it manually.", symbol, exchange)
		},
	},
	{
		category: "authentication",
		needles:  []string{"api key", "api-key", "apikey", "authentication", "signature", "invalid key", "unauthorized"},
		message: func(symbol, exchange string) string {
			return fmt.Sprintf("Authentication with %s failed. Check that the API key and secret are valid and not expired.", exchange)
		},
	},
	{
		category: "permission",
		needles:  []string{"permission", "not authorized", "forbidden", "access denied"},
		message: func(symbol, exchange string) string {
			return fmt.Sprintf("The %s API key lacks trading permission. Enable spot trading for the key in the exchange settings.", exchange)
		},
	},
	{
		category:  "rate_limit",
		retryable: true,
		needles:   []string{"rate limit", "too many requests", "429", "request weight"},
		message: func(symbol, exchange string) string {
			return fmt.Sprintf("Rate limit reached on %s; the order will retry on the next tick.", exchange)
		},
	},
	{
		category:  "network",
		retryable: true,
		needles:   []string{"timeout", "timed out", "connection", "network", "temporarily unavailable", "econnrefused", "econnreset"},
		message: func(symbol, exchange string) string {
			return fmt.Sprintf("Network problem reaching %s; the order will retry on the next tick.", exchange)
		},
	},
	{
		category: "symbol_not_found",
		needles:  []string{"symbol not found", "invalid symbol", "unknown symbol", "does not have market", "symbol"},
		message: func(symbol, exchange string) string {
			return fmt.Sprintf("Symbol %s was not found on %s. Check the trading pair spelling and that it is listed there.", symbol, exchange)
		},
	},
	{
		category:  "market_closed",
		retryable: true,
		needles:   []string{"market closed", "market is closed", "maintenance", "trading is suspended", "halted"},
		message: func(symbol, exchange string) string {
			return fmt.Sprintf("Market for %s on %s is closed or under maintenance; the order will retry on the next tick.", symbol, exchange)
		},
	},
	{
		category: "ip_whitelist",
		needles:  []string{"whitelist", "ip address", "ip restriction"},
		message: func(symbol, exchange string) string {
			return fmt.Sprintf("Requests to %s are blocked by an IP restriction. Add this server's IP to the API key whitelist.", exchange)
		},
	},
}

// ClassifyOrderError maps raw gateway error text to an actionable message.
// Matching is case-insensitive, first rule wins. The raw error-library
// namespace prefix is never surfaced.
func ClassifyOrderError(raw, symbol, exchangeName string) OrderError {
	if exchangeName == "" {
		exchangeName = "the exchange"
	}
	cleaned := stripNamespacePrefix(raw)
	lowered := strings.ToLower(cleaned)

	for _, rule := range errorRules {
		for _, needle := range rule.needles {
			if strings.Contains(lowered, needle) {
				return OrderError{
					Category:  rule.category,
					Message:   rule.message(symbol, exchangeName),
					Retryable: rule.retryable,
				}
			}
		}
	}

	return OrderError{
		Category: "unknown",
		Message:  fmt.Sprintf("Order for %s on %s failed: %s. Review the strategy and exchange account.", symbol, exchangeName, cleaned),
	}
}

// stripNamespacePrefix drops leading error-library identifiers such as
// "ccxt.base.errors.InsufficientFunds:" so they never leak to users.
func stripNamespacePrefix(raw string) string {
	s := strings.TrimSpace(raw)
	idx := strings.Index(s, ":")
	if idx <= 0 {
		return s
	}
	prefix := s[:idx]
	if strings.Contains(prefix, ".") && !strings.ContainsAny(prefix, " \t") {
		rest := strings.TrimSpace(s[idx+1:])
		if rest != "" {
			return rest
		}
		// Prefix-only errors like "ccxt.base.errors.RateLimitExceeded": keep
		// just the final identifier.
		parts := strings.Split(prefix, ".")
		return parts[len(parts)-1]
	}
	return s
}
