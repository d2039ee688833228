package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Secrets (from .env)
	BinanceAPIKey    string
	BinanceSecretKey string
	WebhookURL       string
	BotName          string
	APIKey           string
	CORSAllowOrigin  string

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Trading
	TradingMode     string // "paper" or "live"
	DefaultExchange string
	PaperFeePercent float64

	// Order safety limits (0 disables a limit)
	MaxOrderNotionalUSD float64
	MaxDailyOrders      int

	// Monitor
	MonitorIntervalSeconds int
	MonitorWarmupSeconds   int

	// API
	APIPort int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Secrets
		BinanceAPIKey:    envStr("BINANCE_API_KEY", ""),
		BinanceSecretKey: envStr("BINANCE_SECRET_KEY", ""),
		WebhookURL:       envStr("WEBHOOK_URL", ""),
		BotName:          envStr("BOT_NAME", "SwingExitBot"),
		APIKey:           envStr("API_KEY", ""),
		CORSAllowOrigin:  envStr("CORS_ALLOW_ORIGIN", "*"),

		// Database
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "swing_trade"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),

		// Trading
		TradingMode:     strings.ToLower(envStr("TRADING_MODE", "paper")),
		DefaultExchange: envStr("DEFAULT_EXCHANGE", "binance"),
		PaperFeePercent: envFloat("PAPER_FEE_PERCENT", 0.1),

		// Order safety
		MaxOrderNotionalUSD: envFloat("MAX_ORDER_NOTIONAL_USD", 0),
		MaxDailyOrders:      envInt("MAX_DAILY_ORDERS", 0),

		// Monitor
		MonitorIntervalSeconds: envInt("MONITOR_INTERVAL_SECS", 30),
		MonitorWarmupSeconds:   envInt("MONITOR_WARMUP_SECS", 10),

		// API
		APIPort: envInt("API_PORT", 3001),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.TradingMode != "paper" && c.TradingMode != "live" {
		errs = append(errs, fmt.Sprintf("TRADING_MODE must be paper or live, got %q", c.TradingMode))
	}
	if c.TradingMode == "live" && (c.BinanceAPIKey == "" || c.BinanceSecretKey == "") {
		errs = append(errs, "BINANCE_API_KEY and BINANCE_SECRET_KEY are required for live trading")
	}
	if c.MonitorIntervalSeconds < 5 {
		fmt.Printf("[WARN] MONITOR_INTERVAL_SECS=%d is below the 5s floor and will be clamped\n", c.MonitorIntervalSeconds)
	}
	if c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set — REST API has no authentication")
	}
	if c.WebhookURL == "" {
		fmt.Println("[WARN] WEBHOOK_URL not set — exit notifications go to stdout only")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Swing Trade Exit Bot Configuration ===")

	if c.PaperMode() {
		fmt.Println("════════════════════════════════════════")
		fmt.Println("  PAPER TRADING MODE ENABLED")
		fmt.Println("  No real orders will be placed")
		fmt.Println("════════════════════════════════════════")
		fmt.Printf("Paper Fee: %.2f%%\n", c.PaperFeePercent)
	} else {
		fmt.Println("  LIVE TRADING MODE")
		fmt.Printf("Binance API key: %s\n", maskKey(c.BinanceAPIKey))
	}

	fmt.Println("--------------------------------------")
	fmt.Printf("Default Exchange: %s\n", c.DefaultExchange)
	fmt.Printf("Monitor Interval: %ds (warmup %ds)\n", c.MonitorIntervalSeconds, c.MonitorWarmupSeconds)
	fmt.Printf("API Port: %d\n", c.APIPort)
	fmt.Printf("Webhook: %s\n", boolLabel(c.WebhookURL != "", "configured", "not set"))
	if c.MaxOrderNotionalUSD > 0 || c.MaxDailyOrders > 0 {
		fmt.Printf("Order Limits: max notional $%.2f, max %d orders/day\n", c.MaxOrderNotionalUSD, c.MaxDailyOrders)
	}
	fmt.Println("======================================")
}

func (c *Config) PaperMode() bool {
	return c.TradingMode != "live"
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
