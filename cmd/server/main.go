package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kjannette/swing-trade-backend/internal/api"
	"github.com/kjannette/swing-trade-backend/internal/config"
	"github.com/kjannette/swing-trade-backend/internal/db"
	"github.com/kjannette/swing-trade-backend/internal/exchange"
	"github.com/kjannette/swing-trade-backend/internal/monitor"
	"github.com/kjannette/swing-trade-backend/internal/notifications"
	"github.com/kjannette/swing-trade-backend/internal/repository"
	"github.com/kjannette/swing-trade-backend/internal/risk"
	"github.com/kjannette/swing-trade-backend/internal/service"
)

const banner = `
╔══════════════════════════════════════╗
║     Swing Trade Exit Engine v0.3     ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	// Database
	fmt.Printf("\n[DB] Connecting to %s:%d/%s ...\n", cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := db.Connect(cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Connection failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		pool.Close()
		fmt.Println("[DB] Connection pool closed")
	}()

	if err := db.TestConnection(pool); err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Test query failed: %v\n", err)
		os.Exit(1)
	}

	if err := db.Migrate(context.Background(), pool); err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Migration failed: %v\n", err)
		os.Exit(1)
	}

	// Repos
	strategyRepo := repository.NewStrategyRepo(pool)
	signalRepo := repository.NewSignalRepo(pool)
	executionRepo := repository.NewExecutionRepo(pool)

	// Exchange: Binance is the primary price source with CoinGecko as a
	// keyless fallback; orders go to the paper gateway unless live trading
	// is configured.
	binanceClient := exchange.NewBinanceClient(cfg.BinanceAPIKey, cfg.BinanceSecretKey)
	feed := exchange.NewFallbackFeed(binanceClient, exchange.NewCoinGeckoFeed())
	var gateway exchange.ExecutionGateway = binanceClient
	if cfg.PaperMode() {
		gateway = exchange.NewPaperGateway(cfg.PaperFeePercent)
	}

	// Notifications
	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName)

	// Order safety limits
	guard := risk.NewGuardian(risk.Limits{
		MaxOrderNotionalUSD: cfg.MaxOrderNotionalUSD,
		MaxDailyOrders:      cfg.MaxDailyOrders,
	}, executionRepo)

	svc := service.New(strategyRepo, signalRepo, executionRepo, feed, gateway, notify, guard, cfg.PaperMode())

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. API server
	srv := api.NewServer(pool, svc, cfg.APIPort, cfg.APIKey, cfg.CORSAllowOrigin)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "[API] Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	// 2. Price monitor
	mon := monitor.New(svc, feed, monitor.Config{
		Interval: time.Duration(cfg.MonitorIntervalSeconds) * time.Second,
		Warmup:   time.Duration(cfg.MonitorWarmupSeconds) * time.Second,
	})
	mon.Start(ctx)

	fmt.Println("\nAll services started successfully")

	// Wait for shutdown signal
	<-ctx.Done()
	fmt.Println("\nShutting down gracefully...")

	mon.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "[API] Shutdown error: %v\n", err)
	}
	fmt.Println("[API] Server closed")
	fmt.Println("Shutdown complete")
}
