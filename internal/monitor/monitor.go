package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kjannette/swing-trade-backend/internal/exchange"
	"github.com/kjannette/swing-trade-backend/internal/metrics"
	"github.com/kjannette/swing-trade-backend/internal/models"
	"github.com/kjannette/swing-trade-backend/internal/service"
)

const cycleLogEvery = 10

type Config struct {
	Interval time.Duration // how often active strategies are ticked
	Warmup   time.Duration // delay before the first cycle
}

// Monitor polls every active strategy on a fixed interval. Prices are
// fetched once per symbol per cycle; strategies tick concurrently, with the
// service's per-strategy lock keeping same-id work serialized.
type Monitor struct {
	svc  *service.Service
	feed exchange.PriceFeed
	cfg  Config

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}

	cycles int64
}

func New(svc *service.Service, feed exchange.PriceFeed, cfg Config) *Monitor {
	if cfg.Interval < 5*time.Second {
		cfg.Interval = 5 * time.Second
	}
	if cfg.Warmup <= 0 {
		cfg.Warmup = 10 * time.Second
	}
	return &Monitor{svc: svc, feed: feed, cfg: cfg}
}

func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		fmt.Println("[MONITOR] Already running")
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.loop(ctx)
	fmt.Printf("[MONITOR] Started (every %s, warmup %s)\n", m.cfg.Interval, m.cfg.Warmup)
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	close(m.stopCh)
	m.running = false
	done := m.done
	m.mu.Unlock()

	<-done
	fmt.Println("[MONITOR] Stopped")
}

func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	select {
	case <-time.After(m.cfg.Warmup):
	case <-m.stopCh:
		return
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.runCycle(ctx)
	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

func (m *Monitor) runCycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, m.cfg.Interval)
	defer cancel()

	strategies, err := m.svc.ListActive(cycleCtx)
	if err != nil {
		fmt.Printf("[MONITOR] Failed to list active strategies: %v\n", err)
		return
	}

	m.cycles++
	metrics.MonitorCycles.Inc()
	metrics.ActiveStrategies.Set(float64(len(strategies)))

	if len(strategies) == 0 {
		if m.cycles%cycleLogEvery == 0 {
			fmt.Printf("[MONITOR] Cycle %d: no active strategies\n", m.cycles)
		}
		return
	}

	prices := m.fetchPrices(cycleCtx, strategies)

	now := time.Now()
	var wg sync.WaitGroup
	var ticked, skipped, failed int64
	var counterMu sync.Mutex

	for i := range strategies {
		strat := strategies[i]
		price, ok := prices[strat.Symbol]
		if !ok {
			// Feed failure for this symbol: no status advance this cycle.
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ran, err := m.svc.RunTickIfIdle(cycleCtx, strat.ID, price, now)
			counterMu.Lock()
			defer counterMu.Unlock()
			switch {
			case err != nil:
				failed++
				fmt.Printf("[MONITOR] Tick failed for %q: %v\n", strat.Name, err)
			case !ran:
				skipped++
			default:
				ticked++
			}
		}()
	}
	wg.Wait()

	if m.cycles%cycleLogEvery == 0 || failed > 0 {
		fmt.Printf("[MONITOR] Cycle %d: %d active, %d ticked, %d skipped, %d failed\n",
			m.cycles, len(strategies), ticked, skipped, failed)
	}
}

// fetchPrices grabs one price per distinct symbol. Symbols whose fetch
// failed are absent from the result.
func (m *Monitor) fetchPrices(ctx context.Context, strategies []models.Strategy) map[string]float64 {
	prices := make(map[string]float64)
	seen := make(map[string]bool)
	for _, s := range strategies {
		if seen[s.Symbol] {
			continue
		}
		seen[s.Symbol] = true

		price, err := m.feed.CurrentPrice(ctx, s.Symbol)
		if err != nil {
			fmt.Printf("[MONITOR] Price fetch failed for %s: %v\n", s.Symbol, err)
			continue
		}
		if price <= 0 {
			fmt.Printf("[MONITOR] Price %.4f for %s failed sanity check\n", price, s.Symbol)
			continue
		}
		prices[s.Symbol] = price
	}
	return prices
}
