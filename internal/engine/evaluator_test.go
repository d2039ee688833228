package engine

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/kjannette/swing-trade-backend/internal/models"
	"github.com/kjannette/swing-trade-backend/internal/strategy"
)

// newTestStrategy is the common fixture: base 150, take-profit 5%, stop 3%,
// fee 0.1%, so trigger 157.65 and stop 145.50.
func newTestStrategy(status models.Status) *models.Strategy {
	cfg := models.StrategyConfig{
		BasePrice:          150,
		TakeProfitPercent:  5,
		StopLossPercent:    3,
		GradualTakePercent: 2,
		FeePercent:         0.1,
		TimeExecutionMin:   60,
		DeductFeeFromPnL:   true,
	}
	trigger, stop := strategy.ComputePrices(cfg)
	return &models.Strategy{
		ID:            "strat-1",
		Name:          "BTC swing",
		Symbol:        "BTC/USDT",
		ExchangeName:  "binance",
		Status:        status,
		IsActive:      true,
		Config:        cfg,
		TriggerPrice:  trigger,
		StopLossPrice: stop,
		StartedAt:     time.Now().Add(-5 * time.Minute),
	}
}

func withPosition(s *models.Strategy, entry, qty float64) *models.Strategy {
	s.Position = &models.Position{
		EntryPrice:      entry,
		Quantity:        qty,
		InitialQuantity: qty,
		MaxPriceSeen:    entry,
		OpenedAt:        s.StartedAt,
	}
	return s
}

func withGradual(s *models.Strategy) *models.Strategy {
	s.Config.GradualSell = true
	s.Config.GradualLots = strategy.GenerateLots(true)
	return s
}

func TestEvaluate_TerminalGuard(t *testing.T) {
	s := newTestStrategy(models.StatusCompleted)
	s.TotalPnL = 5.75

	next, out := Evaluate(s, 160, time.Now())

	if next.Status != models.StatusCompleted {
		t.Fatalf("terminal status should not change, got %q", next.Status)
	}
	if out.ExecutionRequest != nil || out.NewStatus != nil {
		t.Fatal("terminal tick must not request orders or status changes")
	}
	if out.Signal.SignalType != models.SignalInfo {
		t.Fatalf("expected info signal, got %q", out.Signal.SignalType)
	}
	if !strings.Contains(out.Signal.Message, "completed") || !strings.Contains(out.Signal.Message, "5.75") {
		t.Fatalf("guard message should cite the terminal state and total P&L: %q", out.Signal.Message)
	}
}

func TestEvaluate_PausedAndErrorGuard(t *testing.T) {
	for _, st := range []models.Status{models.StatusPaused, models.StatusError} {
		next, out := Evaluate(newTestStrategy(st), 160, time.Now())
		if next.Status != st {
			t.Fatalf("status %q should hold, got %q", st, next.Status)
		}
		if out.ExecutionRequest != nil {
			t.Fatalf("no order may be requested while %q", st)
		}
		if out.Signal.SignalType != models.SignalInfo {
			t.Fatalf("expected info signal while %q, got %q", st, out.Signal.SignalType)
		}
	}
}

func TestEvaluate_ConfigError(t *testing.T) {
	s := newTestStrategy(models.StatusMonitoring)
	s.Config.BasePrice = 0

	next, out := Evaluate(s, 160, time.Now())

	if next.Status != models.StatusError {
		t.Fatalf("expected error status, got %q", next.Status)
	}
	if next.IsActive {
		t.Fatal("strategy should be deactivated on config error")
	}
	if next.ErrorMessage == nil || !strings.Contains(*next.ErrorMessage, "base price") {
		t.Fatalf("error message should name the base price: %v", next.ErrorMessage)
	}
	if out.NewStatus == nil || *out.NewStatus != models.StatusError {
		t.Fatal("outcome should report the error transition")
	}
	// The config guard outranks the price check: even a trigger-crossing
	// price cannot rescue a broken config.
	if out.ExecutionRequest != nil {
		t.Fatal("no order on config error")
	}
}

func TestEvaluate_ExpirationBoundary(t *testing.T) {
	now := time.Now()

	// Exactly at the limit: expired (boundary inclusive).
	s := newTestStrategy(models.StatusMonitoring)
	s.StartedAt = now.Add(-60 * time.Minute)
	next, out := Evaluate(s, 150, now)
	if next.Status != models.StatusExpired {
		t.Fatalf("elapsed == limit should expire, got %q", next.Status)
	}
	if out.Signal.SignalType != models.SignalExpired {
		t.Fatalf("expected expired signal, got %q", out.Signal.SignalType)
	}
	if next.IsActive {
		t.Fatal("expired strategy should be deactivated")
	}

	// One second short of the limit: still monitoring.
	s = newTestStrategy(models.StatusMonitoring)
	s.StartedAt = now.Add(-60*time.Minute + time.Second)
	next, _ = Evaluate(s, 150, now)
	if next.Status != models.StatusMonitoring {
		t.Fatalf("one second early should not expire, got %q", next.Status)
	}

	// Zero limit disables expiration.
	s = newTestStrategy(models.StatusMonitoring)
	s.Config.TimeExecutionMin = 0
	s.StartedAt = now.Add(-24 * time.Hour)
	next, _ = Evaluate(s, 150, now)
	if next.Status != models.StatusMonitoring {
		t.Fatalf("zero limit should never expire, got %q", next.Status)
	}
}

func TestEvaluate_OpenPositionBlocksExpiration(t *testing.T) {
	now := time.Now()
	s := withPosition(newTestStrategy(models.StatusInPosition), 150, 1)
	s.StartedAt = now.Add(-3 * time.Hour)

	next, out := Evaluate(s, 150, now)

	if next.Status == models.StatusExpired {
		t.Fatal("a strategy holding a position must not expire")
	}
	if out.Signal.SignalType != models.SignalInfo {
		t.Fatalf("expected progress info, got %q", out.Signal.SignalType)
	}
}

func TestEvaluate_MonitoringTriggerWithoutPosition(t *testing.T) {
	s := newTestStrategy(models.StatusMonitoring)

	next, out := Evaluate(s, 158, time.Now())

	if out.Signal.SignalType != models.SignalTakeProfit {
		t.Fatalf("expected take_profit signal, got %q", out.Signal.SignalType)
	}
	if out.ExecutionRequest != nil {
		t.Fatal("no order may be placed without a position")
	}
	if next.Status != models.StatusMonitoring {
		t.Fatalf("status should stay monitoring, got %q", next.Status)
	}
	if !strings.Contains(out.Signal.Message, "no position") {
		t.Fatalf("message should say no position is open: %q", out.Signal.Message)
	}
}

func TestEvaluate_MonitoringProgress(t *testing.T) {
	s := newTestStrategy(models.StatusMonitoring)

	_, out := Evaluate(s, 152, time.Now())

	if out.Signal.SignalType != models.SignalInfo {
		t.Fatalf("expected info, got %q", out.Signal.SignalType)
	}
	want := (152.0 - 150.0) / 150.0 * 100
	if math.Abs(out.Signal.PriceChangePercent-want) > 1e-9 {
		t.Fatalf("expected price change %.4f%%, got %.4f%%", want, out.Signal.PriceChangePercent)
	}
}

func TestEvaluate_FullTakeProfitExit(t *testing.T) {
	s := withPosition(newTestStrategy(models.StatusInPosition), 150, 2)

	next, out := Evaluate(s, 157.65, time.Now())

	if next.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %q", next.Status)
	}
	if next.Position != nil {
		t.Fatal("position should be cleared after a full exit")
	}
	if out.ExecutionRequest == nil {
		t.Fatal("expected a sell request")
	}
	if out.ExecutionRequest.Action != models.ActionSell || out.ExecutionRequest.Quantity != 2 {
		t.Fatalf("expected sell of full 2 units, got %+v", out.ExecutionRequest)
	}
	if out.Signal.SignalType != models.SignalTakeProfit {
		t.Fatalf("expected take_profit signal, got %q", out.Signal.SignalType)
	}

	// (157.65-150)*2 minus fee 157.65*2*0.001
	want := (157.65-150)*2 - 157.65*2*0.001
	if math.Abs(next.TotalPnL-want) > 1e-9 {
		t.Fatalf("expected total P&L %.6f, got %.6f", want, next.TotalPnL)
	}
}

func TestEvaluate_StopLoss(t *testing.T) {
	s := withPosition(newTestStrategy(models.StatusInPosition), 150, 2)

	next, out := Evaluate(s, 145.5, time.Now())

	if next.Status != models.StatusStoppedOut {
		t.Fatalf("expected stopped_out, got %q", next.Status)
	}
	if out.ExecutionRequest == nil || out.ExecutionRequest.Reason != models.SignalStopLoss {
		t.Fatalf("expected a stop-loss sell, got %+v", out.ExecutionRequest)
	}
	if out.Signal.SignalType != models.SignalStopLoss {
		t.Fatalf("expected stop_loss signal, got %q", out.Signal.SignalType)
	}
	if next.TotalPnL >= 0 {
		t.Fatalf("stop at 145.50 from 150 entry must lose money, got %.4f", next.TotalPnL)
	}
}

func TestEvaluate_GradualSequence(t *testing.T) {
	now := time.Now()
	s := withGradual(withPosition(newTestStrategy(models.StatusInPosition), 150, 2))

	// Trigger crossing starts the schedule and sells lot 1.
	next, out := Evaluate(s, 157.65, now)
	if next.Status != models.StatusGradualSelling {
		t.Fatalf("expected gradual_selling, got %q", next.Status)
	}
	if out.ExecutionRequest == nil || out.ExecutionRequest.LotNumber == nil || *out.ExecutionRequest.LotNumber != 1 {
		t.Fatalf("expected lot 1 sale, got %+v", out.ExecutionRequest)
	}
	if out.ExecutionRequest.Quantity != 0.5 {
		t.Fatalf("lot 1 should sell 25%% of 2 = 0.5, got %f", out.ExecutionRequest.Quantity)
	}
	if math.Abs(next.Position.Quantity-1.5) > 1e-9 {
		t.Fatalf("expected 1.5 remaining, got %f", next.Position.Quantity)
	}

	// Lot 2 needs base*(1+0.05+0.001+0.02) = 160.65; 158 is short of it.
	now = now.Add(time.Minute)
	next2, out2 := Evaluate(next, 158, now)
	if out2.ExecutionRequest != nil {
		t.Fatalf("158 is below the lot-2 threshold, no sale expected: %+v", out2.ExecutionRequest)
	}
	if next2.Status != models.StatusGradualSelling {
		t.Fatalf("expected to stay in gradual_selling, got %q", next2.Status)
	}

	// At 160.65 lot 2 fires.
	now = now.Add(time.Minute)
	next3, out3 := Evaluate(next2, 160.65, now)
	if out3.ExecutionRequest == nil || *out3.ExecutionRequest.LotNumber != 2 {
		t.Fatalf("expected lot 2 sale, got %+v", out3.ExecutionRequest)
	}

	// Lot 3 at 163.65 (the worked threshold for index 2).
	now = now.Add(time.Minute)
	next4, out4 := Evaluate(next3, 163.65, now)
	if out4.ExecutionRequest == nil || *out4.ExecutionRequest.LotNumber != 3 {
		t.Fatalf("expected lot 3 sale, got %+v", out4.ExecutionRequest)
	}

	// Final lot threshold is 166.65; it sells the entire remainder and
	// completes the strategy.
	now = now.Add(time.Minute)
	next5, out5 := Evaluate(next4, 167, now)
	if out5.ExecutionRequest == nil || *out5.ExecutionRequest.LotNumber != 4 {
		t.Fatalf("expected lot 4 sale, got %+v", out5.ExecutionRequest)
	}
	if math.Abs(out5.ExecutionRequest.Quantity-0.5) > 1e-9 {
		t.Fatalf("final lot should sweep the remaining 0.5, got %f", out5.ExecutionRequest.Quantity)
	}
	if next5.Status != models.StatusCompleted {
		t.Fatalf("expected completed after final lot, got %q", next5.Status)
	}
	if next5.Position != nil {
		t.Fatal("position should be cleared after the final lot")
	}
	if !strings.Contains(out5.Signal.Message, "all lots completed") {
		t.Fatalf("expected completion message, got %q", out5.Signal.Message)
	}
}

func TestEvaluate_GradualPacingTimer(t *testing.T) {
	now := time.Now()
	s := withGradual(withPosition(newTestStrategy(models.StatusInPosition), 150, 2))
	s.Config.TimerGradualMin = 10

	// Lot 1 fires immediately; the timer only paces lots after the first.
	next, out := Evaluate(s, 170, now)
	if out.ExecutionRequest == nil || *out.ExecutionRequest.LotNumber != 1 {
		t.Fatalf("lot 1 should not wait on the pacing timer: %+v", out.ExecutionRequest)
	}

	// Two minutes later lot 2 is priced in but the timer blocks it.
	next2, out2 := Evaluate(next, 170, now.Add(2*time.Minute))
	if out2.ExecutionRequest != nil {
		t.Fatalf("lot 2 should wait for the pacing timer: %+v", out2.ExecutionRequest)
	}
	if !strings.Contains(out2.Signal.Message, "pacing timer") {
		t.Fatalf("expected pacing-timer message, got %q", out2.Signal.Message)
	}

	// After the full interval lot 2 fires.
	_, out3 := Evaluate(next2, 170, now.Add(11*time.Minute))
	if out3.ExecutionRequest == nil || *out3.ExecutionRequest.LotNumber != 2 {
		t.Fatalf("lot 2 should fire after the interval: %+v", out3.ExecutionRequest)
	}
}

func TestEvaluate_StopLossDuringGradual(t *testing.T) {
	now := time.Now()
	s := withGradual(withPosition(newTestStrategy(models.StatusInPosition), 150, 2))

	next, _ := Evaluate(s, 157.65, now)
	if next.Status != models.StatusGradualSelling {
		t.Fatalf("setup failed: %q", next.Status)
	}

	// A crash below the stop liquidates everything that remains.
	next2, out := Evaluate(next, 145, now.Add(time.Minute))
	if next2.Status != models.StatusStoppedOut {
		t.Fatalf("expected stopped_out, got %q", next2.Status)
	}
	if out.ExecutionRequest == nil || math.Abs(out.ExecutionRequest.Quantity-1.5) > 1e-9 {
		t.Fatalf("expected sale of the remaining 1.5, got %+v", out.ExecutionRequest)
	}
}

func TestEvaluate_MaxPriceSeenAdvances(t *testing.T) {
	s := withPosition(newTestStrategy(models.StatusInPosition), 150, 1)

	next, _ := Evaluate(s, 155, time.Now())
	if next.Position.MaxPriceSeen != 155 {
		t.Fatalf("expected max price 155, got %f", next.Position.MaxPriceSeen)
	}

	// A lower print never lowers the high-water mark.
	next2, _ := Evaluate(next, 152, time.Now())
	if next2.Position.MaxPriceSeen != 155 {
		t.Fatalf("max price should hold at 155, got %f", next2.Position.MaxPriceSeen)
	}
}

func TestEvaluate_DoesNotMutateInput(t *testing.T) {
	s := withGradual(withPosition(newTestStrategy(models.StatusInPosition), 150, 2))

	_, _ = Evaluate(s, 170, time.Now())

	if s.Status != models.StatusInPosition {
		t.Fatalf("input status mutated to %q", s.Status)
	}
	if s.Position.Quantity != 2 {
		t.Fatalf("input position mutated to %f", s.Position.Quantity)
	}
	if s.Config.GradualLots[0].Executed {
		t.Fatal("input lot schedule mutated")
	}
	if s.TotalPnL != 0 {
		t.Fatalf("input total P&L mutated to %f", s.TotalPnL)
	}
}

func TestEvaluate_IdleEmitsInfo(t *testing.T) {
	s := newTestStrategy(models.StatusIdle)

	next, out := Evaluate(s, 160, time.Now())

	if next.Status != models.StatusIdle {
		t.Fatalf("idle should hold, got %q", next.Status)
	}
	if out.Signal.SignalType != models.SignalInfo || out.ExecutionRequest != nil {
		t.Fatal("idle ticks emit info only")
	}
}

func TestIsExpired(t *testing.T) {
	start := time.Now()

	if IsExpired(start, 60, start.Add(59*time.Minute)) {
		t.Fatal("59 of 60 minutes should not be expired")
	}
	if !IsExpired(start, 60, start.Add(60*time.Minute)) {
		t.Fatal("60 of 60 minutes is expired (inclusive boundary)")
	}
	if !IsExpired(start, 60, start.Add(61*time.Minute)) {
		t.Fatal("past the limit is expired")
	}
	if IsExpired(start, 0, start.Add(100*time.Hour)) {
		t.Fatal("zero limit disables expiration")
	}
}
