package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kjannette/swing-trade-backend/internal/exchange"
	"github.com/kjannette/swing-trade-backend/internal/models"
	"github.com/kjannette/swing-trade-backend/internal/notifications"
	"github.com/kjannette/swing-trade-backend/internal/repository"
	"github.com/kjannette/swing-trade-backend/internal/testutil"
)

type stubFeed struct {
	price float64
	err   error
}

func (f *stubFeed) CurrentPrice(context.Context, string) (float64, error) {
	return f.price, f.err
}

type stubGateway struct {
	err    error
	orders []exchange.OrderRequest
}

func (g *stubGateway) PlaceOrder(_ context.Context, req exchange.OrderRequest) (*exchange.Fill, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.orders = append(g.orders, req)
	return &exchange.Fill{ExecutedPrice: req.ReferencePrice, FilledQuantity: req.Quantity}, nil
}

func newTestService(t *testing.T, feed exchange.PriceFeed, gateway exchange.ExecutionGateway) *Service {
	t.Helper()
	pool := testutil.SetupPool(t)
	return New(
		repository.NewStrategyRepo(pool),
		repository.NewSignalRepo(pool),
		repository.NewExecutionRepo(pool),
		feed, gateway,
		notifications.NewSender("", ""),
		nil,
		true,
	)
}

func createTestStrategy(t *testing.T, svc *Service, gradual bool) *models.Strategy {
	t.Helper()
	req := validCreateRequest()
	req.Name = "svc test " + time.Now().Format(time.RFC3339Nano)
	req.Config.GradualSell = gradual
	if gradual {
		req.Config.GradualTakePercent = 2
	}
	strat, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = svc.Delete(context.Background(), strat.ID) })
	return strat
}

func TestService_CreateComputesPrices(t *testing.T) {
	svc := newTestService(t, &stubFeed{price: 150}, &stubGateway{})
	strat := createTestStrategy(t, svc, false)

	if strat.Status != models.StatusMonitoring {
		t.Fatalf("expected monitoring, got %q", strat.Status)
	}
	if diff := strat.TriggerPrice - 157.65; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("expected trigger 157.65, got %f", strat.TriggerPrice)
	}
	if diff := strat.StopLossPrice - 145.5; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("expected stop 145.50, got %f", strat.StopLossPrice)
	}
	if strat.Config.GradualLots != nil {
		t.Fatal("no lot schedule expected without gradual selling")
	}

	gradual := createTestStrategy(t, svc, true)
	if len(gradual.Config.GradualLots) != 4 {
		t.Fatalf("expected 4 lots, got %d", len(gradual.Config.GradualLots))
	}
}

func TestService_FullExitTick(t *testing.T) {
	gw := &stubGateway{}
	svc := newTestService(t, &stubFeed{price: 158}, gw)
	strat := createTestStrategy(t, svc, false)
	ctx := context.Background()

	if _, err := svc.RegisterPosition(ctx, strat.ID, 150, 2); err != nil {
		t.Fatal(err)
	}

	out, err := svc.RunTick(ctx, strat.ID, 158, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !out.Signal.Acted {
		t.Fatal("signal should be marked acted after a successful order")
	}
	if len(gw.orders) != 1 || gw.orders[0].Quantity != 2 {
		t.Fatalf("expected one sell of 2 units, got %+v", gw.orders)
	}

	got, err := svc.Get(ctx, strat.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %q", got.Status)
	}
	if got.Position != nil {
		t.Fatal("position should be cleared")
	}

	signals, err := svc.Signals(ctx, strat.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(signals) != 1 || signals[0].SignalType != models.SignalTakeProfit {
		t.Fatalf("expected one take_profit signal, got %+v", signals)
	}

	execs, err := svc.Executions(ctx, strat.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(execs) != 1 || execs[0].Action != models.ActionSell {
		t.Fatalf("expected one sell execution, got %+v", execs)
	}
}

func TestService_FailedOrderKeepsState(t *testing.T) {
	gw := &stubGateway{err: errors.New("Account has insufficient balance for requested action.")}
	svc := newTestService(t, &stubFeed{price: 158}, gw)
	strat := createTestStrategy(t, svc, false)
	ctx := context.Background()

	if _, err := svc.RegisterPosition(ctx, strat.ID, 150, 2); err != nil {
		t.Fatal(err)
	}

	out, err := svc.RunTick(ctx, strat.ID, 158, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if out.Signal.Acted {
		t.Fatal("a failed order must not mark the signal acted")
	}
	if out.Error == "" {
		t.Fatal("outcome should carry the classified failure")
	}
	if strings.Contains(out.Signal.Message, "requested action") {
		t.Fatalf("raw gateway text should be replaced by the classified message: %q", out.Signal.Message)
	}

	got, err := svc.Get(ctx, strat.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusInPosition {
		t.Fatalf("status must not advance on a failed order, got %q", got.Status)
	}
	if got.Position == nil || got.Position.Quantity != 2 {
		t.Fatalf("position must be intact, got %+v", got.Position)
	}

	execs, err := svc.Executions(ctx, strat.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(execs) != 1 || execs[0].Action != models.ActionSellFailed {
		t.Fatalf("expected one sell_failed row, got %+v", execs)
	}
}

func TestService_PauseActivateRoundTrip(t *testing.T) {
	svc := newTestService(t, &stubFeed{price: 150}, &stubGateway{})
	strat := createTestStrategy(t, svc, false)
	ctx := context.Background()

	paused, err := svc.Pause(ctx, strat.ID)
	if err != nil {
		t.Fatal(err)
	}
	if paused.Status != models.StatusPaused || paused.IsActive {
		t.Fatalf("expected inactive paused strategy, got %+v", paused.Status)
	}

	// Second pause is an explicit error.
	if _, err := svc.Pause(ctx, strat.ID); err == nil {
		t.Fatal("expected error on double pause")
	}

	resumed, err := svc.Activate(ctx, strat.ID)
	if err != nil {
		t.Fatal(err)
	}
	if resumed.Status != models.StatusMonitoring {
		t.Fatalf("expected return to monitoring, got %q", resumed.Status)
	}
	if !resumed.IsActive || resumed.PriorStatus != nil {
		t.Fatal("activation should reset is_active and prior status")
	}
}

func TestService_RegisterPositionRules(t *testing.T) {
	svc := newTestService(t, &stubFeed{price: 150}, &stubGateway{})
	strat := createTestStrategy(t, svc, false)
	ctx := context.Background()

	if _, err := svc.RegisterPosition(ctx, strat.ID, 0, 1); err == nil {
		t.Fatal("expected error for non-positive entry price")
	}
	if _, err := svc.RegisterPosition(ctx, strat.ID, 150, 0); err == nil {
		t.Fatal("expected error for non-positive quantity")
	}

	got, err := svc.RegisterPosition(ctx, strat.ID, 150, 1.5)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusInPosition {
		t.Fatalf("expected in_position, got %q", got.Status)
	}
	if got.Position.InitialQuantity != 1.5 || got.Position.MaxPriceSeen != 150 {
		t.Fatalf("position fields not initialized: %+v", got.Position)
	}

	// A second registration while holding is rejected.
	if _, err := svc.RegisterPosition(ctx, strat.ID, 151, 1); err == nil {
		t.Fatal("expected error registering over an open position")
	}
}

func TestService_TickWithFeedPrice(t *testing.T) {
	feed := &stubFeed{err: errors.New("connection refused")}
	svc := newTestService(t, feed, &stubGateway{})
	strat := createTestStrategy(t, svc, false)

	_, err := svc.TickWithFeedPrice(context.Background(), strat.ID)
	if err == nil || !strings.Contains(err.Error(), "price feed") {
		t.Fatalf("expected wrapped feed error, got %v", err)
	}

	feed.err = nil
	feed.price = 151
	out, err := svc.TickWithFeedPrice(context.Background(), strat.ID)
	if err != nil {
		t.Fatal(err)
	}
	if out.Price != 151 {
		t.Fatalf("expected tick at the feed price, got %f", out.Price)
	}
}
