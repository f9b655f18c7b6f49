package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openexec/execution-engine/pkg/account"
	"github.com/openexec/execution-engine/pkg/engine/model"
	"github.com/openexec/execution-engine/pkg/venue/sim"
)

func newTestEngine(t *testing.T, v *sim.Venue) *Engine {
	t.Helper()
	e := New(nil, v, account.NewStatic(), nil)
	t.Cleanup(e.Stop)
	return e
}

func waitForStatus(t *testing.T, e *Engine, orderID string, want model.OrderStatus) *model.Order {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		o, err := e.GetOrder(context.Background(), orderID)
		if err != nil {
			t.Fatalf("get %s: %v", orderID, err)
		}
		if o.Status == want {
			return o
		}
		time.Sleep(10 * time.Millisecond)
	}
	o, _ := e.GetOrder(context.Background(), orderID)
	t.Fatalf("order %s never reached %s, stuck at %s", orderID, want, o.Status)
	return nil
}

func TestPlaceMarketOrderFillsSynchronously(t *testing.T) {
	e := newTestEngine(t, sim.New())

	got, err := e.PlaceOrder(context.Background(), &model.OrderRequest{
		Symbol: "AAPL", Side: model.OrderSideBuy, Type: model.OrderTypeMarket, Quantity: 100,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if got.Status != model.OrderStatusFilled {
		t.Fatalf("expected Filled, got %s", got.Status)
	}
	if got.FilledQuantity != 100 {
		t.Errorf("expected filled 100, got %d", got.FilledQuantity)
	}
}

func TestInvalidRequestCreatesNoOrder(t *testing.T) {
	e := newTestEngine(t, sim.New())

	_, err := e.PlaceOrder(context.Background(), &model.OrderRequest{
		Symbol: "AAPL", Side: model.OrderSideBuy, Type: model.OrderTypeMarket, Quantity: 0,
	})
	if ReasonOf(err) != RejectInvalidQuantity {
		t.Errorf("expected INVALID_QUANTITY, got %v", err)
	}

	_, err = e.PlaceOrder(context.Background(), &model.OrderRequest{
		Symbol: "AAPL", Side: model.OrderSideBuy, Type: model.OrderTypeLimit, Quantity: 10,
	})
	if ReasonOf(err) != RejectMissingPrice {
		t.Errorf("expected MISSING_PRICE, got %v", err)
	}

	if got := e.ListOrders(context.Background(), model.OrderFilter{}); len(got) != 0 {
		t.Errorf("invalid requests must not enter the store, found %d orders", len(got))
	}
}

func TestRiskGateRejectsAndKeepsOrder(t *testing.T) {
	e := newTestEngine(t, sim.New())

	// ~2M notional against the 1M default position limit.
	got, err := e.PlaceOrder(context.Background(), &model.OrderRequest{
		Symbol: "AAPL", Side: model.OrderSideBuy, Type: model.OrderTypeMarket, Quantity: 20_000,
	})
	if !errors.Is(err, ErrRiskGate) {
		t.Fatalf("expected ErrRiskGate, got %v", err)
	}
	if got == nil || got.Status != model.OrderStatusRejected {
		t.Fatalf("expected stored Rejected order, got %+v", got)
	}
	if got.RiskChecks == nil || got.RiskChecks.PositionSize.Passed {
		t.Error("risk snapshot should record the failed position size check")
	}

	stored, err := e.GetOrder(context.Background(), got.OrderID)
	if err != nil {
		t.Fatalf("rejected order should stay queryable: %v", err)
	}
	if stored.Status != model.OrderStatusRejected {
		t.Errorf("expected Rejected, got %s", stored.Status)
	}
}

func TestAdvisoryCheckDoesNotBlock(t *testing.T) {
	v := sim.New()
	v.SetMarketOpen("AAPL", false) // market_hours is warn-only by default
	e := newTestEngine(t, v)

	got, err := e.PlaceOrder(context.Background(), &model.OrderRequest{
		Symbol: "AAPL", Side: model.OrderSideBuy, Type: model.OrderTypeMarket, Quantity: 10,
	})
	if err != nil {
		t.Fatalf("advisory failure must not block placement: %v", err)
	}
	if got.RiskChecks.MarketHours.Passed {
		t.Error("market hours check should have failed")
	}
	if got.RiskChecks.Score <= 0 {
		t.Error("score should reflect the failed check")
	}
}

func TestTWAPRunsToCompletion(t *testing.T) {
	e := newTestEngine(t, sim.New())

	placed, err := e.PlaceOrder(context.Background(), &model.OrderRequest{
		Symbol: "AAPL", Side: model.OrderSideBuy, Type: model.OrderTypeTWAP,
		Quantity: 100, Duration: 50 * time.Millisecond, SliceCount: 10,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if placed.Status != model.OrderStatusSubmitted {
		t.Fatalf("scheduled order should return Submitted, got %s", placed.Status)
	}

	got := waitForStatus(t, e, placed.OrderID, model.OrderStatusFilled)
	if len(got.Fills) != 10 {
		t.Errorf("expected 10 slices, got %d", len(got.Fills))
	}
	for i, f := range got.Fills {
		if f.Quantity != 10 {
			t.Errorf("slice %d: expected 10, got %d", i, f.Quantity)
		}
	}
}

func TestCancelRestingOrder(t *testing.T) {
	v := sim.New()
	v.Script("AAPL", sim.Outcome{NoLiquidity: true})
	e := newTestEngine(t, v)

	placed, err := e.PlaceOrder(context.Background(), &model.OrderRequest{
		Symbol: "AAPL", Side: model.OrderSideBuy, Type: model.OrderTypeLimit,
		Price: decimal.NewFromInt(95), Quantity: 100, TimeInForce: model.OrderTimeInForceGTC,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if placed.Status != model.OrderStatusSubmitted {
		t.Fatalf("expected resting Submitted order, got %s", placed.Status)
	}

	cancelled, err := e.CancelOrder(context.Background(), placed.OrderID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != model.OrderStatusCancelled {
		t.Errorf("expected Cancelled, got %s", cancelled.Status)
	}

	if _, err := e.CancelOrder(context.Background(), placed.OrderID); !errors.Is(err, ErrAlreadyTerminal) {
		t.Errorf("double cancel: expected ErrAlreadyTerminal, got %v", err)
	}
}

func TestCancelAfterFullFill(t *testing.T) {
	e := newTestEngine(t, sim.New())

	placed, _ := e.PlaceOrder(context.Background(), &model.OrderRequest{
		Symbol: "AAPL", Side: model.OrderSideBuy, Type: model.OrderTypeMarket, Quantity: 10,
	})

	if _, err := e.CancelOrder(context.Background(), placed.OrderID); !errors.Is(err, ErrAlreadyTerminal) {
		t.Errorf("expected ErrAlreadyTerminal, got %v", err)
	}
}

func TestCancelUnknownOrder(t *testing.T) {
	e := newTestEngine(t, sim.New())

	if _, err := e.CancelOrder(context.Background(), "ORD_9999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCommissionAccruesPerFill(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CommissionPerShare = decimal.NewFromFloat(0.01)
	e := New(cfg, sim.New(), account.NewStatic(), nil)
	t.Cleanup(e.Stop)

	got, err := e.PlaceOrder(context.Background(), &model.OrderRequest{
		Symbol: "AAPL", Side: model.OrderSideBuy, Type: model.OrderTypeMarket, Quantity: 100,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if !got.Commission.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected commission 1.00, got %s", got.Commission)
	}
}

func TestGTDOrderExpiresAtDeadline(t *testing.T) {
	v := sim.New()
	v.Script("AAPL", sim.Outcome{NoLiquidity: true})
	e := newTestEngine(t, v)

	placed, err := e.PlaceOrder(context.Background(), &model.OrderRequest{
		Symbol: "AAPL", Side: model.OrderSideBuy, Type: model.OrderTypeLimit,
		Price: decimal.NewFromInt(95), Quantity: 100,
		TimeInForce: model.OrderTimeInForceGTD,
		ExpireAt:    time.Now().Add(100 * time.Millisecond),
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	waitForStatus(t, e, placed.OrderID, model.OrderStatusExpired)
}

func TestEventsRecordLifecycle(t *testing.T) {
	e := newTestEngine(t, sim.New())

	placed, err := e.PlaceOrder(context.Background(), &model.OrderRequest{
		Symbol: "AAPL", Side: model.OrderSideBuy, Type: model.OrderTypeMarket, Quantity: 100,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	evs := e.Events(placed.OrderID)
	if len(evs) < 3 {
		t.Fatalf("expected at least New/Submitted/Trade events, got %d", len(evs))
	}
	if evs[0].ExecType != model.ExecTypeNew {
		t.Errorf("first event should be New, got %s", evs[0].ExecType)
	}
	if evs[1].ExecType != model.ExecTypeSubmitted {
		t.Errorf("second event should be Submitted, got %s", evs[1].ExecType)
	}
	var trades int
	for _, ev := range evs {
		if ev.ExecType == model.ExecTypeTrade {
			trades++
			if ev.Qty == 0 || ev.Price.IsZero() {
				t.Errorf("trade event missing qty/price: %+v", ev)
			}
		}
	}
	if trades == 0 {
		t.Error("expected a trade event")
	}
}

func TestBracketCancelPropagatesToChildren(t *testing.T) {
	e := newTestEngine(t, sim.New())

	placed, err := e.PlaceOrder(context.Background(), &model.OrderRequest{
		Symbol: "AAPL", Side: model.OrderSideBuy, Type: model.OrderTypeBracket,
		Quantity:        50,
		TakeProfitPrice: decimal.NewFromInt(110),
		StopLossPrice:   decimal.NewFromInt(95),
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	// Entry fills immediately; wait for the exits to arm.
	waitForStatus(t, e, placed.OrderID, model.OrderStatusFilled)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(e.store.Children(placed.OrderID)) == 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	kids := e.store.Children(placed.OrderID)
	if len(kids) != 2 {
		t.Fatalf("expected 2 children, got %d", len(kids))
	}

	// Parent is Filled so the cancel targets the live children.
	if _, err := e.CancelOrder(context.Background(), placed.OrderID); !errors.Is(err, ErrAlreadyTerminal) {
		t.Fatalf("expected ErrAlreadyTerminal on filled parent, got %v", err)
	}

	for _, k := range kids {
		if _, err := e.CancelOrder(context.Background(), k.OrderID); err != nil {
			t.Errorf("cancel child %s: %v", k.OrderID, err)
		}
	}
}

func TestAnalyticsSummary(t *testing.T) {
	e := newTestEngine(t, sim.New())
	ctx := context.Background()

	e.PlaceOrder(ctx, &model.OrderRequest{Symbol: "AAPL", Side: model.OrderSideBuy, Type: model.OrderTypeMarket, Quantity: 10})
	e.PlaceOrder(ctx, &model.OrderRequest{Symbol: "MSFT", Side: model.OrderSideSell, Type: model.OrderTypeMarket, Quantity: 20})
	e.PlaceOrder(ctx, &model.OrderRequest{Symbol: "AAPL", Side: model.OrderSideBuy, Type: model.OrderTypeMarket, Quantity: 20_000}) // risk-gated

	s := e.Analytics(ctx)
	if s.TotalOrders != 3 {
		t.Errorf("expected 3 orders, got %d", s.TotalOrders)
	}
	if s.FilledOrders != 2 {
		t.Errorf("expected 2 filled, got %d", s.FilledOrders)
	}
	if s.RejectedOrders != 1 {
		t.Errorf("expected 1 rejected, got %d", s.RejectedOrders)
	}
	if s.BySymbol["AAPL"] != 2 {
		t.Errorf("expected 2 AAPL orders, got %d", s.BySymbol["AAPL"])
	}
}

func TestPositionFromFills(t *testing.T) {
	e := newTestEngine(t, sim.New())
	ctx := context.Background()

	e.PlaceOrder(ctx, &model.OrderRequest{Symbol: "AAPL", Side: model.OrderSideBuy, Type: model.OrderTypeMarket, Quantity: 100})
	e.PlaceOrder(ctx, &model.OrderRequest{Symbol: "AAPL", Side: model.OrderSideSell, Type: model.OrderTypeMarket, Quantity: 40})

	pos, err := e.Position(ctx, "AAPL")
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if pos.NetQuantity != 60 {
		t.Errorf("expected net 60, got %d", pos.NetQuantity)
	}
	// Buys fill at the ask.
	if !pos.AverageCost.Equal(decimal.NewFromFloat(100.10)) {
		t.Errorf("expected average cost 100.10, got %s", pos.AverageCost)
	}
}
