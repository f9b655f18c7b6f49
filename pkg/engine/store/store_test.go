package store

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/openexec/execution-engine/pkg/engine/model"
)

func newTestStore() *Store {
	return New(NewCounter(1000))
}

func marketBuy(qty int64) *model.OrderRequest {
	return &model.OrderRequest{
		Symbol:   "AAPL",
		Side:     model.OrderSideBuy,
		Type:     model.OrderTypeMarket,
		Quantity: qty,
	}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	s := newTestStore()

	o1 := s.Create(marketBuy(10), nil, nil)
	o2 := s.Create(marketBuy(10), nil, nil)

	if o1.OrderID != "ORD_1000" || o2.OrderID != "ORD_1001" {
		t.Errorf("unexpected ids: %s, %s", o1.OrderID, o2.OrderID)
	}
	if o1.Status != model.OrderStatusPending {
		t.Errorf("new order should be Pending, got %s", o1.Status)
	}
	if o1.TimeInForce != model.OrderTimeInForceDAY {
		t.Errorf("default time in force should be DAY, got %s", o1.TimeInForce)
	}
}

func TestFullFillLifecycle(t *testing.T) {
	s := newTestStore()
	o := s.Create(marketBuy(100), nil, nil)

	if _, err := s.MarkSubmitted(o.OrderID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	got, err := s.RecordFill(o.OrderID, "", 40, decimal.NewFromInt(100), decimal.Zero)
	if err != nil {
		t.Fatalf("first fill: %v", err)
	}
	if got.Status != model.OrderStatusPartiallyFilled {
		t.Errorf("expected PartiallyFilled, got %s", got.Status)
	}

	got, err = s.RecordFill(o.OrderID, "", 60, decimal.NewFromInt(102), decimal.Zero)
	if err != nil {
		t.Fatalf("second fill: %v", err)
	}
	if got.Status != model.OrderStatusFilled {
		t.Errorf("expected Filled, got %s", got.Status)
	}
	if got.FilledQuantity != 100 {
		t.Errorf("expected filled 100, got %d", got.FilledQuantity)
	}

	// 40@100 + 60@102 -> 101.2
	want := decimal.NewFromFloat(101.2)
	if !got.AverageFillPrice.Equal(want) {
		t.Errorf("expected avg price %s, got %s", want, got.AverageFillPrice)
	}
	if len(got.Fills) != 2 {
		t.Errorf("expected 2 fills, got %d", len(got.Fills))
	}
}

func TestOverfillRefused(t *testing.T) {
	s := newTestStore()
	o := s.Create(marketBuy(100), nil, nil)
	s.MarkSubmitted(o.OrderID)

	if _, err := s.RecordFill(o.OrderID, "", 101, decimal.NewFromInt(100), decimal.Zero); err != ErrOverfill {
		t.Errorf("expected ErrOverfill, got %v", err)
	}

	s.RecordFill(o.OrderID, "", 90, decimal.NewFromInt(100), decimal.Zero)
	if _, err := s.RecordFill(o.OrderID, "", 20, decimal.NewFromInt(100), decimal.Zero); err != ErrOverfill {
		t.Errorf("expected ErrOverfill on remainder, got %v", err)
	}
}

func TestFillOnPendingRefused(t *testing.T) {
	s := newTestStore()
	o := s.Create(marketBuy(100), nil, nil)

	if _, err := s.RecordFill(o.OrderID, "", 10, decimal.NewFromInt(100), decimal.Zero); err == nil {
		t.Error("expected error filling a Pending order")
	}
}

func TestCancelTerminalStates(t *testing.T) {
	s := newTestStore()

	o := s.Create(marketBuy(100), nil, nil)
	s.MarkSubmitted(o.OrderID)
	s.RecordFill(o.OrderID, "", 100, decimal.NewFromInt(100), decimal.Zero)

	if _, err := s.Cancel(o.OrderID); err != ErrAlreadyTerminal {
		t.Errorf("cancel after full fill: expected ErrAlreadyTerminal, got %v", err)
	}

	o2 := s.Create(marketBuy(100), nil, nil)
	s.MarkSubmitted(o2.OrderID)
	if _, err := s.Cancel(o2.OrderID); err != nil {
		t.Fatalf("cancel submitted: %v", err)
	}
	if _, err := s.Cancel(o2.OrderID); err != ErrAlreadyTerminal {
		t.Errorf("double cancel: expected ErrAlreadyTerminal, got %v", err)
	}
	if _, err := s.RecordFill(o2.OrderID, "", 10, decimal.NewFromInt(100), decimal.Zero); err == nil {
		t.Error("expected error filling a Cancelled order")
	}
}

func TestCancelPartiallyFilledKeepsFills(t *testing.T) {
	s := newTestStore()
	o := s.Create(marketBuy(100), nil, nil)
	s.MarkSubmitted(o.OrderID)
	s.RecordFill(o.OrderID, "", 30, decimal.NewFromInt(100), decimal.Zero)

	got, err := s.Cancel(o.OrderID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != model.OrderStatusCancelled {
		t.Errorf("expected Cancelled, got %s", got.Status)
	}
	if got.FilledQuantity != 30 || len(got.Fills) != 1 {
		t.Errorf("fills lost on cancel: qty=%d fills=%d", got.FilledQuantity, len(got.Fills))
	}
}

func TestRejectOnlyFromPending(t *testing.T) {
	s := newTestStore()
	o := s.Create(marketBuy(100), nil, nil)

	got, err := s.Reject(o.OrderID, "position_size")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Status != model.OrderStatusRejected {
		t.Errorf("expected Rejected, got %s", got.Status)
	}
	if got.Metadata["reject_reason"] != "position_size" {
		t.Errorf("reject reason not recorded: %v", got.Metadata)
	}

	o2 := s.Create(marketBuy(100), nil, nil)
	s.MarkSubmitted(o2.OrderID)
	if _, err := s.Reject(o2.OrderID, "x"); err == nil {
		t.Error("expected error rejecting a Submitted order")
	}
}

func TestExpireWithRemainder(t *testing.T) {
	s := newTestStore()
	o := s.Create(marketBuy(100), nil, nil)
	s.MarkSubmitted(o.OrderID)
	s.RecordFill(o.OrderID, "", 70, decimal.NewFromInt(100), decimal.Zero)

	got, err := s.Expire(o.OrderID)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if got.Status != model.OrderStatusExpired {
		t.Errorf("expected Expired, got %s", got.Status)
	}
	if got.FilledQuantity != 70 {
		t.Errorf("fills lost on expire: %d", got.FilledQuantity)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := newTestStore()
	o := s.Create(marketBuy(100), nil, nil)

	got, _ := s.Get(o.OrderID)
	got.Status = model.OrderStatusFilled

	again, _ := s.Get(o.OrderID)
	if again.Status != model.OrderStatusPending {
		t.Error("mutating a returned order leaked into the store")
	}
}

func TestListInCreationOrder(t *testing.T) {
	s := newTestStore()
	s.Create(marketBuy(1), nil, nil)
	s.Create(&model.OrderRequest{Symbol: "MSFT", Side: model.OrderSideSell, Type: model.OrderTypeMarket, Quantity: 2}, nil, nil)
	s.Create(marketBuy(3), nil, nil)

	all := s.List(model.OrderFilter{})
	if len(all) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(all))
	}
	if all[0].OrderID != "ORD_1000" || all[2].OrderID != "ORD_1002" {
		t.Errorf("listing not in creation order: %s, %s", all[0].OrderID, all[2].OrderID)
	}

	aapl := s.List(model.OrderFilter{Symbol: "AAPL"})
	if len(aapl) != 2 {
		t.Errorf("expected 2 AAPL orders, got %d", len(aapl))
	}
}

func TestChildren(t *testing.T) {
	s := newTestStore()
	parent := s.Create(marketBuy(100), nil, nil)

	tp := s.CreateChild(parent.OrderID, "take_profit", model.OrderTypeLimit, model.OrderSideSell, 100, decimal.NewFromInt(110), decimal.Zero, "AAPL", model.OrderTimeInForceGTC)
	if tp.Status != model.OrderStatusSubmitted {
		t.Errorf("child should start Submitted, got %s", tp.Status)
	}
	if tp.ParentID != parent.OrderID {
		t.Errorf("child missing parent back-reference: %s", tp.ParentID)
	}

	kids := s.Children(parent.OrderID)
	if len(kids) != 1 || kids[0].Leg != "take_profit" {
		t.Errorf("unexpected children: %+v", kids)
	}
}

func TestEvictTerminal(t *testing.T) {
	s := newTestStore()
	o1 := s.Create(marketBuy(1), nil, nil)
	s.MarkSubmitted(o1.OrderID)
	s.RecordFill(o1.OrderID, "", 1, decimal.NewFromInt(100), decimal.Zero)
	o2 := s.Create(marketBuy(1), nil, nil)

	if n := s.EvictTerminal(0); n != 1 {
		t.Errorf("expected 1 evicted, got %d", n)
	}
	if _, err := s.Get(o1.OrderID); err != ErrNotFound {
		t.Errorf("evicted order still present: %v", err)
	}
	if _, err := s.Get(o2.OrderID); err != nil {
		t.Errorf("live order evicted: %v", err)
	}
}
