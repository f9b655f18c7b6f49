package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/openexec/execution-engine/pkg/engine/model"
	"github.com/openexec/execution-engine/pkg/venue"
)

func TestScriptedOutcomesConsumeInOrder(t *testing.T) {
	v := New()
	v.Script("AAPL",
		Outcome{NoLiquidity: true},
		Outcome{FillQuantity: 5},
	)

	req := venue.FillRequest{Symbol: "AAPL", Side: model.OrderSideBuy, Quantity: 10, Type: model.OrderTypeMarket}

	if _, err := v.AttemptFill(context.Background(), req); !errors.Is(err, venue.ErrNoLiquidity) {
		t.Errorf("expected ErrNoLiquidity, got %v", err)
	}

	res, err := v.AttemptFill(context.Background(), req)
	if err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if res.FilledQuantity != 5 {
		t.Errorf("expected partial fill 5, got %d", res.FilledQuantity)
	}

	// Script drained: default full fill resumes.
	res, err = v.AttemptFill(context.Background(), req)
	if err != nil || res.FilledQuantity != 10 {
		t.Errorf("expected full fill, got %d err %v", res.FilledQuantity, err)
	}
}

func TestTransientErrorsAreTransient(t *testing.T) {
	v := New()
	v.Script("AAPL", Outcome{Err: errors.New("link down")})

	_, err := v.AttemptFill(context.Background(), venue.FillRequest{Symbol: "AAPL", Quantity: 1, Type: model.OrderTypeMarket})
	if !venue.IsTransient(err) {
		t.Errorf("scripted errors should be transient, got %v", err)
	}
	if venue.IsTransient(venue.ErrNoLiquidity) {
		t.Error("no liquidity is not transient")
	}
}

func TestDefaultPriceRespectsLimit(t *testing.T) {
	v := New()
	v.SetQuote("AAPL", decimal.NewFromInt(100), decimal.NewFromInt(102), decimal.NewFromInt(101))

	// Buy limit above the ask fills at the ask.
	res, err := v.AttemptFill(context.Background(), venue.FillRequest{
		Symbol: "AAPL", Side: model.OrderSideBuy, Quantity: 1,
		Type: model.OrderTypeLimit, PriceConstraint: decimal.NewFromInt(105),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.FillPrice.Equal(decimal.NewFromInt(102)) {
		t.Errorf("expected fill at ask 102, got %s", res.FillPrice)
	}

	// Sell limit below the bid fills at the bid.
	res, err = v.AttemptFill(context.Background(), venue.FillRequest{
		Symbol: "AAPL", Side: model.OrderSideSell, Quantity: 1,
		Type: model.OrderTypeLimit, PriceConstraint: decimal.NewFromInt(95),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.FillPrice.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected fill at bid 100, got %s", res.FillPrice)
	}
}
