package algo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openexec/execution-engine/pkg/engine/model"
	"github.com/openexec/execution-engine/pkg/venue"
)

// Bracket executes the parent entry immediately, then arms take-profit
// and stop-loss children for the filled quantity. The children behave as
// an OCO pair: the first to trigger cancels the other.
type Bracket struct {
	deps Deps
}

func (a *Bracket) Run(ctx context.Context, order *model.Order) {
	(&Immediate{a.deps}).Run(ctx, order)

	// Wait for the parent entry to fill before arming exits.
	ticker := time.NewTicker(monitorTickInterval)
	defer ticker.Stop()

	var parent *model.Order
	for {
		cur, err := a.deps.Rec.Get(order.OrderID)
		if err != nil {
			return
		}
		if cur.IsTerminal() && cur.Status != model.OrderStatusFilled {
			return
		}
		if cur.Status == model.OrderStatusFilled {
			parent = cur
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}

	plan := parent.Plan.Bracket
	exitSide := model.OrderSideSell
	if parent.Side == model.OrderSideSell {
		exitSide = model.OrderSideBuy
	}

	tp := a.deps.Rec.CreateChild(parent.OrderID, LegTakeProfit, model.OrderTypeLimit, exitSide,
		parent.FilledQuantity, plan.TakeProfitPrice, decimal.Decimal{}, parent.Symbol, model.OrderTimeInForceGTC)
	sl := a.deps.Rec.CreateChild(parent.OrderID, LegStopLoss, model.OrderTypeStop, exitSide,
		parent.FilledQuantity, decimal.Decimal{}, plan.StopLossPrice, parent.Symbol, model.OrderTimeInForceGTC)

	a.monitorExits(ctx, tp, sl)
}

// monitorExits is the per-bracket serialization point for the two exit
// children.
func (a *Bracket) monitorExits(ctx context.Context, tp, sl *model.Order) {
	group := &ocoGroup{}

	ticker := time.NewTicker(monitorTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		tpCur, err := a.deps.Rec.Get(tp.OrderID)
		if err != nil {
			return
		}
		slCur, err := a.deps.Rec.Get(sl.OrderID)
		if err != nil {
			return
		}
		if tpCur.Status == model.OrderStatusFilled || slCur.Status == model.OrderStatusFilled {
			return
		}
		if tpCur.IsTerminal() && slCur.IsTerminal() {
			return
		}

		quote, err := a.deps.Venue.GetQuote(ctx, tpCur.Symbol)
		if err != nil {
			continue
		}

		if winner, ok := group.decided(); ok {
			cur := tpCur
			if winner == LegStopLoss {
				cur = slCur
			}
			a.fillChild(ctx, cur)
			continue
		}

		if limitTriggered(tpCur.Side, tpCur.Price, quote) && group.claim(LegTakeProfit) {
			_, _ = a.deps.Rec.Cancel(sl.OrderID)
			a.fillChild(ctx, tpCur)
			continue
		}
		if stopTriggered(slCur.Side, slCur.StopPrice, quote) && group.claim(LegStopLoss) {
			_, _ = a.deps.Rec.Cancel(tp.OrderID)
			a.fillChild(ctx, slCur)
		}
	}
}

func (a *Bracket) fillChild(ctx context.Context, child *model.Order) {
	if child.IsTerminal() || child.Remaining() == 0 {
		return
	}
	res, err := attemptFill(ctx, a.deps.Venue, venue.FillRequest{
		Symbol:          child.Symbol,
		Side:            child.Side,
		Quantity:        child.Remaining(),
		Type:            child.Type,
		PriceConstraint: priceConstraint(child),
	})
	if err != nil {
		return
	}
	_, _ = a.deps.Rec.RecordFill(child.OrderID, child.Leg, res.FilledQuantity, res.FillPrice)
}
