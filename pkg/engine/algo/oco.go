package algo

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openexec/execution-engine/pkg/engine/model"
	"github.com/openexec/execution-engine/pkg/venue"
)

const (
	LegTakeProfit = "take_profit"
	LegStopLoss   = "stop_loss"
)

const monitorTickInterval = 50 * time.Millisecond

// ocoGroup is the per-pair serialization point. The first leg to claim it
// wins; the sibling can never fill afterwards, even under concurrent
// trigger notifications.
type ocoGroup struct {
	mu     sync.Mutex
	winner string
}

// claim reports whether leg owns the group, electing it when the group is
// still open.
func (g *ocoGroup) claim(leg string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.winner == "" {
		g.winner = leg
	}
	return g.winner == leg
}

func (g *ocoGroup) decided() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.winner, g.winner != ""
}

// OCO arms both plan legs and fills whichever triggers first; fills are
// recorded on the parent order attributed to the winning leg, and the
// sibling leg is cancelled.
type OCO struct {
	deps Deps
}

func (a *OCO) Run(ctx context.Context, order *model.Order) {
	plan := order.Plan.OCO
	group := &ocoGroup{}

	ticker := time.NewTicker(monitorTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cur, err := a.deps.Rec.Get(order.OrderID)
		if err != nil || cur.IsTerminal() {
			return
		}
		if cur.Remaining() == 0 {
			return
		}

		quote, err := a.deps.Venue.GetQuote(ctx, cur.Symbol)
		if err != nil {
			continue
		}

		if winner, ok := group.decided(); ok {
			// Keep working only the winning leg until done.
			a.fillLeg(ctx, cur, winner, legOf(plan, winner))
			continue
		}

		if limitTriggered(cur.Side, plan.TakeProfit.Price, quote) && group.claim(LegTakeProfit) {
			a.deps.Rec.ReportLegCancelled(cur.OrderID, LegStopLoss)
			a.fillLeg(ctx, cur, LegTakeProfit, plan.TakeProfit)
			continue
		}
		if stopTriggered(cur.Side, plan.StopLoss.Price, quote) && group.claim(LegStopLoss) {
			a.deps.Rec.ReportLegCancelled(cur.OrderID, LegTakeProfit)
			a.fillLeg(ctx, cur, LegStopLoss, plan.StopLoss)
		}
	}
}

func (a *OCO) fillLeg(ctx context.Context, cur *model.Order, leg string, spec model.OCOLeg) {
	constraint := spec.Price
	res, err := attemptFill(ctx, a.deps.Venue, venue.FillRequest{
		Symbol:          cur.Symbol,
		Side:            cur.Side,
		Quantity:        cur.Remaining(),
		Type:            spec.Type,
		PriceConstraint: constraint,
	})
	if err != nil {
		return
	}
	_, _ = a.deps.Rec.RecordFill(cur.OrderID, leg, res.FilledQuantity, res.FillPrice)
}

func legOf(plan *model.OCOPlan, leg string) model.OCOLeg {
	if leg == LegTakeProfit {
		return plan.TakeProfit
	}
	return plan.StopLoss
}

// limitTriggered reports whether the market is at or better than the
// limit price for side.
func limitTriggered(side model.OrderSide, price decimal.Decimal, q venue.Quote) bool {
	if price.IsZero() {
		return false
	}
	if side == model.OrderSideBuy {
		return q.Ask.LessThanOrEqual(price)
	}
	return q.Bid.GreaterThanOrEqual(price)
}

// stopTriggered reports whether the market has crossed the stop trigger
// for side.
func stopTriggered(side model.OrderSide, stop decimal.Decimal, q venue.Quote) bool {
	if stop.IsZero() {
		return false
	}
	if side == model.OrderSideBuy {
		return q.Ask.GreaterThanOrEqual(stop)
	}
	return q.Bid.LessThanOrEqual(stop)
}
