package algo

import (
	"context"
	"time"

	"github.com/openexec/execution-engine/pkg/engine/model"
	"github.com/openexec/execution-engine/pkg/venue"
)

// Trailing re-pegs a stop level behind favorable price moves and executes
// a market fill once the market crosses it. A sell trailing stop follows
// a rising bid; a buy trailing stop follows a falling ask.
type Trailing struct {
	deps Deps
}

func (a *Trailing) Run(ctx context.Context, order *model.Order) {
	plan := order.Plan.Trailing
	if plan.TrailAmount.IsZero() {
		// Degenerate trail: behave like a plain stop.
		(&Immediate{a.deps}).Run(ctx, order)
		return
	}

	quote, err := a.deps.Venue.GetQuote(ctx, order.Symbol)
	if err != nil {
		a.deps.Log.Warnw("trailing stop aborted, no quote", "order_id", order.OrderID, "err", err)
		return
	}

	sell := order.Side == model.OrderSideSell
	var stop = order.StopPrice
	if stop.IsZero() {
		if sell {
			stop = quote.Bid.Sub(plan.TrailAmount)
		} else {
			stop = quote.Ask.Add(plan.TrailAmount)
		}
	}

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

		if sell {
			if repegged := quote.Bid.Sub(plan.TrailAmount); repegged.GreaterThan(stop) {
				stop = repegged
			}
			if quote.Bid.LessThanOrEqual(stop) {
				a.trigger(ctx, cur)
				return
			}
		} else {
			if repegged := quote.Ask.Add(plan.TrailAmount); repegged.LessThan(stop) {
				stop = repegged
			}
			if quote.Ask.GreaterThanOrEqual(stop) {
				a.trigger(ctx, cur)
				return
			}
		}
	}
}

func (a *Trailing) trigger(ctx context.Context, cur *model.Order) {
	res, err := attemptFill(ctx, a.deps.Venue, venue.FillRequest{
		Symbol:   cur.Symbol,
		Side:     cur.Side,
		Quantity: cur.Remaining(),
		Type:     model.OrderTypeMarket,
	})
	if err != nil {
		a.deps.Log.Warnw("trailing stop trigger failed", "order_id", cur.OrderID, "err", err)
		return
	}
	_, _ = a.deps.Rec.RecordFill(cur.OrderID, "", res.FilledQuantity, res.FillPrice)
}
