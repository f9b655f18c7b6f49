package algo

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/openexec/execution-engine/pkg/engine/model"
	"github.com/openexec/execution-engine/pkg/venue"
)

// Immediate handles market, limit, stop and stop-limit orders: one venue
// attempt, then either a fill, a resting Submitted order, or an IOC/FOK
// close-out.
type Immediate struct {
	deps Deps
}

func (a *Immediate) Run(ctx context.Context, order *model.Order) {
	cur, err := a.deps.Rec.Get(order.OrderID)
	if err != nil || cur.IsTerminal() || cur.Remaining() == 0 {
		return
	}

	res, err := attemptFill(ctx, a.deps.Venue, venue.FillRequest{
		Symbol:          cur.Symbol,
		Side:            cur.Side,
		Quantity:        cur.Remaining(),
		Type:            cur.Type,
		PriceConstraint: priceConstraint(cur),
	})
	if err != nil {
		if errors.Is(err, venue.ErrNoLiquidity) {
			// Rests as Submitted unless the time in force forbids it.
			switch cur.TimeInForce {
			case model.OrderTimeInForceIOC:
				_, _ = a.deps.Rec.Expire(cur.OrderID)
			case model.OrderTimeInForceFOK:
				_, _ = a.deps.Rec.Cancel(cur.OrderID)
			}
			return
		}
		a.deps.Log.Warnw("immediate fill attempt failed", "order_id", cur.OrderID, "err", err)
		return
	}

	if cur.TimeInForce == model.OrderTimeInForceFOK && res.FilledQuantity < cur.Remaining() {
		_, _ = a.deps.Rec.Cancel(cur.OrderID)
		return
	}

	if _, err := a.deps.Rec.RecordFill(cur.OrderID, "", res.FilledQuantity, res.FillPrice); err != nil {
		a.deps.Log.Warnw("record fill failed", "order_id", cur.OrderID, "err", err)
		return
	}

	if cur.TimeInForce == model.OrderTimeInForceIOC {
		expireRemainder(a.deps, cur)
	}
}

// priceConstraint picks the venue-facing constraint: limit price for
// limit-style orders, stop trigger for plain stops, none for market.
func priceConstraint(o *model.Order) decimal.Decimal {
	switch o.Type {
	case model.OrderTypeLimit, model.OrderTypeStopLimit:
		return o.Price
	case model.OrderTypeStop:
		return o.StopPrice
	default:
		return decimal.Decimal{}
	}
}
