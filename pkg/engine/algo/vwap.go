package algo

import (
	"context"
	"errors"
	"time"

	"github.com/openexec/execution-engine/pkg/engine/model"
	"github.com/openexec/execution-engine/pkg/venue"
)

// VWAP participates in observed venue volume: each tick fills
// min(remaining, venue_volume x participation_rate, max_slice_size).
type VWAP struct {
	deps Deps
}

func (a *VWAP) Run(ctx context.Context, order *model.Order) {
	plan := order.Plan.VWAP

	ticker := time.NewTicker(plan.MinSliceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			expireRemainder(a.deps, order)
			return
		case <-ticker.C:
		}

		cur, err := a.deps.Rec.Get(order.OrderID)
		if err != nil || cur.IsTerminal() {
			return
		}
		remaining := cur.Remaining()
		if remaining == 0 {
			return
		}

		vol, err := a.deps.Venue.GetRecentVolume(ctx, cur.Symbol, plan.MinSliceInterval)
		if err != nil {
			a.deps.Log.Warnw("vwap volume query failed", "order_id", cur.OrderID, "err", err)
			continue
		}

		target := int64(float64(vol) * plan.ParticipationRate)
		qty := min64(remaining, target, plan.MaxSliceSize)
		if qty <= 0 {
			continue
		}

		res, err := attemptFill(ctx, a.deps.Venue, venue.FillRequest{
			Symbol:          cur.Symbol,
			Side:            cur.Side,
			Quantity:        qty,
			Type:            model.OrderTypeMarket,
			PriceConstraint: cur.Price,
		})
		if err != nil {
			if !errors.Is(err, venue.ErrNoLiquidity) {
				a.deps.Log.Warnw("vwap slice skipped", "order_id", cur.OrderID, "err", err)
			}
			continue
		}

		if _, err := a.deps.Rec.RecordFill(cur.OrderID, "", res.FilledQuantity, res.FillPrice); err != nil {
			return
		}
	}
}

func min64(vals ...int64) int64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
