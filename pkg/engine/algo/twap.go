package algo

import (
	"context"
	"errors"
	"time"

	"github.com/openexec/execution-engine/pkg/engine/model"
	"github.com/openexec/execution-engine/pkg/venue"
)

// TWAP partitions the quantity into equal slices and attempts one per
// scheduled tick across the plan duration. Slices fail or are skipped
// independently.
type TWAP struct {
	deps Deps
}

func (a *TWAP) Run(ctx context.Context, order *model.Order) {
	plan := order.Plan.TWAP
	interval := plan.Duration / time.Duration(plan.SliceCount)
	if interval <= 0 {
		interval = time.Millisecond
	}
	sliceSize := order.Quantity / int64(plan.SliceCount)
	if sliceSize <= 0 {
		sliceSize = 1
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; i < plan.SliceCount; i++ {
		select {
		case <-ctx.Done():
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

		qty := sliceSize
		if i == plan.SliceCount-1 || qty > remaining {
			qty = remaining // final slice absorbs the remainder
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
				a.deps.Log.Warnw("twap slice skipped", "order_id", cur.OrderID, "slice", i+1, "err", err)
			}
			continue
		}

		if _, err := a.deps.Rec.RecordFill(cur.OrderID, "", res.FilledQuantity, res.FillPrice); err != nil {
			return // cancelled or filled concurrently
		}
	}

	expireRemainder(a.deps, order)
}
