package algo

import (
	"context"
	"errors"
	"time"

	"github.com/openexec/execution-engine/pkg/engine/model"
	"github.com/openexec/execution-engine/pkg/venue"
)

// Iceberg exposes at most DisplaySize to the venue at a time. Once the
// displayed tranche is consumed past RefreshThreshold it is replenished
// from the hidden remainder.
type Iceberg struct {
	deps Deps
}

const icebergTickInterval = 50 * time.Millisecond

func (a *Iceberg) Run(ctx context.Context, order *model.Order) {
	plan := order.Plan.Iceberg

	ticker := time.NewTicker(icebergTickInterval)
	defer ticker.Stop()

	displayed := int64(0) // quantity currently shown to the venue

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

		// Replenish once the displayed tranche is consumed below the
		// refresh threshold of the display size.
		refreshFloor := int64(float64(plan.DisplaySize) * (1 - plan.RefreshThreshold))
		if displayed <= refreshFloor {
			displayed = plan.DisplaySize
			if displayed < plan.MinRefreshSize {
				displayed = plan.MinRefreshSize
			}
		}
		if displayed > remaining {
			displayed = remaining
		}
		if displayed <= 0 {
			continue
		}

		res, err := attemptFill(ctx, a.deps.Venue, venue.FillRequest{
			Symbol:          cur.Symbol,
			Side:            cur.Side,
			Quantity:        displayed,
			Type:            model.OrderTypeLimit,
			PriceConstraint: cur.Price,
		})
		if err != nil {
			if !errors.Is(err, venue.ErrNoLiquidity) {
				a.deps.Log.Warnw("iceberg tranche skipped", "order_id", cur.OrderID, "err", err)
			}
			continue
		}

		if _, err := a.deps.Rec.RecordFill(cur.OrderID, "", res.FilledQuantity, res.FillPrice); err != nil {
			return
		}
		displayed -= res.FilledQuantity
	}
}
