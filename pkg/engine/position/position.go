// Package position derives net positions from fill history. Positions are
// never stored; they are recomputed from the full fill history on demand.
package position

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/openexec/execution-engine/pkg/engine/model"
	"github.com/openexec/execution-engine/pkg/engine/store"
	"github.com/openexec/execution-engine/pkg/venue"
)

type Position struct {
	Symbol        string
	NetQuantity   int64
	AverageCost   decimal.Decimal
	CurrentPrice  decimal.Decimal
	UnrealizedPnL decimal.Decimal
}

type Tracker struct {
	store *store.Store
	venue venue.Venue
}

func NewTracker(s *store.Store, v venue.Venue) *Tracker {
	return &Tracker{store: s, venue: v}
}

// PositionFor folds the fill history for one symbol. Buys move the
// weighted average cost; sells reduce net quantity without touching it.
func (t *Tracker) PositionFor(ctx context.Context, symbol string) (*Position, error) {
	positions := t.fold(model.OrderFilter{Symbol: symbol})
	pos, ok := positions[symbol]
	if !ok {
		pos = &Position{Symbol: symbol}
	}
	t.mark(ctx, pos)
	return pos, nil
}

// Positions folds every symbol with at least one fill.
func (t *Tracker) Positions(ctx context.Context) []*Position {
	positions := t.fold(model.OrderFilter{})
	out := make([]*Position, 0, len(positions))
	for _, p := range positions {
		t.mark(ctx, p)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (t *Tracker) fold(filter model.OrderFilter) map[string]*Position {
	positions := make(map[string]*Position)
	for _, o := range t.store.List(filter) {
		if o.Status != model.OrderStatusFilled && o.Status != model.OrderStatusPartiallyFilled {
			continue
		}
		pos, ok := positions[o.Symbol]
		if !ok {
			pos = &Position{Symbol: o.Symbol}
			positions[o.Symbol] = pos
		}
		for _, f := range o.Fills {
			apply(pos, o.Side, f)
		}
	}
	return positions
}

func apply(pos *Position, side model.OrderSide, f *model.Fill) {
	qty := decimal.NewFromInt(f.Quantity)
	if side == model.OrderSideBuy {
		prev := decimal.NewFromInt(pos.NetQuantity)
		total := prev.Add(qty)
		if !total.IsZero() {
			pos.AverageCost = pos.AverageCost.Mul(prev).Add(f.Price.Mul(qty)).Div(total)
		}
		pos.NetQuantity += f.Quantity
	} else {
		pos.NetQuantity -= f.Quantity
	}
}

func (t *Tracker) mark(ctx context.Context, pos *Position) {
	quote, err := t.venue.GetQuote(ctx, pos.Symbol)
	if err != nil {
		return
	}
	pos.CurrentPrice = quote.Mid()
	net := decimal.NewFromInt(pos.NetQuantity)
	pos.UnrealizedPnL = pos.CurrentPrice.Sub(pos.AverageCost).Mul(net)
}
