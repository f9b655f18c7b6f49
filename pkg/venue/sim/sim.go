// Package sim is a deterministic, scriptable Venue. It replaces live
// market access in tests and local runs: outcomes are either scripted per
// symbol or derived from the configured quote, never random.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/shopspring/decimal"

	"github.com/openexec/execution-engine/pkg/engine/model"
	"github.com/openexec/execution-engine/pkg/venue"
)

// Outcome scripts one AttemptFill response. Zero value means "fill fully
// at the default price".
type Outcome struct {
	// FillQuantity caps the filled quantity; 0 means fill the full request.
	FillQuantity int64
	// FillPrice overrides the default fill price when non-zero.
	FillPrice decimal.Decimal
	// NoLiquidity reports venue.ErrNoLiquidity.
	NoLiquidity bool
	// Err reports a transient venue error.
	Err error
}

type symbolState struct {
	quote      venue.Quote
	volume     int64
	marketOpen bool
	script     deque.Deque[Outcome]
}

// Venue is the simulator. Safe for concurrent use.
type Venue struct {
	mu       sync.Mutex
	symbols  map[string]*symbolState
	requests []venue.FillRequest
}

var _ venue.Venue = (*Venue)(nil)

func New() *Venue {
	return &Venue{symbols: make(map[string]*symbolState)}
}

func (v *Venue) state(symbol string) *symbolState {
	st, ok := v.symbols[symbol]
	if !ok {
		st = &symbolState{
			quote: venue.Quote{
				Bid:  decimal.NewFromInt(100),
				Ask:  decimal.NewFromFloat(100.10),
				Last: decimal.NewFromFloat(100.05),
			},
			volume:     1_000_000,
			marketOpen: true,
		}
		v.symbols[symbol] = st
	}
	return st
}

func (v *Venue) SetQuote(symbol string, bid, ask, last decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state(symbol).quote = venue.Quote{Bid: bid, Ask: ask, Last: last}
}

func (v *Venue) SetVolume(symbol string, volume int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state(symbol).volume = volume
}

func (v *Venue) SetMarketOpen(symbol string, open bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state(symbol).marketOpen = open
}

// Script queues outcomes consumed in order by subsequent AttemptFill
// calls. When the queue runs dry the default full-fill behavior resumes.
func (v *Venue) Script(symbol string, outcomes ...Outcome) {
	v.mu.Lock()
	defer v.mu.Unlock()
	st := v.state(symbol)
	for _, o := range outcomes {
		st.script.PushBack(o)
	}
}

// Requests returns a copy of every fill attempt seen, in order.
func (v *Venue) Requests() []venue.FillRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]venue.FillRequest, len(v.requests))
	copy(out, v.requests)
	return out
}

func (v *Venue) GetQuote(_ context.Context, symbol string) (venue.Quote, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state(symbol).quote, nil
}

func (v *Venue) GetRecentVolume(_ context.Context, symbol string, _ time.Duration) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state(symbol).volume, nil
}

func (v *Venue) IsMarketOpen(_ context.Context, symbol string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state(symbol).marketOpen, nil
}

func (v *Venue) AttemptFill(_ context.Context, req venue.FillRequest) (venue.FillResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.requests = append(v.requests, req)
	st := v.state(req.Symbol)

	var out Outcome
	if st.script.Len() > 0 {
		out = st.script.Front()
		st.script.PopFront()
	}

	if out.Err != nil {
		return venue.FillResult{}, &venue.Error{Op: "attempt_fill", Err: out.Err}
	}
	if out.NoLiquidity {
		return venue.FillResult{}, venue.ErrNoLiquidity
	}

	qty := req.Quantity
	if out.FillQuantity > 0 && out.FillQuantity < qty {
		qty = out.FillQuantity
	}

	price := out.FillPrice
	if price.IsZero() {
		price = v.defaultPrice(st.quote, req)
	}

	return venue.FillResult{FilledQuantity: qty, FillPrice: price}, nil
}

// defaultPrice is direction-aware: market orders take the touch, limit
// orders take the better of limit price and quote.
func (v *Venue) defaultPrice(q venue.Quote, req venue.FillRequest) decimal.Decimal {
	market := q.Ask
	if req.Side == model.OrderSideSell {
		market = q.Bid
	}
	if market.IsZero() {
		market = q.Last
	}

	switch req.Type {
	case model.OrderTypeLimit, model.OrderTypeStopLimit:
		if req.PriceConstraint.IsZero() {
			return market
		}
		if req.Side == model.OrderSideBuy && market.LessThan(req.PriceConstraint) {
			return market
		}
		if req.Side == model.OrderSideSell && market.GreaterThan(req.PriceConstraint) {
			return market
		}
		return req.PriceConstraint
	default:
		return market
	}
}
