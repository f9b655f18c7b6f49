// Package venue defines the market-access contract the engine depends on.
// The engine never matches orders itself; a Venue supplies quotes and
// volume and accepts fill attempts.
package venue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openexec/execution-engine/pkg/engine/model"
)

// ErrNoLiquidity means the venue could not fill any quantity right now.
// Not a transient failure; the order rests.
var ErrNoLiquidity = errors.New("no liquidity")

// Error is a transient venue failure (timeout, rejection). Slice attempts
// wrap these in retry with backoff.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("venue: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable venue error.
func IsTransient(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

type Quote struct {
	Bid  decimal.Decimal
	Ask  decimal.Decimal
	Last decimal.Decimal
}

// Mid returns the bid/ask midpoint, falling back to last when one side is
// missing.
func (q Quote) Mid() decimal.Decimal {
	if q.Bid.IsZero() || q.Ask.IsZero() {
		return q.Last
	}
	return q.Bid.Add(q.Ask).Div(decimal.NewFromInt(2))
}

// FillRequest is one attempt against the venue. PriceConstraint is the
// limit price for limit-style types, the stop trigger for stop types, and
// zero for market.
type FillRequest struct {
	Symbol          string
	Side            model.OrderSide
	Quantity        int64
	Type            model.OrderType
	PriceConstraint decimal.Decimal
}

type FillResult struct {
	FilledQuantity int64
	FillPrice      decimal.Decimal
}

type Venue interface {
	GetQuote(ctx context.Context, symbol string) (Quote, error)
	GetRecentVolume(ctx context.Context, symbol string, window time.Duration) (int64, error)
	IsMarketOpen(ctx context.Context, symbol string) (bool, error)

	// AttemptFill returns the filled quantity and price, ErrNoLiquidity
	// when nothing can fill, or *Error on transient failure.
	AttemptFill(ctx context.Context, req FillRequest) (FillResult, error)
}
