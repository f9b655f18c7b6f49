// Package algo contains the execution algorithms. Each algorithm owns one
// order for its lifetime and drives store transitions through the
// Recorder; it never touches the order table directly.
package algo

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openexec/execution-engine/pkg/engine/model"
	"github.com/openexec/execution-engine/pkg/venue"
)

// Recorder is the engine-side sink for order mutations. Implementations
// apply the state machine and emit reports/events.
type Recorder interface {
	RecordFill(orderID, leg string, qty int64, price decimal.Decimal) (*model.Order, error)
	Expire(orderID string) (*model.Order, error)
	Cancel(orderID string) (*model.Order, error)
	CreateChild(parentID, leg string, typ model.OrderType, side model.OrderSide, qty int64, price, stopPrice decimal.Decimal, symbol string, tif model.OrderTimeInForce) *model.Order
	Get(orderID string) (*model.Order, error)
	// ReportLegCancelled records that the losing leg of an OCO pair was
	// cancelled, for legs that are plan entries rather than store orders.
	ReportLegCancelled(orderID, leg string)
}

type Deps struct {
	Venue venue.Venue
	Rec   Recorder
	Log   *zap.SugaredLogger
}

// Algorithm drives one order to completion. Run blocks until the order is
// terminal, the remainder is intentionally left resting, or ctx is
// cancelled; it must be idempotent with respect to already-recorded
// fills.
type Algorithm interface {
	Run(ctx context.Context, order *model.Order)
}

// ForPlan returns the algorithm matching the order's plan. Fixed dispatch
// over the tagged union; new order types mean touching this switch.
func ForPlan(plan *model.ExecutionPlan, deps Deps) Algorithm {
	switch plan.Algorithm {
	case model.AlgorithmTWAP:
		return &TWAP{deps}
	case model.AlgorithmVWAP:
		return &VWAP{deps}
	case model.AlgorithmIceberg:
		return &Iceberg{deps}
	case model.AlgorithmBracket:
		return &Bracket{deps}
	case model.AlgorithmOCO:
		return &OCO{deps}
	case model.AlgorithmTrailing:
		return &Trailing{deps}
	default:
		return &Immediate{deps}
	}
}

// expireRemainder closes out an order whose schedule ended with quantity
// outstanding: FOK/IOC remainders are cancelled, everything else expires.
func expireRemainder(deps Deps, order *model.Order) {
	cur, err := deps.Rec.Get(order.OrderID)
	if err != nil || cur.IsTerminal() || cur.Remaining() == 0 {
		return
	}
	switch cur.TimeInForce {
	case model.OrderTimeInForceFOK, model.OrderTimeInForceIOC:
		_, _ = deps.Rec.Cancel(order.OrderID)
	default:
		_, _ = deps.Rec.Expire(order.OrderID)
	}
}
