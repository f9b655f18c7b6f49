package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRequest is the client-facing placement request. Optional algorithm
// parameters default from the planner when zero.
type OrderRequest struct {
	Symbol      string
	Side        OrderSide
	Type        OrderType
	Quantity    int64
	Price       decimal.Decimal
	StopPrice   decimal.Decimal
	TimeInForce OrderTimeInForce
	ExpireAt    time.Time // GTD only
	Metadata    map[string]string

	// TWAP
	Duration   time.Duration
	SliceCount int

	// VWAP
	ParticipationRate float64
	SliceInterval     time.Duration

	// Iceberg
	DisplaySize int64

	// Bracket / OCO
	TakeProfitPrice decimal.Decimal
	StopLossPrice   decimal.Decimal

	// Trailing stop
	TrailAmount decimal.Decimal
}

type OrderFilter struct {
	Status *OrderStatus
	Symbol string
	Side   *OrderSide
	Type   *OrderType
}

func (f OrderFilter) Match(o *Order) bool {
	if f.Status != nil && o.Status != *f.Status {
		return false
	}
	if f.Symbol != "" && o.Symbol != f.Symbol {
		return false
	}
	if f.Side != nil && o.Side != *f.Side {
		return false
	}
	if f.Type != nil && o.Type != *f.Type {
		return false
	}
	return true
}
