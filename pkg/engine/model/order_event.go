package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderExecType string

const (
	ExecTypeNew       OrderExecType = "New"
	ExecTypeSubmitted OrderExecType = "Submitted"
	ExecTypeTrade     OrderExecType = "Trade"
	ExecTypeCancelled OrderExecType = "Cancelled"
	ExecTypeRejected  OrderExecType = "Rejected"
	ExecTypeExpired   OrderExecType = "Expired"
)

// OrderEvent is one entry of the append-only audit trail. Qty/Price are
// only set for trade events.
type OrderEvent struct {
	EventID   string
	OrderID   string
	Symbol    string
	ExecType  OrderExecType
	Status    OrderStatus
	Leg       string
	Qty       int64
	Price     decimal.Decimal
	Timestamp time.Time
}

func NewOrderEvent(o Order, execType OrderExecType, ts time.Time) *OrderEvent {
	return &OrderEvent{
		EventID:   uuid.New().String(),
		OrderID:   o.OrderID,
		Symbol:    o.Symbol,
		ExecType:  execType,
		Status:    o.Status,
		Timestamp: ts,
	}
}

func NewTradeEvent(o Order, qty int64, price decimal.Decimal, ts time.Time) *OrderEvent {
	ev := NewOrderEvent(o, ExecTypeTrade, ts)
	ev.Qty = qty
	ev.Price = price
	return ev
}
