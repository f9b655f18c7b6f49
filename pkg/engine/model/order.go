package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "Pending"
	OrderStatusSubmitted       OrderStatus = "Submitted"
	OrderStatusPartiallyFilled OrderStatus = "PartiallyFilled"
	OrderStatusFilled          OrderStatus = "Filled"
	OrderStatusCancelled       OrderStatus = "Cancelled"
	OrderStatusRejected        OrderStatus = "Rejected"
	OrderStatusExpired         OrderStatus = "Expired"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

type OrderType string

const (
	OrderTypeMarket       OrderType = "MARKET"
	OrderTypeLimit        OrderType = "LIMIT"
	OrderTypeStop         OrderType = "STOP"
	OrderTypeStopLimit    OrderType = "STOP_LIMIT"
	OrderTypeTrailingStop OrderType = "TRAILING_STOP"
	OrderTypeBracket      OrderType = "BRACKET"
	OrderTypeOCO          OrderType = "OCO"
	OrderTypeIceberg      OrderType = "ICEBERG"
	OrderTypeTWAP         OrderType = "TWAP"
	OrderTypeVWAP         OrderType = "VWAP"
)

type OrderTimeInForce string

const (
	OrderTimeInForceDAY OrderTimeInForce = "DAY"
	OrderTimeInForceGTC OrderTimeInForce = "GTC"
	OrderTimeInForceIOC OrderTimeInForce = "IOC"
	OrderTimeInForceFOK OrderTimeInForce = "FOK"
	OrderTimeInForceGTD OrderTimeInForce = "GTD"
)

// Order is the central entity owned by the store. Everything under
// "request info" is immutable after creation; the store is the only
// component allowed to touch the lifecycle fields.
type Order struct {
	OrderID string

	// request info
	Symbol      string
	Side        OrderSide
	Type        OrderType
	TimeInForce OrderTimeInForce
	Quantity    int64
	Price       decimal.Decimal
	StopPrice   decimal.Decimal
	ExpireAt    time.Time
	Metadata    map[string]string

	// computed once at creation
	RiskChecks *RiskCheckResult
	Plan       *ExecutionPlan

	// multi-leg linkage
	ParentID string
	Leg      string // "take_profit" | "stop_loss" for bracket/OCO children

	// lifecycle
	Status           OrderStatus
	FilledQuantity   int64
	AverageFillPrice decimal.Decimal
	Commission       decimal.Decimal
	Fees             decimal.Decimal
	Fills            []*Fill
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected, OrderStatusExpired:
		return true
	}
	return false
}

func (o *Order) CanCancel() bool {
	return !o.IsTerminal()
}

func (o *Order) Remaining() int64 {
	return o.Quantity - o.FilledQuantity
}

// Clone returns a deep copy safe to hand to readers while the store keeps
// mutating the original.
func (o *Order) Clone() *Order {
	cp := *o
	if o.Fills != nil {
		cp.Fills = make([]*Fill, len(o.Fills))
		for i, f := range o.Fills {
			fcp := *f
			cp.Fills[i] = &fcp
		}
	}
	if o.Metadata != nil {
		cp.Metadata = make(map[string]string, len(o.Metadata))
		for k, v := range o.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}
