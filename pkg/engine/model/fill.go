package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fill is an immutable execution record. Fills are append-only; the store
// never deletes or rewrites one.
type Fill struct {
	OrderID   string
	Leg       string // empty for single-leg orders
	Quantity  int64
	Price     decimal.Decimal
	Timestamp time.Time
}
