package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Algorithm string

const (
	AlgorithmImmediate Algorithm = "immediate"
	AlgorithmTWAP      Algorithm = "twap"
	AlgorithmVWAP      Algorithm = "vwap"
	AlgorithmIceberg   Algorithm = "iceberg"
	AlgorithmBracket   Algorithm = "bracket"
	AlgorithmOCO       Algorithm = "oco"
	AlgorithmTrailing  Algorithm = "trailing"
)

// ExecutionPlan is a tagged union keyed by Algorithm. Exactly one of the
// variant pointers is set, matching the algorithm tag. Plans are computed
// once at order creation and never mutated.
type ExecutionPlan struct {
	Algorithm Algorithm

	Immediate *ImmediatePlan
	TWAP      *TWAPPlan
	VWAP      *VWAPPlan
	Iceberg   *IcebergPlan
	Bracket   *BracketPlan
	OCO       *OCOPlan
	Trailing  *TrailingPlan
}

type ImmediatePlan struct {
	// "market" or "limit" intent; stop/stop-limit carry their trigger in
	// the order's StopPrice and are forwarded to the venue as-is.
	ExecutionType string
}

type TWAPPlan struct {
	Duration     time.Duration
	SliceCount   int
	MinSliceSize int64
	MaxSliceSize int64
}

type VWAPPlan struct {
	ParticipationRate float64
	MaxSliceSize      int64
	MinSliceInterval  time.Duration
}

type IcebergPlan struct {
	DisplaySize      int64
	RefreshThreshold float64
	MinRefreshSize   int64
}

type BracketPlan struct {
	TakeProfitPrice    decimal.Decimal
	StopLossPrice      decimal.Decimal
	TakeProfitQuantity int64
	StopLossQuantity   int64
}

// OCOLeg describes one side of an OCO pair.
type OCOLeg struct {
	Type     OrderType
	Price    decimal.Decimal // limit price for take-profit, stop price for stop-loss
	Quantity int64
}

type OCOPlan struct {
	TakeProfit OCOLeg
	StopLoss   OCOLeg
}

type TrailingPlan struct {
	TrailAmount decimal.Decimal
}
