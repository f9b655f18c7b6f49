package engine

import (
	"time"

	"github.com/openexec/execution-engine/pkg/engine/model"
)

const (
	defaultTWAPDuration      = 60 * time.Minute
	defaultTWAPSlices        = 10
	defaultParticipationRate = 0.10
	defaultVWAPInterval      = 30 * time.Second
	icebergRefreshThreshold  = 0.8
)

// buildPlan translates a validated request into an execution plan. Pure
// function of the request; computed exactly once per order.
func buildPlan(req *model.OrderRequest) *model.ExecutionPlan {
	switch req.Type {
	case model.OrderTypeTWAP:
		duration := req.Duration
		if duration <= 0 {
			duration = defaultTWAPDuration
		}
		slices := req.SliceCount
		if slices <= 0 {
			slices = defaultTWAPSlices
		}
		return &model.ExecutionPlan{
			Algorithm: model.AlgorithmTWAP,
			TWAP: &model.TWAPPlan{
				Duration:     duration,
				SliceCount:   slices,
				MinSliceSize: req.Quantity / 20,
				MaxSliceSize: req.Quantity / 5,
			},
		}

	case model.OrderTypeVWAP:
		rate := req.ParticipationRate
		if rate <= 0 {
			rate = defaultParticipationRate
		}
		interval := req.SliceInterval
		if interval <= 0 {
			interval = defaultVWAPInterval
		}
		maxSlice := req.Quantity / 10
		if maxSlice <= 0 {
			maxSlice = req.Quantity
		}
		return &model.ExecutionPlan{
			Algorithm: model.AlgorithmVWAP,
			VWAP: &model.VWAPPlan{
				ParticipationRate: rate,
				MaxSliceSize:      maxSlice,
				MinSliceInterval:  interval,
			},
		}

	case model.OrderTypeIceberg:
		display := req.DisplaySize
		if display <= 0 {
			display = req.Quantity / 10
		}
		if display <= 0 {
			display = 1
		}
		return &model.ExecutionPlan{
			Algorithm: model.AlgorithmIceberg,
			Iceberg: &model.IcebergPlan{
				DisplaySize:      display,
				RefreshThreshold: icebergRefreshThreshold,
				MinRefreshSize:   req.Quantity / 20,
			},
		}

	case model.OrderTypeBracket:
		return &model.ExecutionPlan{
			Algorithm: model.AlgorithmBracket,
			Bracket: &model.BracketPlan{
				TakeProfitPrice:    req.TakeProfitPrice,
				StopLossPrice:      req.StopLossPrice,
				TakeProfitQuantity: req.Quantity,
				StopLossQuantity:   req.Quantity,
			},
		}

	case model.OrderTypeOCO:
		return &model.ExecutionPlan{
			Algorithm: model.AlgorithmOCO,
			OCO: &model.OCOPlan{
				TakeProfit: model.OCOLeg{
					Type:     model.OrderTypeLimit,
					Price:    req.TakeProfitPrice,
					Quantity: req.Quantity,
				},
				StopLoss: model.OCOLeg{
					Type:     model.OrderTypeStop,
					Price:    req.StopLossPrice,
					Quantity: req.Quantity,
				},
			},
		}

	case model.OrderTypeTrailingStop:
		return &model.ExecutionPlan{
			Algorithm: model.AlgorithmTrailing,
			Trailing:  &model.TrailingPlan{TrailAmount: req.TrailAmount},
		}

	default:
		execType := "limit"
		if req.Type == model.OrderTypeMarket {
			execType = "market"
		}
		return &model.ExecutionPlan{
			Algorithm: model.AlgorithmImmediate,
			Immediate: &model.ImmediatePlan{ExecutionType: execType},
		}
	}
}
