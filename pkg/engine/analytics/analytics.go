// Package analytics aggregates the order table into summary metrics.
// Read-only; recomputed on demand with no caching.
package analytics

import (
	"fmt"

	"github.com/openexec/execution-engine/pkg/engine/model"
	"github.com/openexec/execution-engine/pkg/engine/store"
)

type Summary struct {
	TotalOrders     int
	FilledOrders    int
	PendingOrders   int // Pending, Submitted, PartiallyFilled
	CancelledOrders int
	RejectedOrders  int
	ExpiredOrders   int
	FillRate        float64

	ByOrderType map[model.OrderType]int
	BySymbol    map[string]int
	ByAlgorithm map[model.Algorithm]int

	// RiskExposure buckets risk scores into quartile ranges.
	RiskExposure     map[string]int
	AverageRiskScore float64
	HighRiskOrders   int // score > 0.7
}

type Reporter struct {
	store *store.Store
}

func NewReporter(s *store.Store) *Reporter {
	return &Reporter{store: s}
}

func (r *Reporter) Summarize(filter model.OrderFilter) *Summary {
	orders := r.store.List(filter)

	s := &Summary{
		ByOrderType:  make(map[model.OrderType]int),
		BySymbol:     make(map[string]int),
		ByAlgorithm:  make(map[model.Algorithm]int),
		RiskExposure: make(map[string]int),
	}

	var scoreSum float64
	var scored int
	for _, o := range orders {
		s.TotalOrders++
		switch o.Status {
		case model.OrderStatusFilled:
			s.FilledOrders++
		case model.OrderStatusPending, model.OrderStatusSubmitted, model.OrderStatusPartiallyFilled:
			s.PendingOrders++
		case model.OrderStatusCancelled:
			s.CancelledOrders++
		case model.OrderStatusRejected:
			s.RejectedOrders++
		case model.OrderStatusExpired:
			s.ExpiredOrders++
		}

		s.ByOrderType[o.Type]++
		s.BySymbol[o.Symbol]++
		if o.Plan != nil {
			s.ByAlgorithm[o.Plan.Algorithm]++
		}

		if o.RiskChecks != nil {
			score := o.RiskChecks.Score
			scoreSum += score
			scored++
			s.RiskExposure[riskBucket(score)]++
			if score > 0.7 {
				s.HighRiskOrders++
			}
		}
	}

	if s.TotalOrders > 0 {
		s.FillRate = float64(s.FilledOrders) / float64(s.TotalOrders)
	}
	if scored > 0 {
		s.AverageRiskScore = scoreSum / float64(scored)
	}
	return s
}

func riskBucket(score float64) string {
	switch {
	case score <= 0.25:
		return "0.00-0.25"
	case score <= 0.50:
		return "0.25-0.50"
	case score <= 0.75:
		return "0.50-0.75"
	default:
		return "0.75-1.00"
	}
}

func (s *Summary) String() string {
	return fmt.Sprintf("orders=%d filled=%d pending=%d cancelled=%d fill_rate=%.2f",
		s.TotalOrders, s.FilledOrders, s.PendingOrders, s.CancelledOrders, s.FillRate)
}
