package analytics

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/openexec/execution-engine/pkg/engine/model"
	"github.com/openexec/execution-engine/pkg/engine/store"
)

func seed(t *testing.T, s *store.Store, symbol string, typ model.OrderType, score float64, fill bool) {
	t.Helper()
	o := s.Create(&model.OrderRequest{
		Symbol: symbol, Side: model.OrderSideBuy, Type: typ, Quantity: 10,
	}, &model.ExecutionPlan{Algorithm: model.AlgorithmImmediate}, &model.RiskCheckResult{Score: score})
	if _, err := s.MarkSubmitted(o.OrderID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if fill {
		if _, err := s.RecordFill(o.OrderID, "", 10, decimal.NewFromInt(100), decimal.Zero); err != nil {
			t.Fatalf("fill: %v", err)
		}
	}
}

func TestSummaryCountsAndFillRate(t *testing.T) {
	s := store.New(nil)
	seed(t, s, "AAPL", model.OrderTypeMarket, 0.1, true)
	seed(t, s, "AAPL", model.OrderTypeLimit, 0.3, true)
	seed(t, s, "MSFT", model.OrderTypeMarket, 0.8, false)

	sum := NewReporter(s).Summarize(model.OrderFilter{})

	if sum.TotalOrders != 3 || sum.FilledOrders != 2 || sum.PendingOrders != 1 {
		t.Errorf("counts wrong: %+v", sum)
	}
	if sum.FillRate < 0.66 || sum.FillRate > 0.67 {
		t.Errorf("expected fill rate ~0.67, got %f", sum.FillRate)
	}
	if sum.ByOrderType[model.OrderTypeMarket] != 2 {
		t.Errorf("expected 2 market orders, got %d", sum.ByOrderType[model.OrderTypeMarket])
	}
	if sum.BySymbol["AAPL"] != 2 {
		t.Errorf("expected 2 AAPL orders, got %d", sum.BySymbol["AAPL"])
	}
}

func TestRiskExposureBuckets(t *testing.T) {
	s := store.New(nil)
	seed(t, s, "AAPL", model.OrderTypeMarket, 0.1, true)
	seed(t, s, "AAPL", model.OrderTypeMarket, 0.3, true)
	seed(t, s, "AAPL", model.OrderTypeMarket, 0.8, true)

	sum := NewReporter(s).Summarize(model.OrderFilter{})

	if sum.RiskExposure["0.00-0.25"] != 1 {
		t.Errorf("expected 1 order in the low bucket, got %d", sum.RiskExposure["0.00-0.25"])
	}
	if sum.RiskExposure["0.25-0.50"] != 1 {
		t.Errorf("expected 1 order in the mid bucket, got %d", sum.RiskExposure["0.25-0.50"])
	}
	if sum.RiskExposure["0.75-1.00"] != 1 {
		t.Errorf("expected 1 order in the high bucket, got %d", sum.RiskExposure["0.75-1.00"])
	}
	if sum.HighRiskOrders != 1 {
		t.Errorf("expected 1 high risk order, got %d", sum.HighRiskOrders)
	}
	if sum.AverageRiskScore < 0.39 || sum.AverageRiskScore > 0.41 {
		t.Errorf("expected average ~0.40, got %f", sum.AverageRiskScore)
	}
}

func TestSummaryRespectsFilter(t *testing.T) {
	s := store.New(nil)
	seed(t, s, "AAPL", model.OrderTypeMarket, 0, true)
	seed(t, s, "MSFT", model.OrderTypeMarket, 0, false)

	sum := NewReporter(s).Summarize(model.OrderFilter{Symbol: "MSFT"})
	if sum.TotalOrders != 1 || sum.FilledOrders != 0 {
		t.Errorf("filter not applied: %+v", sum)
	}
}
