package model

import "github.com/shopspring/decimal"

// Check names used by gate policy configuration.
const (
	CheckPositionSize = "position_size"
	CheckDailyLoss    = "daily_loss"
	CheckVolatility   = "volatility"
	CheckLiquidity    = "liquidity"
	CheckMarketHours  = "market_hours"
)

// RiskCheck is one named check with the values it was judged on.
type RiskCheck struct {
	Name      string
	Passed    bool
	Observed  decimal.Decimal
	Threshold decimal.Decimal
}

// RiskCheckResult is the composite assessment snapshot. Computed once per
// order at placement; immutable afterwards.
type RiskCheckResult struct {
	Score        float64 // [0,1], higher is riskier
	PositionSize RiskCheck
	DailyLoss    RiskCheck
	Volatility   RiskCheck
	Liquidity    RiskCheck
	MarketHours  RiskCheck
}

func (r *RiskCheckResult) Checks() []RiskCheck {
	return []RiskCheck{r.PositionSize, r.DailyLoss, r.Volatility, r.Liquidity, r.MarketHours}
}

// Failed returns the names of failed checks.
func (r *RiskCheckResult) Failed() []string {
	var failed []string
	for _, c := range r.Checks() {
		if !c.Passed {
			failed = append(failed, c.Name)
		}
	}
	return failed
}
