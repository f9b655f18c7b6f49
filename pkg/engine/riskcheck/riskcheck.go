// Package riskcheck computes the pre-trade risk assessment. It only
// annotates: the engine decides, per gate policy, whether a failed check
// blocks placement.
package riskcheck

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openexec/execution-engine/pkg/account"
	"github.com/openexec/execution-engine/pkg/engine/model"
	"github.com/openexec/execution-engine/pkg/venue"
)

type GateMode string

const (
	GateBlock GateMode = "block"
	GateWarn  GateMode = "warn"
)

type Config struct {
	MaxPositionNotional decimal.Decimal
	DailyLossLimit      decimal.Decimal
	// VolatilityCeiling bounds the spread-based volatility proxy
	// (ask-bid)/mid.
	VolatilityCeiling decimal.Decimal
	// MaxVolumeFraction bounds order quantity as a fraction of recent
	// venue volume.
	MaxVolumeFraction decimal.Decimal
	VolumeWindow      time.Duration

	// Weights drive the composite score; one entry per check name.
	Weights map[string]float64
	// Gates marks checks as hard gates: block | warn. Unlisted checks are
	// advisory (warn).
	Gates map[string]GateMode
}

func DefaultConfig() *Config {
	return &Config{
		MaxPositionNotional: decimal.NewFromInt(1_000_000),
		DailyLossLimit:      decimal.NewFromInt(50_000),
		VolatilityCeiling:   decimal.NewFromFloat(0.02),
		MaxVolumeFraction:   decimal.NewFromFloat(0.05),
		VolumeWindow:        15 * time.Minute,
		Weights: map[string]float64{
			model.CheckPositionSize: 0.30,
			model.CheckDailyLoss:    0.30,
			model.CheckVolatility:   0.15,
			model.CheckLiquidity:    0.15,
			model.CheckMarketHours:  0.10,
		},
		Gates: map[string]GateMode{
			model.CheckPositionSize: GateBlock,
			model.CheckDailyLoss:    GateBlock,
		},
	}
}

// Engine runs the five checks against account and market state.
type Engine struct {
	cfg    *Config
	venue  venue.Venue
	acct   account.AccountState
	logger *zap.SugaredLogger
}

func NewEngine(cfg *Config, v venue.Venue, acct account.AccountState) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg, venue: v, acct: acct, logger: zap.S().Named("riskcheck")}
}

// Blocks reports whether a failed check named name is a hard gate.
func (e *Engine) Blocks(name string) bool {
	return e.cfg.Gates[name] == GateBlock
}

// Assess computes the full snapshot for req. Venue/account read failures
// degrade the affected check to passed-with-zero-observation rather than
// failing placement.
func (e *Engine) Assess(ctx context.Context, req *model.OrderRequest) *model.RiskCheckResult {
	quote, err := e.venue.GetQuote(ctx, req.Symbol)
	if err != nil {
		e.logger.Warnw("quote unavailable for risk assessment", "symbol", req.Symbol, "err", err)
	}
	refPrice := req.Price
	if refPrice.IsZero() {
		refPrice = quote.Mid()
	}

	result := &model.RiskCheckResult{
		PositionSize: e.checkPositionSize(ctx, req, refPrice),
		DailyLoss:    e.checkDailyLoss(ctx),
		Volatility:   e.checkVolatility(quote),
		Liquidity:    e.checkLiquidity(ctx, req),
		MarketHours:  e.checkMarketHours(ctx, req),
	}
	result.Score = e.score(result)
	return result
}

func (e *Engine) checkPositionSize(ctx context.Context, req *model.OrderRequest, refPrice decimal.Decimal) model.RiskCheck {
	notional := refPrice.Mul(decimal.NewFromInt(req.Quantity))
	if pos, err := e.acct.CurrentPosition(ctx, req.Symbol); err == nil {
		held := refPrice.Mul(decimal.NewFromInt(pos).Abs())
		notional = notional.Add(held)
	}
	return model.RiskCheck{
		Name:      model.CheckPositionSize,
		Passed:    notional.LessThanOrEqual(e.cfg.MaxPositionNotional),
		Observed:  notional,
		Threshold: e.cfg.MaxPositionNotional,
	}
}

func (e *Engine) checkDailyLoss(ctx context.Context) model.RiskCheck {
	loss, err := e.acct.DailyRealizedLoss(ctx)
	if err != nil {
		e.logger.Warnw("daily loss unavailable", "err", err)
		loss = decimal.Zero
	}
	return model.RiskCheck{
		Name:      model.CheckDailyLoss,
		Passed:    loss.LessThan(e.cfg.DailyLossLimit),
		Observed:  loss,
		Threshold: e.cfg.DailyLossLimit,
	}
}

func (e *Engine) checkVolatility(quote venue.Quote) model.RiskCheck {
	vol := decimal.Zero
	if mid := quote.Mid(); !mid.IsZero() {
		vol = quote.Ask.Sub(quote.Bid).Abs().Div(mid)
	}
	return model.RiskCheck{
		Name:      model.CheckVolatility,
		Passed:    vol.LessThanOrEqual(e.cfg.VolatilityCeiling),
		Observed:  vol,
		Threshold: e.cfg.VolatilityCeiling,
	}
}

func (e *Engine) checkLiquidity(ctx context.Context, req *model.OrderRequest) model.RiskCheck {
	vol, err := e.venue.GetRecentVolume(ctx, req.Symbol, e.cfg.VolumeWindow)
	if err != nil || vol <= 0 {
		return model.RiskCheck{Name: model.CheckLiquidity, Passed: true, Threshold: e.cfg.MaxVolumeFraction}
	}
	fraction := decimal.NewFromInt(req.Quantity).Div(decimal.NewFromInt(vol))
	return model.RiskCheck{
		Name:      model.CheckLiquidity,
		Passed:    fraction.LessThanOrEqual(e.cfg.MaxVolumeFraction),
		Observed:  fraction,
		Threshold: e.cfg.MaxVolumeFraction,
	}
}

func (e *Engine) checkMarketHours(ctx context.Context, req *model.OrderRequest) model.RiskCheck {
	open, err := e.venue.IsMarketOpen(ctx, req.Symbol)
	if err != nil {
		open = false
	}
	observed := decimal.Zero
	if open {
		observed = decimal.NewFromInt(1)
	}
	// Only order types needing an immediate match care about the session.
	passed := open || req.Type != model.OrderTypeMarket
	return model.RiskCheck{
		Name:      model.CheckMarketHours,
		Passed:    passed,
		Observed:  observed,
		Threshold: decimal.NewFromInt(1),
	}
}

// score is a deterministic weighted sum of failed-check weights,
// normalized to [0,1] by the total weight.
func (e *Engine) score(r *model.RiskCheckResult) float64 {
	var total, failed float64
	for _, c := range r.Checks() {
		w := e.cfg.Weights[c.Name]
		total += w
		if !c.Passed {
			failed += w
		}
	}
	if total == 0 {
		return 0
	}
	return failed / total
}
