// Package account exposes the risk inputs the engine reads but does not
// own: positions, realized daily loss, buying power.
package account

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

type AccountState interface {
	CurrentPosition(ctx context.Context, symbol string) (int64, error)
	DailyRealizedLoss(ctx context.Context) (decimal.Decimal, error)
	BuyingPower(ctx context.Context) (decimal.Decimal, error)
}

// Static is a fixed in-memory AccountState for tests and the sim stack.
type Static struct {
	mu        sync.RWMutex
	positions map[string]int64
	dailyLoss decimal.Decimal
	buying    decimal.Decimal
}

var _ AccountState = (*Static)(nil)

func NewStatic() *Static {
	return &Static{
		positions: make(map[string]int64),
		buying:    decimal.NewFromInt(1_000_000),
	}
}

func (s *Static) SetPosition(symbol string, qty int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[symbol] = qty
}

func (s *Static) SetDailyLoss(loss decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dailyLoss = loss
}

func (s *Static) SetBuyingPower(bp decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buying = bp
}

func (s *Static) CurrentPosition(_ context.Context, symbol string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.positions[symbol], nil
}

func (s *Static) DailyRealizedLoss(_ context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dailyLoss, nil
}

func (s *Static) BuyingPower(_ context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buying, nil
}
