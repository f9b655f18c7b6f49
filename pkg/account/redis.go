package account

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	positionKeyPrefix = "account:position:"
	dailyLossKey      = "account:daily_loss"
	buyingPowerKey    = "account:buying_power"
)

// Redis reads account state from keys maintained by the surrounding
// ledger. Missing keys read as zero.
type Redis struct {
	client *redis.Client
}

var _ AccountState = (*Redis)(nil)

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) CurrentPosition(ctx context.Context, symbol string) (int64, error) {
	val, err := r.client.Get(ctx, positionKeyPrefix+symbol).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("account: read position %s: %w", symbol, err)
	}
	return val, nil
}

func (r *Redis) DailyRealizedLoss(ctx context.Context) (decimal.Decimal, error) {
	return r.readDecimal(ctx, dailyLossKey)
}

func (r *Redis) BuyingPower(ctx context.Context) (decimal.Decimal, error) {
	return r.readDecimal(ctx, buyingPowerKey)
}

func (r *Redis) readDecimal(ctx context.Context, key string) (decimal.Decimal, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("account: read %s: %w", key, err)
	}
	d, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, fmt.Errorf("account: parse %s: %w", key, err)
	}
	return d, nil
}
