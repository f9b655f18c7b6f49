package config

import (
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/openexec/execution-engine/pkg/engine"
	"github.com/openexec/execution-engine/pkg/engine/riskcheck"
	postgres_wrapper "github.com/openexec/execution-engine/pkg/infra/postgres"
	redis_wrapper "github.com/openexec/execution-engine/pkg/infra/redis"
)

type AppConfig struct {
	ServiceName string                           `yaml:"service_name"`
	LogLevel    string                           `yaml:"log_level"`
	EngineDB    *postgres_wrapper.PostgresConfig `yaml:"engine_db"`
	Redis       *redis_wrapper.RedisConfig       `yaml:"redis"`
	Nats        *NatsConfig                      `yaml:"nats"`
	Engine      *EngineConfig                    `yaml:"engine"`
	Risk        *RiskConfig                      `yaml:"risk"`
}

type NatsConfig struct {
	Addr    string `yaml:"addr"`
	Stream  string `yaml:"stream"`
	Subject string `yaml:"subject"`
	Durable string `yaml:"durable"`
}

type EngineConfig struct {
	CommissionPerShare float64 `yaml:"commission_per_share"`
	SessionClose       string  `yaml:"session_close"`
	CleanupIntervalSec int     `yaml:"cleanup_interval_seconds"`
	RetentionSec       int     `yaml:"retention_seconds"`
}

// RiskConfig carries the risk limits as yaml-friendly primitives; the
// riskcheck package works in decimals.
type RiskConfig struct {
	MaxPositionNotional float64            `yaml:"max_position_notional"`
	DailyLossLimit      float64            `yaml:"daily_loss_limit"`
	VolatilityCeiling   float64            `yaml:"volatility_ceiling"`
	MaxVolumeFraction   float64            `yaml:"max_volume_fraction"`
	VolumeWindowSec     int                `yaml:"volume_window_seconds"`
	Weights             map[string]float64 `yaml:"weights"`
	Gates               map[string]string  `yaml:"gates"`
}

// Load load config from file and environment variables.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	fields := []interface{}{
		"func",
		"config.readFromFile",
		"filePath",
		filePath,
	}

	sugar := zap.S().With(fields...)

	sugar.Debug("Load config...")
	zap.S().Debugf("CONFIG_FILE=%v", filePath)

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}

	err = yaml.Unmarshal(configBytes, cfg)
	if err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}

	zap.S().Debugf("config: %+v", cfg)

	return cfg, nil
}

// EngineConfig converts the yaml config into the engine's runtime config,
// falling back to defaults for anything unset.
func (c *AppConfig) ToEngineConfig() *engine.Config {
	cfg := engine.DefaultConfig()
	if c.Risk != nil {
		cfg.Risk = c.Risk.toRiskcheckConfig()
	}
	if c.Engine == nil {
		return cfg
	}
	if c.Engine.CommissionPerShare > 0 {
		cfg.CommissionPerShare = decimal.NewFromFloat(c.Engine.CommissionPerShare)
	}
	if c.Engine.SessionClose != "" {
		cfg.SessionClose = c.Engine.SessionClose
	}
	if c.Engine.CleanupIntervalSec > 0 {
		cfg.CleanupInterval = time.Duration(c.Engine.CleanupIntervalSec) * time.Second
		cfg.Retention = time.Duration(c.Engine.RetentionSec) * time.Second
	}
	return cfg
}

func (r *RiskConfig) toRiskcheckConfig() *riskcheck.Config {
	cfg := riskcheck.DefaultConfig()
	if r.MaxPositionNotional > 0 {
		cfg.MaxPositionNotional = decimal.NewFromFloat(r.MaxPositionNotional)
	}
	if r.DailyLossLimit > 0 {
		cfg.DailyLossLimit = decimal.NewFromFloat(r.DailyLossLimit)
	}
	if r.VolatilityCeiling > 0 {
		cfg.VolatilityCeiling = decimal.NewFromFloat(r.VolatilityCeiling)
	}
	if r.MaxVolumeFraction > 0 {
		cfg.MaxVolumeFraction = decimal.NewFromFloat(r.MaxVolumeFraction)
	}
	if r.VolumeWindowSec > 0 {
		cfg.VolumeWindow = time.Duration(r.VolumeWindowSec) * time.Second
	}
	if len(r.Weights) > 0 {
		cfg.Weights = r.Weights
	}
	if len(r.Gates) > 0 {
		cfg.Gates = make(map[string]riskcheck.GateMode, len(r.Gates))
		for name, mode := range r.Gates {
			cfg.Gates[name] = riskcheck.GateMode(mode)
		}
	}
	return cfg
}
