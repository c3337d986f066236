// Package config defines configuration for the cmd/simulate runner: which
// symbols to simulate, the risk limits to enforce, and the logging level.
// Config is loaded from a YAML file with overrides from SIM_* environment
// variables.
package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config is the top-level configuration for a simulate run.
type Config struct {
	Symbols    []string          `mapstructure:"symbols"`
	Prices     map[string]string `mapstructure:"initial_prices"`
	Simulation SimulationConfig  `mapstructure:"simulation"`
	Risk       RiskConfig        `mapstructure:"risk"`
	Logging    LoggingConfig     `mapstructure:"logging"`
}

// SimulationConfig tunes the market simulator's order-flow generator.
type SimulationConfig struct {
	Mode               string  `mapstructure:"mode"` // random | mean_reverting | trending | stress_test
	OrderRate          float64 `mapstructure:"order_rate"`
	Volatility         float64 `mapstructure:"volatility"`
	TickSize           string  `mapstructure:"tick_size"`
	EnableMarketOrders bool    `mapstructure:"enable_market_orders"`
	MarketOrderPct     float64 `mapstructure:"market_order_pct"`
	DurationSeconds    int     `mapstructure:"duration_seconds"`
}

// RiskConfig sets the pre-trade limits the RiskManager enforces.
// Per-symbol maps use the same string-keyed-by-symbol shape the simulator
// uses for initial prices, so a config file can stay flat.
type RiskConfig struct {
	MaxPositionSize map[string]string `mapstructure:"max_position_size"`
	MaxOrderSize    map[string]string `mapstructure:"max_order_size"`
	MaxExposure     string            `mapstructure:"max_exposure"`
	PriceTolerance  float64           `mapstructure:"price_tolerance"`
}

// LoggingConfig controls zerolog's global level.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads config from a YAML file with SIM_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("SIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("simulation.mode", "random")
	v.SetDefault("simulation.order_rate", 5.0)
	v.SetDefault("simulation.volatility", 0.01)
	v.SetDefault("simulation.tick_size", "0.01")
	v.SetDefault("simulation.enable_market_orders", true)
	v.SetDefault("simulation.market_order_pct", 0.1)
	v.SetDefault("simulation.duration_seconds", 30)
	v.SetDefault("risk.price_tolerance", 0.1)
	v.SetDefault("logging.level", "info")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks required fields and decimal parseability.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols must list at least one instrument")
	}
	for _, symbol := range c.Symbols {
		if _, ok := c.Prices[symbol]; !ok {
			return fmt.Errorf("initial_prices missing an entry for %s", symbol)
		}
		if _, err := decimal.NewFromString(c.Prices[symbol]); err != nil {
			return fmt.Errorf("initial_prices[%s]: %w", symbol, err)
		}
	}
	if _, err := decimal.NewFromString(c.Simulation.TickSize); err != nil {
		return fmt.Errorf("simulation.tick_size: %w", err)
	}
	if c.Risk.MaxExposure != "" {
		if _, err := decimal.NewFromString(c.Risk.MaxExposure); err != nil {
			return fmt.Errorf("risk.max_exposure: %w", err)
		}
	}
	return nil
}
