package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"matchforge/config"
	"matchforge/domain"
	"matchforge/matching"
	"matchforge/risk"
	"matchforge/sim"
)

func main() {
	configPath := flag.String("config", "config/simulate.yaml", "path to simulation config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	riskManager := buildRiskManager(cfg.Risk)
	engines := make(map[string]*matching.MatchingEngine, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		engine := matching.NewMatchingEngine(symbol, riskManager)
		symbol := symbol
		engine.RegisterTradeCallback(func(trade *domain.Trade) {
			log.Debug().
				Str("symbol", symbol).
				Uint64("trade_id", trade.ID).
				Str("price", trade.Price.String()).
				Str("quantity", trade.Quantity.String()).
				Msg("trade")
		})
		engines[symbol] = engine
	}

	initialPrices := make(map[string]decimal.Decimal, len(cfg.Symbols))
	for symbol, raw := range cfg.Prices {
		initialPrices[symbol] = decimal.RequireFromString(raw)
	}

	simCfg := sim.Config{
		Symbols:            cfg.Symbols,
		InitialPrices:      initialPrices,
		Mode:               parseMode(cfg.Simulation.Mode),
		OrderRate:          cfg.Simulation.OrderRate,
		Volatility:         cfg.Simulation.Volatility,
		TickSize:           decimal.RequireFromString(cfg.Simulation.TickSize),
		EnableMarketOrders: cfg.Simulation.EnableMarketOrders,
		MarketOrderPct:     cfg.Simulation.MarketOrderPct,
	}
	simulator := sim.NewMarketSimulator(simCfg, engines, riskManager)

	log.Info().
		Strs("symbols", cfg.Symbols).
		Str("mode", simCfg.Mode.String()).
		Int("duration_seconds", cfg.Simulation.DurationSeconds).
		Msg("starting simulation")

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Simulation.DurationSeconds)*time.Second)
	defer cancel()
	simulator.Run(runCtx)

	log.Info().Int64("orders_generated", simulator.OrdersGenerated()).Msg("simulation complete")
	for symbol, engine := range engines {
		bids, asks := engine.Snapshot()
		trades := engine.DrainTrades(0)
		log.Info().
			Str("symbol", symbol).
			Int("bid_levels", len(bids)).
			Int("ask_levels", len(asks)).
			Int("trades", len(trades)).
			Msg("final book state")
	}

	if os.Getenv("SIM_SMOKE_TEST") == "1" {
		os.Exit(0)
	}
}

func buildRiskManager(cfg config.RiskConfig) *risk.RiskManager {
	maxPosition := make(map[string]decimal.Decimal, len(cfg.MaxPositionSize))
	for symbol, raw := range cfg.MaxPositionSize {
		maxPosition[symbol] = decimal.RequireFromString(raw)
	}
	maxOrder := make(map[string]decimal.Decimal, len(cfg.MaxOrderSize))
	for symbol, raw := range cfg.MaxOrderSize {
		maxOrder[symbol] = decimal.RequireFromString(raw)
	}

	var maxExposure *decimal.Decimal
	if cfg.MaxExposure != "" {
		v := decimal.RequireFromString(cfg.MaxExposure)
		maxExposure = &v
	}

	return risk.NewRiskManager(risk.Limits{
		MaxPositionSize: maxPosition,
		MaxOrderSize:    maxOrder,
		MaxExposure:     maxExposure,
		PriceTolerance:  decimal.NewFromFloat(cfg.PriceTolerance),
	})
}

func parseMode(mode string) sim.Mode {
	switch mode {
	case "mean_reverting":
		return sim.ModeMeanReverting
	case "trending":
		return sim.ModeTrending
	case "stress_test":
		return sim.ModeStressTest
	default:
		return sim.ModeRandom
	}
}
