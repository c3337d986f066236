// Package sim drives a MatchingEngine with synthetic order flow, for load
// generation and correctness testing against a running book.
package sim

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"matchforge/domain"
	"matchforge/matching"
)

// Mode selects the price-generation model driving simulated order flow.
// Grounded on the original simulator's SimulationMode enum.
type Mode int

const (
	ModeRandom Mode = iota
	ModeMeanReverting
	ModeTrending
	ModeStressTest
)

func (m Mode) String() string {
	switch m {
	case ModeRandom:
		return "random"
	case ModeMeanReverting:
		return "mean_reverting"
	case ModeTrending:
		return "trending"
	case ModeStressTest:
		return "stress_test"
	default:
		return "unknown"
	}
}

// RiskGate mirrors the subset of risk.RiskManager the simulator touches,
// kept as an interface so the simulator package doesn't import risk
// directly and risk checks stay optional.
type RiskGate interface {
	UpdateReferencePrice(symbol string, price decimal.Decimal)
}

// Config configures the simulated order flow across a set of symbols.
type Config struct {
	Symbols            []string
	InitialPrices      map[string]decimal.Decimal
	Mode               Mode
	OrderRate          float64 // average orders/sec, Poisson interarrival
	Volatility         float64 // stddev of the per-step price move, as a fraction of the current price
	TickSize           decimal.Decimal
	EnableMarketOrders bool
	MarketOrderPct     float64 // fraction of orders submitted as Market
	MeanReversionSpeed float64 // used only in ModeMeanReverting
	Trend              float64 // fractional per-step drift, used only in ModeTrending
}

// MarketSimulator generates synthetic order flow against a MatchingEngine,
// one engine per symbol, optionally keeping a risk gate's reference prices
// current as it runs.
type MarketSimulator struct {
	cfg      Config
	rng      *rand.Rand
	risk     RiskGate
	traderID string

	engines map[string]*matching.MatchingEngine
	prices  map[string]decimal.Decimal
	means   map[string]decimal.Decimal

	ordersGenerated int64
}

// NewMarketSimulator builds a simulator driving engines (keyed by symbol)
// according to cfg. risk may be nil.
func NewMarketSimulator(cfg Config, engines map[string]*matching.MatchingEngine, risk RiskGate) *MarketSimulator {
	return newMarketSimulator(cfg, engines, risk, time.Now().UnixNano())
}

// newMarketSimulator is the seeded constructor backing NewMarketSimulator;
// tests use it directly for reproducible price paths.
func newMarketSimulator(cfg Config, engines map[string]*matching.MatchingEngine, risk RiskGate, seed int64) *MarketSimulator {
	prices := make(map[string]decimal.Decimal, len(cfg.InitialPrices))
	means := make(map[string]decimal.Decimal, len(cfg.InitialPrices))
	for symbol, price := range cfg.InitialPrices {
		prices[symbol] = price
		means[symbol] = price
	}

	return &MarketSimulator{
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(seed)),
		risk:     risk,
		traderID: uuid.New().String(),
		engines:  engines,
		prices:   prices,
		means:    means,
	}
}

// Run drives the simulation until ctx is cancelled, pacing submissions as a
// Poisson process with rate cfg.OrderRate. Each tick updates one symbol's
// reference price, generates one order, and submits it; risk rejections
// are logged and otherwise ignored, matching the original simulator's
// silent-drop-on-reject behavior.
func (s *MarketSimulator) Run(ctx context.Context) {
	if s.risk != nil {
		for symbol, price := range s.prices {
			s.risk.UpdateReferencePrice(symbol, price)
		}
	}

	for {
		delay := s.nextInterarrival()
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.step()
		s.ordersGenerated++
	}
}

// nextInterarrival draws a Poisson interarrival delay from cfg.OrderRate
// orders/sec using the exponential distribution's inverse-CDF sampler.
func (s *MarketSimulator) nextInterarrival() time.Duration {
	rate := s.cfg.OrderRate
	if rate <= 0 {
		rate = 1.0
	}
	seconds := s.rng.ExpFloat64() / rate
	return time.Duration(seconds * float64(time.Second))
}

// step picks a symbol, advances its reference price per the configured
// mode, generates one order, and submits it to that symbol's engine.
func (s *MarketSimulator) step() {
	symbol := s.cfg.Symbols[s.rng.Intn(len(s.cfg.Symbols))]
	engine, ok := s.engines[symbol]
	if !ok {
		return
	}

	price := s.updatePrice(symbol)

	isMarket := s.cfg.EnableMarketOrders && s.rng.Float64() < s.cfg.MarketOrderPct
	side := domain.SideBuy
	if s.rng.Float64() >= 0.5 {
		side = domain.SideSell
	}
	quantity := s.randomQuantity()

	var (
		orderID uint64
		err     error
	)
	if isMarket {
		orderID, err = engine.SubmitMarket(side, quantity, nowMillis())
	} else {
		limitPrice := s.offsetFromMid(price, side)
		orderID, err = engine.SubmitLimit(side, limitPrice, quantity, nowMillis())
	}

	if err != nil {
		log.Debug().Str("symbol", symbol).Str("trader", s.traderID).Err(err).Msg("simulated order rejected")
		return
	}
	log.Debug().Str("symbol", symbol).Str("trader", s.traderID).Uint64("order_id", orderID).Bool("market", isMarket).Msg("simulated order submitted")
}

// randomQuantity draws an order size of 0.1 times a log-normal factor
// (median 1, sigma 0.5; the original simulator's size_factor model),
// rounded to the configured tick size.
func (s *MarketSimulator) randomQuantity() decimal.Decimal {
	factor := math.Exp(s.rng.NormFloat64() * 0.5)
	return decimal.NewFromFloat(roundToTick(0.1*factor, s.tick()))
}

// offsetFromMid applies a random offset around the reference price: buys
// bias below, sells bias above, mirroring the original simulator's
// log-normal offset model.
func (s *MarketSimulator) offsetFromMid(mid decimal.Decimal, side domain.Side) decimal.Decimal {
	offsetFactor := math.Exp(-1 + s.rng.NormFloat64()*0.5)
	if side == domain.SideBuy {
		offsetFactor = -offsetFactor
	}
	midFloat, _ := mid.Float64()
	offset := midFloat * offsetFactor
	price := roundToTick(midFloat+offset, s.tick())
	if price <= 0 {
		price = s.tick()
	}
	return decimal.NewFromFloat(price)
}

func (s *MarketSimulator) tick() float64 {
	if s.cfg.TickSize.IsZero() {
		return 0.01
	}
	t, _ := s.cfg.TickSize.Float64()
	return t
}

func roundToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	return math.Round(price/tick) * tick
}

// updatePrice advances symbol's reference price per the configured mode and
// returns the new price. Mirrors the original simulator's per-mode
// _update_price branches.
func (s *MarketSimulator) updatePrice(symbol string) decimal.Decimal {
	current := s.prices[symbol]
	currentFloat, _ := current.Float64()

	var next float64
	switch s.cfg.Mode {
	case ModeMeanReverting:
		meanFloat, _ := s.means[symbol].Float64()
		speed := s.cfg.MeanReversionSpeed
		if speed == 0 {
			speed = 0.1
		}
		drift := speed * (meanFloat - currentFloat)
		diffusion := s.cfg.Volatility * currentFloat * s.rng.NormFloat64()
		next = currentFloat + drift + diffusion
	case ModeTrending:
		trendComponent := currentFloat * s.cfg.Trend
		randomComponent := currentFloat * s.cfg.Volatility * s.rng.NormFloat64()
		next = currentFloat + trendComponent + randomComponent
	case ModeStressTest:
		stressVolatility := s.cfg.Volatility * 3
		next = currentFloat + currentFloat*stressVolatility*s.rng.NormFloat64()
	default: // ModeRandom
		next = currentFloat + currentFloat*s.cfg.Volatility*s.rng.NormFloat64()
	}

	next = math.Max(s.tick(), roundToTick(next, s.tick()))
	price := decimal.NewFromFloat(next)
	s.prices[symbol] = price

	if s.risk != nil {
		s.risk.UpdateReferencePrice(symbol, price)
	}
	return price
}

// OrdersGenerated returns the running count of orders this simulator has
// submitted.
func (s *MarketSimulator) OrdersGenerated() int64 {
	return s.ordersGenerated
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
