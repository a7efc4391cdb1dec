package router

import (
	"errors"
	"fmt"
	"sort"

	"github.com/voroninsergei/oneflow-ai-sub000/internal/config"
	"github.com/voroninsergei/oneflow-ai-sub000/internal/pricing"
)

// ErrNoAvailableProvider is returned when no candidate model matches the
// modality with an available provider. Callers surface it as 503.
var ErrNoAvailableProvider = errors.New("no available provider")

// RoutingDecision is the outcome of a routing call. Produced per request,
// not persisted beyond logging.
type RoutingDecision struct {
	PrimaryModel     string   `json:"primary_model"`
	PrimaryProvider  string   `json:"primary_provider"`
	FallbackChain    []string `json:"fallback_chain"`
	EstimatedCredits float64  `json:"estimated_credits"`
	StrategyUsed     Strategy `json:"strategy_used"`
}

// Router ranks models from the pricing table by strategy, filtered to
// providers whose circuit breaker is not open. It is read-only over the
// table and the breaker registry.
type Router struct {
	engine        *pricing.Engine
	breakers      *BreakerRegistry
	weights       config.BalancedWeights
	fallbackDepth int
}

// NewRouter creates a router. fallbackDepth <= 0 defaults to 2.
func NewRouter(engine *pricing.Engine, breakers *BreakerRegistry, weights config.BalancedWeights, fallbackDepth int) *Router {
	if fallbackDepth <= 0 {
		fallbackDepth = 2
	}
	return &Router{
		engine:        engine,
		breakers:      breakers,
		weights:       weights,
		fallbackDepth: fallbackDepth,
	}
}

type candidate struct {
	price pricing.ModelPrice
	cost  pricing.CostEstimate
}

// Route selects a primary model plus an ordered fallback chain for the given
// token counts, strategy, and modality.
func (r *Router) Route(inputTokens, outputTokens int, strategy Strategy, modality string) (RoutingDecision, error) {
	candidates, err := r.candidates(inputTokens, outputTokens, modality)
	if err != nil {
		return RoutingDecision{}, err
	}
	if len(candidates) == 0 {
		return RoutingDecision{}, fmt.Errorf("%w: modality=%s", ErrNoAvailableProvider, modality)
	}

	r.rank(candidates, strategy)

	primary := candidates[0]
	fallback := make([]string, 0, r.fallbackDepth)
	for _, c := range candidates[1:] {
		if len(fallback) == r.fallbackDepth {
			break
		}
		fallback = append(fallback, c.price.ModelID)
	}

	return RoutingDecision{
		PrimaryModel:     primary.price.ModelID,
		PrimaryProvider:  primary.price.Provider,
		FallbackChain:    fallback,
		EstimatedCredits: primary.cost.Credits,
		StrategyUsed:     strategy,
	}, nil
}

// candidates collects models matching the modality whose provider is
// available, with their cost estimates precomputed.
func (r *Router) candidates(inputTokens, outputTokens int, modality string) ([]candidate, error) {
	var out []candidate
	for _, price := range r.engine.Table().ByModality(modality) {
		if !r.breakers.IsAvailable(price.Provider) {
			continue
		}
		cost, err := r.engine.EstimateCost(price.ModelID, inputTokens, outputTokens)
		if err != nil {
			return nil, err
		}
		out = append(out, candidate{price: price, cost: cost})
	}
	return out, nil
}

// rank orders candidates in place, best first.
func (r *Router) rank(candidates []candidate, strategy Strategy) {
	switch strategy {
	case StrategyCostOptimized:
		sort.SliceStable(candidates, func(i, j int) bool {
			a, b := candidates[i], candidates[j]
			if a.cost.USD != b.cost.USD {
				return a.cost.USD < b.cost.USD
			}
			return a.price.QualityTier > b.price.QualityTier
		})
	case StrategyLatencyOptimized:
		sort.SliceStable(candidates, func(i, j int) bool {
			a, b := candidates[i], candidates[j]
			if a.price.TypicalLatencyMs != b.price.TypicalLatencyMs {
				return a.price.TypicalLatencyMs < b.price.TypicalLatencyMs
			}
			return a.cost.USD < b.cost.USD
		})
	case StrategyQualityOptimized:
		sort.SliceStable(candidates, func(i, j int) bool {
			a, b := candidates[i], candidates[j]
			if a.price.QualityTier != b.price.QualityTier {
				return a.price.QualityTier > b.price.QualityTier
			}
			return a.cost.USD < b.cost.USD
		})
	default: // balanced
		scores := r.balancedScores(candidates)
		sort.SliceStable(candidates, func(i, j int) bool {
			if scores[candidates[i].price.ModelID] != scores[candidates[j].price.ModelID] {
				return scores[candidates[i].price.ModelID] < scores[candidates[j].price.ModelID]
			}
			return candidates[i].cost.USD < candidates[j].cost.USD
		})
	}
}

// balancedScores computes the weighted min-max score per candidate. Lower is
// better; quality contributes inverted so higher tiers lower the score.
func (r *Router) balancedScores(candidates []candidate) map[string]float64 {
	minCost, maxCost := candidates[0].cost.USD, candidates[0].cost.USD
	minLat, maxLat := candidates[0].price.TypicalLatencyMs, candidates[0].price.TypicalLatencyMs
	minQual, maxQual := candidates[0].price.QualityTier, candidates[0].price.QualityTier
	for _, c := range candidates[1:] {
		minCost = min(minCost, c.cost.USD)
		maxCost = max(maxCost, c.cost.USD)
		minLat = min(minLat, c.price.TypicalLatencyMs)
		maxLat = max(maxLat, c.price.TypicalLatencyMs)
		minQual = min(minQual, c.price.QualityTier)
		maxQual = max(maxQual, c.price.QualityTier)
	}

	scores := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		normCost := minMax(c.cost.USD, minCost, maxCost)
		normLat := minMax(float64(c.price.TypicalLatencyMs), float64(minLat), float64(maxLat))
		normQual := minMax(float64(c.price.QualityTier), float64(minQual), float64(maxQual))
		scores[c.price.ModelID] = r.weights.Cost*normCost +
			r.weights.Latency*normLat +
			r.weights.Quality*(1-normQual)
	}
	return scores
}

// minMax normalizes v into [0,1]; a degenerate range maps to 0.
func minMax(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}
