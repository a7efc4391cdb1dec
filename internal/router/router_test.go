package router

import (
	"errors"
	"testing"
	"time"

	"github.com/voroninsergei/oneflow-ai-sub000/internal/config"
	"github.com/voroninsergei/oneflow-ai-sub000/internal/pricing"
)

func testEngine() *pricing.Engine {
	table := pricing.NewTable([]pricing.ModelPrice{
		{ModelID: "cheap-fast", Provider: "openai", Modality: "text", QualityTier: 5, TypicalLatencyMs: 400, InputPerMTok: 0.50, OutputPerMTok: 1.50},
		{ModelID: "mid", Provider: "anthropic", Modality: "text", QualityTier: 8, TypicalLatencyMs: 900, InputPerMTok: 3.00, OutputPerMTok: 15.00},
		{ModelID: "premium", Provider: "openai", Modality: "text", QualityTier: 9, TypicalLatencyMs: 1200, InputPerMTok: 2.50, OutputPerMTok: 10.00},
		{ModelID: "sdxl", Provider: "stability", Modality: "image", QualityTier: 7, TypicalLatencyMs: 4000, InputPerMTok: 8.00, OutputPerMTok: 0},
	})
	return pricing.NewEngine(table, 100)
}

func defaultWeights() config.BalancedWeights {
	return config.BalancedWeights{Cost: 0.4, Latency: 0.3, Quality: 0.3}
}

func TestRoute_CostOptimized(t *testing.T) {
	breakers := NewBreakerRegistry(5, time.Minute)
	r := NewRouter(testEngine(), breakers, defaultWeights(), 2)

	decision, err := r.Route(1000, 1000, StrategyCostOptimized, "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if decision.PrimaryModel != "cheap-fast" {
		t.Errorf("expected cheap-fast primary, got %s", decision.PrimaryModel)
	}
	// premium is cheaper than mid per token
	want := []string{"premium", "mid"}
	if len(decision.FallbackChain) != 2 || decision.FallbackChain[0] != want[0] || decision.FallbackChain[1] != want[1] {
		t.Errorf("expected fallback %v, got %v", want, decision.FallbackChain)
	}
	if decision.StrategyUsed != StrategyCostOptimized {
		t.Errorf("expected strategy recorded, got %s", decision.StrategyUsed)
	}
	if decision.EstimatedCredits <= 0 {
		t.Errorf("expected positive estimated credits, got %v", decision.EstimatedCredits)
	}
}

func TestRoute_CostOptimized_TieBreakByQuality(t *testing.T) {
	table := pricing.NewTable([]pricing.ModelPrice{
		{ModelID: "a", Provider: "p1", Modality: "text", QualityTier: 5, TypicalLatencyMs: 500, InputPerMTok: 1.00, OutputPerMTok: 1.00},
		{ModelID: "b", Provider: "p2", Modality: "text", QualityTier: 9, TypicalLatencyMs: 700, InputPerMTok: 1.00, OutputPerMTok: 1.00},
	})
	engine := pricing.NewEngine(table, 100)
	r := NewRouter(engine, NewBreakerRegistry(5, time.Minute), defaultWeights(), 2)

	decision, err := r.Route(1000, 1000, StrategyCostOptimized, "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.PrimaryModel != "b" {
		t.Errorf("expected higher-quality model to win the cost tie, got %s", decision.PrimaryModel)
	}
}

func TestRoute_LatencyOptimized(t *testing.T) {
	r := NewRouter(testEngine(), NewBreakerRegistry(5, time.Minute), defaultWeights(), 2)

	decision, err := r.Route(1000, 1000, StrategyLatencyOptimized, "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.PrimaryModel != "cheap-fast" {
		t.Errorf("expected lowest-latency model, got %s", decision.PrimaryModel)
	}
	if decision.FallbackChain[0] != "mid" {
		t.Errorf("expected mid second by latency, got %s", decision.FallbackChain[0])
	}
}

func TestRoute_QualityOptimized(t *testing.T) {
	r := NewRouter(testEngine(), NewBreakerRegistry(5, time.Minute), defaultWeights(), 2)

	decision, err := r.Route(1000, 1000, StrategyQualityOptimized, "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.PrimaryModel != "premium" {
		t.Errorf("expected highest-quality model, got %s", decision.PrimaryModel)
	}
	if decision.FallbackChain[0] != "mid" {
		t.Errorf("expected mid second by quality, got %s", decision.FallbackChain[0])
	}
}

func TestRoute_Balanced(t *testing.T) {
	r := NewRouter(testEngine(), NewBreakerRegistry(5, time.Minute), defaultWeights(), 2)

	decision, err := r.Route(1000, 1000, StrategyBalanced, "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// cheap-fast: cost norm 0, latency norm 0, quality norm 0 → 0.3*(1-0)=0.30
	// premium: cost norm ~0.66, latency norm 1, quality norm 1 → ~0.56
	// mid: cost norm 1, latency norm 0.625, quality norm 0.75 → ~0.66
	if decision.PrimaryModel != "cheap-fast" {
		t.Errorf("expected cheap-fast to win balanced, got %s", decision.PrimaryModel)
	}
	if len(decision.FallbackChain) != 2 {
		t.Fatalf("expected 2 fallbacks, got %d", len(decision.FallbackChain))
	}
}

func TestRoute_FallbackNeverContainsPrimary(t *testing.T) {
	r := NewRouter(testEngine(), NewBreakerRegistry(5, time.Minute), defaultWeights(), 2)

	for _, strategy := range []Strategy{StrategyCostOptimized, StrategyLatencyOptimized, StrategyQualityOptimized, StrategyBalanced} {
		decision, err := r.Route(500, 500, strategy, "text")
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", strategy, err)
		}
		for _, fb := range decision.FallbackChain {
			if fb == decision.PrimaryModel {
				t.Errorf("strategy %s: fallback chain contains primary %s", strategy, decision.PrimaryModel)
			}
		}
	}
}

func TestRoute_SkipsOpenCircuits(t *testing.T) {
	breakers := NewBreakerRegistry(1, time.Minute)
	r := NewRouter(testEngine(), breakers, defaultWeights(), 2)

	// Trip openai's breaker: cheap-fast and premium drop out
	breakers.RecordFailure("openai")

	decision, err := r.Route(1000, 1000, StrategyCostOptimized, "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.PrimaryModel != "mid" {
		t.Errorf("expected mid (only available), got %s", decision.PrimaryModel)
	}
	if len(decision.FallbackChain) != 0 {
		t.Errorf("expected empty fallback chain, got %v", decision.FallbackChain)
	}
}

func TestRoute_NoAvailableProvider(t *testing.T) {
	breakers := NewBreakerRegistry(1, time.Minute)
	r := NewRouter(testEngine(), breakers, defaultWeights(), 2)

	breakers.RecordFailure("openai")
	breakers.RecordFailure("anthropic")

	_, err := r.Route(1000, 1000, StrategyCostOptimized, "text")
	if !errors.Is(err, ErrNoAvailableProvider) {
		t.Errorf("expected ErrNoAvailableProvider, got %v", err)
	}
}

func TestRoute_UnknownModality(t *testing.T) {
	r := NewRouter(testEngine(), NewBreakerRegistry(5, time.Minute), defaultWeights(), 2)

	_, err := r.Route(1000, 1000, StrategyCostOptimized, "video")
	if !errors.Is(err, ErrNoAvailableProvider) {
		t.Errorf("expected ErrNoAvailableProvider for unmatched modality, got %v", err)
	}
}

func TestRoute_TwoCandidateExample(t *testing.T) {
	table := pricing.NewTable([]pricing.ModelPrice{
		{ModelID: "model-a", Provider: "p1", Modality: "text", QualityTier: 5, TypicalLatencyMs: 500, InputPerMTok: 5.00, OutputPerMTok: 5.00},
		{ModelID: "model-b", Provider: "p2", Modality: "text", QualityTier: 5, TypicalLatencyMs: 500, InputPerMTok: 10.00, OutputPerMTok: 10.00},
	})
	engine := pricing.NewEngine(table, 100)
	r := NewRouter(engine, NewBreakerRegistry(5, time.Minute), defaultWeights(), 2)

	decision, err := r.Route(1000, 1000, StrategyCostOptimized, "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.PrimaryModel != "model-a" {
		t.Errorf("expected model-a primary, got %s", decision.PrimaryModel)
	}
	if len(decision.FallbackChain) != 1 || decision.FallbackChain[0] != "model-b" {
		t.Errorf("expected fallback [model-b], got %v", decision.FallbackChain)
	}
}
