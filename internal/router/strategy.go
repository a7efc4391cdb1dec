package router

import "fmt"

// Strategy selects how candidates are ranked.
type Strategy string

const (
	StrategyCostOptimized    Strategy = "cost_optimized"
	StrategyLatencyOptimized Strategy = "latency_optimized"
	StrategyQualityOptimized Strategy = "quality_optimized"
	StrategyBalanced         Strategy = "balanced"
)

// ParseStrategy validates a strategy name. An empty name maps to balanced.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyCostOptimized, StrategyLatencyOptimized, StrategyQualityOptimized, StrategyBalanced:
		return Strategy(s), nil
	case "":
		return StrategyBalanced, nil
	default:
		return "", fmt.Errorf("unknown routing strategy: %q", s)
	}
}
