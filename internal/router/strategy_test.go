package router

import "testing"

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    Strategy
		wantErr bool
	}{
		{"cost_optimized", StrategyCostOptimized, false},
		{"latency_optimized", StrategyLatencyOptimized, false},
		{"quality_optimized", StrategyQualityOptimized, false},
		{"balanced", StrategyBalanced, false},
		{"", StrategyBalanced, false},
		{"cheapest", "", true},
		{"COST_OPTIMIZED", "", true},
	}

	for _, tt := range tests {
		got, err := ParseStrategy(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseStrategy(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStrategy(%q): unexpected error %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}
