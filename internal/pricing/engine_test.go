package pricing

import (
	"errors"
	"testing"
)

func testTable() *Table {
	return NewTable([]ModelPrice{
		{ModelID: "gpt-4o", Provider: "openai", Modality: "text", QualityTier: 9, TypicalLatencyMs: 1200, InputPerMTok: 2.50, OutputPerMTok: 10.00},
		{ModelID: "claude-sonnet", Provider: "anthropic", Modality: "text", QualityTier: 8, TypicalLatencyMs: 900, InputPerMTok: 3.00, OutputPerMTok: 15.00},
		{ModelID: "sdxl", Provider: "stability", Modality: "image", QualityTier: 7, TypicalLatencyMs: 4000, InputPerMTok: 8.00, OutputPerMTok: 0},
	})
}

func TestEstimateCost_KnownModel(t *testing.T) {
	e := NewEngine(testTable(), 100)

	est, err := e.EstimateCost("gpt-4o", 1500, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 1500/1e6*2.50 + 500/1e6*10.00 = 0.00375 + 0.005 = 0.00875 USD
	if est.USD != 0.00875 {
		t.Errorf("expected usd=0.00875, got %v", est.USD)
	}
	if est.Credits != 0.875 {
		t.Errorf("expected credits=0.875, got %v", est.Credits)
	}
}

func TestEstimateCost_ZeroTokens(t *testing.T) {
	e := NewEngine(testTable(), 100)

	est, err := e.EstimateCost("gpt-4o", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.USD != 0 {
		t.Errorf("expected usd=0, got %v", est.USD)
	}
	if est.Credits != 0 {
		t.Errorf("expected credits=0, got %v", est.Credits)
	}
}

func TestEstimateCost_UnknownModel(t *testing.T) {
	e := NewEngine(testTable(), 100)

	_, err := e.EstimateCost("no-such-model", 100, 100)
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}
}

func TestEstimateCost_NegativeTokens(t *testing.T) {
	e := NewEngine(testTable(), 100)

	if _, err := e.EstimateCost("gpt-4o", -1, 100); !errors.Is(err, ErrInvalidTokenCount) {
		t.Errorf("expected ErrInvalidTokenCount for negative input, got %v", err)
	}
	if _, err := e.EstimateCost("gpt-4o", 100, -1); !errors.Is(err, ErrInvalidTokenCount) {
		t.Errorf("expected ErrInvalidTokenCount for negative output, got %v", err)
	}
}

func TestEstimateCost_Monotonic(t *testing.T) {
	e := NewEngine(testTable(), 100)

	prev := -1.0
	for _, tokens := range []int{0, 100, 1_000, 50_000, 2_000_000} {
		est, err := e.EstimateCost("claude-sonnet", tokens, tokens)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if est.USD < prev {
			t.Errorf("cost decreased at tokens=%d: %v < %v", tokens, est.USD, prev)
		}
		prev = est.USD
	}
}

func TestEstimateCost_Deterministic(t *testing.T) {
	e := NewEngine(testTable(), 100)

	first, err := e.EstimateCost("claude-sonnet", 12345, 678)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := e.EstimateCost("claude-sonnet", 12345, 678)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != first {
			t.Errorf("estimate changed between calls: %+v vs %+v", again, first)
		}
	}
}

func TestEstimateCost_DefaultConversionRate(t *testing.T) {
	e := NewEngine(testTable(), 0) // falls back to 100 credits/USD

	est, err := e.EstimateCost("gpt-4o", 1_000_000, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.USD != 2.50 {
		t.Errorf("expected usd=2.50, got %v", est.USD)
	}
	if est.Credits != 250 {
		t.Errorf("expected credits=250, got %v", est.Credits)
	}
}
