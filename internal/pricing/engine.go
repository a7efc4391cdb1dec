package pricing

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

var (
	// ErrUnknownModel is returned when a model is absent from the pricing table.
	ErrUnknownModel = errors.New("unknown model")
	// ErrInvalidTokenCount is returned when a token count is negative.
	ErrInvalidTokenCount = errors.New("invalid token count")
)

// DefaultCreditsPerUSD is the credit conversion rate: 100 credits = 1 USD.
const DefaultCreditsPerUSD = 100

// CostEstimate is the derived cost of a request. Not persisted.
type CostEstimate struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	USD          float64 `json:"usd_cost"`
	Credits      float64 `json:"credits"`
}

// Engine converts token counts into cost estimates using the pricing table.
// Safe for concurrent use; the table can be swapped on config reload.
type Engine struct {
	table         atomic.Pointer[Table]
	creditsPerUSD float64
}

// NewEngine creates a pricing engine. creditsPerUSD <= 0 falls back to the
// default conversion rate.
func NewEngine(table *Table, creditsPerUSD float64) *Engine {
	if creditsPerUSD <= 0 {
		creditsPerUSD = DefaultCreditsPerUSD
	}
	e := &Engine{creditsPerUSD: creditsPerUSD}
	e.table.Store(table)
	return e
}

// Table returns the engine's current pricing table.
func (e *Engine) Table() *Table {
	return e.table.Load()
}

// SetTable replaces the pricing table. Used on config reload.
func (e *Engine) SetTable(table *Table) {
	e.table.Store(table)
}

// EstimateCost computes the USD and credit cost for the given model and token
// counts. Zero tokens is valid and costs zero.
func (e *Engine) EstimateCost(modelID string, inputTokens, outputTokens int) (CostEstimate, error) {
	if inputTokens < 0 || outputTokens < 0 {
		return CostEstimate{}, fmt.Errorf("%w: input=%d output=%d", ErrInvalidTokenCount, inputTokens, outputTokens)
	}
	price, ok := e.Table().Lookup(modelID)
	if !ok {
		return CostEstimate{}, fmt.Errorf("%w: %s", ErrUnknownModel, modelID)
	}

	usd := float64(inputTokens)/1_000_000*price.InputPerMTok +
		float64(outputTokens)/1_000_000*price.OutputPerMTok

	return CostEstimate{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		USD:          usd,
		Credits:      roundCredits(usd * e.creditsPerUSD),
	}, nil
}

// roundCredits rounds to 4 decimal places so sub-credit costs of small
// requests stay representable.
func roundCredits(v float64) float64 {
	return math.Round(v*10000) / 10000
}
