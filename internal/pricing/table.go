package pricing

import (
	"github.com/voroninsergei/oneflow-ai-sub000/internal/config"
)

// ModelPrice is one immutable row of the pricing table. Prices are USD per
// 1M tokens.
type ModelPrice struct {
	ModelID          string
	Provider         string
	Modality         string
	QualityTier      int
	TypicalLatencyMs int
	InputPerMTok     float64
	OutputPerMTok    float64
}

// Table is the static per-model price catalog. It is built once from config
// and never mutated, so concurrent reads need no synchronization.
type Table struct {
	models map[string]ModelPrice
}

// TableFromConfig builds a pricing table from the models config.
func TableFromConfig(cfg *config.ModelsConfig) *Table {
	models := make(map[string]ModelPrice, len(cfg.Models))
	for id, entry := range cfg.Models {
		models[id] = ModelPrice{
			ModelID:          id,
			Provider:         entry.Provider,
			Modality:         entry.Modality,
			QualityTier:      entry.QualityTier,
			TypicalLatencyMs: entry.TypicalLatencyMs,
			InputPerMTok:     entry.InputPerMTok,
			OutputPerMTok:    entry.OutputPerMTok,
		}
	}
	return &Table{models: models}
}

// NewTable builds a table directly from entries. Used by tests and callers
// that do not go through the config loader.
func NewTable(entries []ModelPrice) *Table {
	models := make(map[string]ModelPrice, len(entries))
	for _, e := range entries {
		models[e.ModelID] = e
	}
	return &Table{models: models}
}

// Lookup returns the price entry for a model.
func (t *Table) Lookup(modelID string) (ModelPrice, bool) {
	p, ok := t.models[modelID]
	return p, ok
}

// ByModality returns all entries serving the given modality.
func (t *Table) ByModality(modality string) []ModelPrice {
	var out []ModelPrice
	for _, p := range t.models {
		if p.Modality == modality {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of models in the table.
func (t *Table) Len() int {
	return len(t.models)
}
