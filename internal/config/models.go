package config

// ModelsConfig is the model catalog: per-model reference data used to build
// the pricing table. Loaded once at startup, reloaded on file change.
type ModelsConfig struct {
	Models map[string]ModelEntry `yaml:"models"`
}

// ModelEntry describes one routable model. Prices are USD per 1M tokens.
type ModelEntry struct {
	Provider         string  `yaml:"provider"`
	Modality         string  `yaml:"modality"`
	QualityTier      int     `yaml:"quality_tier"`
	TypicalLatencyMs int     `yaml:"typical_latency_ms"`
	InputPerMTok     float64 `yaml:"input_per_mtok"`
	OutputPerMTok    float64 `yaml:"output_per_mtok"`
}
