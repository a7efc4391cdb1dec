package pricing

import (
	"testing"

	"github.com/voroninsergei/oneflow-ai-sub000/internal/config"
)

func TestTableFromConfig(t *testing.T) {
	cfg := &config.ModelsConfig{
		Models: map[string]config.ModelEntry{
			"gpt-4o": {
				Provider:         "openai",
				Modality:         "text",
				QualityTier:      9,
				TypicalLatencyMs: 1200,
				InputPerMTok:     2.50,
				OutputPerMTok:    10.00,
			},
		},
	}

	table := TableFromConfig(cfg)
	if table.Len() != 1 {
		t.Fatalf("expected 1 model, got %d", table.Len())
	}

	price, ok := table.Lookup("gpt-4o")
	if !ok {
		t.Fatal("expected gpt-4o in table")
	}
	if price.Provider != "openai" {
		t.Errorf("expected provider openai, got %s", price.Provider)
	}
	if price.OutputPerMTok != 10.00 {
		t.Errorf("expected output_per_mtok 10.00, got %v", price.OutputPerMTok)
	}
}

func TestTable_ByModality(t *testing.T) {
	table := testTable()

	text := table.ByModality("text")
	if len(text) != 2 {
		t.Errorf("expected 2 text models, got %d", len(text))
	}

	image := table.ByModality("image")
	if len(image) != 1 {
		t.Errorf("expected 1 image model, got %d", len(image))
	}

	video := table.ByModality("video")
	if len(video) != 0 {
		t.Errorf("expected 0 video models, got %d", len(video))
	}
}

func TestTable_LookupMissing(t *testing.T) {
	table := testTable()
	if _, ok := table.Lookup("missing"); ok {
		t.Error("expected lookup miss for unknown model")
	}
}
