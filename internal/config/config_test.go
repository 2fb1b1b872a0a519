package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "8080" {
		t.Fatalf("APIPort = %q", cfg.APIPort)
	}
	if cfg.FusionStrategy != "rrf" || cfg.FusionRRFK != 60 {
		t.Fatalf("fusion defaults = %q/%d", cfg.FusionStrategy, cfg.FusionRRFK)
	}
	if cfg.FusionVectorWeight != 0.7 || cfg.FusionKeywordWeight != 0.3 {
		t.Fatalf("fusion weights = %v/%v", cfg.FusionVectorWeight, cfg.FusionKeywordWeight)
	}
	if cfg.SimilarityThreshold != 0.7 {
		t.Fatalf("SimilarityThreshold = %v", cfg.SimilarityThreshold)
	}
	if !cfg.HydeUseBoth {
		t.Fatal("HydeUseBoth default should be true")
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("SEARCH_TOP_K", "25")
	t.Setenv("FUSION_STRATEGY", "weighted")
	t.Setenv("SIMILARITY_THRESHOLD", "0.55")
	t.Setenv("HYDE_USE_BOTH", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SearchTopK != 25 {
		t.Fatalf("SearchTopK = %d", cfg.SearchTopK)
	}
	if cfg.FusionStrategy != "weighted" {
		t.Fatalf("FusionStrategy = %q", cfg.FusionStrategy)
	}
	if cfg.SimilarityThreshold != 0.55 {
		t.Fatalf("SimilarityThreshold = %v", cfg.SimilarityThreshold)
	}
	if cfg.HydeUseBoth {
		t.Fatal("HYDE_USE_BOTH=false not applied")
	}
}

func TestLoadFileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("api_port: \"9999\"\nsearch_top_k: 15\nfusion_strategy: weighted\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SEARCH_TOP_K", "33")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "9999" {
		t.Fatalf("file value not applied, APIPort = %q", cfg.APIPort)
	}
	if cfg.SearchTopK != 33 {
		t.Fatalf("env should beat file, SearchTopK = %d", cfg.SearchTopK)
	}
	if cfg.FusionStrategy != "weighted" {
		t.Fatalf("FusionStrategy = %q", cfg.FusionStrategy)
	}
}

func TestLoadInvalidNumericEnvFallsBack(t *testing.T) {
	t.Setenv("SEARCH_TOP_K", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SearchTopK != 10 {
		t.Fatalf("SearchTopK = %d, want default 10", cfg.SearchTopK)
	}
}

func TestLoadMissingConfigFileFails(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
