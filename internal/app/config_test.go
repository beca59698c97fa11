package app

import "testing"

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()
	if cfg.ExecutionMode != "DAILY" {
		t.Fatalf("ExecutionMode = %q, want DAILY", cfg.ExecutionMode)
	}
	if cfg.MaxGazetteFileSizeMB != 500 {
		t.Fatalf("MaxGazetteFileSizeMB = %d, want 500", cfg.MaxGazetteFileSizeMB)
	}
	if cfg.SearchIndexName != "gazettes" {
		t.Fatalf("SearchIndexName = %q, want gazettes", cfg.SearchIndexName)
	}
	if cfg.TemporalAddress != "" {
		t.Fatalf("TemporalAddress default should be empty, got %q", cfg.TemporalAddress)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("EXECUTION_MODE", "BACKFILL")
	t.Setenv("PIPELINE_WORKER_LIMIT", "8")

	cfg := LoadConfig()
	if cfg.ExecutionMode != "BACKFILL" {
		t.Fatalf("ExecutionMode = %q, want BACKFILL", cfg.ExecutionMode)
	}
	if cfg.WorkerLimit != 8 {
		t.Fatalf("WorkerLimit = %d, want 8", cfg.WorkerLimit)
	}
}
