package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oddslab/scratch-analyzer/pkg/common/enum"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("FEED_API_KEY", "sekrit")

	configContent := `
environment: development
sources:
  defaults:
    type: feed
    poll_interval: 15m
    client:
      timeout: 10s
      max_retries: 3
      retry_delay: 2s
      throttle:
        rps: 2
        burst: 4
  tx-lottery:
    mirrors:
      - url: "https://feed.example.com/games?key=${API_KEY}"
        api_key_env: FEED_API_KEY
        headers:
          X-Api-Key: "${FEED_API_KEY}"
      - url: "https://mirror.example.com/games"
        query:
          region: tx
  local-drop:
    type: file
    path: testdata/games.json
analysis:
  ignore_under_500: true
  apply_tax: true
nats:
  url: "nats://localhost:4222"
  subject_prefix: test.analysis
server:
  port: 9090
log:
  level: debug
`

	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("Expected environment 'development', got %q", cfg.Environment)
	}

	feed, err := cfg.Sources.GetSource("tx-lottery")
	if err != nil {
		t.Fatalf("tx-lottery source should exist: %v", err)
	}
	if feed.Name != "tx-lottery" {
		t.Errorf("Expected name filled from map key, got %q", feed.Name)
	}
	if feed.Type != enum.SourceTypeFeed {
		t.Errorf("Expected type 'feed' from defaults, got %q", feed.Type)
	}
	if feed.PollInterval != 15*time.Minute {
		t.Errorf("Expected poll interval 15m from defaults, got %v", feed.PollInterval)
	}
	if feed.Client.Timeout != 10*time.Second {
		t.Errorf("Expected client timeout 10s from defaults, got %v", feed.Client.Timeout)
	}
	if feed.Client.Throttle.RPS != 2 {
		t.Errorf("Expected throttle rps 2 from defaults, got %d", feed.Client.Throttle.RPS)
	}

	if len(feed.Mirrors) != 2 {
		t.Fatalf("Expected 2 mirrors, got %d", len(feed.Mirrors))
	}
	if feed.Mirrors[0].URL != "https://feed.example.com/games?key=sekrit" {
		t.Errorf("API key not substituted into URL, got %q", feed.Mirrors[0].URL)
	}
	if feed.Mirrors[0].Headers["X-Api-Key"] != "sekrit" {
		t.Errorf("Env var not substituted into header, got %q", feed.Mirrors[0].Headers["X-Api-Key"])
	}
	if feed.Mirrors[1].URL != "https://mirror.example.com/games?region=tx" {
		t.Errorf("Query params not attached to URL, got %q", feed.Mirrors[1].URL)
	}

	file, err := cfg.Sources.GetSource("local-drop")
	if err != nil {
		t.Fatalf("local-drop source should exist: %v", err)
	}
	if file.Type != enum.SourceTypeFile {
		t.Errorf("Explicit type should win over defaults, got %q", file.Type)
	}
	if file.Path != "testdata/games.json" {
		t.Errorf("Expected path preserved, got %q", file.Path)
	}
	if file.PollInterval != 15*time.Minute {
		t.Errorf("Expected poll interval merged from defaults, got %v", file.PollInterval)
	}

	if !cfg.Analysis.IgnoreUnder500 || !cfg.Analysis.ApplyTax {
		t.Error("Analysis toggles should be on")
	}
	if cfg.Analysis.TaxRate != 24 {
		t.Errorf("Expected default tax rate 24, got %v", cfg.Analysis.TaxRate)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected server port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %q", cfg.Log.Level)
	}
}

func TestLoadConfig_DefaultsWhenOmitted(t *testing.T) {
	configContent := `
environment: production
sources:
  local:
    type: file
    path: games.json
`
	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.NATS.URL == "" || cfg.NATS.SubjectPrefix == "" {
		t.Error("NATS defaults should be filled")
	}
	if cfg.Server.Port == 0 {
		t.Error("Server port default should be filled")
	}
	if cfg.Analysis.TaxRate != 24 {
		t.Errorf("Expected default tax rate 24, got %v", cfg.Analysis.TaxRate)
	}
}

func TestLoadConfig_FeedWithoutMirrorsFails(t *testing.T) {
	configContent := `
environment: development
sources:
  broken:
    type: feed
`
	if _, err := Load(writeConfig(t, configContent)); err == nil {
		t.Fatal("Expected validation error for feed source without mirrors")
	}
}

func TestLoadConfig_BadEnvironmentFails(t *testing.T) {
	configContent := `
environment: staging
sources:
  local:
    type: file
    path: games.json
`
	if _, err := Load(writeConfig(t, configContent)); err == nil {
		t.Fatal("Expected validation error for unknown environment")
	}
}

func TestValidateSources(t *testing.T) {
	sc := SourcesConfig{Items: map[string]SourceConfig{
		"a": {Name: "a"},
		"b": {Name: "b"},
	}}

	if err := sc.ValidateSources([]string{"a", "b"}); err != nil {
		t.Errorf("Known sources should validate: %v", err)
	}
	if err := sc.ValidateSources([]string{"a", "zzz"}); err == nil {
		t.Error("Unknown source should fail validation")
	}

	names := sc.GetAllSourceNames()
	if len(names) != 2 {
		t.Errorf("Expected 2 source names, got %d", len(names))
	}
}
