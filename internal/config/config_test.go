package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	// We pass nil for cmd to skip flags
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Expected default port %d, got %d", DefaultServerPort, cfg.Server.Port)
	}
	if cfg.Server.LogLevel != DefaultServerLogLevel {
		t.Errorf("Expected default log level %s, got %s", DefaultServerLogLevel, cfg.Server.LogLevel)
	}
	if cfg.Models.Default != DefaultModelDefault {
		t.Errorf("Expected default model %s, got %s", DefaultModelDefault, cfg.Models.Default)
	}
	if len(cfg.Models.Registry) == 0 {
		t.Error("Expected a non-empty default model registry")
	}
	if cfg.Orchestrator.MaxRounds != DefaultOrchestratorMaxRounds {
		t.Errorf("Expected default max rounds %d, got %d", DefaultOrchestratorMaxRounds, cfg.Orchestrator.MaxRounds)
	}
	if cfg.Orchestrator.ToolRetryMax != DefaultToolRetryMax {
		t.Errorf("Expected default tool retry max %d, got %d", DefaultToolRetryMax, cfg.Orchestrator.ToolRetryMax)
	}
	if cfg.Orchestrator.ToolRetryStrategy != DefaultToolRetryStrategy {
		t.Errorf("Expected default retry strategy %s, got %s", DefaultToolRetryStrategy, cfg.Orchestrator.ToolRetryStrategy)
	}
	if cfg.Tools.Yahoo.QuoteBaseURL != DefaultYahooQuoteBaseURL {
		t.Errorf("Expected default quote base url %s, got %s", DefaultYahooQuoteBaseURL, cfg.Tools.Yahoo.QuoteBaseURL)
	}
	if cfg.Tools.Yahoo.SearchBaseURL != DefaultYahooSearchBaseURL {
		t.Errorf("Expected default search base url %s, got %s", DefaultYahooSearchBaseURL, cfg.Tools.Yahoo.SearchBaseURL)
	}
	if cfg.Tools.Yahoo.MaxRetries != DefaultYahooMaxRetries {
		t.Errorf("Expected default yahoo max retries %d, got %d", DefaultYahooMaxRetries, cfg.Tools.Yahoo.MaxRetries)
	}
	if cfg.Tools.Patterns.HistoryRange != DefaultPatternsHistoryRange {
		t.Errorf("Expected default history range %s, got %s", DefaultPatternsHistoryRange, cfg.Tools.Patterns.HistoryRange)
	}
	if cfg.Tools.Patterns.SampleInterval != DefaultPatternsSampleInterval {
		t.Errorf("Expected default sample interval %d, got %d", DefaultPatternsSampleInterval, cfg.Tools.Patterns.SampleInterval)
	}
	if cfg.Analyst.Enabled != DefaultAnalystEnabled {
		t.Errorf("Expected default analyst enabled %v, got %v", DefaultAnalystEnabled, cfg.Analyst.Enabled)
	}
	if cfg.Prompts.Chat != DefaultChatPrompt {
		t.Errorf("Expected default chat prompt, got %s", cfg.Prompts.Chat)
	}
	if cfg.Prompts.Analyst != DefaultAnalystPrompt {
		t.Errorf("Expected default analyst prompt, got %s", cfg.Prompts.Analyst)
	}
}

func TestLoadWithConfigFlag(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := []byte(`
server:
  port: 9090
models:
  default: llama3.1
orchestrator:
  max_rounds: 8
`)
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "config file path")
	if err := cmd.Flags().Set("config", configPath); err != nil {
		t.Fatalf("failed to set config flag: %v", err)
	}

	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("failed to load config with --config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Models.Default != "llama3.1" {
		t.Fatalf("expected default model llama3.1, got %s", cfg.Models.Default)
	}
	if cfg.Orchestrator.MaxRounds != 8 {
		t.Fatalf("expected max rounds 8, got %d", cfg.Orchestrator.MaxRounds)
	}
}

func TestLoadWithMissingConfigFlagReturnsError(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "config file path")
	if err := cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Fatalf("failed to set config flag: %v", err)
	}

	if _, err := Load(cmd); err == nil {
		t.Fatal("expected error when --config points to missing file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("KABU_SERVER_PORT", "9191")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9191 {
		t.Errorf("expected env override port 9191, got %d", cfg.Server.Port)
	}
}

func TestLoadInjectsAPIKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	found := false
	for _, entry := range cfg.Models.Registry {
		if entry.Provider == "openai" {
			found = true
			if entry.APIKey != "sk-test" {
				t.Errorf("expected injected API key, got %q", entry.APIKey)
			}
		}
	}
	if !found {
		t.Fatal("expected an openai entry in the default registry")
	}
}
