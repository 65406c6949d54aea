package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"log/slog"
)

type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Models       ModelsConfig       `koanf:"models"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Tools        ToolsConfig        `koanf:"tools"`
	Analyst      AnalystConfig      `koanf:"analyst"`
	Prompts      PromptsConfig      `koanf:"prompts"`
}

type ServerConfig struct {
	Port            int    `koanf:"port"`
	LogLevel        string `koanf:"log_level"`
	ReadTimeout     string `koanf:"read_timeout"`
	WriteTimeout    string `koanf:"write_timeout"`
	IdleTimeout     string `koanf:"idle_timeout"`
	ShutdownTimeout string `koanf:"shutdown_timeout"`
}

type ModelsConfig struct {
	Default  string          `koanf:"default"`
	Fallback string          `koanf:"fallback"`
	Registry []ModelRegistry `koanf:"registry"`
}

type ModelRegistry struct {
	Name     string `koanf:"name"`
	Provider string `koanf:"provider"`
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"`
}

type OrchestratorConfig struct {
	MaxRounds         int    `koanf:"max_rounds"`
	ToolRetryMax      int    `koanf:"tool_retry_max"`
	ToolRetryBackoff  string `koanf:"tool_retry_backoff"`
	ToolRetryStrategy string `koanf:"tool_retry_strategy"`
}

type ToolsConfig struct {
	Yahoo    YahooConfig    `koanf:"yahoo"`
	Patterns PatternsConfig `koanf:"patterns"`
}

type YahooConfig struct {
	QuoteBaseURL   string `koanf:"quote_base_url"`
	SearchBaseURL  string `koanf:"search_base_url"`
	SummaryBaseURL string `koanf:"summary_base_url"`
	ChartBaseURL   string `koanf:"chart_base_url"`
	Timeout        string `koanf:"timeout"`
	MaxRetries     int    `koanf:"max_retries"`
	RetryBaseDelay string `koanf:"retry_base_delay"`
}

type PatternsConfig struct {
	HistoryRange   string `koanf:"history_range"`
	SampleInterval int    `koanf:"sample_interval"`
	LastRows       int    `koanf:"last_rows"`
}

type AnalystConfig struct {
	Enabled bool   `koanf:"enabled"`
	Model   string `koanf:"model"`
}

type PromptsConfig struct {
	Chat    string `koanf:"chat"`
	Analyst string `koanf:"analyst"`
}

const (
	DefaultServerPort            = 8080
	DefaultServerLogLevel        = "info"
	DefaultServerReadTimeout     = "10s"
	DefaultServerWriteTimeout    = "30s"
	DefaultServerIdleTimeout     = "60s"
	DefaultServerShutdownTimeout = "5s"

	DefaultModelDefault  = "gpt-4-turbo"
	DefaultModelFallback = ""

	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOllamaBaseURL = "http://localhost:11434/v1"
	DefaultOllamaAPIKey  = "ollama"

	DefaultOrchestratorMaxRounds  = 5
	DefaultToolRetryMax           = 3
	DefaultToolRetryBackoff       = "1s"
	DefaultToolRetryStrategy      = "exponential"
	DefaultYahooQuoteBaseURL      = "https://query1.finance.yahoo.com/v7/finance/quote"
	DefaultYahooSearchBaseURL     = "https://query2.finance.yahoo.com/v1/finance/search"
	DefaultYahooSummaryBaseURL    = "https://query2.finance.yahoo.com/v10/finance/quoteSummary"
	DefaultYahooChartBaseURL      = "https://query1.finance.yahoo.com/v8/finance/chart"
	DefaultYahooTimeout           = "10s"
	DefaultYahooMaxRetries        = 5
	DefaultYahooRetryBaseDelay    = "1s"
	DefaultPatternsHistoryRange   = "1y"
	DefaultPatternsSampleInterval = 10
	DefaultPatternsLastRows       = 0
	DefaultAnalystEnabled         = false
	DefaultAnalystModel           = ""

	DefaultChatPrompt = "You are a financial research assistant. You can call tools to resolve tickers, " +
		"fetch quotes, financial statements, news, and technical patterns. Resolve a company name to a ticker " +
		"before requesting data for it. When you have enough information, answer in clear analyst prose " +
		"with the actual figures; do not mention the tools you used."

	DefaultAnalystPrompt = "You are a financial analyst. You are given a JSON document of stock data. " +
		"Summarize it in a professional, analytical way, quoting the actual figures and naming the currency " +
		"the data is denominated in."
)

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":                     DefaultServerPort,
		"server.log_level":                DefaultServerLogLevel,
		"server.read_timeout":             DefaultServerReadTimeout,
		"server.write_timeout":            DefaultServerWriteTimeout,
		"server.idle_timeout":             DefaultServerIdleTimeout,
		"server.shutdown_timeout":         DefaultServerShutdownTimeout,
		"models.default":                  DefaultModelDefault,
		"models.fallback":                 DefaultModelFallback,
		"models.registry": []ModelRegistry{
			{Name: DefaultModelDefault, Provider: "openai"},
			{Name: "local-llama", Provider: "ollama", BaseURL: DefaultOllamaBaseURL},
		},
		"orchestrator.max_rounds":          DefaultOrchestratorMaxRounds,
		"orchestrator.tool_retry_max":      DefaultToolRetryMax,
		"orchestrator.tool_retry_backoff":  DefaultToolRetryBackoff,
		"orchestrator.tool_retry_strategy": DefaultToolRetryStrategy,
		"tools.yahoo.quote_base_url":       DefaultYahooQuoteBaseURL,
		"tools.yahoo.search_base_url":      DefaultYahooSearchBaseURL,
		"tools.yahoo.summary_base_url":     DefaultYahooSummaryBaseURL,
		"tools.yahoo.chart_base_url":       DefaultYahooChartBaseURL,
		"tools.yahoo.timeout":              DefaultYahooTimeout,
		"tools.yahoo.max_retries":          DefaultYahooMaxRetries,
		"tools.yahoo.retry_base_delay":     DefaultYahooRetryBaseDelay,
		"tools.patterns.history_range":     DefaultPatternsHistoryRange,
		"tools.patterns.sample_interval":   DefaultPatternsSampleInterval,
		"tools.patterns.last_rows":         DefaultPatternsLastRows,
		"analyst.enabled":                  DefaultAnalystEnabled,
		"analyst.model":                    DefaultAnalystModel,
		"prompts.chat":                     DefaultChatPrompt,
		"prompts.analyst":                  DefaultAnalystPrompt,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".kabu", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	k.Load(env.Provider("KABU_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "KABU_")), "_", ".", -1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	for i, m := range cfg.Models.Registry {
		if m.Provider == "" {
			cfg.Models.Registry[i].Provider = "openai"
		}
	}

	// Inject standard env vars when the registry leaves keys empty
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		for i, m := range cfg.Models.Registry {
			if m.Provider == "openai" && m.APIKey == "" {
				cfg.Models.Registry[i].APIKey = key
			}
		}
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		for i, m := range cfg.Models.Registry {
			if m.Provider == "anthropic" && m.APIKey == "" {
				cfg.Models.Registry[i].APIKey = key
			}
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		for i, m := range cfg.Models.Registry {
			if m.Provider == "gemini" && m.APIKey == "" {
				cfg.Models.Registry[i].APIKey = key
			}
		}
	}

	return &cfg, nil
}
