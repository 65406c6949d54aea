package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/harunnryd/kabu/internal/analyst"
	"github.com/harunnryd/kabu/internal/config"
	"github.com/harunnryd/kabu/internal/model"
	"github.com/harunnryd/kabu/internal/orchestrator"
	"github.com/harunnryd/kabu/internal/tool"
	"github.com/harunnryd/kabu/internal/tool/builtin"
)

// runtimeComponents holds the wired pieces shared by the chat and
// serve commands.
type runtimeComponents struct {
	registry   *tool.Registry
	dispatch   *tool.Retrier
	router     *model.DefaultRouter
	planner    *orchestrator.Planner
	summarizer *analyst.Summarizer
}

func buildToolRegistry(cfg *config.Config) (*tool.Registry, error) {
	yahooTimeout, err := config.DurationOrDefault(cfg.Tools.Yahoo.Timeout, config.DefaultYahooTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse yahoo timeout: %w", err)
	}
	retryBaseDelay, err := config.DurationOrDefault(cfg.Tools.Yahoo.RetryBaseDelay, config.DefaultYahooRetryBaseDelay)
	if err != nil {
		return nil, fmt.Errorf("parse yahoo retry base delay: %w", err)
	}

	registry := tool.NewRegistry()
	tools := builtin.All(builtin.Options{
		Client:         &http.Client{Timeout: yahooTimeout},
		QuoteBaseURL:   cfg.Tools.Yahoo.QuoteBaseURL,
		SearchBaseURL:  cfg.Tools.Yahoo.SearchBaseURL,
		SummaryBaseURL: cfg.Tools.Yahoo.SummaryBaseURL,
		ChartBaseURL:   cfg.Tools.Yahoo.ChartBaseURL,
		MaxRetries:     cfg.Tools.Yahoo.MaxRetries,
		RetryBaseDelay: retryBaseDelay,
		HistoryRange:   cfg.Tools.Patterns.HistoryRange,
		SampleInterval: cfg.Tools.Patterns.SampleInterval,
		LastRows:       cfg.Tools.Patterns.LastRows,
	})
	for _, t := range tools {
		if err := registry.Register(t); err != nil {
			return nil, fmt.Errorf("register tool %s: %w", t.Name(), err)
		}
	}
	return registry, nil
}

func buildRuntime(cfg *config.Config) (*runtimeComponents, error) {
	registry, err := buildToolRegistry(cfg)
	if err != nil {
		return nil, err
	}

	backoff, err := backoffPolicy(cfg.Orchestrator)
	if err != nil {
		return nil, err
	}
	dispatch := tool.NewRetrier(tool.NewDispatcher(registry), cfg.Orchestrator.ToolRetryMax, backoff)

	router, err := model.NewRouter(cfg.Models)
	if err != nil {
		return nil, fmt.Errorf("initialize model router: %w", err)
	}

	client := model.NewClient(router, cfg.Models.Default)
	planner := orchestrator.NewPlanner(client, dispatch, cfg.Orchestrator.MaxRounds, cfg.Prompts.Chat)

	components := &runtimeComponents{
		registry: registry,
		dispatch: dispatch,
		router:   router,
		planner:  planner,
	}

	if cfg.Analyst.Enabled {
		analystModel := cfg.Analyst.Model
		if analystModel == "" {
			analystModel = cfg.Models.Default
		}
		components.summarizer = analyst.NewSummarizer(router, analystModel, cfg.Prompts.Analyst)
	}

	return components, nil
}

func backoffPolicy(cfg config.OrchestratorConfig) (tool.BackoffPolicy, error) {
	base, err := config.DurationOrDefault(cfg.ToolRetryBackoff, config.DefaultToolRetryBackoff)
	if err != nil {
		return nil, fmt.Errorf("parse tool retry backoff: %w", err)
	}

	switch cfg.ToolRetryStrategy {
	case "fixed":
		return tool.FixedBackoff{Interval: base}, nil
	case "", "exponential":
		return tool.ExponentialBackoff{Base: base, Max: 30 * time.Second}, nil
	default:
		return nil, fmt.Errorf("unknown tool retry strategy %q", cfg.ToolRetryStrategy)
	}
}
