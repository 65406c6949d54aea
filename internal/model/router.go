package model

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/harunnryd/kabu/internal/config"
	kabuErrors "github.com/harunnryd/kabu/internal/errors"
	"github.com/harunnryd/kabu/internal/logger"
	"github.com/harunnryd/kabu/internal/model/contract"
	anthropicProvider "github.com/harunnryd/kabu/internal/model/providers/anthropic"
	geminiProvider "github.com/harunnryd/kabu/internal/model/providers/gemini"
	openaiProvider "github.com/harunnryd/kabu/internal/model/providers/openai"
)

// DefaultRouter maps configured model names onto provider instances.
// Providers are created once at startup; the map is read-only after.
type DefaultRouter struct {
	cfg       config.ModelsConfig
	providers map[string]Provider
}

func NewRouter(cfg config.ModelsConfig) (*DefaultRouter, error) {
	router := &DefaultRouter{
		cfg:       cfg,
		providers: make(map[string]Provider),
	}

	for _, entry := range cfg.Registry {
		provider, err := createProvider(entry)
		if err != nil {
			slog.Warn("Failed to create provider", "provider", entry.Provider, "model", entry.Name, "error", err)
			continue
		}
		router.providers[entry.Name] = provider
		slog.Info("Provider initialized", "name", entry.Name, "type", entry.Provider)
	}

	if len(router.providers) == 0 && len(cfg.Registry) > 0 {
		return nil, kabuErrors.Internal("no providers initialized")
	}

	return router, nil
}

func (r *DefaultRouter) Route(ctx context.Context, model string, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	traceID := logger.GetTraceID(ctx)

	provider, resolved, err := r.resolveProvider(model)
	if err != nil {
		return nil, err
	}

	req.Model = resolved
	slog.Debug("Routing completion request", "model", resolved, "trace_id", traceID)

	resp, err := provider.Generate(ctx, req)
	if err == nil {
		return resp, nil
	}

	slog.Error("Provider request failed", "model", resolved, "error", err, "trace_id", traceID)

	if r.cfg.Fallback == "" || resolved == r.cfg.Fallback {
		return nil, kabuErrors.Wrap(err, "provider request failed")
	}

	fallbackProvider, exists := r.providers[r.cfg.Fallback]
	if !exists {
		return nil, kabuErrors.Wrap(err, "provider request failed")
	}

	slog.Info("Attempting fallback", "from", resolved, "to", r.cfg.Fallback, "trace_id", traceID)
	req.Model = r.cfg.Fallback
	resp, fallbackErr := fallbackProvider.Generate(ctx, req)
	if fallbackErr != nil {
		return nil, kabuErrors.Wrap(fallbackErr, "fallback request failed")
	}
	return resp, nil
}

func (r *DefaultRouter) ListModels() []string {
	models := make([]string, 0, len(r.providers))
	for name := range r.providers {
		models = append(models, name)
	}
	sort.Strings(models)
	return models
}

func (r *DefaultRouter) resolveProvider(model string) (Provider, string, error) {
	if provider, exists := r.providers[model]; exists {
		return provider, model, nil
	}

	slog.Warn("Model not found", "model", model)
	if r.cfg.Fallback != "" && model != r.cfg.Fallback {
		if provider, exists := r.providers[r.cfg.Fallback]; exists {
			return provider, r.cfg.Fallback, nil
		}
	}
	return nil, "", kabuErrors.Permanent(fmt.Sprintf("model %s not configured", model))
}

func createProvider(entry config.ModelRegistry) (Provider, error) {
	switch entry.Provider {
	case "openai":
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultOpenAIBaseURL
		}
		if entry.APIKey == "" {
			return nil, kabuErrors.InvalidInput("API key required for OpenAI provider")
		}
		return openaiProvider.New(entry.APIKey, baseURL), nil

	case "ollama":
		// Ollama speaks the OpenAI chat protocol; only the base URL
		// and the placeholder key differ.
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultOllamaBaseURL
		}
		apiKey := entry.APIKey
		if apiKey == "" {
			apiKey = config.DefaultOllamaAPIKey
		}
		return openaiProvider.New(apiKey, baseURL), nil

	case "anthropic":
		if entry.APIKey == "" {
			return nil, kabuErrors.InvalidInput("API key required for Anthropic provider")
		}
		return anthropicProvider.New(entry.APIKey), nil

	case "gemini":
		if entry.APIKey == "" {
			return nil, kabuErrors.InvalidInput("API key required for Gemini provider")
		}
		provider, err := geminiProvider.New(entry.APIKey)
		if err != nil {
			return nil, kabuErrors.Wrap(err, "failed to create Gemini provider")
		}
		return provider, nil

	default:
		return nil, kabuErrors.InvalidInput(fmt.Sprintf("unknown provider type: %s", entry.Provider))
	}
}
