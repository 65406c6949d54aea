package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/harunnryd/kabu/internal/analyst"
	"github.com/harunnryd/kabu/internal/config"
	kabuErrors "github.com/harunnryd/kabu/internal/errors"
	"github.com/harunnryd/kabu/internal/logger"
	"github.com/harunnryd/kabu/internal/model/contract"
	"github.com/harunnryd/kabu/internal/tool"
)

const maxRequestBody = 1 << 20

// Server exposes the registered tools over HTTP, independent of the
// chat surface: the catalog with input schemas on GET /v1/tools and
// invocation on POST /v1/tools/{name}.
type Server struct {
	registry    *tool.Registry
	dispatch    *tool.Retrier
	summarizer  *analyst.Summarizer
	server      *http.Server
	shutdownTTL time.Duration
}

func New(cfg config.ServerConfig, registry *tool.Registry, dispatch *tool.Retrier, summarizer *analyst.Summarizer) (*Server, error) {
	readTimeout, err := config.DurationOrDefault(cfg.ReadTimeout, config.DefaultServerReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server read timeout: %w", err)
	}
	writeTimeout, err := config.DurationOrDefault(cfg.WriteTimeout, config.DefaultServerWriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server write timeout: %w", err)
	}
	idleTimeout, err := config.DurationOrDefault(cfg.IdleTimeout, config.DefaultServerIdleTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server idle timeout: %w", err)
	}
	shutdownTimeout, err := config.DurationOrDefault(cfg.ShutdownTimeout, config.DefaultServerShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server shutdown timeout: %w", err)
	}

	s := &Server{
		registry:    registry,
		dispatch:    dispatch,
		summarizer:  summarizer,
		shutdownTTL: shutdownTimeout,
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/tools", s.handleListTools)
	mux.HandleFunc("POST /v1/tools/{name}", s.handleCallTool)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTTL)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		return err
	}
	slog.Info("HTTP server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"tools":  s.registry.Len(),
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tools": s.registry.Descriptors(),
	})
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := s.registry.Get(name); !ok {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": fmt.Sprintf("unknown tool %q", name),
		})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "read request body"})
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte(`{}`)
	}

	call := &contract.ToolCall{
		ID:    "srv_" + ulid.Make().String(),
		Name:  name,
		Input: string(body),
	}

	ctx := logger.WithTraceID(r.Context(), call.ID)
	result := s.dispatch.Dispatch(ctx, call)

	if result.Status == contract.StatusError {
		status := http.StatusBadGateway
		if strings.Contains(result.Error, kabuErrors.ErrInvalidInput.Error()) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, result)
		return
	}

	if s.summarizer != nil {
		summary, err := s.summarizer.Summarize(ctx, result.Payload)
		if err != nil {
			slog.Warn("Payload summarization failed, returning raw payload", "tool", name, "error", err)
		} else {
			result.Payload, _ = json.Marshal(map[string]string{"summary": summary})
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
