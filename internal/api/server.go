// Package api exposes the coach over HTTP and MCP: chat, analysis,
// settings and session management, training, and health surfaces.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kiwellness/coach/internal/coach"
	"github.com/kiwellness/coach/internal/config"
	"github.com/kiwellness/coach/internal/knowledge"
	"github.com/kiwellness/coach/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// serviceName appears in health and metrics payloads.
const serviceName = "Ki Wellness AI Service"

// serviceVersion is the reported API version.
const serviceVersion = "1.0.0"

// ModelLister is the slice of the Ollama client the health handlers need.
type ModelLister interface {
	IsRunning(ctx context.Context) bool
	ListModels(ctx context.Context) ([]string, error)
}

// Deps holds everything the HTTP handlers depend on.
type Deps struct {
	Store    *storage.Store
	Pipeline *coach.Pipeline
	Ollama   ModelLister
	Ingester *knowledge.Ingester
	Config   config.Config
	Logger   *slog.Logger
}

// NewHandler builds the full router. Health endpoints are public;
// everything else requires an API key.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Route("/health", func(r chi.Router) {
		r.Get("/", handleHealth)
		r.Get("/detailed", handleDetailedHealth(deps))
		r.Get("/ready", handleReady(deps))
		r.Get("/live", handleLive)
		r.Get("/metrics", handleMetrics(deps))
	})

	r.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(deps.Config.Auth.APIKeys, deps.Store, deps.Logger))

		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", handleChatMessage(deps))
			r.Post("/enhanced", handleEnhancedChat(deps))
		})

		r.Route("/analysis", func(r chi.Router) {
			r.Post("/generate", handleGenerateAnalysis(deps))
			r.Post("/user-summary", handleUserSummary(deps))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", handleListSettings(deps))
			r.Post("/", handleCreateSetting(deps))
			r.Get("/active", handleActiveSetting(deps))
			r.Get("/{id}", handleGetSetting(deps))
			r.Put("/{id}", handleUpdateSetting(deps))
			r.Delete("/{id}", handleDeleteSetting(deps))
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", handleListSessions(deps))
			r.Post("/", handleCreateSession(deps))
			r.Get("/{id}", handleGetSession(deps))
		})

		r.Route("/training", func(r chi.Router) {
			r.Get("/status", handleTrainingStatus(deps))
			r.Post("/example", handleCreateTrainingExample(deps))
			r.Post("/process-files", handleProcessTrainingFiles(deps))
			r.Post("/knowledge/search", handleSearchKnowledge(deps))
		})

		r.Get("/interactions", handleListInteractions(deps))
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	writeJSON(w, code, map[string]any{
		"success": false,
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

// userFromRequest resolves the acting user: X-User-ID header first, then
// the user_id query parameter, then the body value supplied by the caller.
func userFromRequest(r *http.Request, bodyUserID string) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	if id := r.URL.Query().Get("user_id"); id != "" {
		return id
	}
	return bodyUserID
}
