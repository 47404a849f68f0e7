package api

import (
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

type componentStatus struct {
	Status string `json:"status"`
	Model  string `json:"model,omitempty"`
	Error  string `json:"error,omitempty"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":   serviceName,
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   serviceVersion,
	})
}

func handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleDetailedHealth probes the model backend and the database in
// parallel. One failure degrades the service, both mark it unhealthy.
func handleDetailedHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ollamaStatus := componentStatus{Status: "healthy", Model: deps.Config.Ollama.ChatModel}
		dbStatus := componentStatus{Status: "healthy"}

		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			if !deps.Ollama.IsRunning(ctx) {
				ollamaStatus.Status = "unhealthy"
				ollamaStatus.Error = "ollama is not responding"
			}
			return nil
		})
		g.Go(func() error {
			if err := deps.Store.Ping(); err != nil {
				dbStatus.Status = "unhealthy"
				dbStatus.Error = err.Error()
			}
			return nil
		})
		g.Wait()

		status := "healthy"
		switch {
		case ollamaStatus.Status == "unhealthy" && dbStatus.Status == "unhealthy":
			status = "unhealthy"
		case ollamaStatus.Status == "unhealthy" || dbStatus.Status == "unhealthy":
			status = "degraded"
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"service":   serviceName,
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   serviceVersion,
			"components": map[string]any{
				"ollama":   ollamaStatus,
				"database": dbStatus,
			},
			"response_time_ms": time.Since(start).Milliseconds(),
		})
	}
}

// handleReady answers 503 until both the model backend and the database
// respond, for load balancer health checks.
func handleReady(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var issues []string

		g, ctx := errgroup.WithContext(r.Context())
		var ollamaIssue, dbIssue string
		g.Go(func() error {
			if !deps.Ollama.IsRunning(ctx) {
				ollamaIssue = "Ollama: not responding"
			}
			return nil
		})
		g.Go(func() error {
			if err := deps.Store.Ping(); err != nil {
				dbIssue = "Database: " + err.Error()
			}
			return nil
		})
		g.Wait()

		for _, issue := range []string{ollamaIssue, dbIssue} {
			if issue != "" {
				issues = append(issues, issue)
			}
		}

		if len(issues) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":    "not_ready",
				"issues":    issues,
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ready",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

var startTime = time.Now()

func handleMetrics(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		knowledgeDocs, _ := deps.Store.CountKnowledgeDocs()

		writeJSON(w, http.StatusOK, map[string]any{
			"service":        serviceName,
			"timestamp":      time.Now().UTC().Format(time.RFC3339),
			"uptime_seconds": int64(time.Since(startTime).Seconds()),
			"knowledge_docs": knowledgeDocs,
		})
	}
}
