package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kiwellness/coach/internal/knowledge"
	"github.com/kiwellness/coach/internal/storage"
)

// maxTrainingFieldLen caps free-text training fields.
const maxTrainingFieldLen = 2000

func handleTrainingStatus(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		models, err := deps.Ollama.ListModels(r.Context())
		if err != nil {
			deps.Logger.Warn("failed to list models for training status", "error", err)
			models = []string{}
		}

		tunedAvailable := false
		for _, m := range models {
			if m == deps.Config.Ollama.TunedModel || strings.HasPrefix(m, deps.Config.Ollama.TunedModel+":") {
				tunedAvailable = true
			}
		}

		files, err := knowledge.ListTrainingFiles(deps.Config.Training.FilesDir)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list training files: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"status": map[string]any{
				"ollama_available":           len(models) > 0,
				"available_models":           models,
				"fine_tuned_model_available": tunedAvailable,
				"training_files_count":       len(files),
				"training_files":             files,
			},
		})
	}
}

type trainingExampleRequest struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Context    string `json:"context"`
	SourceFile string `json:"source_file"`
	Category   string `json:"category"`
}

func handleCreateTrainingExample(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req trainingExampleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Question == "" || req.Answer == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "question and answer are required")
			return
		}

		ex := storage.TrainingExample{
			ID:         uuid.NewString(),
			Question:   clip(req.Question, maxTrainingFieldLen),
			Answer:     clip(req.Answer, maxTrainingFieldLen),
			Context:    clip(req.Context, maxTrainingFieldLen),
			SourceFile: req.SourceFile,
			Category:   orDefault(req.Category, "general"),
		}
		if err := deps.Store.SaveTrainingExample(ex); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to store training example: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Training example created successfully",
			"example": map[string]any{
				"question": clip(ex.Question, 100),
				"answer":   clip(ex.Answer, 100),
				"category": ex.Category,
			},
		})
	}
}

type processFilesRequest struct {
	FilesDir string `json:"files_dir"`
}

func handleProcessTrainingFiles(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req processFilesRequest
		// Body is optional; an empty body means the configured directory.
		_ = json.NewDecoder(r.Body).Decode(&req)

		dir := orDefault(req.FilesDir, deps.Config.Training.FilesDir)
		results, err := deps.Ingester.ProcessDir(dir)
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found", "training directory not found: %s", dir)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":         true,
			"processed_files": results,
			"total_files":     len(results),
		})
	}
}

type knowledgeSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func handleSearchKnowledge(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req knowledgeSearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Query == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "search query is required")
			return
		}

		results, err := deps.Ingester.Search(req.Query, req.Limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "knowledge search failed: %v", err)
			return
		}
		if results == nil {
			results = []storage.KnowledgeDoc{}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"query":         req.Query,
			"results":       results,
			"total_results": len(results),
		})
	}
}

func handleListInteractions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		userID := r.URL.Query().Get("user_id")

		var (
			interactions []storage.Interaction
			err          error
		)
		if userID != "" {
			interactions, err = deps.Store.InteractionsForUser(userID, limit)
		} else {
			interactions, err = deps.Store.RecentInteractions(limit)
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list interactions: %v", err)
			return
		}

		type interactionView struct {
			ID             string `json:"id"`
			UserID         string `json:"user_id"`
			SessionID      string `json:"session_id,omitempty"`
			Type           string `json:"interaction_type"`
			ModelUsed      string `json:"model_used"`
			ResponseTimeMs int64  `json:"response_time_ms"`
			CreatedAt      string `json:"created_at"`
		}
		views := make([]interactionView, len(interactions))
		for i, ix := range interactions {
			views[i] = interactionView{
				ID:             ix.ID,
				UserID:         ix.UserID,
				SessionID:      ix.SessionID,
				Type:           ix.Type,
				ModelUsed:      ix.ModelUsed,
				ResponseTimeMs: ix.ResponseTimeMs,
				CreatedAt:      ix.CreatedAt.UTC().Format(time.RFC3339),
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true, "interactions": views})
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
