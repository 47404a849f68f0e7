package api

import (
	"encoding/json"
	"net/http"

	"github.com/kiwellness/coach/internal/coach"
	"github.com/kiwellness/coach/internal/summary"
)

type analysisRequest struct {
	UserData  *contextPayload `json:"user_data"`
	UserID    string          `json:"user_id"`
	SessionID string          `json:"session_id"`
}

type analysisResponse struct {
	Success        bool           `json:"success"`
	Analysis       coach.Analysis `json:"analysis"`
	SessionID      string         `json:"session_id"`
	ModelUsed      string         `json:"model_used"`
	ResponseTimeMs int64          `json:"response_time_ms"`
	Note           string         `json:"note,omitempty"`
}

func handleGenerateAnalysis(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req analysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.UserData == nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_data is required")
			return
		}

		res := deps.Pipeline.Analysis(r.Context(), coach.AnalysisRequest{
			UserID:    userFromRequest(r, req.UserID),
			SessionID: req.SessionID,
			Profile:   req.UserData.Profile,
			Logs:      req.UserData.Logs,
		})

		writeJSON(w, http.StatusOK, analysisResponse{
			Success:        true,
			Analysis:       res.Analysis,
			SessionID:      res.SessionID,
			ModelUsed:      res.ModelUsed,
			ResponseTimeMs: res.ResponseTimeMs,
			Note:           res.Note,
		})
	}
}

type userSummaryResponse struct {
	Profile summary.Profile `json:"profile"`
	summary.ContextSummary
}

// handleUserSummary computes the aggregate view over the supplied logs
// without touching the model backend.
func handleUserSummary(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req analysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.UserData == nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_data is required")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"summary": userSummaryResponse{
				Profile:        req.UserData.Profile,
				ContextSummary: summary.Summarize(req.UserData.Logs),
			},
		})
	}
}
