package api

import (
	"encoding/json"
	"net/http"

	"github.com/kiwellness/coach/internal/coach"
	"github.com/kiwellness/coach/internal/summary"
)

// contextPayload carries the caller's profile and raw logs. Summarization
// happens server-side; clients never send pre-computed aggregates.
type contextPayload struct {
	Profile summary.Profile `json:"profile"`
	summary.Logs
}

type chatMessageRequest struct {
	Message   string          `json:"message"`
	Question  string          `json:"question"` // enhanced chat uses this name
	UserID    string          `json:"user_id"`
	SessionID string          `json:"session_id"`
	Context   *contextPayload `json:"context"`
}

type chatMessageResponse struct {
	Success        bool   `json:"success"`
	Response       string `json:"response"`
	SessionID      string `json:"session_id"`
	ModelUsed      string `json:"model_used"`
	ResponseTimeMs int64  `json:"response_time_ms"`
	Note           string `json:"note,omitempty"`
}

func handleChatMessage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req chatMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		creq := coach.ChatRequest{
			Message:   req.Message,
			UserID:    userFromRequest(r, req.UserID),
			SessionID: req.SessionID,
		}
		if req.Context != nil {
			creq.Profile = req.Context.Profile
			logs := req.Context.Logs
			creq.Logs = &logs
		}

		res := deps.Pipeline.Chat(r.Context(), creq)

		writeJSON(w, http.StatusOK, chatMessageResponse{
			Success:        true,
			Response:       res.Response,
			SessionID:      res.SessionID,
			ModelUsed:      res.ModelUsed,
			ResponseTimeMs: res.ResponseTimeMs,
			Note:           res.Note,
		})
	}
}

func handleEnhancedChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req chatMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		question := req.Question
		if question == "" {
			question = req.Message
		}
		if question == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "question is required")
			return
		}

		res, err := deps.Pipeline.EnhancedChat(r.Context(), coach.ChatRequest{
			Message:   question,
			UserID:    userFromRequest(r, req.UserID),
			SessionID: req.SessionID,
		})
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "model backend unavailable: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, chatMessageResponse{
			Success:        true,
			Response:       res.Response,
			SessionID:      res.SessionID,
			ModelUsed:      res.ModelUsed,
			ResponseTimeMs: res.ResponseTimeMs,
		})
	}
}
