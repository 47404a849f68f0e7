package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kiwellness/coach/internal/storage"
)

type settingRequest struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	ModelName         string   `json:"model_name"`
	Temperature       *float64 `json:"temperature"`
	MaxTokens         *int     `json:"max_tokens"`
	SystemPrompt      string   `json:"system_prompt"`
	ContextWindow     *int     `json:"context_window"`
	ResponseStyle     string   `json:"response_style"`
	IncludeSources    *bool    `json:"include_sources"`
	MaxResponseLength *int     `json:"max_response_length"`
}

func handleListSettings(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := deps.Store.ListSettings()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list settings: %v", err)
			return
		}
		if settings == nil {
			settings = []storage.Setting{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "settings": settings})
	}
}

func handleCreateSetting(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req settingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
			return
		}

		if _, err := deps.Store.GetSettingByName(req.Name); err == nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "setting with this name already exists")
			return
		} else if !errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to check setting name: %v", err)
			return
		}

		set := storage.Setting{
			ID:                uuid.NewString(),
			Name:              req.Name,
			Description:       req.Description,
			ModelName:         orDefault(req.ModelName, deps.Config.Ollama.ChatModel),
			Temperature:       orDefaultFloat(req.Temperature, 0.7),
			MaxTokens:         orDefaultInt(req.MaxTokens, 2000),
			SystemPrompt:      req.SystemPrompt,
			ContextWindow:     orDefaultInt(req.ContextWindow, 10),
			ResponseStyle:     orDefault(req.ResponseStyle, "professional"),
			IncludeSources:    orDefaultBool(req.IncludeSources, true),
			MaxResponseLength: orDefaultInt(req.MaxResponseLength, 500),
		}
		if err := deps.Store.CreateSetting(set); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create setting: %v", err)
			return
		}

		created, err := deps.Store.GetSetting(set.ID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to read created setting: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "setting": created})
	}
}

func handleGetSetting(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		set, err := deps.Store.GetSetting(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "setting not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get setting: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "setting": set})
	}
}

func handleUpdateSetting(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		set, err := deps.Store.GetSetting(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "setting not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get setting: %v", err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req settingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if req.Name != "" {
			set.Name = req.Name
		}
		if req.Description != "" {
			set.Description = req.Description
		}
		if req.ModelName != "" {
			set.ModelName = req.ModelName
		}
		if req.Temperature != nil {
			set.Temperature = *req.Temperature
		}
		if req.MaxTokens != nil {
			set.MaxTokens = *req.MaxTokens
		}
		if req.SystemPrompt != "" {
			set.SystemPrompt = req.SystemPrompt
		}
		if req.ContextWindow != nil {
			set.ContextWindow = *req.ContextWindow
		}
		if req.ResponseStyle != "" {
			set.ResponseStyle = req.ResponseStyle
		}
		if req.IncludeSources != nil {
			set.IncludeSources = *req.IncludeSources
		}
		if req.MaxResponseLength != nil {
			set.MaxResponseLength = *req.MaxResponseLength
		}

		if err := deps.Store.UpdateSetting(set); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to update setting: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "setting": set, "message": "Setting updated successfully"})
	}
}

// handleDeleteSetting deactivates the setting; the row is kept for audit.
func handleDeleteSetting(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Store.DeactivateSetting(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "setting not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete setting: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Setting deleted successfully"})
	}
}

// handleActiveSetting returns the first active setting, creating the
// default profile if none exists yet.
func handleActiveSetting(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := deps.Store.ListSettings()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list settings: %v", err)
			return
		}
		if len(settings) > 0 {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "settings": settings[0]})
			return
		}

		def := storage.Setting{
			ID:                uuid.NewString(),
			Name:              "Default Settings",
			Description:       "Default AI settings for Ki Wellness",
			ModelName:         deps.Config.Ollama.ChatModel,
			Temperature:       0.7,
			MaxTokens:         2000,
			ContextWindow:     10,
			ResponseStyle:     "professional",
			IncludeSources:    true,
			MaxResponseLength: 500,
		}
		if err := deps.Store.CreateSetting(def); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create default setting: %v", err)
			return
		}
		created, err := deps.Store.GetSetting(def.ID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to read default setting: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "settings": created})
	}
}

type sessionRequest struct {
	UserID     string `json:"user_id"`
	Title      string `json:"title"`
	SettingsID string `json:"settings_id"`
}

func handleListSessions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userFromRequest(r, "")
		if userID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
			return
		}
		sessions, err := deps.Store.ListSessions(userID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list sessions: %v", err)
			return
		}
		if sessions == nil {
			sessions = []storage.ChatSession{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "sessions": sessions})
	}
}

func handleCreateSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req sessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		sess := storage.ChatSession{
			ID:         uuid.NewString(),
			UserID:     userFromRequest(r, req.UserID),
			Title:      req.Title,
			SettingsID: req.SettingsID,
		}
		if err := deps.Store.CreateSession(sess); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create session: %v", err)
			return
		}
		created, err := deps.Store.GetSession(sess.ID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to read created session: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "session": created, "message": "Session created successfully"})
	}
}

func handleGetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := deps.Store.GetSession(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get session: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "session": sess})
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orDefaultInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func orDefaultFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func orDefaultBool(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
