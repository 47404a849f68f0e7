package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Interaction is one append-only request/response audit row. ModelUsed is
// the literal "fallback" when the canned response path was taken.
type Interaction struct {
	ID             string
	UserID         string
	SessionID      string
	Type           string
	RequestData    string // JSON snapshot
	ResponseData   string // JSON snapshot
	ModelUsed      string
	ResponseTimeMs int64
	CreatedAt      time.Time
}

// KnowledgeDoc is one piece of ingested reference content.
type KnowledgeDoc struct {
	ID          string    `json:"id"`
	SourceFile  string    `json:"source_file"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
	Metadata    string    `json:"metadata"` // JSON stored as text
	CreatedAt   time.Time `json:"created_at"`
}

// TrainingExample is one question/answer pair collected for model tuning.
type TrainingExample struct {
	ID         string
	Question   string
	Answer     string
	Context    string
	SourceFile string
	Category   string
	CreatedAt  time.Time
}

// Setting is one named AI configuration profile. Deletion is soft: rows
// are deactivated, never removed.
type Setting struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	ModelName         string    `json:"model_name"`
	Temperature       float64   `json:"temperature"`
	MaxTokens         int       `json:"max_tokens"`
	SystemPrompt      string    `json:"system_prompt"`
	ContextWindow     int       `json:"context_window"`
	ResponseStyle     string    `json:"response_style"`
	IncludeSources    bool      `json:"include_sources"`
	MaxResponseLength int       `json:"max_response_length"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ChatSession groups a user's interactions under one conversation.
type ChatSession struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	SettingsID   string    `json:"settings_id,omitempty"`
	MessageCount int       `json:"message_count"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}
