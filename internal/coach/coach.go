// Package coach orchestrates the request pipeline: summarize logs,
// classify the question, assemble a bounded prompt, invoke the model
// backend, fall back to canned content on failure, and record exactly one
// audit row per invocation.
package coach

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kiwellness/coach/internal/composer"
	"github.com/kiwellness/coach/internal/ollama"
	"github.com/kiwellness/coach/internal/storage"
	"github.com/kiwellness/coach/internal/summary"
	"github.com/kiwellness/coach/internal/topic"
)

// modelCallTimeout bounds a single model invocation. Local models can be
// slow on first load but anything past this is treated as unavailable.
const modelCallTimeout = 30 * time.Second

// ModelUsedFallback is recorded as the model name when a canned response
// was served instead of model output.
const ModelUsedFallback = "fallback"

// Outcome classifies how a model invocation resolved.
type Outcome string

const (
	// OutcomeSuccess means the backend answered and the output was usable.
	OutcomeSuccess Outcome = "success"
	// OutcomeBackendUnavailable means the backend could not be reached or
	// errored; a canned response was served.
	OutcomeBackendUnavailable Outcome = "backend_unavailable"
	// OutcomeMalformedOutput means the backend answered but its output
	// failed structural validation and was replaced.
	OutcomeMalformedOutput Outcome = "malformed_output"
)

// Backend is the model invocation surface the pipeline depends on.
// *ollama.Client satisfies it.
type Backend interface {
	Chat(ctx context.Context, model string, messages []ollama.Message, schema *ollama.Schema) (string, error)
}

// Pipeline wires the summarizer, classifier, composer, model backend, and
// interaction log together.
type Pipeline struct {
	backend    Backend
	store      *storage.Store
	composer   *composer.Composer
	logger     *slog.Logger
	chatModel  string
	tunedModel string
}

func NewPipeline(backend Backend, store *storage.Store, comp *composer.Composer, logger *slog.Logger, chatModel, tunedModel string) *Pipeline {
	return &Pipeline{
		backend:    backend,
		store:      store,
		composer:   comp,
		logger:     logger,
		chatModel:  chatModel,
		tunedModel: tunedModel,
	}
}

// ChatRequest is one coach question plus optional context.
type ChatRequest struct {
	Message   string
	UserID    string
	SessionID string
	Profile   summary.Profile
	Logs      *summary.Logs // nil when the caller supplied no history
}

// ChatResult is the pipeline's answer. SessionID is always set: a fresh id
// is minted when the request carried none.
type ChatResult struct {
	Response       string
	SessionID      string
	ModelUsed      string
	ResponseTimeMs int64
	Outcome        Outcome
	Note           string
}

// Chat runs the full chat pipeline. It never returns an error for backend
// failures; those resolve to a canned response with Outcome set to
// OutcomeBackendUnavailable.
func (p *Pipeline) Chat(ctx context.Context, req ChatRequest) ChatResult {
	start := time.Now()

	userID := orAnonymous(req.UserID)
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var ctxSummary *summary.ContextSummary
	if req.Logs != nil {
		s := summary.Summarize(*req.Logs)
		ctxSummary = &s
	}

	tp := topic.Classify(req.Message)
	bundle := p.composer.BuildChatPrompt(req.Message, req.Profile, ctxSummary, tp)

	callCtx, cancel := context.WithTimeout(ctx, modelCallTimeout)
	defer cancel()

	answer, err := p.backend.Chat(callCtx, p.chatModel, []ollama.Message{{Role: "user", Content: bundle.Text}}, nil)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		p.logger.Warn("model backend unavailable, serving fallback", "model", p.chatModel, "error", err)
		canned := fallbackResponse(req.Message)
		p.record(storage.Interaction{
			ID:        uuid.NewString(),
			UserID:    userID,
			SessionID: sessionID,
			Type:      "chat_fallback",
			RequestData: snapshot(map[string]any{
				"message": req.Message,
				"topic":   string(tp),
			}),
			ResponseData: snapshot(map[string]any{
				"response": canned,
				"error":    err.Error(),
			}),
			ModelUsed:      ModelUsedFallback,
			ResponseTimeMs: elapsed,
		}, sessionID)
		return ChatResult{
			Response:       canned,
			SessionID:      sessionID,
			ModelUsed:      ModelUsedFallback,
			ResponseTimeMs: elapsed,
			Outcome:        OutcomeBackendUnavailable,
			Note:           fallbackNote,
		}
	}

	p.record(storage.Interaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		Type:      "chat",
		RequestData: snapshot(map[string]any{
			"message": req.Message,
			"topic":   string(tp),
		}),
		ResponseData:   snapshot(map[string]any{"response": answer}),
		ModelUsed:      p.chatModel,
		ResponseTimeMs: elapsed,
	}, sessionID)

	return ChatResult{
		Response:       answer,
		SessionID:      sessionID,
		ModelUsed:      p.chatModel,
		ResponseTimeMs: elapsed,
		Outcome:        OutcomeSuccess,
	}
}

// EnhancedChat sends the question to the tuned model first and retries on
// the base model. Prompt assembly is skipped; the tuned model carries the
// coaching behavior itself. Both models failing is a hard error.
func (p *Pipeline) EnhancedChat(ctx context.Context, req ChatRequest) (ChatResult, error) {
	start := time.Now()

	userID := orAnonymous(req.UserID)
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	messages := []ollama.Message{{Role: "user", Content: req.Message}}

	modelUsed := p.tunedModel
	callCtx, cancel := context.WithTimeout(ctx, modelCallTimeout)
	answer, err := p.backend.Chat(callCtx, p.tunedModel, messages, nil)
	cancel()
	if err != nil {
		p.logger.Warn("tuned model unavailable, retrying base model", "model", p.tunedModel, "error", err)
		modelUsed = p.chatModel
		callCtx, cancel = context.WithTimeout(ctx, modelCallTimeout)
		answer, err = p.backend.Chat(callCtx, p.chatModel, messages, nil)
		cancel()
		if err != nil {
			return ChatResult{}, err
		}
	}

	elapsed := time.Since(start).Milliseconds()
	p.record(storage.Interaction{
		ID:             uuid.NewString(),
		UserID:         userID,
		SessionID:      sessionID,
		Type:           "enhanced_chat",
		RequestData:    snapshot(map[string]any{"question": req.Message}),
		ResponseData:   snapshot(map[string]any{"response": answer}),
		ModelUsed:      modelUsed,
		ResponseTimeMs: elapsed,
	}, sessionID)

	return ChatResult{
		Response:       answer,
		SessionID:      sessionID,
		ModelUsed:      modelUsed,
		ResponseTimeMs: elapsed,
		Outcome:        OutcomeSuccess,
	}, nil
}

// Source is one citation attached to a suggestion.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Pattern is one data-backed observation in an analysis.
type Pattern struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Suggestion is one actionable recommendation in an analysis.
type Suggestion struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Sources     []Source `json:"sources,omitempty"`
}

// Analysis is the structured output of an analysis generation.
type Analysis struct {
	Patterns    []Pattern    `json:"patterns"`
	Suggestions []Suggestion `json:"suggestions"`
}

// AnalysisRequest carries a user's full history for pattern analysis.
type AnalysisRequest struct {
	UserID    string
	SessionID string
	Profile   summary.Profile
	Logs      summary.Logs
}

// AnalysisResult is the resolved analysis plus invocation metadata.
type AnalysisResult struct {
	Analysis       Analysis
	SessionID      string
	ModelUsed      string
	ResponseTimeMs int64
	Outcome        Outcome
	Note           string
}

// analysisSchema is handed to the backend as a response format hint. The
// output is still validated by parsing; the schema only nudges the model.
var analysisSchema = &ollama.Schema{
	Type: "object",
	Properties: map[string]ollama.SchemaProperty{
		"patterns": {
			Type: "array",
			Items: &ollama.Schema{
				Type: "object",
				Properties: map[string]ollama.SchemaProperty{
					"title":       {Type: "string"},
					"description": {Type: "string"},
				},
				Required: []string{"title", "description"},
			},
		},
		"suggestions": {
			Type: "array",
			Items: &ollama.Schema{
				Type: "object",
				Properties: map[string]ollama.SchemaProperty{
					"title":       {Type: "string"},
					"description": {Type: "string"},
				},
				Required: []string{"title", "description"},
			},
		},
	},
	Required: []string{"patterns", "suggestions"},
}

// Analysis runs the analysis pipeline. Backend failure yields the
// getting-started canned analysis; unparseable model output yields the
// repaired analysis. Neither is an error to the caller.
func (p *Pipeline) Analysis(ctx context.Context, req AnalysisRequest) AnalysisResult {
	start := time.Now()

	userID := orAnonymous(req.UserID)
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	s := summary.Summarize(req.Logs)
	prompt := p.composer.BuildAnalysisPrompt(req.Profile, s)
	dataSummary := dataSummaryLine(req.Logs)

	callCtx, cancel := context.WithTimeout(ctx, modelCallTimeout)
	defer cancel()

	raw, err := p.backend.Chat(callCtx, p.chatModel, []ollama.Message{{Role: "user", Content: prompt}}, analysisSchema)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		p.logger.Warn("model backend unavailable, serving fallback analysis", "model", p.chatModel, "error", err)
		canned := fallbackAnalysis()
		p.record(storage.Interaction{
			ID:             uuid.NewString(),
			UserID:         userID,
			SessionID:      sessionID,
			Type:           "analysis_fallback",
			RequestData:    snapshot(map[string]any{"data_summary": dataSummary}),
			ResponseData:   snapshot(map[string]any{"analysis": canned, "error": err.Error()}),
			ModelUsed:      ModelUsedFallback,
			ResponseTimeMs: elapsed,
		}, sessionID)
		return AnalysisResult{
			Analysis:       canned,
			SessionID:      sessionID,
			ModelUsed:      ModelUsedFallback,
			ResponseTimeMs: elapsed,
			Outcome:        OutcomeBackendUnavailable,
			Note:           "Using fallback analysis - AI model temporarily unavailable",
		}
	}

	outcome := OutcomeSuccess
	analysis, parseErr := parseAnalysis(raw)
	if parseErr != nil {
		p.logger.Warn("model returned malformed analysis output", "model", p.chatModel, "error", parseErr)
		analysis = repairedAnalysis()
		outcome = OutcomeMalformedOutput
	}

	p.record(storage.Interaction{
		ID:             uuid.NewString(),
		UserID:         userID,
		SessionID:      sessionID,
		Type:           "analysis_generation",
		RequestData:    snapshot(map[string]any{"data_summary": dataSummary}),
		ResponseData:   snapshot(map[string]any{"analysis": analysis}),
		ModelUsed:      p.chatModel,
		ResponseTimeMs: elapsed,
	}, sessionID)

	return AnalysisResult{
		Analysis:       analysis,
		SessionID:      sessionID,
		ModelUsed:      p.chatModel,
		ResponseTimeMs: elapsed,
		Outcome:        outcome,
	}
}

// parseAnalysis validates model output as a structured analysis.
func parseAnalysis(raw string) (Analysis, error) {
	var a Analysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &a); err != nil {
		return Analysis{}, err
	}
	return a, nil
}

// record appends the audit row and bumps the session, both best-effort:
// a storage failure is logged, never surfaced to the caller.
func (p *Pipeline) record(i storage.Interaction, sessionID string) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveInteraction(i); err != nil {
		p.logger.Error("failed to log interaction", "type", i.Type, "error", err)
	}
	if err := p.store.TouchSession(sessionID); err != nil {
		p.logger.Error("failed to touch session", "session_id", sessionID, "error", err)
	}
}

func snapshot(v map[string]any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func dataSummaryLine(logs summary.Logs) string {
	b, _ := json.Marshal(map[string]int{
		"food_logs":  len(logs.Food),
		"water_logs": len(logs.Water),
		"mood_logs":  len(logs.Mood),
		"notes":      len(logs.Notes),
	})
	return string(b)
}

func orAnonymous(userID string) string {
	if userID == "" {
		return "anonymous"
	}
	return userID
}
