package api

import (
	"net/http"
	"strings"
	"testing"
)

func TestChatMessage_Success(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{"mistral": "Try leafy greens."}}
	srv := testServer(t, testDeps(t, backend, &fakeOllama{running: true}))

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/chat/message",
		`{"message":"what should I eat?","user_id":"u1"}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if body["response"] != "Try leafy greens." {
		t.Errorf("response = %v", body["response"])
	}
	if body["model_used"] != "mistral" {
		t.Errorf("model_used = %v", body["model_used"])
	}
	if body["session_id"] == "" || body["session_id"] == nil {
		t.Error("session_id missing")
	}
	if _, ok := body["note"]; ok {
		t.Error("note should be omitted on success")
	}
}

func TestChatMessage_FallbackNote(t *testing.T) {
	backend := &fakeBackend{errs: map[string]error{"mistral": errRefused}}
	srv := testServer(t, testDeps(t, backend, &fakeOllama{}))

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/chat/message",
		`{"message":"how much water should I drink?"}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, fallback must still be 200", resp.StatusCode)
	}
	if body["model_used"] != "fallback" {
		t.Errorf("model_used = %v", body["model_used"])
	}
	note, _ := body["note"].(string)
	if !strings.Contains(note, "fallback") {
		t.Errorf("note = %q", note)
	}
}

func TestChatMessage_MissingMessage(t *testing.T) {
	srv := testServer(t, testDeps(t, &fakeBackend{}, &fakeOllama{}))

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/chat/message", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChatMessage_ContextLogsSummarized(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{"mistral": "ok"}}
	deps := testDeps(t, backend, &fakeOllama{running: true})
	srv := testServer(t, deps)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/chat/message",
		`{"message":"what meals boost energy?","context":{"profile":{"name":"Sam"},"food_logs":[{"name":"Oats","calories":300}]}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	// The interaction log proves the pipeline ran end to end.
	logged, err := deps.Store.RecentInteractions(5)
	if err != nil || len(logged) != 1 {
		t.Fatalf("interactions = %v, %v", logged, err)
	}
	if logged[0].Type != "chat" {
		t.Errorf("type = %q", logged[0].Type)
	}
}

func TestEnhancedChat_BothModelsDown(t *testing.T) {
	backend := &fakeBackend{errs: map[string]error{
		"ki-wellness-mistral": errRefused,
		"mistral":             errRefused,
	}}
	srv := testServer(t, testDeps(t, backend, &fakeOllama{}))

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/chat/enhanced", `{"question":"help"}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}

func TestEnhancedChat_UsesTunedModel(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"ki-wellness-mistral": "tuned",
		"mistral":             "base",
	}}
	srv := testServer(t, testDeps(t, backend, &fakeOllama{running: true}))

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/chat/enhanced", `{"question":"help me sleep"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["model_used"] != "ki-wellness-mistral" || body["response"] != "tuned" {
		t.Errorf("body = %v", body)
	}
}

func TestGenerateAnalysis_Success(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"mistral": `{"patterns":[{"title":"P","description":"d"}],"suggestions":[{"title":"S","description":"d"}]}`,
	}}
	srv := testServer(t, testDeps(t, backend, &fakeOllama{running: true}))

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/analysis/generate",
		`{"user_data":{"profile":{"name":"Sam"},"mood_logs":[{"mood":3},{"mood":4}]}}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	analysis, ok := body["analysis"].(map[string]any)
	if !ok {
		t.Fatalf("analysis missing: %v", body)
	}
	patterns, _ := analysis["patterns"].([]any)
	if len(patterns) != 1 {
		t.Errorf("patterns = %v", patterns)
	}
}

func TestGenerateAnalysis_MissingUserData(t *testing.T) {
	srv := testServer(t, testDeps(t, &fakeBackend{}, &fakeOllama{}))

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/analysis/generate", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestUserSummary_AggregatesWithoutModel(t *testing.T) {
	// No model responses configured: the summary endpoint must not call it.
	backend := &fakeBackend{errs: map[string]error{"mistral": errRefused}}
	srv := testServer(t, testDeps(t, backend, &fakeOllama{}))

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/analysis/user-summary",
		`{"user_data":{"profile":{"name":"Sam"},"food_logs":[{"name":"Oats","calories":300},{"name":"Oats","calories":200}]}}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	sum, ok := body["summary"].(map[string]any)
	if !ok {
		t.Fatalf("summary missing: %v", body)
	}
	food, _ := sum["food_summary"].(map[string]any)
	if food["total_entries"] != float64(2) {
		t.Errorf("total_entries = %v", food["total_entries"])
	}
	if food["avg_calories"] != float64(250) {
		t.Errorf("avg_calories = %v", food["avg_calories"])
	}
}
