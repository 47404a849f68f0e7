package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kiwellness/coach/internal/coach"
)

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func newTestMCPDeps(t *testing.T, backend coach.Backend) MCPDeps {
	t.Helper()
	deps := testDeps(t, backend, &fakeOllama{})
	return MCPDeps{Pipeline: deps.Pipeline}
}

func TestMCPWellnessChat(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{"mistral": "Eat more fiber."}}
	deps := newTestMCPDeps(t, backend)

	handler := mcpWellnessChat(deps)
	result, err := handler(context.Background(), makeCallToolRequest("wellness_chat", map[string]interface{}{
		"message": "what should I eat?",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}
	if got := toolText(t, result); got != "Eat more fiber." {
		t.Errorf("text = %q", got)
	}
}

func TestMCPWellnessChat_FallbackAnnotated(t *testing.T) {
	backend := &fakeBackend{errs: map[string]error{"mistral": errRefused}}
	deps := newTestMCPDeps(t, backend)

	handler := mcpWellnessChat(deps)
	result, err := handler(context.Background(), makeCallToolRequest("wellness_chat", map[string]interface{}{
		"message": "how much water?",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !strings.Contains(toolText(t, result), "temporarily unavailable") {
		t.Errorf("fallback note missing: %q", toolText(t, result))
	}
}

func TestMCPWellnessChat_MissingMessage(t *testing.T) {
	deps := newTestMCPDeps(t, &fakeBackend{})

	handler := mcpWellnessChat(deps)
	result, err := handler(context.Background(), makeCallToolRequest("wellness_chat", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for missing message")
	}
}

func TestMCPGenerateAnalysis(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"mistral": `{"patterns":[{"title":"P","description":"d"}],"suggestions":[{"title":"S","description":"d"}]}`,
	}}
	deps := newTestMCPDeps(t, backend)

	handler := mcpGenerateAnalysis(deps)
	result, err := handler(context.Background(), makeCallToolRequest("generate_analysis", map[string]interface{}{
		"logs":    `{"mood_logs":[{"mood":3},{"mood":4}]}`,
		"profile": `{"name":"Sam"}`,
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var out struct {
		Analysis coach.Analysis `json:"analysis"`
		Outcome  string         `json:"outcome"`
	}
	if err := json.Unmarshal([]byte(toolText(t, result)), &out); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if out.Outcome != string(coach.OutcomeSuccess) || len(out.Analysis.Patterns) != 1 {
		t.Errorf("out = %+v", out)
	}
}

func TestMCPGenerateAnalysis_InvalidLogs(t *testing.T) {
	deps := newTestMCPDeps(t, &fakeBackend{})

	handler := mcpGenerateAnalysis(deps)
	result, err := handler(context.Background(), makeCallToolRequest("generate_analysis", map[string]interface{}{
		"logs": "not json",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for invalid logs JSON")
	}
}

func TestMCPSummarizeLogs(t *testing.T) {
	handler := mcpSummarizeLogs()
	result, err := handler(context.Background(), makeCallToolRequest("summarize_logs", map[string]interface{}{
		"logs": `{"food_logs":[{"name":"Oats","calories":300},{"name":"Oats","calories":200}]}`,
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(toolText(t, result)), &out); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	food, _ := out["food_summary"].(map[string]any)
	if food["avg_calories"] != float64(250) {
		t.Errorf("avg_calories = %v", food["avg_calories"])
	}
}

func TestMCPResourceCatalog(t *testing.T) {
	handler := mcpResourceCatalog()
	contents, err := handler(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: "coach://resources"},
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %v", contents)
	}
	text := contents[0].(mcp.TextResourceContents).Text

	var catalog map[string][]map[string]string
	if err := json.Unmarshal([]byte(text), &catalog); err != nil {
		t.Fatalf("decoding catalog: %v", err)
	}
	if len(catalog["nutrition"]) == 0 {
		t.Error("nutrition resources missing from catalog")
	}
}
