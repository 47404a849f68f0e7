package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kiwellness/coach/internal/coach"
	"github.com/kiwellness/coach/internal/resources"
	"github.com/kiwellness/coach/internal/summary"
	"github.com/kiwellness/coach/internal/topic"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Pipeline *coach.Pipeline
}

// NewMCPServer creates an MCP server exposing the coach over stdio.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"coach",
		serviceVersion,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("Ki Wellness coach — grounded wellness chat, analysis, and log summarization over local models."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("wellness_chat",
			mcp.WithDescription("Ask the wellness coach a question. Optionally pass the user's logs as JSON to ground the answer in their data."),
			mcp.WithString("message", mcp.Description("The question to ask"), mcp.Required()),
			mcp.WithString("user_id", mcp.Description("User identifier for the interaction log")),
			mcp.WithString("logs", mcp.Description("JSON object with food_logs, water_logs, mood_logs, and notes arrays")),
		),
		mcpWellnessChat(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_analysis",
			mcp.WithDescription("Generate a structured pattern analysis (patterns plus suggestions) from a user's wellness logs."),
			mcp.WithString("logs", mcp.Description("JSON object with food_logs, water_logs, mood_logs, and notes arrays"), mcp.Required()),
			mcp.WithString("profile", mcp.Description("JSON object with name, age, health_goals, ailments_concerns")),
			mcp.WithString("user_id", mcp.Description("User identifier for the interaction log")),
		),
		mcpGenerateAnalysis(deps),
	)

	s.AddTool(
		mcp.NewTool("summarize_logs",
			mcp.WithDescription("Compute the aggregate summary (food, mood, water) over a user's wellness logs without calling the model."),
			mcp.WithString("logs", mcp.Description("JSON object with food_logs, water_logs, mood_logs, and notes arrays"), mcp.Required()),
		),
		mcpSummarizeLogs(),
	)

	s.AddResource(
		mcp.NewResource(
			"coach://resources",
			"Health Resources",
			mcp.WithResourceDescription("Curated blog and authoritative health resources grouped by topic"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceCatalog(),
	)

	return s
}

func mcpWellnessChat(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		creq := coach.ChatRequest{
			Message: message,
			UserID:  req.GetString("user_id", ""),
		}
		if logsJSON := req.GetString("logs", ""); logsJSON != "" {
			var logs summary.Logs
			if err := json.Unmarshal([]byte(logsJSON), &logs); err != nil {
				return mcpError(fmt.Sprintf("invalid logs JSON: %v", err)), nil
			}
			creq.Logs = &logs
		}

		res := deps.Pipeline.Chat(ctx, creq)

		out := res.Response
		if res.Note != "" {
			out += "\n\n(" + res.Note + ")"
		}
		return mcpText(out), nil
	}
}

func mcpGenerateAnalysis(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logsJSON, err := req.RequireString("logs")
		if err != nil {
			return mcpError("logs is required"), nil
		}

		var logs summary.Logs
		if err := json.Unmarshal([]byte(logsJSON), &logs); err != nil {
			return mcpError(fmt.Sprintf("invalid logs JSON: %v", err)), nil
		}

		var profile summary.Profile
		if profileJSON := req.GetString("profile", ""); profileJSON != "" {
			if err := json.Unmarshal([]byte(profileJSON), &profile); err != nil {
				return mcpError(fmt.Sprintf("invalid profile JSON: %v", err)), nil
			}
		}

		res := deps.Pipeline.Analysis(ctx, coach.AnalysisRequest{
			UserID:  req.GetString("user_id", ""),
			Profile: profile,
			Logs:    logs,
		})

		b, err := json.Marshal(map[string]any{
			"analysis":   res.Analysis,
			"model_used": res.ModelUsed,
			"outcome":    res.Outcome,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal analysis: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSummarizeLogs() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logsJSON, err := req.RequireString("logs")
		if err != nil {
			return mcpError("logs is required"), nil
		}

		var logs summary.Logs
		if err := json.Unmarshal([]byte(logsJSON), &logs); err != nil {
			return mcpError(fmt.Sprintf("invalid logs JSON: %v", err)), nil
		}

		b, err := json.Marshal(summary.Summarize(logs))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal summary: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceCatalog() server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		catalog := make(map[string][]resources.Resource)
		for _, tp := range topic.All() {
			catalog[string(tp)] = resources.ForTopic(tp)
		}

		b, err := json.Marshal(catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal resource catalog: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
