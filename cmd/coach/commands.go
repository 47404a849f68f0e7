package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiwellness/coach/internal/config"
	"github.com/kiwellness/coach/internal/ollama"
)

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the wellness coach a question",
	Long: `Ask the wellness coach a question.

Examples:
  coach ask "what should I eat for more energy?"
  coach ask --user alice --enhanced "how is my mood trending?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		userID, _ := cmd.Flags().GetString("user")
		sessionID, _ := cmd.Flags().GetString("session")
		enhanced, _ := cmd.Flags().GetBool("enhanced")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := map[string]any{"message": question}
		if userID != "" {
			req["user_id"] = userID
		}
		if sessionID != "" {
			req["session_id"] = sessionID
		}

		path := "/chat/message"
		if enhanced {
			path = "/chat/enhanced"
		}
		resp, err := client.post(cmd.Context(), path, req)
		if err != nil {
			return err
		}

		var result struct {
			Response       string `json:"response"`
			SessionID      string `json:"session_id"`
			ModelUsed      string `json:"model_used"`
			ResponseTimeMs int64  `json:"response_time_ms"`
			Note           string `json:"note"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Response)
		if result.Note != "" {
			printWarning("%s", result.Note)
		}
		printStatus("Model", "%s (%dms)", result.ModelUsed, result.ResponseTimeMs)
		printStatus("Session", "%s", result.SessionID)
		return nil
	},
}

func init() {
	askCmd.Flags().String("user", "", "user identifier for the interaction log")
	askCmd.Flags().String("session", "", "chat session to continue")
	askCmd.Flags().Bool("enhanced", false, "prefer the fine-tuned model")
}

// --- train ---

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Manage training data and the knowledge base",
}

var trainStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show model and training file status",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/training/status")
		if err != nil {
			return err
		}

		var result struct {
			Status struct {
				OllamaAvailable    bool     `json:"ollama_available"`
				AvailableModels    []string `json:"available_models"`
				TunedAvailable     bool     `json:"fine_tuned_model_available"`
				TrainingFilesCount int      `json:"training_files_count"`
			} `json:"status"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		st := result.Status
		printStatus("Ollama", "%s", availabilityLabel(st.OllamaAvailable))
		printStatus("Fine-tuned model", "%s", availabilityLabel(st.TunedAvailable))
		printStatus("Models", "%s", strings.Join(st.AvailableModels, ", "))
		printStatus("Training files", "%d", st.TrainingFilesCount)
		return nil
	},
}

var trainAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a question/answer training example",
	RunE: func(cmd *cobra.Command, args []string) error {
		question, _ := cmd.Flags().GetString("question")
		answer, _ := cmd.Flags().GetString("answer")
		category, _ := cmd.Flags().GetString("category")

		if question == "" || answer == "" {
			return fmt.Errorf("--question and --answer are required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := map[string]any{"question": question, "answer": answer}
		if category != "" {
			req["category"] = category
		}
		resp, err := client.post(cmd.Context(), "/training/example", req)
		if err != nil {
			return err
		}

		var result struct {
			Example struct {
				Category string `json:"category"`
			} `json:"example"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Training example saved (category: %s)", result.Example.Category)
		return nil
	},
}

var trainProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Ingest training files into the knowledge base",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var req map[string]any
		if dir != "" {
			req = map[string]any{"files_dir": dir}
		}
		resp, err := client.post(cmd.Context(), "/training/process-files", req)
		if err != nil {
			return err
		}

		var result struct {
			ProcessedFiles []struct {
				File          string `json:"file"`
				Status        string `json:"status"`
				ContentLength int    `json:"content_length"`
				Error         string `json:"error,omitempty"`
			} `json:"processed_files"`
			TotalFiles int `json:"total_files"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		for _, f := range result.ProcessedFiles {
			switch f.Status {
			case "processed":
				printStep("%s: %d chars", f.File, f.ContentLength)
			case "skipped":
				printWarning("%s: skipped", f.File)
			default:
				printError("%s: %s", f.File, f.Error)
			}
		}
		printSuccess("Processed %d file(s)", result.TotalFiles)
		return nil
	},
}

func init() {
	trainAddCmd.Flags().String("question", "", "example question")
	trainAddCmd.Flags().String("answer", "", "example answer")
	trainAddCmd.Flags().String("category", "", "topic category (default: general)")
	trainProcessCmd.Flags().String("dir", "", "directory to ingest (default: configured training dir)")
	trainCmd.AddCommand(trainStatusCmd)
	trainCmd.AddCommand(trainAddCmd)
	trainCmd.AddCommand(trainProcessCmd)
}

func availabilityLabel(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}

// --- knowledge ---

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Query the ingested knowledge base",
}

var knowledgeSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search knowledge base content",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/training/knowledge/search",
			map[string]any{"query": query, "limit": limit})
		if err != nil {
			return err
		}

		var result struct {
			Results []struct {
				SourceFile string `json:"source_file"`
				Content    string `json:"content"`
			} `json:"results"`
			TotalResults int `json:"total_results"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if result.TotalResults == 0 {
			fmt.Println("No results found.")
			return nil
		}

		for i, r := range result.Results {
			fmt.Printf("\n%s [%s]\n", colorize(colorBold, fmt.Sprintf("Result %d", i+1)), r.SourceFile)
			text := r.Content
			if len(text) > 500 {
				text = text[:500] + "..."
			}
			fmt.Printf("  %s\n", text)
		}
		return nil
	},
}

func init() {
	knowledgeSearchCmd.Flags().Int("limit", 5, "maximum number of results")
	knowledgeCmd.AddCommand(knowledgeSearchCmd)
}

// --- interactions ---

var interactionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "List recent interactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		userID, _ := cmd.Flags().GetString("user")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/interactions?limit=%d", limit)
		if userID != "" {
			path += "&user_id=" + userID
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var result struct {
			Interactions []struct {
				ID             string `json:"id"`
				UserID         string `json:"user_id"`
				Type           string `json:"interaction_type"`
				ModelUsed      string `json:"model_used"`
				ResponseTimeMs int64  `json:"response_time_ms"`
				CreatedAt      string `json:"created_at"`
			} `json:"interactions"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Interactions) == 0 {
			fmt.Println("No interactions found.")
			return nil
		}

		for _, ix := range result.Interactions {
			fmt.Printf("%s  %s  %-16s  %s (%dms)\n",
				colorize(colorCyan, ix.ID[:8]),
				ix.CreatedAt,
				ix.Type,
				ix.ModelUsed,
				ix.ResponseTimeMs,
			)
		}
		return nil
	},
}

func init() {
	interactionsCmd.Flags().Int("limit", 20, "maximum number of interactions to list")
	interactionsCmd.Flags().String("user", "", "filter by user identifier")
}

// --- models ---

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage local Ollama models",
}

var modelsPullCmd = &cobra.Command{
	Use:   "pull <name>",
	Short: "Download a model from the Ollama registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		client := ollama.New(cfg.Ollama.BaseURL)
		if !client.IsRunning(cmd.Context()) {
			return fmt.Errorf("ollama is not running at %s", cfg.Ollama.BaseURL)
		}

		printStep("Pulling %s...", name)
		var lastStatus string
		err = client.PullModel(cmd.Context(), name, func(p ollama.PullProgress) {
			if p.Status != lastStatus {
				lastStatus = p.Status
				fmt.Fprintf(os.Stderr, "  %s\n", p.Status)
			}
		})
		if err != nil {
			return err
		}

		printSuccess("Model %s ready", name)
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsPullCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
