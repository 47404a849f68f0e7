package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:     "coach",
	Short:   "Ki Wellness AI coach — local-model wellness chat and analysis",
	Version: version,
	Long: `coach runs the Ki Wellness AI service: a wellness chat and pattern
analysis backend over local Ollama models, with a knowledge base built
from training files.

Start the server with "coach start", then talk to it with "coach ask".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(knowledgeCmd)
	rootCmd.AddCommand(interactionsCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
