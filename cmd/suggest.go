package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facepoke/internal/ai"
	"github.com/kozaktomas/facepoke/internal/config"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest [image]",
	Short: "Ask an AI model to propose an expression for a portrait",
	Long: `Send the portrait to an AI model and get back suggested engine
controls, optionally steered toward a mood.

Examples:
  facepoke suggest portrait.jpg
  facepoke suggest portrait.jpg --mood "quiet confidence"
  facepoke suggest portrait.jpg --provider gemini --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)

	suggestCmd.Flags().String("mood", "", "Mood to steer the suggestion toward")
	suggestCmd.Flags().String("provider", "", "AI provider to use (openai, gemini)")
	suggestCmd.Flags().Bool("json", false, "Output as JSON")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read portrait: %w", err)
	}

	cfg := config.Load()
	ctx := context.Background()

	provider, err := ai.NewProvider(ctx, cfg, mustGetString(cmd, "provider"))
	if err != nil {
		return err
	}

	suggestion, err := provider.SuggestExpression(ctx, data, mustGetString(cmd, "mood"))
	if err != nil {
		return fmt.Errorf("suggestion failed: %w", err)
	}

	if mustGetBool(cmd, "json") {
		return json.NewEncoder(os.Stdout).Encode(suggestion)
	}

	fmt.Printf("Provider: %s\n", provider.Name())
	if suggestion.Preset != "" {
		fmt.Printf("Closest preset: %s\n", suggestion.Preset)
	}
	fmt.Println("Suggested controls:")
	for name, value := range suggestion.Params {
		fmt.Printf("  %s = %.1f\n", name, value)
	}
	if suggestion.Reasoning != "" {
		fmt.Printf("Reasoning: %s\n", suggestion.Reasoning)
	}

	usage := provider.GetUsage()
	fmt.Printf("Tokens: %d in / %d out, cost $%.4f\n", usage.InputTokens, usage.OutputTokens, usage.TotalCost)
	return nil
}
