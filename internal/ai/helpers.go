package ai

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/kozaktomas/facepoke/internal/landmark"
	"github.com/kozaktomas/facepoke/internal/preset"
)

//go:embed prompts/suggest_expression.txt
var suggestExpressionPrompt string

// buildSuggestPrompt fills the embedded prompt with the parameter and preset
// catalogs. Shared across all AI providers.
func buildSuggestPrompt() string {
	params := make([]string, len(landmark.AllParams))
	for i, p := range landmark.AllParams {
		params[i] = string(p)
	}
	return fmt.Sprintf(suggestExpressionPrompt,
		strings.Join(params, ", "),
		strings.Join(preset.Names(), ", "),
	)
}

// buildMoodMessage builds the user message for a suggestion request.
func buildMoodMessage(mood string) string {
	if mood == "" {
		return "Suggest an expression that flatters this portrait."
	}
	return "Desired mood: " + mood
}
