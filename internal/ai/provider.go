// Package ai suggests facial expressions for a portrait using vision-capable
// language models. A suggestion is a set of engine control parameters,
// optionally anchored to a catalog preset.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/kozaktomas/facepoke/internal/config"
	"github.com/kozaktomas/facepoke/internal/landmark"
)

// Suggestion contains the AI's proposed expression for a portrait.
type Suggestion struct {
	// Preset is the catalog preset the suggestion is closest to, if any.
	Preset string `json:"preset,omitempty"`
	// Params are the proposed engine controls, keyed by parameter name.
	Params map[string]float64 `json:"params"`
	// Reasoning explains the suggestion.
	Reasoning string `json:"reasoning,omitempty"`
}

// Sanitize drops parameters the landmark catalog does not know. Models
// occasionally invent control names; unknown ones must never reach a
// session.
func (s *Suggestion) Sanitize() {
	for name := range s.Params {
		if !landmark.KnownParam(landmark.Param(name)) {
			delete(s.Params, name)
		}
	}
}

// Provider defines the interface for expression suggestion backends.
type Provider interface {
	Name() string
	SuggestExpression(ctx context.Context, imageData []byte, mood string) (*Suggestion, error)

	// Usage tracking.
	GetUsage() *Usage
	ResetUsage()
}

// Usage tracks token usage and calculates cost.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalCost    float64 // in USD
}

// RequestPricing holds input/output prices per 1M tokens
type RequestPricing struct {
	Input  float64
	Output float64
}

// NewProvider creates a suggestion provider by name. An empty name picks the
// first provider with a configured credential.
func NewProvider(ctx context.Context, cfg *config.Config, name string) (Provider, error) {
	switch strings.ToLower(name) {
	case "openai":
		if cfg.OpenAI.Token == "" {
			return nil, fmt.Errorf("OPENAI_TOKEN is not set")
		}
		return NewOpenAIProvider(cfg.OpenAI.Token, openAIPricing), nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set")
		}
		return NewGeminiProvider(ctx, cfg.Gemini.APIKey, geminiPricing)
	case "":
		if cfg.OpenAI.Token != "" {
			return NewOpenAIProvider(cfg.OpenAI.Token, openAIPricing), nil
		}
		if cfg.Gemini.APIKey != "" {
			return NewGeminiProvider(ctx, cfg.Gemini.APIKey, geminiPricing)
		}
		return nil, fmt.Errorf("no AI provider configured")
	default:
		return nil, fmt.Errorf("unknown AI provider: %q", name)
	}
}
