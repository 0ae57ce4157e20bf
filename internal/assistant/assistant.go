// Package assistant implements the simulated writing-assistant panel: a
// canned suggestion generator with a fixed think-delay and no real inference.
package assistant

import (
	"context"
	"strings"
	"time"

	"ghostwriterd/internal/pricing"
)

// SuggestionType classifies what a suggestion proposes to do with the text.
type SuggestionType string

const (
	SuggestionContinuation SuggestionType = "continuation"
	SuggestionImprovement  SuggestionType = "improvement"
	SuggestionIdea         SuggestionType = "idea"
	SuggestionQuestion     SuggestionType = "question"
)

// Suggestion is one assistant proposal.
type Suggestion struct {
	ID         string         `json:"id"`
	Type       SuggestionType `json:"type"`
	Text       string         `json:"text"`
	Preview    string         `json:"preview,omitempty"`
	Confidence float64        `json:"confidence"`
}

// Result carries the suggestions plus the token estimate for the text the
// UI would send to a real provider.
type Result struct {
	Suggestions     []Suggestion `json:"suggestions"`
	EstimatedTokens int          `json:"estimatedTokens"`
}

// DefaultThinkDelay matches the simulated processing time of the original
// assistant panel.
const DefaultThinkDelay = 1500 * time.Millisecond

// estimationModel is the tokenizer used for pre-flight token estimates.
const estimationModel = "gpt-4"

// Generator produces canned suggestions after a simulated thinking delay.
type Generator struct {
	delay time.Duration
}

// NewGenerator creates a Generator. A zero delay uses DefaultThinkDelay;
// a negative delay disables the wait.
func NewGenerator(delay time.Duration) *Generator {
	if delay == 0 {
		delay = DefaultThinkDelay
	}
	return &Generator{delay: delay}
}

// Suggest returns the canned suggestion set for non-empty text after the
// think-delay. Empty or whitespace-only text yields no suggestions and no
// delay. The delay honors ctx cancellation.
func (g *Generator) Suggest(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return &Result{Suggestions: []Suggestion{}}, nil
	}

	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return &Result{
		Suggestions:     cannedSuggestions(),
		EstimatedTokens: pricing.EstimateTokens(estimationModel, text),
	}, nil
}

func cannedSuggestions() []Suggestion {
	return []Suggestion{
		{
			ID:         "1",
			Type:       SuggestionContinuation,
			Text:       "Continue this scene with dialogue",
			Preview:    "The character could respond with emotional depth...",
			Confidence: 0.9,
		},
		{
			ID:         "2",
			Type:       SuggestionImprovement,
			Text:       "Enhance the sensory details",
			Preview:    "Add visual, auditory, or tactile elements...",
			Confidence: 0.8,
		},
		{
			ID:         "3",
			Type:       SuggestionIdea,
			Text:       "Introduce plot twist",
			Preview:    "What if the character discovers something unexpected?",
			Confidence: 0.7,
		},
	}
}
