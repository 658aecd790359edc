// Package oracle is the boundary to the external text generator.
//
// Callers must treat generation failure as recoverable: both the
// insight cache and the transmission scheduler fall back rather than
// propagate errors to the presentation layer.
package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Generator turns a natural-language prompt into a natural-language
// reply. Implementations may fail (network, quota); they never retry
// internally.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini generates text through the Google GenAI API.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGemini creates a Gemini-backed generator.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("oracle: api key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("oracle: create client: %w", err)
	}
	return &Gemini{client: client, model: model, timeout: timeout}, nil
}

// Generate sends the prompt and returns the trimmed reply text.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("oracle: generate: %w", err)
	}
	text := strings.TrimSpace(res.Text())
	if text == "" {
		return "", fmt.Errorf("oracle: empty response")
	}
	return text, nil
}

// Unavailable is the generator used when no API key is configured.
// Every call fails, which routes callers onto their fallback paths.
type Unavailable struct{}

// Generate always reports the oracle as unconfigured.
func (Unavailable) Generate(context.Context, string) (string, error) {
	return "", fmt.Errorf("oracle: not configured")
}
