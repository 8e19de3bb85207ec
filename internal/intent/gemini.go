package intent

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used for intent extraction.
const DefaultModel = "gemini-2.5-flash"

// GeminiClient implements ModelClient against the Google GenAI API.
// A weighted semaphore bounds in-flight calls so a burst of slow parses
// cannot pile up unbounded work.
type GeminiClient struct {
	client *genai.Client
	model  string
	sem    *semaphore.Weighted
}

// NewGeminiClient creates a Gemini-backed model client.
func NewGeminiClient(ctx context.Context, apiKey, model string, maxConcurrent int64) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  model,
		sem:    semaphore.NewWeighted(maxConcurrent),
	}, nil
}

// GenerateJSON sends one prompt requesting a JSON-typed response and returns
// the raw text of the first candidate.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for model slot: %w", err)
	}
	defer c.sem.Release(1)

	result, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("model returned no text")
	}
	return text, nil
}
