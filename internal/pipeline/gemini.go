package pipeline

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiCompleter is the Completer backed by the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGeminiCompleter creates a Gemini client. An empty apiKey lets the SDK
// pick up GEMINI_API_KEY / GOOGLE_API_KEY or Vertex AI settings from the
// environment.
func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	if model == "" {
		model = DefaultModelName
	}

	cfg := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1beta"},
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
		cfg.Backend = genai.BackendGeminiAPI
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("NewGeminiCompleter: create genai client: %w", err)
	}

	return &GeminiCompleter{client: client, model: model}, nil
}

// ModelName implements Completer.
func (g *GeminiCompleter) ModelName() string {
	return g.model
}

// Complete implements Completer with a single GenerateContent call.
func (g *GeminiCompleter) Complete(ctx context.Context, instruction string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: instruction},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Complete: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return "", fmt.Errorf("Complete: empty response from model")
	}
	return rawText, nil
}
