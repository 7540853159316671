package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("model returned no text")

// Generator produces text for a system instruction and a prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// GeminiGenerator is a Generator backed by the Gemini API.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiGenerator creates a Gemini client authenticated with apiKey.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model, temperature: 0.2}, nil
}

// Generate runs one single-turn completion.
func (g *GeminiGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	// GenerativeModel settings are not goroutine safe; one model per call.
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	return responseText(resp)
}

// Close releases the underlying connection.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
