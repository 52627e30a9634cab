package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var (
	errGeminiNotConfigured = errors.New("gemini api key not configured")
	errEmptyCompletion     = errors.New("gemini returned no content")
)

// ChatTurn is one prior message. Role is "user" or "model".
type ChatTurn struct {
	Role string
	Text string
}

// ChatCompleter produces the assistant reply for prompt given the history.
type ChatCompleter interface {
	Complete(ctx context.Context, system string, history []ChatTurn, prompt string) (string, error)
}

type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient returns a client that fails every call when apiKey is empty,
// so the server can start without AI configured.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return &GeminiClient{model: model}, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *GeminiClient) Complete(ctx context.Context, system string, history []ChatTurn, prompt string) (string, error) {
	if g == nil || g.client == nil {
		return "", errGeminiNotConfigured
	}
	model := g.client.GenerativeModel(g.model)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := model.StartChat()
	for _, turn := range history {
		cs.History = append(cs.History, &genai.Content{
			Role:  turn.Role,
			Parts: []genai.Part{genai.Text(turn.Text)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini send: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errEmptyCompletion
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errEmptyCompletion
	}
	return out, nil
}
