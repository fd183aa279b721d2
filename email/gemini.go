package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tooldeck/tooldeck/config"
)

// Gemini is a Model backed by the Google Generative AI API.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini connects to the API with key and selects modelName.
func NewGemini(ctx context.Context, key, modelName string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: client.GenerativeModel(modelName)}, nil
}

// Generate sends the image (if any) followed by the prompt and returns the
// concatenated text of the first candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string, image *Image) (string, error) {
	parts := make([]genai.Part, 0, 2)
	if image != nil {
		parts = append(parts, genai.Blob{MIMEType: image.MediaType, Data: image.Data})
	}
	parts = append(parts, genai.Text(prompt))

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

// Close releases the client connection.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

// NewDrafterFromConfig uses Gemini when cfg carries an API key and the mock
// template otherwise. The returned func releases the client.
func NewDrafterFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Drafter, func() error, error) {
	if !cfg.HasGemini() {
		return NewDrafter(nil, cfg.MaxAttachmentBytes, logger), func() error { return nil }, nil
	}
	g, err := NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, nil, err
	}
	return NewDrafter(g, cfg.MaxAttachmentBytes, logger), g.Close, nil
}
