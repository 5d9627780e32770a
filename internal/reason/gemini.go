package reason

import (
	"context"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/sarasa-labs/sarasa-checker/internal/model"
)

// GeminiProvider classifies through the Gemini API in JSON mode. It sits
// first in the default chain.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGemini wraps an existing genai client.
func NewGemini(client *genai.Client, modelName string) *GeminiProvider {
	return &GeminiProvider{client: client, model: modelName}
}

func (g *GeminiProvider) Name() string { return "gemini" }

func (g *GeminiProvider) Classify(ctx context.Context, query string, ev model.Evidence) (*model.Verdict, error) {
	resp, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(userPrompt(query, ev)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: generate content")
	}

	text := resp.Text()
	if text == "" {
		return nil, eris.New("gemini: empty response")
	}

	return ParseVerdict(text)
}
