package reason

import (
	"context"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"

	"github.com/sarasa-labs/sarasa-checker/internal/model"
)

// GroqBaseURL is the OpenAI-compatible endpoint for Groq-hosted models.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// GroqProvider classifies through an OpenAI-compatible chat completion API.
// It is the second tier of the default chain.
type GroqProvider struct {
	client *openai.Client
	model  string
}

// NewGroq wraps an existing OpenAI-compatible client. Use NewGroqClient to
// build one pointed at Groq.
func NewGroq(client *openai.Client, modelName string) *GroqProvider {
	return &GroqProvider{client: client, model: modelName}
}

// NewGroqClient creates a go-openai client configured for the Groq endpoint.
func NewGroqClient(apiKey string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = GroqBaseURL
	return openai.NewClientWithConfig(cfg)
}

func (g *GroqProvider) Name() string { return "groq" }

func (g *GroqProvider) Classify(ctx context.Context, query string, ev model.Evidence) (*model.Verdict, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(query, ev)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "groq: chat completion")
	}

	if len(resp.Choices) == 0 {
		return nil, eris.New("groq: no choices in response")
	}

	return ParseVerdict(resp.Choices[0].Message.Content)
}
