package reason

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"

	"github.com/sarasa-labs/sarasa-checker/internal/model"
)

const claudeMaxTokens = 1024

// ClaudeProvider classifies through the Anthropic messages API. It is the
// last tier of the default chain.
type ClaudeProvider struct {
	client sdk.Client
	model  string
}

// NewClaude wraps an existing Anthropic SDK client.
func NewClaude(client sdk.Client, modelName string) *ClaudeProvider {
	return &ClaudeProvider{client: client, model: modelName}
}

func (c *ClaudeProvider) Name() string { return "claude" }

func (c *ClaudeProvider) Classify(ctx context.Context, query string, ev model.Evidence) (*model.Verdict, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: claudeMaxTokens,
		System: []sdk.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(userPrompt(query, ev))),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "claude: create message")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return nil, eris.New("claude: empty response")
	}

	return ParseVerdict(b.String())
}
