// Package openai adapts the OpenAI chat completion API to the executor
// completion contract.
package openai

import (
	"context"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/cadencehq/cadence/pkg/executors/ai"
)

const defaultModel = goopenai.GPT4oMini

// Client calls the OpenAI chat completions endpoint. Resolved knowledge
// sources are passed as a system message, highest priority first.
type Client struct {
	api   *goopenai.Client
	model string
}

func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = defaultModel
	}

	return &Client{
		api:   goopenai.NewClient(apiKey),
		model: model,
	}
}

func (c *Client) Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	messages := []goopenai.ChatCompletionMessage{}

	if len(req.Sources) > 0 {
		references := make([]string, 0, len(req.Sources))
		for _, source := range req.Sources {
			references = append(references, source.KnowledgeBaseID)
		}

		messages = append(messages, goopenai.ChatCompletionMessage{
			Role: goopenai.ChatMessageRoleSystem,
			Content: "Consult the following knowledge bases in order of priority: " +
				strings.Join(references, ", "),
		})
	}

	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       model,
		Temperature: float32(req.Temperature),
		Messages:    messages,
	})
	if err != nil {
		return ai.CompletionResponse{}, fmt.Errorf("completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return ai.CompletionResponse{}, fmt.Errorf("completion returned no choices for model %s", model)
	}

	return ai.CompletionResponse{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

var _ ai.CompletionClient = (*Client)(nil)
