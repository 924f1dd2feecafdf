package verify

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
)

// openAICompleter speaks the OpenAI chat completion protocol, which the
// OpenAI, DeepSeek, Llama and OpenRouter endpoints all accept.
type openAICompleter struct {
	client *openai.Client
	model  string
}

func newOpenAICompleter(cfg Config) *openAICompleter {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL
	return &openAICompleter{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

func (c *openAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		MaxTokens:   300,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from model")
	}
	return resp.Choices[0].Message.Content, nil
}
