package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"syllabus-gap/internal/config"

	"github.com/sashabaranov/go-openai"
)

// Completer sends one prompt to a chat model and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var ErrEmptyReply = errors.New("empty model reply")

type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	system      string
}

// NewClient builds a chat client for the configured provider. system is sent
// as the system message ahead of every prompt.
func NewClient(cfg config.LLMConfig, system string) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("llm: empty api key")
	}

	var oc openai.ClientConfig
	switch cfg.Provider {
	case config.ProviderAzure:
		oc = openai.DefaultAzureConfig(key, cfg.BaseURL)
		if cfg.APIVersion != "" {
			oc.APIVersion = cfg.APIVersion
		}
		deployment := cfg.Model
		oc.AzureModelMapperFunc = func(string) string { return deployment }
	default:
		oc = openai.DefaultConfig(key)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
	}

	return &Client{
		api:         openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		system:      strings.TrimSpace(system),
	}, nil
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.api == nil {
		return "", errors.New("llm: nil client")
	}

	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if c.system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: c.system})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyReply
	}
	return out, nil
}
