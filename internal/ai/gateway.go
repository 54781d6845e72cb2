// Package ai wraps the chat-completion provider used for content generation.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

var (
	ErrNotConfigured     = errors.New("ai provider not configured")
	ErrRateLimited       = errors.New("ai provider rate limited")
	ErrConnectionFailure = errors.New("ai provider unreachable")
	ErrProviderError     = errors.New("ai provider error")
)

const (
	DefaultModel       = "gpt-4"
	DefaultTemperature = 0.7
)

type Prompt struct {
	System      string
	User        string
	Model       string
	Temperature float32
	MaxTokens   int
}

type Completion struct {
	Content    string
	TokensUsed int
}

// Gateway completes one prompt. Errors wrap one of the package sentinels.
type Gateway interface {
	Complete(ctx context.Context, prompt Prompt) (Completion, error)
}

// OpenAIGateway calls the OpenAI chat completions API. A gateway built without
// an API key fails every call with ErrNotConfigured.
type OpenAIGateway struct {
	client *openai.Client
	model  string
}

func NewOpenAIGateway(apiKey, model string) *OpenAIGateway {
	if apiKey == "" {
		return &OpenAIGateway{model: model}
	}
	return NewOpenAIGatewayWithConfig(openai.DefaultConfig(apiKey), model)
}

func NewOpenAIGatewayWithConfig(cfg openai.ClientConfig, model string) *OpenAIGateway {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIGateway{client: openai.NewClientWithConfig(cfg), model: model}
}

func (g *OpenAIGateway) Configured() bool {
	return g.client != nil
}

func (g *OpenAIGateway) Complete(ctx context.Context, prompt Prompt) (Completion, error) {
	if g.client == nil {
		return Completion{}, ErrNotConfigured
	}

	model := prompt.Model
	if model == "" {
		model = g.model
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Completion{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("%w: provider returned no choices", ErrProviderError)
	}
	return Completion{
		Content:    resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
		}
		return fmt.Errorf("%w: %s", ErrProviderError, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %v", ErrRateLimited, reqErr)
		}
		return fmt.Errorf("%w: %v", ErrProviderError, reqErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrConnectionFailure, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderError, err)
}

// Unavailable reports whether err means the provider could not be used at all,
// as opposed to having answered with an error.
func Unavailable(err error) bool {
	return errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrConnectionFailure)
}

// Message is the text shown to API clients for a gateway error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "OpenAI API key not configured. Please set OPENAI_API_KEY in your environment."
	case errors.Is(err, ErrRateLimited):
		return "AI service is currently at capacity. Please try again in a few moments."
	case errors.Is(err, ErrConnectionFailure):
		return "Unable to connect to AI service. Please check your internet connection and try again."
	default:
		return "AI service error: " + err.Error()
	}
}
