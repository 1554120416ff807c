// Package llm wraps the chat-completion API used by the parser and the
// mediation engine.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("llm: api key is not configured")
	// ErrEmptyResponse is returned when the model produced no choices.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// CompletionRequest is a single system+user chat turn.
type CompletionRequest struct {
	// Model overrides the client's default model when non-empty.
	Model            string
	System           string
	User             string
	MaxTokens        int
	Temperature      float32
	PresencePenalty  float32
	FrequencyPenalty float32
	// JSON asks the model for a JSON object reply.
	JSON bool
}

// Completer produces one assistant message for a request.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Client is a Completer backed by an OpenAI-compatible endpoint.
type Client struct {
	api   *openai.Client
	model string
	log   zerolog.Logger
}

// NewClient builds a client. An empty apiKey yields a client whose every
// call fails with ErrNotConfigured; baseURL may point at any compatible API.
func NewClient(apiKey, baseURL, model string, log zerolog.Logger) *Client {
	c := &Client{
		model: model,
		log:   log.With().Str("component", "llm").Logger(),
	}
	if apiKey == "" {
		c.log.Warn().Msg("OPENAI_API_KEY not set, AI features will use fallbacks")
		return c
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	c.api = openai.NewClientWithConfig(cfg)
	return c
}

// Configured reports whether the client can reach a model.
func (c *Client) Configured() bool {
	return c.api != nil
}

func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if c.api == nil {
		return "", ErrNotConfigured
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	chat := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxTokens:        req.MaxTokens,
		Temperature:      req.Temperature,
		PresencePenalty:  req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
	}
	if req.JSON {
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, chat)
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	c.log.Debug().
		Str("model", model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("Completion finished")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}
