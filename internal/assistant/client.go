// Package assistant provides a client for OpenAI-compatible chat completion
// endpoints.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	requestTimeout = 30 * time.Second
	temperature    = 0.7
)

var (
	// ErrUnauthorized indicates the API key was rejected.
	ErrUnauthorized = errors.New("assistant: unauthorized (API key invalid)")
	// ErrRateLimited indicates the provider rate limit was hit.
	ErrRateLimited = errors.New("assistant: rate limited")
	// ErrEmptyReply indicates the provider returned no choices.
	ErrEmptyReply = errors.New("assistant: empty reply")
)

// Client sends chat completion requests.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient returns nil when apiKey is empty.
func NewClient(baseURL, apiKey, model string) *Client {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimRight(baseURL, "/"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{api: openai.NewClientWithConfig(cfg), model: model}
}

// Complete sends a system and a user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", mapError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyReply
	}
	return resp.Choices[0].Message.Content, nil
}

func mapError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return fmt.Errorf("assistant: request failed: %w", err)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	if apiErr != nil && apiErr.Message != "" {
		return fmt.Errorf("assistant: unexpected status %d: %s", status, apiErr.Message)
	}
	return fmt.Errorf("assistant: unexpected status %d", status)
}
