// Package llm is a minimal client for OpenAI-compatible chat completion APIs.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
)

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of a chat completion call.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// Usage is the token accounting returned by the API.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type chatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Completion is the first choice of a chat completion.
type Completion struct {
	Text         string
	Model        string
	FinishReason string
	Usage        Usage
}

// Client calls the /chat/completions endpoint under a base URL.
type Client struct {
	http     *resty.Client
	endpoint string
	apiKey   string
	logger   hclog.Logger
}

// New creates a Client. apiKey may be empty for endpoints without auth.
func New(http *resty.Client, endpoint, apiKey string, logger hclog.Logger) *Client {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Client{
		http:     http,
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		logger:   logger,
	}
}

// APIKeyFromEnv reads an API key from the named environment variable.
func APIKeyFromEnv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// Complete sends req and returns the first choice.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (*Completion, error) {
	var result chatResponse
	var failure apiError

	r := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&result).
		SetError(&failure)
	if c.apiKey != "" {
		r.SetAuthToken(c.apiKey)
	}

	resp, err := r.Post(c.endpoint + "/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("chat completion request failed: %w", err)
	}
	if resp.IsError() {
		msg := failure.Error.Message
		if msg == "" {
			msg = resp.String()
		}
		return nil, fmt.Errorf("chat completion returned %s: %s", resp.Status(), msg)
	}
	if len(result.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	model := result.Model
	if model == "" {
		model = req.Model
	}
	c.logger.Debug("chat completion finished", "model", model, "prompt_tokens", result.Usage.PromptTokens, "completion_tokens", result.Usage.CompletionTokens)

	return &Completion{
		Text:         result.Choices[0].Message.Content,
		Model:        model,
		FinishReason: result.Choices[0].FinishReason,
		Usage:        result.Usage,
	}, nil
}
