package proposer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/remedy/internal/llm"
	serrors "github.com/scan-io-git/remedy/pkg/shared/errors"
)

// PromptData is what prompt templates are rendered with.
type PromptData struct {
	Code     string
	Strategy string
}

// Chat proposes fixes through a chat completion model.
type Chat struct {
	client      *llm.Client
	model       string
	prompt      *template.Template
	temperature *float64
	logger      hclog.Logger
}

// NewChat creates a chat backend. prompt is a text/template over PromptData.
func NewChat(client *llm.Client, model, prompt string, temperature *float64, logger hclog.Logger) (*Chat, error) {
	tmpl, err := template.New(model).Option("missingkey=error").Parse(prompt)
	if err != nil {
		return nil, fmt.Errorf("invalid prompt template for model %q: %w", model, err)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Chat{
		client:      client,
		model:       model,
		prompt:      tmpl,
		temperature: temperature,
		logger:      logger,
	}, nil
}

// RenderPrompt renders the prompt for a span and strategy.
func (c *Chat) RenderPrompt(spanText, strategyText string) (string, error) {
	var buf bytes.Buffer
	if err := c.prompt.Execute(&buf, PromptData{Code: spanText, Strategy: strategyText}); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

// Propose asks the model for a replacement of spanText.
func (c *Chat) Propose(ctx context.Context, spanText, strategyText string) (Proposal, error) {
	prompt, err := c.RenderPrompt(spanText, strategyText)
	if err != nil {
		return Proposal{}, serrors.NewProposerError(c.model, err)
	}

	out, err := c.client.Complete(ctx, llm.ChatRequest{
		Model:       c.model,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
	})
	if err != nil {
		return Proposal{}, serrors.NewProposerError(c.model, err)
	}

	code := CleanCode(out.Text)
	if strings.TrimSpace(code) == "" {
		return Proposal{}, serrors.NewProposerError(c.model, fmt.Errorf("completion holds no code (finish reason %q)", out.FinishReason))
	}
	replacement := Reindent(code, spanText)
	c.logger.Debug("proposal received", "model", out.Model, "finish_reason", out.FinishReason, "lines", countLines(replacement))

	return Proposal{
		Replacement:      replacement,
		Model:            out.Model,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
		FinishReason:     out.FinishReason,
	}, nil
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return bytes.Count([]byte(s), []byte("\n")) + 1
}
