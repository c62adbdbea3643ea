package strategist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/remedy/internal/document"
	"github.com/scan-io-git/remedy/internal/findings"
	"github.com/scan-io-git/remedy/internal/llm"
	"github.com/scan-io-git/remedy/internal/span"
)

const chatPrompt = `You are a senior cybersecurity analyst. You are given Python code, its vulnerability and the output of the bandit analyzer.
Guide the developer with:
1. A brief explanation of the vulnerability, pinpointing the vulnerable line, function or module.
2. A high level strategy to fix it with minimum changes while preserving functionality. Do not give exact steps.
Do not write code. If there are several ways to fix it, choose the best one and state it without options.
Prefer replacing insecure functions with secure ones, or changing the logic without affecting the output, over input validation.
Keep it short and technical; the developer is skilled.

Vulnerability info: {{.Finding}}
Documentation: {{.Docs}}
Vulnerable code:
{{.Code}}
`

var chatTemplate = template.Must(template.New("strategist").Parse(chatPrompt))

// Chat asks a chat model for a strategy per finding, showing it the
// enclosing span of the finding's first line.
type Chat struct {
	client   *llm.Client
	model    string
	resolver *span.Resolver
	logger   hclog.Logger
}

// NewChat creates an LLM-backed generator.
func NewChat(client *llm.Client, model string, resolver *span.Resolver, logger hclog.Logger) *Chat {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Chat{client: client, model: model, resolver: resolver, logger: logger.Named("strategist")}
}

// Generate implements Generator. The first failing call aborts generation.
func (c *Chat) Generate(ctx context.Context, doc *document.Document, fs []findings.Finding) ([]findings.Strategy, error) {
	out := make([]findings.Strategy, 0, len(fs))
	for _, f := range fs {
		sp := c.resolver.Resolve(ctx, doc, f.Line())

		info, err := json.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("failed to encode finding %s: %w", f.ID, err)
		}
		var prompt bytes.Buffer
		if err := chatTemplate.Execute(&prompt, map[string]string{
			"Finding": string(info),
			"Docs":    LatestDocsURL(f.MoreInfo),
			"Code":    sp.Text,
		}); err != nil {
			return nil, fmt.Errorf("failed to render strategist prompt: %w", err)
		}

		resp, err := c.client.Complete(ctx, llm.ChatRequest{
			Model:    c.model,
			Messages: []llm.Message{{Role: "user", Content: prompt.String()}},
		})
		if err != nil {
			return nil, fmt.Errorf("strategy for %s at line %d: %w", f.ID, f.Line(), err)
		}
		c.logger.Debug("strategy generated", "finding_id", f.ID, "line", f.Line(), "span_kind", sp.Kind)
		out = append(out, newStrategy(f, resp.Text))
	}
	return out, nil
}
