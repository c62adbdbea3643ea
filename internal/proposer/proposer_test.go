package proposer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/remedy/internal/llm"
	"github.com/scan-io-git/remedy/pkg/shared/config"
	serrors "github.com/scan-io-git/remedy/pkg/shared/errors"
)

func TestCleanCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "x = 1\n", want: "x = 1"},
		{name: "python fence", in: "```python\nx = int(y)\n```", want: "x = int(y)"},
		{name: "bare fence with prose", in: "Here you go:\n```\nimport ast\nx = ast.literal_eval(y)\n```\nDone.", want: "import ast\nx = ast.literal_eval(y)"},
		{name: "keeps indentation", in: "\n\n    return int(d)\n\n", want: "    return int(d)"},
		{name: "unterminated fence", in: "```python\nx = 1", want: "x = 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanCode(tt.in))
		})
	}
}

func TestReindent(t *testing.T) {
	span := "    def inner(d):\n        return eval(d)\n"

	got := Reindent("def inner(d):\n    return int(d)", span)
	assert.Equal(t, "    def inner(d):\n        return int(d)", got)

	already := "    def inner(d):\n        return int(d)"
	assert.Equal(t, already, Reindent(already, span))

	assert.Equal(t, "x = 1", Reindent("x = 1", "y = 2\n"))
}

func TestFunc(t *testing.T) {
	var p Proposer = Func(func(_ context.Context, span, strategy string) (Proposal, error) {
		return Proposal{Replacement: span + strategy, PromptTokens: 2, CompletionTokens: 3}, nil
	})
	got, err := p.Propose(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "ab", got.Replacement)
	assert.Equal(t, 5, got.TotalTokens())
}

func chatServer(t *testing.T, status int, body string, seen *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			buf := new(strings.Builder)
			_, _ = io.Copy(buf, r.Body)
			*seen = buf.String()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChatPropose(t *testing.T) {
	body, err := json.Marshal(map[string]interface{}{
		"model": "gpt-4o",
		"choices": []map[string]interface{}{{
			"message":       map[string]string{"role": "assistant", "content": "```python\ndef f(x):\n    return int(x)\n```"},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 50, "completion_tokens": 10, "total_tokens": 60},
	})
	require.NoError(t, err)

	var seen string
	srv := chatServer(t, http.StatusOK, string(body), &seen)

	chat, err := NewChat(llm.New(resty.New(), srv.URL, "", nil), "gpt-4o", "CODE={{.Code}} STRATEGY={{.Strategy}}", nil, nil)
	require.NoError(t, err)

	got, err := chat.Propose(context.Background(), "def f(x):\n    return eval(x)\n", "use int")
	require.NoError(t, err)
	assert.Equal(t, "def f(x):\n    return int(x)", got.Replacement)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, 50, got.PromptTokens)
	assert.Equal(t, 10, got.CompletionTokens)
	assert.Equal(t, "stop", got.FinishReason)
	assert.Contains(t, seen, "STRATEGY=use int")
}

func completion(t *testing.T, content, finishReason string) string {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"model":   "gpt-4o",
		"choices": []map[string]interface{}{{"message": map[string]string{"role": "assistant", "content": content}, "finish_reason": finishReason}},
		"usage":   map[string]int{"prompt_tokens": 50, "completion_tokens": 2, "total_tokens": 52},
	})
	require.NoError(t, err)
	return string(body)
}

func TestChatProposeWrapsFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error": {"message": "boom"}}`},
		{name: "empty content", status: http.StatusOK, body: completion(t, "", "stop"), want: "no code"},
		{name: "bare fence", status: http.StatusOK, body: completion(t, "```python\n```", "length"), want: `"length"`},
		{name: "blank lines", status: http.StatusOK, body: completion(t, "\n  \n", "stop"), want: "no code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.status, tt.body, nil)

			chat, err := NewChat(llm.New(resty.New(), srv.URL, "", nil), "gpt-4o", config.JuniorPrompt, nil, nil)
			require.NoError(t, err)

			got, err := chat.Propose(context.Background(), "x = eval(y)\n", "strategy")
			require.Error(t, err)
			assert.True(t, errors.Is(err, serrors.ErrProposer))
			assert.Empty(t, got.Replacement)
			if tt.want != "" {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestNewChatRejectsBadTemplate(t *testing.T) {
	_, err := NewChat(nil, "m", "{{.Code", nil, nil)
	assert.Error(t, err)
}

func TestDefaultPromptsRender(t *testing.T) {
	for _, prompt := range []string{config.JuniorPrompt, config.SeniorPrompt} {
		chat, err := NewChat(nil, "m", prompt, nil, nil)
		require.NoError(t, err)
		out, err := chat.RenderPrompt("x = eval(y)", "avoid eval")
		require.NoError(t, err)
		assert.Contains(t, out, "x = eval(y)")
		assert.Contains(t, out, "avoid eval")
	}
}

func TestTiersFromConfig(t *testing.T) {
	cfg := &config.Config{Tiers: []config.Tier{
		{Name: "senior", Level: 2, Model: "gpt-4o", Prompt: config.SeniorPrompt},
		{Name: "junior", Level: 1, Model: "gpt-3.5-turbo", Prompt: config.JuniorPrompt},
	}}

	tiers, err := TiersFromConfig(cfg, resty.New(), nil)
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.Equal(t, "junior", tiers[0].Name)
	assert.Equal(t, 1, tiers[0].Level)
	assert.Equal(t, "senior", tiers[1].Name)
	assert.NotNil(t, tiers[1].Proposer)

	cfg.Tiers[0].Prompt = "{{"
	_, err = TiersFromConfig(cfg, resty.New(), nil)
	assert.Error(t, err)
}
