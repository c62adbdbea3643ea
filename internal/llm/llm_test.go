package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete(t *testing.T) {
	var got ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-4o-2024-08-06",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "x = int(data)"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 8, "total_tokens": 128}
		}`))
	}))
	defer srv.Close()

	temp := 0.2
	c := New(resty.New(), srv.URL+"/v1/", "secret", nil)
	out, err := c.Complete(context.Background(), ChatRequest{
		Model:       "gpt-4o",
		Messages:    []Message{{Role: "user", Content: "fix"}},
		Temperature: &temp,
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "fix", got.Messages[0].Content)

	assert.Equal(t, "x = int(data)", out.Text)
	assert.Equal(t, "gpt-4o-2024-08-06", out.Model)
	assert.Equal(t, "stop", out.FinishReason)
	assert.Equal(t, Usage{PromptTokens: 120, CompletionTokens: 8, TotalTokens: 128}, out.Usage)
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "api error", status: http.StatusTooManyRequests, body: `{"error": {"message": "rate limited", "type": "requests"}}`, message: "rate limited"},
		{name: "no choices", status: http.StatusOK, body: `{"choices": []}`, message: "no choices"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(resty.New(), srv.URL, "", nil)
			_, err := c.Complete(context.Background(), ChatRequest{Model: "m"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("REMEDY_TEST_KEY", "k")
	assert.Equal(t, "k", APIKeyFromEnv("REMEDY_TEST_KEY"))
	assert.Equal(t, "", APIKeyFromEnv(""))
}
