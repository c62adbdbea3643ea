package strategist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/remedy/internal/document"
	"github.com/scan-io-git/remedy/internal/findings"
	"github.com/scan-io-git/remedy/internal/llm"
	"github.com/scan-io-git/remedy/internal/span"
)

var sample = []findings.Finding{
	{ID: "B307", Name: "blacklist", Severity: "MEDIUM", Confidence: "HIGH", Message: "Use of possibly insecure function", LineRange: []int{3}, MoreInfo: "https://bandit.readthedocs.io/en/1.7.5/blacklists/blacklist_calls.html#b307-eval"},
	{ID: "B404", Name: "blacklist", Severity: "LOW", Confidence: "HIGH", Message: "subprocess module", LineRange: []int{1}},
	{ID: "B307", Name: "blacklist", Severity: "MEDIUM", Confidence: "HIGH", Message: "Use of possibly insecure function", LineRange: []int{6}},
}

func TestLatestDocsURL(t *testing.T) {
	assert.Equal(t,
		"https://bandit.readthedocs.io/en/latest/blacklists/blacklist_calls.html#b307-eval",
		LatestDocsURL("https://bandit.readthedocs.io/en/1.7.5/blacklists/blacklist_calls.html#b307-eval"))
	assert.Equal(t, "https://example.com/x", LatestDocsURL("https://example.com/x"))
}

func TestMessageGenerate(t *testing.T) {
	got, err := Message{}.Generate(context.Background(), document.New(""), sample)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "B307", got[0].FindingID)
	assert.Equal(t, 3, got[0].LineNum)
	assert.Equal(t, "MEDIUM", got[0].Severity)
	assert.Contains(t, got[0].Text, "/en/latest/")
	assert.Equal(t, 6, got[2].LineNum)
}

func TestBind(t *testing.T) {
	strategies := []findings.Strategy{
		{FindingID: "B307", LineNum: 6, Text: "second eval"},
		{FindingID: "B307", LineNum: 3, Text: "first eval"},
	}
	work := Bind(sample, strategies)
	require.Len(t, work, 3)

	assert.Equal(t, "first eval", work[0].Strategy.Text)
	assert.Equal(t, "B404", work[1].Strategy.FindingID)
	assert.Contains(t, work[1].Strategy.Text, "subprocess module")
	assert.Equal(t, "second eval", work[2].Strategy.Text)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategies.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"vuln_id": "B307", "line_num": 3, "strategy": "use ast.literal_eval"}]`), 0o600))

	got, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, findings.Strategy{FindingID: "B307", LineNum: 3, Text: "use ast.literal_eval"}, got[0])

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
	_, err = LoadFile(path)
	assert.Error(t, err)
}

func TestChatGenerate(t *testing.T) {
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompts = append(prompts, req.Messages[0].Content)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "Use ast.literal_eval."}, "finish_reason": "stop"}]}`))
	}))
	defer srv.Close()

	src := "import subprocess\n\ndef run(x):\n    return eval(x)\n"
	fs := []findings.Finding{{ID: "B307", Name: "blacklist", LineRange: []int{4}}}

	c := NewChat(llm.New(resty.New(), srv.URL, "", nil), "gpt-4o", span.NewResolver(span.DefaultRadius, nil), nil)
	got, err := c.Generate(context.Background(), document.New(src), fs)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Use ast.literal_eval.", got[0].Text)
	assert.Equal(t, 4, got[0].LineNum)

	require.Len(t, prompts, 1)
	assert.True(t, strings.Contains(prompts[0], "def run(x):\n    return eval(x)\n"))
	assert.False(t, strings.Contains(prompts[0], "import subprocess"), "only the enclosing definition is shown")
}
