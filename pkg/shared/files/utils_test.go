package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendLine(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "audit.jsonl")

	require.NoError(t, AppendLine(out, []byte(`{"a":1}`)))
	require.NoError(t, AppendLine(out, []byte("{\"a\":2}\n")))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n{\"a\":2}\n", string(data))
}

func TestReadText(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "sample.py")
	require.NoError(t, WriteFile(path, []byte("print(1)\n")))

	text, err := ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "print(1)\n", text)

	_, err = ReadText(tmpDir)
	assert.Error(t, err)
}
