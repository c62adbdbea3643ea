package document

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "import os\n\ndef f(x):\n    return eval(x)\n\nprint(f('1'))\n"

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"no terminator", "a", []string{"a"}},
		{"unix", "a\nb\n", []string{"a\n", "b\n"}},
		{"windows", "a\r\nb", []string{"a\r\n", "b"}},
		{"old mac", "a\rb\r", []string{"a\r", "b\r"}},
		{"blank lines", "\n\n", []string{"\n", "\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLines(tt.input))
		})
	}
}

func TestApplyPatchReplacesRange(t *testing.T) {
	doc := New(sample)

	text, err := doc.ApplyPatch("def f(x):\n    return int(x)", 3, 4)
	require.NoError(t, err)

	want := "import os\n\ndef f(x):\n    return int(x)\n\nprint(f('1'))\n"
	assert.Equal(t, want, text)
	assert.Equal(t, want, doc.Text())
	assert.Equal(t, 6, doc.LineCount())
}

func TestApplyPatchLineCountInvariant(t *testing.T) {
	blocks := []string{"", "x = 1", "a\nb\nc\n", "a\r\nb", "one\n\n\nfour"}

	for start := 1; start <= 6; start++ {
		for end := start - 1; end <= 6; end++ {
			for _, block := range blocks {
				t.Run(fmt.Sprintf("%d-%d-%q", start, end, block), func(t *testing.T) {
					doc := New(sample)
					old := doc.LineCount()

					text, err := doc.ApplyPatch(block, start, end)
					require.NoError(t, err)

					normalized := block
					if len(normalized) == 0 || normalized[len(normalized)-1] != '\n' {
						normalized += "\n"
					}
					want := old - (end - start + 1) + len(SplitLines(normalized))
					assert.Equal(t, want, doc.LineCount())
					assert.Equal(t, text, doc.Text())
				})
			}
		}
	}
}

func TestApplyPatchSequentialUsesCurrentState(t *testing.T) {
	doc := New("a\nb\nc\n")

	_, err := doc.ApplyPatch("a1\na2", 1, 1)
	require.NoError(t, err)
	// line 3 is now "b"
	text, err := doc.ApplyPatch("B", 3, 3)
	require.NoError(t, err)

	assert.Equal(t, "a1\na2\nB\nc\n", text)
}

func TestApplyPatchInvalidRange(t *testing.T) {
	doc := New(sample)

	for _, r := range [][2]int{{0, 1}, {3, 1}, {2, 7}, {8, 8}} {
		_, err := doc.ApplyPatch("x", r[0], r[1])
		assert.ErrorIs(t, err, ErrInvalidRange, "range %v", r)
	}
	assert.Equal(t, sample, doc.Text())
}

func TestApplyPatchOnEmptyDocument(t *testing.T) {
	doc := New("")

	text, err := doc.ApplyPatch("print(1)", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "print(1)\n", text)
}

func TestSnapshotIsIndependent(t *testing.T) {
	doc := New(sample)
	snap := doc.Snapshot()

	_, err := doc.ApplyPatch("pass", 1, 1)
	require.NoError(t, err)

	assert.Equal(t, sample, snap.Text())
	assert.NotEqual(t, sample, doc.Text())
}

func TestSlice(t *testing.T) {
	doc := New(sample)
	assert.Equal(t, "def f(x):\n    return eval(x)\n", doc.Slice(3, 4))
	assert.Equal(t, "import os\n", doc.Slice(-3, 1))
	assert.Equal(t, "", doc.Slice(5, 4))
}
