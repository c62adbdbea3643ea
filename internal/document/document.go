// Package document holds the mutable, line-indexed source buffer that the
// escalation controller patches in place.
package document

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRange is returned when a patch addresses lines outside the document.
var ErrInvalidRange = errors.New("invalid line range")

// Document is an ordered sequence of lines (terminators included) with a
// cached full-text view. The cache always equals the concatenation of lines.
// A Document is not safe for concurrent use; it has a single owner.
type Document struct {
	lines []string
	text  string
}

// New builds a document from text.
func New(text string) *Document {
	return &Document{
		lines: SplitLines(text),
		text:  text,
	}
}

// Text returns the current full text.
func (d *Document) Text() string {
	return d.text
}

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int {
	return len(d.lines)
}

// Lines returns a copy of the current lines.
func (d *Document) Lines() []string {
	out := make([]string, len(d.lines))
	copy(out, d.lines)
	return out
}

// Slice returns the text of the inclusive 1-based range [start, end].
// Out-of-range bounds are clamped.
func (d *Document) Slice(start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(d.lines) {
		end = len(d.lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(d.lines[start-1:end], "")
}

// Snapshot returns an independent copy of the document.
func (d *Document) Snapshot() *Document {
	return &Document{lines: d.Lines(), text: d.text}
}

// ApplyPatch replaces the inclusive 1-based line range [start, end] with
// block and returns the new full text. The block is terminated with a newline
// before splicing. The mutation is immediate and has no undo.
//
// end may be start-1 to insert block before line start without removing anything.
func (d *Document) ApplyPatch(block string, start, end int) (string, error) {
	n := len(d.lines)
	if start < 1 || start > n+1 || end < start-1 || end > n {
		return d.text, fmt.Errorf("%w: [%d, %d] in a document of %d lines", ErrInvalidRange, start, end, n)
	}

	if !strings.HasSuffix(block, "\n") {
		block += "\n"
	}
	replacement := SplitLines(block)

	lines := make([]string, 0, n-(end-start+1)+len(replacement))
	lines = append(lines, d.lines[:start-1]...)
	lines = append(lines, replacement...)
	lines = append(lines, d.lines[end:]...)

	d.lines = lines
	d.text = strings.Join(lines, "")
	return d.text, nil
}

// SplitLines splits text into lines keeping their terminators. "\n", "\r\n"
// and a lone "\r" all end a line. A trailing fragment without terminator is
// returned as the last line.
func SplitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, text[start:i+1])
			start = i + 1
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			lines = append(lines, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
