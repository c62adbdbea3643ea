package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/scan-io-git/remedy/pkg/shared/files"
)

// Sink persists audit records.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}

// JSONL appends one JSON object per line to a file. It is safe for
// concurrent use.
type JSONL struct {
	mu   sync.Mutex
	path string
}

// NewJSONL creates a sink appending to path.
func NewJSONL(path string) *JSONL {
	return &JSONL{path: path}
}

// Path returns the log file location.
func (j *JSONL) Path() string { return j.path }

func (j *JSONL) Write(_ context.Context, rec Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode audit record for %s: %w", rec.Meta.FileID, err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return files.AppendLine(j.path, line)
}

func (j *JSONL) Close() error { return nil }

// Multi fans records out to several sinks. Every sink is attempted.
type Multi []Sink

func (m Multi) Write(ctx context.Context, rec Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// maxLineSize bounds a single audit line.
const maxLineSize = 16 << 20

// ReadJSONL decodes every record of a JSONL audit log. Blank lines are skipped.
func ReadJSONL(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeJSONL(f)
}

// DecodeJSONL decodes records from r.
func DecodeJSONL(r io.Reader) ([]Record, error) {
	var out []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
