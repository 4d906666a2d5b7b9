package source

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"time"

	apperrors "budget-auditor/internal/errors"
)

// FileSource tails a JSONL file: existing lines are streamed first, then
// the source polls for appended lines indefinitely. This mirrors a
// streaming connector over an append-only event log.
type FileSource struct {
	path         string
	pollInterval time.Duration
}

// NewFileSource creates a file source tailing path.
func NewFileSource(path string, pollInterval time.Duration) *FileSource {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &FileSource{
		path:         path,
		pollInterval: pollInterval,
	}
}

// Name returns the source name.
func (s *FileSource) Name() string { return "file" }

// Run streams complete lines from the file. Partial lines at EOF are held
// until their terminating newline arrives, so a record is never emitted
// half-written.
func (s *FileSource) Run(ctx context.Context, emit EmitFunc) error {
	f, err := os.Open(s.path)
	if err != nil {
		return apperrors.NewSourceError("file", "opening "+s.path, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	var partial []byte

	for {
		chunk, err := reader.ReadBytes('\n')
		if len(chunk) > 0 {
			partial = append(partial, chunk...)
		}

		if err == nil {
			line := bytes.TrimRight(partial, "\n")
			partial = partial[:0]
			if len(bytes.TrimSpace(line)) > 0 {
				if emitErr := emit(line); emitErr != nil {
					return emitErr
				}
			}
			continue
		}

		if err != io.EOF {
			return apperrors.NewSourceError("file", "reading "+s.path, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}
