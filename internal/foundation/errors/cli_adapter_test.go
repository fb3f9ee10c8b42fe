package errors

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "missing source dir", err: NotFoundError("source directory not found").Build(), expected: 1},
		{name: "validation", err: ValidationError("unsupported target language").Build(), expected: 2},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "network", err: NetworkError("download failed").Build(), expected: 8},
		{name: "archive", err: ArchiveError("path traversal").Build(), expected: 9},
		{name: "snippets", err: SnippetsError("lint failed").Build(), expected: 11},
		{
			name:     "wrapped classified error",
			err:      fmt.Errorf("run: %w", FileSystemError("write failed").Build()),
			expected: 11,
		},
		{name: "unclassified error", err: &customError{msg: "unknown error"}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{
			name:     "internal error hides details",
			err:      InternalError("internal issue").Build(),
			expected: "Internal error occurred (use -v for details)",
		},
		{
			name:     "user facing error shows message",
			err:      NotFoundError("source directory not found").Build(),
			expected: "Error: source directory not found",
		},
		{
			name:     "build error hints at verbose",
			err:      BuildError("2 files failed").Build(),
			expected: "Error: 2 files failed (use -v for details)",
		},
		{
			name:     "unclassified error",
			err:      &customError{msg: "unknown error"},
			expected: "Error: unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.FormatError(tt.err))
		})
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("bad config").WithContext("file", "docpipe.yaml").Build())

	assert.Equal(t, 7, code)
	assert.Equal(t, "Error: bad config\n", out.String())
	assert.Contains(t, logs.String(), "category=config")
	assert.Contains(t, logs.String(), "file=docpipe.yaml")
}

// customError is a test helper for unclassified errors
type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}
