package constants

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
)

func TestReplace(t *testing.T) {
	m := Map{"version": "1.0", "product": "LangGraph"}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Install $[product] $[version].", "Install LangGraph 1.0."},
		{"escaped", `Write \$[version] literally`, "Write $[version] literally"},
		{"unknown kept", "Value: $[missing]", "Value: $[missing]"},
		{"mixed", `$[version] and \$[version]`, "1.0 and $[version]"},
		{"no tokens", "plain text", "plain text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Replace(tt.in, "doc.mdx", m, nil))
		})
	}
}

func TestReplace_LogsUnknownConstant(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	out := Replace("Use $[nope] here", "guides/intro.mdx", Map{}, logger)

	assert.Equal(t, "Use $[nope] here", out)
	assert.Contains(t, buf.String(), "Constant not found")
	assert.Contains(t, buf.String(), "file=guides/intro.mdx")
	assert.Contains(t, buf.String(), "constant=nope")
}

func TestSubstitute_ReportsMissing(t *testing.T) {
	var missing []string
	Substitute("$[a] $[b] $[a]", Map{"b": "x"}, func(name string) {
		missing = append(missing, name)
	})
	assert.Equal(t, []string{"a", "a"}, missing)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "constants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("constants:\n  version: \"0.6\"\n  repo: langchain-ai/docs\n"), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Map{"version": "0.6", "repo": "langchain-ai/docs"}, m)
}

func TestLoad_MissingFile(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "constants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("constants: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
}
