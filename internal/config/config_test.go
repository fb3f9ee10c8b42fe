package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TARGET_LANGUAGE", "")

	cfg, err := Load("docpipe.yaml")
	require.NoError(t, err)

	assert.Equal(t, "src", cfg.SourceDir)
	assert.Equal(t, "build", cfg.BuildDir)
	assert.Equal(t, "snippets", cfg.SnippetsDir)
	assert.Equal(t, 8, cfg.Build.Concurrency)
	assert.Equal(t, "python", cfg.Build.TargetLanguage)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, RetryBackoffExponential, cfg.Reference.Retry.Backoff)
	assert.Len(t, cfg.Inventories, 2)
}

func TestLoad_ExpandsEnvironmentAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("TARGET_LANGUAGE", "")
	require.NoError(t, os.Unsetenv("TARGET_LANGUAGE"))
	writeFile(t, ".env", "DOCS_ROOT=docs-src\nTARGET_LANGUAGE=js\n")
	writeFile(t, "docpipe.yaml", `
source_dir: ${DOCS_ROOT}
build:
  concurrency: 2
  check_links: true
watch:
  debounce: 250ms
  rebuild_interval: 10m
inventories:
  - host: https://example.com/
    scope: js
    url: https://example.com/objects.inv
`)
	t.Cleanup(func() { _ = os.Unsetenv("DOCS_ROOT") })

	cfg, err := Load(filepath.Join(dir, "docpipe.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "docs-src", cfg.SourceDir)
	assert.Equal(t, 2, cfg.Build.Concurrency)
	assert.True(t, cfg.Build.CheckLinks)
	assert.Equal(t, "js", cfg.Build.TargetLanguage)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, 10*time.Minute, cfg.Watch.RebuildInterval)
	require.Len(t, cfg.Inventories, 1)
	assert.Equal(t, "js", cfg.Inventories[0].Scope)
}

func TestLoad_DotEnvDoesNotOverrideProcessEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TARGET_LANGUAGE", "python")
	writeFile(t, ".env", "TARGET_LANGUAGE=js\n")

	cfg, err := Load("docpipe.yaml")
	require.NoError(t, err)
	assert.Equal(t, "python", cfg.Build.TargetLanguage)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "unknown target language",
			mutate:  func(c *Config) { c.Build.TargetLanguage = "ruby" },
			wantErr: "target_language",
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *Config) { c.Build.Concurrency = -1 },
			wantErr: "concurrency",
		},
		{
			name:    "plain http archive base",
			mutate:  func(c *Config) { c.Reference.ArchiveBase = "http://example.com/archive" },
			wantErr: "archive_base",
		},
		{
			name:    "inventory without url",
			mutate:  func(c *Config) { c.Inventories[0].URL = "" },
			wantErr: "inventories[0]",
		},
		{
			name:    "unknown name transform",
			mutate:  func(c *Config) { c.Inventories[1].NameTransform = "lower" },
			wantErr: "name_transform",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TARGET_LANGUAGE", "")
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalizeRetryBackoff(t *testing.T) {
	tests := []struct {
		raw  string
		want RetryBackoffMode
		ok   bool
	}{
		{" Fixed ", RetryBackoffFixed, true},
		{"EXPONENTIAL", RetryBackoffExponential, true},
		{"linear", RetryBackoffLinear, true},
		{"sometimes", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizeRetryBackoff(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestLoad_RetryBackoffIsCaseInsensitive(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TARGET_LANGUAGE", "")

	writeFile(t, "docpipe.yaml", "reference:\n  retry:\n    backoff: Exponential\n")
	cfg, err := Load("docpipe.yaml")
	require.NoError(t, err)
	assert.Equal(t, RetryBackoffExponential, cfg.Reference.Retry.Backoff)

	writeFile(t, "docpipe.yaml", "reference:\n  retry:\n    backoff: Sometimes\n")
	_, err = Load("docpipe.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backoff")
}
