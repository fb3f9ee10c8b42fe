package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up when --config is not given.
const DefaultPath = "docpipe.yaml"

// Config represents the application configuration.
type Config struct {
	SourceDir     string            `yaml:"source_dir"`
	BuildDir      string            `yaml:"build_dir"`
	SnippetsDir   string            `yaml:"snippets_dir"`
	ConstantsFile string            `yaml:"constants_file"`
	LinkMaps      LinkMapsConfig    `yaml:"link_maps"`
	Build         BuildConfig       `yaml:"build"`
	Watch         WatchConfig       `yaml:"watch"`
	Reference     ReferenceConfig   `yaml:"reference"`
	Packages      PackagesConfig    `yaml:"packages"`
	Inventories   []InventoryConfig `yaml:"inventories"`
}

// LinkMapsConfig points at the on-disk link registries.
// An empty ManualFile selects the curated maps compiled into the binary.
type LinkMapsConfig struct {
	ManualFile    string `yaml:"manual_file,omitempty"`
	GeneratedFile string `yaml:"generated_file"`
}

// BuildConfig controls the documentation build.
type BuildConfig struct {
	Concurrency    int    `yaml:"concurrency"`
	EditURLBase    string `yaml:"edit_url_base,omitempty"`
	CheckLinks     bool   `yaml:"check_links"`
	TargetLanguage string `yaml:"target_language"` // default for files built outside a language variant
}

// WatchConfig controls rebuild-on-change behaviour.
type WatchConfig struct {
	Debounce        time.Duration `yaml:"debounce"`
	RebuildInterval time.Duration `yaml:"rebuild_interval,omitempty"` // 0 disables periodic full rebuilds
	MetricsAddr     string        `yaml:"metrics_addr,omitempty"`
}

// ReferenceConfig controls the API reference download.
type ReferenceConfig struct {
	DistDir     string        `yaml:"dist_dir"`
	ArchiveBase string        `yaml:"archive_base"`
	Tags        []string      `yaml:"tags,omitempty"`
	Timeout     time.Duration `yaml:"timeout"`
	Retry       RetryConfig   `yaml:"retry"`
}

// RetryConfig mirrors retry.Policy in YAML form.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff"`
	Initial    time.Duration    `yaml:"initial"`
	Max        time.Duration    `yaml:"max"`
	MaxRetries int              `yaml:"max_retries"`
}

// PackagesConfig locates inputs and output of the integration package table.
type PackagesConfig struct {
	File         string `yaml:"file"`
	ProvidersDir string `yaml:"providers_dir"`
	OutputFile   string `yaml:"output_file"`
}

// InventoryConfig describes one Sphinx objects.inv source for link map generation.
type InventoryConfig struct {
	Host          string   `yaml:"host"`
	Scope         string   `yaml:"scope"`
	URL           string   `yaml:"url"`
	IncludeRoles  []string `yaml:"include_roles,omitempty"`
	NameTransform string   `yaml:"name_transform,omitempty"` // "" keeps names, "short" drops module paths
}

// Load reads the configuration file at path. A missing file yields the defaults.
// .env files are loaded first so ${VAR} references in the YAML can use them.
func Load(path string) (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg, cfg.Validate()
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		Inventories: DefaultInventories(),
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.SourceDir == "" {
		c.SourceDir = "src"
	}
	if c.BuildDir == "" {
		c.BuildDir = "build"
	}
	if c.SnippetsDir == "" {
		c.SnippetsDir = "snippets"
	}
	if c.ConstantsFile == "" {
		c.ConstantsFile = "constants.yaml"
	}
	if c.LinkMaps.GeneratedFile == "" {
		c.LinkMaps.GeneratedFile = "link_maps.generated.yaml"
	}
	if c.Build.Concurrency == 0 {
		c.Build.Concurrency = 8
	}
	if c.Build.TargetLanguage == "" {
		c.Build.TargetLanguage = DefaultTargetLanguage()
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}
	if c.Reference.DistDir == "" {
		c.Reference.DistDir = "reference/dist/python"
	}
	if c.Reference.ArchiveBase == "" {
		c.Reference.ArchiveBase = "https://github.com/langchain-ai/langchain-api-docs-html/archive/refs"
	}
	if c.Reference.Timeout == 0 {
		c.Reference.Timeout = 5 * time.Minute
	}
	// Unknown modes are kept so validation reports them.
	if mode, ok := NormalizeRetryBackoff(string(c.Reference.Retry.Backoff)); ok {
		c.Reference.Retry.Backoff = mode
	}
	if c.Reference.Retry.Backoff == "" {
		c.Reference.Retry.Backoff = RetryBackoffExponential
	}
	if c.Packages.File == "" {
		c.Packages.File = "reference/packages.yml"
	}
	if c.Packages.ProvidersDir == "" {
		c.Packages.ProvidersDir = "src/oss/python/integrations/providers"
	}
	if c.Packages.OutputFile == "" {
		c.Packages.OutputFile = "src/oss/python/integrations/providers/overview.mdx"
	}
}

// DefaultTargetLanguage returns TARGET_LANGUAGE from the environment, or "python".
func DefaultTargetLanguage() string {
	if v := os.Getenv("TARGET_LANGUAGE"); v != "" {
		return v
	}
	return "python"
}

// DefaultInventories lists the Sphinx inventories link maps are generated from.
func DefaultInventories() []InventoryConfig {
	return []InventoryConfig{
		{
			Host:          "https://reference.langchain.com/python/",
			Scope:         "python",
			URL:           "https://reference.langchain.com/python/objects.inv",
			IncludeRoles:  []string{"class", "function", "method", "module"},
			NameTransform: NameTransformShort,
		},
		{
			Host:         "https://langchain-ai.github.io/langgraph/",
			Scope:        "python",
			URL:          "https://langchain-ai.github.io/langgraph/objects.inv",
			IncludeRoles: []string{"class", "function", "method"},
		},
	}
}
