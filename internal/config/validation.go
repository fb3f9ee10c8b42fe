package config

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Supported values for InventoryConfig.NameTransform.
const (
	NameTransformNone  = ""
	NameTransformShort = "short"
)

func init() {
	// Report YAML key names in validation errors.
	validation.ErrorTag = "yaml"
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.SourceDir, validation.Required),
		validation.Field(&c.BuildDir, validation.Required),
		validation.Field(&c.SnippetsDir, validation.Required),
	); err != nil {
		return err
	}
	if err := c.Build.Validate(); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	if err := c.Watch.Validate(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := c.Reference.Validate(); err != nil {
		return fmt.Errorf("reference: %w", err)
	}
	for i := range c.Inventories {
		if err := c.Inventories[i].Validate(); err != nil {
			return fmt.Errorf("inventories[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate validates the build configuration.
func (c *BuildConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Concurrency, validation.Min(1)),
		validation.Field(&c.TargetLanguage, validation.Required, validation.In("python", "js")),
		validation.Field(&c.EditURLBase, is.URL),
	)
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(0)),
		validation.Field(&c.RebuildInterval, validation.Min(0)),
	)
}

// Validate validates the reference download configuration.
func (c *ReferenceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DistDir, validation.Required),
		validation.Field(&c.ArchiveBase, validation.Required, validation.By(httpsOnly)),
		validation.Field(&c.Retry),
	)
}

// Validate validates the retry configuration.
func (c RetryConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Backoff, validation.In(RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential).Error("must be fixed, linear or exponential")),
		validation.Field(&c.MaxRetries, validation.Min(0)),
	)
}

// Validate validates one inventory source.
func (c *InventoryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Scope, validation.Required, validation.In("python", "js")),
		validation.Field(&c.URL, validation.Required, is.URL),
		validation.Field(&c.NameTransform, validation.In(NameTransformNone, NameTransformShort)),
	)
}

func httpsOnly(value any) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, "https://") {
		return fmt.Errorf("must be an https URL")
	}
	return nil
}
