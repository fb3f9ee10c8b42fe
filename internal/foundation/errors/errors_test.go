package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "docpipe.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())
		assert.Equal(t, "[config:fatal] invalid configuration", err.Error())

		file, exists := err.Context().GetString("file")
		assert.True(t, exists)
		assert.Equal(t, "docpipe.yaml", file)
	})

	t.Run("Error detection through wrapping", func(t *testing.T) {
		err := fmt.Errorf("load: %w", ConfigError("test error").Build())

		assert.True(t, IsClassified(err))
		assert.True(t, HasCategory(err, CategoryConfig))
		assert.Equal(t, CategoryConfig, GetCategory(err))
		assert.Equal(t, CategoryInternal, GetCategory(errors.New("plain")))
	})

	t.Run("WithContext does not mutate the receiver", func(t *testing.T) {
		base := BuildError("failed").Build()
		withFile := base.WithContext("file", "a.mdx")

		_, ok := base.Context().Get("file")
		assert.False(t, ok)
		got, _ := withFile.Context().GetString("file")
		assert.Equal(t, "a.mdx", got)
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Fluent API", func(t *testing.T) {
		originalErr := errors.New("connection reset")
		err := WrapError(originalErr, CategoryNetwork, "inventory fetch failed").
			Warning().
			Retryable().
			WithContext("url", "https://example.com/objects.inv").
			Build()

		assert.Equal(t, SeverityWarning, err.Severity())
		assert.Equal(t, RetryBackoff, err.RetryStrategy())
		assert.True(t, errors.Is(err, originalErr))
		assert.True(t, err.IsTransient())
		assert.True(t, IsTransient(fmt.Errorf("wrap: %w", err)))
	})

	t.Run("Convenience constructors", func(t *testing.T) {
		tests := []struct {
			name     string
			builder  *ErrorBuilder
			category ErrorCategory
			severity ErrorSeverity
			retry    RetryStrategy
		}{
			{"ConfigError", ConfigError("test"), CategoryConfig, SeverityFatal, RetryUserAction},
			{"ValidationError", ValidationError("test"), CategoryValidation, SeverityError, RetryUserAction},
			{"NotFoundError", NotFoundError("test"), CategoryNotFound, SeverityError, RetryUserAction},
			{"NetworkError", NetworkError("test"), CategoryNetwork, SeverityError, RetryBackoff},
			{"BuildError", BuildError("test"), CategoryBuild, SeverityError, RetryNever},
			{"FileSystemError", FileSystemError("test"), CategoryFileSystem, SeverityError, RetryNever},
			{"SnippetsError", SnippetsError("test"), CategorySnippets, SeverityError, RetryNever},
			{"LinkMapError", LinkMapError("test"), CategoryLinkMap, SeverityError, RetryNever},
			{"ArchiveError", ArchiveError("test"), CategoryArchive, SeverityFatal, RetryNever},
			{"InternalError", InternalError("test"), CategoryInternal, SeverityFatal, RetryNever},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.builder.Build()
				require.NotNil(t, err)
				assert.Equal(t, tt.category, err.Category())
				assert.Equal(t, tt.severity, err.Severity())
				assert.Equal(t, tt.retry, err.RetryStrategy())
			})
		}
	})
}

func TestErrorContext(t *testing.T) {
	ctx1 := ErrorContext{}.Set("key1", "value1").Set("shared", "original")
	ctx2 := ErrorContext{}.Set("key2", 42).Set("shared", "overridden")

	merged := ctx1.Merge(ctx2)

	v1, _ := merged.GetString("key1")
	v2, _ := merged.Get("key2")
	shared, _ := merged.GetString("shared")
	assert.Equal(t, "value1", v1)
	assert.Equal(t, 42, v2)
	assert.Equal(t, "overridden", shared)

	_, ok := merged.GetString("key2")
	assert.False(t, ok, "non-string values are not returned by GetString")
}
