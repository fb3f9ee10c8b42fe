// Package errors provides the classified error type used across docpipe.
//
// Key features:
//   - ErrorCategory: broad classification (config, filesystem, snippets, archive, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - RetryStrategy: retry behaviour hint consumed by internal/retry callers
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: maps categories to process exit codes
//
// Example usage:
//
//	err := errors.WrapError(ioErr, errors.CategoryFileSystem, "read source file").
//		WithContext("file", path).
//		Build()
package errors
