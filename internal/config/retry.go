package config

import "strings"

// RetryBackoffMode is the delay growth between reference download attempts.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffModes = []RetryBackoffMode{RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential}

// NormalizeRetryBackoff maps raw ("Exponential", " fixed ") onto a known
// mode. ok is false for empty or unknown input.
func NormalizeRetryBackoff(raw string) (mode RetryBackoffMode, ok bool) {
	m := RetryBackoffMode(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range retryBackoffModes {
		if m == known {
			return known, true
		}
	}
	return "", false
}
