package linkmap

import (
	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
)

// Scope selects the language a cross-reference is resolved for.
type Scope string

const (
	ScopePython Scope = "python"
	ScopeJS     Scope = "js"
)

// Scopes lists every supported scope.
func Scopes() []Scope { return []Scope{ScopePython, ScopeJS} }

// ParseScope validates s as a scope.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopePython, ScopeJS:
		return Scope(s), nil
	}
	return "", foundationerrors.ValidationError("scope must be 'python' or 'js'").
		WithContext("scope", s).
		Build()
}
