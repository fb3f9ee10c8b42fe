// Package constants substitutes $[name] tokens with values from a
// project-wide constants file.
package constants

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/docpipe/internal/logfields"
	"git.home.luguber.info/inful/docpipe/internal/patterns"
)

// Map holds constant name to replacement text. Treat it as read-only once loaded.
type Map map[string]string

type file struct {
	Constants Map `yaml:"constants"`
}

// Load reads a YAML file of the form `constants: {name: value}`.
// A missing file yields an empty map.
func Load(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Map{}, nil
		}
		return nil, foundationerrors.FileSystemError("failed to read constants file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, foundationerrors.ConfigError("invalid constants file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	if f.Constants == nil {
		f.Constants = Map{}
	}
	return f.Constants, nil
}

// Substitute replaces every unescaped $[name] with its value from m. Unknown
// names are left as they are and reported through onMissing, which may be nil.
// Escaped tokens (\$[name]) are unescaped afterwards.
func Substitute(text string, m Map, onMissing func(name string)) string {
	tokens := patterns.FindConstants(text)
	if len(tokens) > 0 {
		var b strings.Builder
		b.Grow(len(text))
		last := 0
		for _, tok := range tokens {
			b.WriteString(text[last:tok.Start])
			if v, ok := m[tok.Name]; ok {
				b.WriteString(v)
			} else {
				if onMissing != nil {
					onMissing(tok.Name)
				}
				b.WriteString(text[tok.Start:tok.End])
			}
			last = tok.End
		}
		b.WriteString(text[last:])
		text = b.String()
	}
	return strings.ReplaceAll(text, patterns.EscapedConstant, "$[")
}

// Replace is Substitute with unknown constants logged at info level.
func Replace(text, filePath string, m Map, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}
	return Substitute(text, m, func(name string) {
		logger.Info("Constant not found in constants map",
			logfields.File(filePath),
			logfields.Constant(name))
	})
}
