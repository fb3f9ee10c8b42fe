package linkmap

import (
	"log/slog"
	"strings"

	"github.com/sahilm/fuzzy"

	"git.home.luguber.info/inful/docpipe/internal/logfields"
	"git.home.luguber.info/inful/docpipe/internal/metrics"
	"git.home.luguber.info/inful/docpipe/internal/patterns"
)

const maxSuggestions = 3

// Resolver rewrites cross-reference tokens into markdown links.
type Resolver struct {
	registry *Registry
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewResolver returns a resolver backed by reg. Nil logger and recorder
// fall back to slog.Default and a no-op recorder.
func NewResolver(reg *Registry, logger *slog.Logger, recorder metrics.Recorder) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = NewRegistry(nil)
	}
	return &Resolver{registry: reg, logger: logger, recorder: metrics.OrNoop(recorder)}
}

// Registry returns the registry the resolver reads from.
func (r *Resolver) Registry() *Registry { return r.registry }

// Replace rewrites @[title][label] to [title](url) and @[label] to
// [label](url). Tokens whose label is unknown in scope are kept verbatim
// and logged.
func (r *Resolver) Replace(text, filePath string, scope Scope) string {
	matches := patterns.CrossReference.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		last = m[1]

		var title, label string
		if m[2] >= 0 {
			title, label = text[m[2]:m[3]], text[m[4]:m[5]]
		} else {
			label = text[m[6]:m[7]]
			title = label
		}

		url, ok := r.registry.Lookup(scope, label)
		if !ok {
			r.reportMissing(filePath, label, scope)
			b.WriteString(text[m[0]:m[1]])
			continue
		}
		b.WriteString("[")
		b.WriteString(title)
		b.WriteString("](")
		b.WriteString(url)
		b.WriteString(")")
	}
	b.WriteString(text[last:])
	return b.String()
}

func (r *Resolver) reportMissing(filePath, label string, scope Scope) {
	r.recorder.IncUnresolved(metrics.UnresolvedReference)
	attrs := []any{
		logfields.File(filePath),
		logfields.Label(label),
		logfields.Scope(string(scope)),
	}
	if s := r.Suggest(scope, label); len(s) > 0 {
		attrs = append(attrs, slog.String("did_you_mean", strings.Join(s, ", ")))
	}
	r.logger.Warn("Link reference not found in scope", attrs...)
}

// Suggest returns up to three known labels in scope that fuzzily match label.
func (r *Resolver) Suggest(scope Scope, label string) []string {
	labels := r.registry.Labels(scope)
	if len(labels) == 0 {
		return nil
	}
	matches := fuzzy.Find(label, labels)
	out := make([]string, 0, maxSuggestions)
	for _, m := range matches {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, m.Str)
	}
	return out
}
