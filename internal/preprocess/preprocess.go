// Package preprocess renders one markdown source for a target language.
//
// Preprocess applies, in order: constant substitution, cross-reference
// resolution and conditional block resolution. Cross-references must be
// resolved before conditional blocks are dropped so every reference is
// rewritten with the same scope regardless of which block it sits in.
package preprocess

import (
	"log/slog"

	"git.home.luguber.info/inful/docpipe/internal/conditional"
	"git.home.luguber.info/inful/docpipe/internal/config"
	"git.home.luguber.info/inful/docpipe/internal/constants"
	"git.home.luguber.info/inful/docpipe/internal/linkmap"
	"git.home.luguber.info/inful/docpipe/internal/logfields"
	"git.home.luguber.info/inful/docpipe/internal/metrics"
)

// Options select the language a document is rendered for.
type Options struct {
	// TargetLanguage is python or js. Empty uses the preprocessor default.
	TargetLanguage string
	// DefaultScope is the cross-reference scope. Empty uses TargetLanguage.
	DefaultScope string
	// Logger replaces the preprocessor's logger for this call, typically
	// one already scoped to a build.
	Logger *slog.Logger
}

// Preprocessor holds the read-only state shared by every file of a build.
type Preprocessor struct {
	Constants       constants.Map
	Resolver        *linkmap.Resolver
	Logger          *slog.Logger
	Recorder        metrics.Recorder
	DefaultLanguage string
}

// New returns a preprocessor with nil dependencies replaced by defaults.
func New(consts constants.Map, resolver *linkmap.Resolver, logger *slog.Logger, recorder metrics.Recorder) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	if resolver == nil {
		resolver = linkmap.NewResolver(nil, logger, recorder)
	}
	return &Preprocessor{
		Constants:       consts,
		Resolver:        resolver,
		Logger:          logger,
		Recorder:        metrics.OrNoop(recorder),
		DefaultLanguage: config.DefaultTargetLanguage(),
	}
}

func (p *Preprocessor) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// Targets resolves opts into a validated target language and scope.
func (p *Preprocessor) Targets(opts Options) (target, scope linkmap.Scope, err error) {
	lang := opts.TargetLanguage
	if lang == "" {
		lang = p.DefaultLanguage
	}
	if lang == "" {
		lang = config.DefaultTargetLanguage()
	}
	if target, err = linkmap.ParseScope(lang); err != nil {
		return "", "", err
	}
	if opts.DefaultScope == "" {
		return target, target, nil
	}
	if scope, err = linkmap.ParseScope(opts.DefaultScope); err != nil {
		return "", "", err
	}
	return target, scope, nil
}

// Preprocess renders text, read from filePath, for the language in opts.
// Unknown constants and cross-references are kept verbatim and logged.
func (p *Preprocessor) Preprocess(text, filePath string, opts Options) (string, error) {
	target, scope, err := p.Targets(opts)
	if err != nil {
		return "", err
	}
	logger := p.logger()
	if opts.Logger != nil {
		logger = opts.Logger
	}
	rec := metrics.OrNoop(p.Recorder)

	text = constants.Substitute(text, p.Constants, func(name string) {
		rec.IncUnresolved(metrics.UnresolvedConstant)
		logger.Info("Constant not found in constants map",
			logfields.File(filePath),
			logfields.Constant(name))
	})

	resolver := p.Resolver
	if resolver == nil {
		resolver = linkmap.NewResolver(nil, logger, rec)
	}
	text = resolver.Replace(text, filePath, scope)

	for _, f := range conditional.UnclosedFences(text) {
		logger.Warn("Conditional block is never closed and is left as is",
			logfields.File(filePath),
			slog.Int("line", f.Line),
			logfields.Language(f.Language))
	}
	return conditional.Resolve(text, target)
}
