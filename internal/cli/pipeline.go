package cli

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/docpipe/internal/build"
	"git.home.luguber.info/inful/docpipe/internal/config"
	"git.home.luguber.info/inful/docpipe/internal/constants"
	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/docpipe/internal/linkmap"
	"git.home.luguber.info/inful/docpipe/internal/logfields"
	"git.home.luguber.info/inful/docpipe/internal/metrics"
	"git.home.luguber.info/inful/docpipe/internal/preprocess"
)

// LoadRegistry builds the link registry from the manual maps (the file in
// cfg, or the compiled-in defaults) overlaid on the generated file.
// Label collisions are logged, not fatal.
func LoadRegistry(cfg config.LinkMapsConfig, logger *slog.Logger) (*linkmap.Registry, error) {
	var (
		manual []linkmap.LinkMap
		err    error
	)
	if cfg.ManualFile != "" {
		manual, err = linkmap.LoadFile(cfg.ManualFile)
	} else {
		manual, err = linkmap.DefaultManualLinkMaps()
	}
	if err != nil {
		return nil, err
	}
	auto, err := linkmap.LoadFile(cfg.GeneratedFile)
	if err != nil {
		return nil, err
	}

	reg := linkmap.BuildRegistry(manual, auto)
	for _, c := range reg.Collisions() {
		logger.Warn("Link label defined more than once",
			logfields.Scope(string(c.Scope)),
			logfields.Label(c.Label),
			slog.Any("urls", c.URLs),
			logfields.URL(c.Winner))
	}
	logger.Debug("Link registry loaded",
		slog.Int("python", reg.Len(linkmap.ScopePython)),
		slog.Int("js", reg.Len(linkmap.ScopeJS)))
	return reg, nil
}

// NewPreprocessor wires constants and the link registry into a preprocessor.
func NewPreprocessor(cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder) (*preprocess.Preprocessor, error) {
	consts, err := constants.Load(cfg.ConstantsFile)
	if err != nil {
		return nil, err
	}
	reg, err := LoadRegistry(cfg.LinkMaps, logger)
	if err != nil {
		return nil, err
	}
	pre := preprocess.New(consts, linkmap.NewResolver(reg, logger, recorder), logger, recorder)
	pre.DefaultLanguage = cfg.Build.TargetLanguage
	return pre, nil
}

// NewBuildService assembles the build orchestrator for cfg.
func NewBuildService(cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder) (*build.DefaultBuildService, error) {
	pre, err := NewPreprocessor(cfg, logger, recorder)
	if err != nil {
		return nil, err
	}
	return build.NewBuildService(pre, build.OptionsFromConfig(cfg)).
		WithLogger(logger).
		WithRecorder(recorder), nil
}

func requireDir(path, what string) error {
	st, err := os.Stat(path)
	if err != nil || !st.IsDir() {
		return foundationerrors.NotFoundError(what + " directory not found").
			WithContext("path", path).
			Build()
	}
	return nil
}
