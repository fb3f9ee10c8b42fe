package build

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docpipe/internal/config"
	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/docpipe/internal/logfields"
	"git.home.luguber.info/inful/docpipe/internal/metrics"
	"git.home.luguber.info/inful/docpipe/internal/observability"
	"git.home.luguber.info/inful/docpipe/internal/preprocess"
)

// Options configures a DefaultBuildService.
type Options struct {
	SourceDir   string
	BuildDir    string
	Concurrency int
	// EditURLBase prefixes "edit this page" links. Empty means detect from git.
	EditURLBase string
	CheckLinks  bool
}

// OptionsFromConfig extracts build options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SourceDir:   cfg.SourceDir,
		BuildDir:    cfg.BuildDir,
		Concurrency: cfg.Build.Concurrency,
		EditURLBase: cfg.Build.EditURLBase,
		CheckLinks:  cfg.Build.CheckLinks,
	}
}

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	opts     Options
	pre      *preprocess.Preprocessor
	editBase string
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewBuildService creates a build service rendering markdown with pre.
func NewBuildService(pre *preprocess.Preprocessor, opts Options) *DefaultBuildService {
	editBase := opts.EditURLBase
	if editBase == "" {
		editBase = DetectEditURLBase(opts.SourceDir)
	}
	return &DefaultBuildService{
		opts:     opts,
		pre:      pre,
		editBase: editBase,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
}

// WithLogger sets the logger used for build progress.
func (s *DefaultBuildService) WithLogger(logger *slog.Logger) *DefaultBuildService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	s.recorder = metrics.OrNoop(r)
	return s
}

// EditURLBase returns the prefix used for edit links.
func (s *DefaultBuildService) EditURLBase() string { return s.editBase }

// Run executes the full build: clear the output, then build every variant.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	startTime := time.Now()
	buildID := uuid.NewString()
	ctx = observability.WithBuildID(ctx, buildID)

	result := &BuildResult{
		BuildID:    buildID,
		OutputPath: s.opts.BuildDir,
		StartTime:  startTime,
		Variants:   make(map[string]int),
	}
	finish := func(status BuildStatus, outcome metrics.BuildOutcomeLabel) {
		result.Status = status
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)
		s.recorder.ObserveBuildDuration(result.Duration)
		s.recorder.IncBuildOutcome(outcome)
	}

	if err := s.checkDirs(); err != nil {
		finish(BuildStatusFailed, metrics.BuildOutcomeFailed)
		return result, err
	}

	observability.InfoContext(ctx, s.logger, "Building documentation",
		logfields.Path(s.opts.SourceDir),
		slog.String("build_dir", s.opts.BuildDir))

	rels, err := s.sourceFiles()
	if err != nil {
		finish(BuildStatusFailed, metrics.BuildOutcomeFailed)
		return result, err
	}
	if err := s.clean(); err != nil {
		finish(BuildStatusFailed, metrics.BuildOutcomeFailed)
		return result, err
	}

	groups := make(map[string][]task)
	for _, rel := range rels {
		tasks := plan(rel)
		if len(tasks) == 0 {
			result.FilesSkipped++
			s.recorder.IncFileResult(VariantOther, metrics.ResultSkipped)
			continue
		}
		for _, t := range tasks {
			groups[t.variant] = append(groups[t.variant], t)
		}
	}

	var failures []error
	for _, variant := range variantOrder {
		if ctx.Err() != nil {
			break
		}
		tasks := groups[variant]
		if len(tasks) == 0 {
			continue
		}
		stageStart := time.Now()
		vctx := observability.WithStage(observability.WithVariant(ctx, variant), "build")
		built, errs := s.runTasks(vctx, tasks)
		s.recorder.ObserveStageDuration(variant, time.Since(stageStart))

		result.Variants[variant] = built
		result.FilesBuilt += built
		result.FilesFailed += len(errs)
		failures = append(failures, errs...)
		observability.InfoContext(vctx, s.logger, "Variant built",
			logfields.Count(built),
			logfields.Elapsed(time.Since(stageStart)))
	}

	if err := ctx.Err(); err != nil {
		finish(BuildStatusCancelled, metrics.BuildOutcomeCanceled)
		observability.WarnContext(ctx, s.logger, "Build cancelled", logfields.Error(err))
		return result, err
	}

	if req.CheckLinks || s.opts.CheckLinks {
		stageStart := time.Now()
		broken, err := s.CheckLinks(observability.WithStage(ctx, "check_links"))
		s.recorder.ObserveStageDuration("check_links", time.Since(stageStart))
		if err != nil {
			failures = append(failures, err)
		}
		result.BrokenLinks = broken
	}

	if len(failures) > 0 {
		finish(BuildStatusFailed, metrics.BuildOutcomeFailed)
		observability.ErrorContext(ctx, s.logger, "Build failed",
			slog.Int("failed", result.FilesFailed),
			logfields.Elapsed(result.Duration))
		return result, foundationerrors.BuildError("build failed").
			WithCause(errors.Join(failures...)).
			WithContext("failed_files", result.FilesFailed).
			WithContext("build_id", buildID).
			Build()
	}

	finish(BuildStatusSuccess, metrics.BuildOutcomeSuccess)
	observability.InfoContext(ctx, s.logger, "Build complete",
		logfields.Count(result.FilesBuilt),
		slog.Int("skipped", result.FilesSkipped),
		logfields.Elapsed(result.Duration))
	return result, nil
}

// runTasks builds tasks concurrently. A failing task is logged and
// collected; it never stops its siblings.
func (s *DefaultBuildService) runTasks(ctx context.Context, tasks []task) (int, []error) {
	limit := s.opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var (
		mu    sync.Mutex
		built int
		errs  []error
	)
	for _, t := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.buildTask(ctx, t); err != nil {
				s.recorder.IncFileResult(t.variant, metrics.ResultFailed)
				observability.ErrorContext(ctx, s.logger, "Failed to build file",
					logfields.File(t.rel),
					logfields.Path(t.out),
					logfields.Error(err))
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			s.recorder.IncFileResult(t.variant, metrics.ResultBuilt)
			observability.DebugContext(ctx, s.logger, "Built file", logfields.File(t.rel), logfields.Path(t.out))
			mu.Lock()
			built++
			mu.Unlock()
			return nil
		})
	}
	// Only cancellation surfaces here; Run reports it from ctx.
	_ = g.Wait()
	return built, errs
}

// BuildFile rebuilds every output of the source file at p.
func (s *DefaultBuildService) BuildFile(ctx context.Context, p string) error {
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return foundationerrors.NotFoundError("file does not exist").
			WithContext("file", p).
			Build()
	}
	rel, err := s.relPath(p)
	if err != nil {
		return err
	}

	tasks := plan(rel)
	if len(tasks) == 0 {
		s.recorder.IncFileResult(VariantOther, metrics.ResultSkipped)
		observability.DebugContext(ctx, s.logger, "File is not published", logfields.File(rel))
		return nil
	}

	var errs []error
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.buildTask(ctx, t); err != nil {
			s.recorder.IncFileResult(t.variant, metrics.ResultFailed)
			observability.ErrorContext(ctx, s.logger, "Failed to build file",
				logfields.File(rel), logfields.Variant(t.variant), logfields.Error(err))
			errs = append(errs, err)
			continue
		}
		s.recorder.IncFileResult(t.variant, metrics.ResultBuilt)
		observability.InfoContext(ctx, s.logger, "Built file",
			logfields.File(rel), logfields.Variant(t.variant), logfields.Path(t.out))
	}
	return errors.Join(errs...)
}

// OutputPaths lists the build outputs of the source file at p. The file
// does not need to exist.
func (s *DefaultBuildService) OutputPaths(p string) ([]string, error) {
	rel, err := s.relPath(p)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, t := range plan(rel) {
		out = append(out, filepath.Join(s.opts.BuildDir, filepath.FromSlash(t.out)))
	}
	return out, nil
}

// RemoveOutputs deletes the build outputs of the source file at p.
func (s *DefaultBuildService) RemoveOutputs(p string) error {
	outs, err := s.OutputPaths(p)
	if err != nil {
		return err
	}
	var errs []error
	for _, out := range outs {
		err := os.Remove(out)
		switch {
		case err == nil:
			s.logger.Info("Removed output", logfields.File(p), logfields.Path(out))
		case errors.Is(err, fs.ErrNotExist):
		default:
			errs = append(errs, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to remove output").
				WithContext("path", out).
				Build())
		}
	}
	return errors.Join(errs...)
}

func (s *DefaultBuildService) checkDirs() error {
	info, err := os.Stat(s.opts.SourceDir)
	if err != nil || !info.IsDir() {
		return foundationerrors.NotFoundError("source directory not found").
			WithContext("path", s.opts.SourceDir).
			Build()
	}
	src, _ := filepath.Abs(s.opts.SourceDir)
	dst, _ := filepath.Abs(s.opts.BuildDir)
	sep := string(filepath.Separator)
	if s.opts.BuildDir == "" || src == dst || strings.HasPrefix(src, dst+sep) {
		return foundationerrors.ValidationError("build directory must not contain the source directory").
			WithContext("build_dir", s.opts.BuildDir).
			Build()
	}
	// Output under src would be listed as source on the next run.
	if strings.HasPrefix(dst, src+sep) {
		return foundationerrors.ValidationError("build directory must not be inside the source directory").
			WithContext("build_dir", s.opts.BuildDir).
			WithContext("source_dir", s.opts.SourceDir).
			Build()
	}
	return nil
}

func (s *DefaultBuildService) clean() error {
	if err := os.RemoveAll(s.opts.BuildDir); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to clear build directory").
			WithContext("path", s.opts.BuildDir).
			Build()
	}
	if err := os.MkdirAll(s.opts.BuildDir, 0o750); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create build directory").
			WithContext("path", s.opts.BuildDir).
			Build()
	}
	return nil
}

// sourceFiles lists regular files under the source root as slash paths, sorted.
func (s *DefaultBuildService) sourceFiles() ([]string, error) {
	var rels []string
	err := filepath.WalkDir(s.opts.SourceDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.opts.SourceDir, p)
		if err != nil {
			return err
		}
		rels = append(rels, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to list source files").
			WithContext("path", s.opts.SourceDir).
			Build()
	}
	return rels, nil
}

func (s *DefaultBuildService) relPath(p string) (string, error) {
	absSrc, err := filepath.Abs(s.opts.SourceDir)
	if err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to resolve source directory").Build()
	}
	absP, err := filepath.Abs(p)
	if err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to resolve path").Build()
	}
	rel, err := filepath.Rel(absSrc, absP)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", foundationerrors.ValidationError("file is outside the source directory").
			WithContext("file", p).
			WithContext("source_dir", s.opts.SourceDir).
			Build()
	}
	return filepath.ToSlash(rel), nil
}

func (s *DefaultBuildService) buildTask(ctx context.Context, t task) error {
	src := filepath.Join(s.opts.SourceDir, filepath.FromSlash(t.rel))
	dst := filepath.Join(s.opts.BuildDir, filepath.FromSlash(t.out))
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", filepath.Dir(dst)).
			Build()
	}

	switch t.kind {
	case kindDocsYAML:
		return convertDocsYAML(src, dst)
	case kindCopy:
		return copyFile(src, dst)
	default:
		return s.renderMarkdown(ctx, t, src, dst)
	}
}

func (s *DefaultBuildService) chain(ctx context.Context, t task) preprocess.Chain {
	c := preprocess.Chain{
		preprocess.ResolveMarkdown(s.pre, preprocess.Options{
			TargetLanguage: string(t.target),
			Logger:         observability.Logger(ctx, s.pre.Logger),
		}),
	}
	if t.kind == kindSnippet {
		// Snippets are included from pages of either language.
		return append(c, preprocess.RelativizeOSSLinks())
	}
	if t.rewriteOSS {
		c = append(c, preprocess.RewriteOSSLinks(t.target))
	}
	return append(c, preprocess.AppendEditLink(s.editBase))
}

func (s *DefaultBuildService) renderMarkdown(ctx context.Context, t task, src, dst string) error {
	// #nosec G304 -- src is a file inside the configured source tree
	data, err := os.ReadFile(src)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read source file").
			WithContext("file", src).
			Build()
	}
	doc := &preprocess.Document{
		Content:    string(data),
		SourcePath: src,
		RelPath:    t.rel,
		Target:     t.target,
	}
	if err := s.chain(ctx, t).Run(doc); err != nil {
		return err
	}
	if err := os.WriteFile(dst, []byte(doc.Content), 0o644); err != nil { //nolint:gosec // published site content
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write output file").
			WithContext("path", dst).
			Build()
	}
	return nil
}

// copyFile copies src to dst keeping its mode and modification time.
func copyFile(src, dst string) error {
	wrap := func(err error, msg string) error {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, msg).
			WithContext("file", src).
			WithContext("path", dst).
			Build()
	}

	info, err := os.Stat(src)
	if err != nil {
		return wrap(err, "failed to stat source file")
	}
	// #nosec G304 -- src is a file inside the configured source tree
	in, err := os.Open(src)
	if err != nil {
		return wrap(err, "failed to open source file")
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return wrap(err, "failed to create output file")
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return wrap(err, "failed to copy file")
	}
	if err := out.Close(); err != nil {
		return wrap(err, "failed to close output file")
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return wrap(err, "failed to preserve modification time")
	}
	return nil
}
