package snippets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/docpipe/internal/logfields"
	"git.home.luguber.info/inful/docpipe/internal/metrics"
	"git.home.luguber.info/inful/docpipe/internal/patterns"
)

// Exporter writes snippets from SrcDir into per-language directories under
// OutputDir. A language is exported only if its directory already exists;
// those directories carry the toolchain (Makefile, .gitignore) that lints
// the exported files.
type Exporter struct {
	SrcDir      string
	OutputDir   string
	Extensions  []string // source file extensions, lower case
	Whitelist   []string // top-level source directories that are scanned
	Concurrency int
	MakeCommand string

	Logger   *slog.Logger
	Recorder metrics.Recorder
}

// NewExporter returns an exporter scanning src/oss for .md and .mdx files.
func NewExporter(srcDir, outputDir string, logger *slog.Logger, recorder metrics.Recorder) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		SrcDir:      srcDir,
		OutputDir:   outputDir,
		Extensions:  []string{".md", ".mdx"},
		Whitelist:   []string{"oss"},
		Concurrency: 8,
		MakeCommand: "make",
		Logger:      logger,
		Recorder:    metrics.OrNoop(recorder),
	}
}

// RunOptions select the phases of Run.
type RunOptions struct {
	ExportOnly bool
	LintOnly   bool
}

// Run exports and then lints, as selected by opts. A missing source
// directory is a not-found error.
func (e *Exporter) Run(ctx context.Context, opts RunOptions) error {
	if st, err := os.Stat(e.SrcDir); err != nil || !st.IsDir() {
		return foundationerrors.NotFoundError("src directory not found").
			WithContext("path", e.SrcDir).
			Build()
	}
	if err := os.MkdirAll(e.OutputDir, 0o750); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create snippets directory").
			WithContext("path", e.OutputDir).
			Build()
	}
	if !opts.LintOnly {
		if err := e.ExportAll(ctx); err != nil {
			return err
		}
	}
	if !opts.ExportOnly {
		return e.LintAll(ctx)
	}
	return nil
}

// LanguageDirs returns the names of the supported language directories
// present under OutputDir, sorted.
func (e *Exporter) LanguageDirs() ([]string, error) {
	entries, err := os.ReadDir(e.OutputDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if _, ok := patterns.LanguageExtensions[entry.Name()]; !ok {
			continue
		}
		if st, err := os.Stat(filepath.Join(e.OutputDir, entry.Name())); err == nil && st.IsDir() {
			out = append(out, entry.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// ExportAll cleans the language directories and exports every source
// file. A file that fails is logged and reported in the returned error;
// the remaining files are still exported.
func (e *Exporter) ExportAll(ctx context.Context) error {
	start := time.Now()
	e.Logger.Info("Exporting all snippets", logfields.Path(e.OutputDir))

	if err := e.CleanAll(); err != nil {
		return err
	}
	files, err := e.sourceFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		e.Logger.Info("No files to export", logfields.Path(e.SrcDir))
		return nil
	}

	var (
		mu     sync.Mutex
		failed []error
		total  int
	)
	g, gctx := errgroup.WithContext(ctx)
	if e.Concurrency > 0 {
		g.SetLimit(e.Concurrency)
	}
	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := e.ExportFile(file)
			mu.Lock()
			defer mu.Unlock()
			total += n
			if err != nil {
				e.Logger.Error("Failed to export snippets", logfields.File(file), logfields.Error(err))
				failed = append(failed, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if len(failed) > 0 {
		return foundationerrors.SnippetsError("failed to export snippets").
			WithCause(errors.Join(failed...)).
			WithContext("failed_files", len(failed)).
			Build()
	}

	e.Logger.Info("Export complete",
		logfields.Count(total),
		logfields.Elapsed(time.Since(start)))
	return nil
}

func (e *Exporter) sourceFiles() ([]string, error) {
	var files []string
	dirs := append([]string(nil), e.Whitelist...)
	sort.Strings(dirs)
	for _, top := range dirs {
		root := filepath.Join(e.SrcDir, top)
		if st, err := os.Stat(root); err != nil || !st.IsDir() {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !e.wantExtension(path) {
				return nil
			}
			if st, err := os.Stat(path); err == nil && st.Mode().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to scan source directory").
				WithContext("path", root).
				Build()
		}
	}
	return files, nil
}

func (e *Exporter) wantExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range e.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// ExportFile writes the snippets of one source file and returns how many
// files were written. Snippet n of language L from src/a/b.mdx is written
// to OutputDir/L/a/b.mdx/L_n<ext>.
func (e *Exporter) ExportFile(path string) (int, error) {
	rel, err := filepath.Rel(e.SrcDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return 0, foundationerrors.ValidationError("file is outside the source directory").
			WithContext("file", path).
			Build()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read source file").
			WithContext("file", path).
			Build()
	}
	relSlash := filepath.ToSlash(rel)

	written := 0
	for idx, snippet := range ExtractSnippets(string(data)) {
		langDir := filepath.Join(e.OutputDir, snippet.Language)
		if st, err := os.Stat(langDir); err != nil || !st.IsDir() {
			e.Logger.Info("Language path does not exist, skipping export",
				logfields.Path(langDir),
				logfields.File(relSlash))
			continue
		}
		outDir := filepath.Join(langDir, rel)
		if err := os.MkdirAll(outDir, 0o750); err != nil {
			return written, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create snippet directory").
				WithContext("path", outDir).
				Build()
		}
		name := fmt.Sprintf("%s_%d%s", snippet.Language, idx, patterns.ExtensionFor(snippet.Language))
		out := filepath.Join(outDir, name)
		// #nosec G306 -- exported snippets are read by external linters
		if err := os.WriteFile(out, []byte(Stringify(snippet, relSlash, true)), 0o644); err != nil {
			return written, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write snippet").
				WithContext("path", out).
				Build()
		}
		written++
		e.Recorder.AddSnippetsExported(snippet.Language, 1)
	}
	return written, nil
}

// LintAll runs `make -C <dir> lint` for every language directory that has
// a Makefile. SNIPPETS_DIR is set to the absolute language directory and CI
// defaults to 1. Languages without a Makefile are skipped with a warning.
func (e *Exporter) LintAll(ctx context.Context) error {
	if st, err := os.Stat(e.OutputDir); err != nil || !st.IsDir() {
		e.Logger.Info("No lint commands found, skipping linting", logfields.Path(e.OutputDir))
		return nil
	}
	langs, err := e.LanguageDirs()
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to list language directories").
			WithContext("path", e.OutputDir).
			Build()
	}
	if len(langs) == 0 {
		e.Logger.Info("No supported languages found", logfields.Path(e.OutputDir))
		return nil
	}

	var failures []string
	for _, lang := range langs {
		if rc := e.lintLanguage(ctx, lang); rc != 0 {
			failures = append(failures, fmt.Sprintf("%s (rc=%d)", lang, rc))
		}
	}
	if len(failures) > 0 {
		list := strings.Join(failures, ", ")
		e.Logger.Error("Linting failed", slog.String("languages", list))
		return foundationerrors.SnippetsError("linting failed for: " + list).Build()
	}
	e.Logger.Info("Linting complete for all languages", logfields.Count(len(langs)))
	return nil
}

const exitCommandNotFound = 127

func (e *Exporter) lintLanguage(ctx context.Context, lang string) int {
	dir := filepath.Join(e.OutputDir, lang)
	if _, err := os.Stat(filepath.Join(dir, "Makefile")); err != nil {
		e.Logger.Warn("No lint command", logfields.Language(lang), logfields.Path(dir))
		return 0
	}

	makeCmd := e.MakeCommand
	if makeCmd == "" {
		makeCmd = "make"
	}
	executable, err := exec.LookPath(makeCmd)
	if err != nil {
		e.Logger.Error("Executable not found", slog.String("command", makeCmd), logfields.Language(lang))
		return exitCommandNotFound
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		absDir = dir
	}

	env := append(os.Environ(), "SNIPPETS_DIR="+absDir)
	if _, ok := os.LookupEnv("CI"); !ok {
		env = append(env, "CI=1")
	}
	// #nosec G204 -- executable comes from configuration, arguments are fixed
	cmd := exec.CommandContext(ctx, executable, "-C", dir, "lint")
	cmd.Env = env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.Logger.Info("Running lint command", logfields.Language(lang), slog.String("command", strings.Join(cmd.Args, " ")))
	err = cmd.Run()
	if stdout.Len() > 0 {
		e.Logger.Debug("Lint stdout", logfields.Language(lang), slog.String("output", stdout.String()))
	}
	if stderr.Len() > 0 {
		e.Logger.Error("Lint stderr", logfields.Language(lang), slog.String("output", stderr.String()))
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		e.Logger.Info("Lint passed", logfields.Language(lang))
		return 0
	case errors.As(err, &exitErr):
		e.Logger.Error("Linter exited with error", logfields.Language(lang), logfields.ExitCode(exitErr.ExitCode()))
		return exitErr.ExitCode()
	default:
		e.Logger.Error("Failed to execute linter", logfields.Language(lang), logfields.Error(err))
		return exitCommandNotFound
	}
}
