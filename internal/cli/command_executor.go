package cli

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docpipe/internal/build"
	"git.home.luguber.info/inful/docpipe/internal/config"
	"git.home.luguber.info/inful/docpipe/internal/foundation"
	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/docpipe/internal/linkmap"
	"git.home.luguber.info/inful/docpipe/internal/logfields"
	"git.home.luguber.info/inful/docpipe/internal/metrics"
	"git.home.luguber.info/inful/docpipe/internal/pkgtable"
	"git.home.luguber.info/inful/docpipe/internal/reference"
	"git.home.luguber.info/inful/docpipe/internal/retry"
	"git.home.luguber.info/inful/docpipe/internal/snippets"
	"git.home.luguber.info/inful/docpipe/internal/watch"
)

// CommandExecutor runs docpipe commands against a loaded configuration.
type CommandExecutor interface {
	ExecuteBuild(ctx context.Context, req BuildRequest) foundation.Result[BuildResponse, error]
	ExecuteSnippets(ctx context.Context, req SnippetsRequest) foundation.Result[SnippetsResponse, error]
	ExecuteWatch(ctx context.Context, req WatchRequest) error
	ExecuteLinkMapGenerate(ctx context.Context, req LinkMapRequest) foundation.Result[LinkMapResponse, error]
	ExecuteReferenceBuild(ctx context.Context, req ReferenceRequest) foundation.Result[ReferenceResponse, error]
	ExecutePkgTable(ctx context.Context, req PkgTableRequest) foundation.Result[PkgTableResponse, error]
}

// Request/Response types for each command

type BuildRequest struct {
	CheckLinks bool
}

type BuildResponse struct {
	BuildID     string
	OutputPath  string
	FilesBuilt  int
	BrokenLinks []build.BrokenLink
	Duration    time.Duration
}

// SnippetsAction selects what the snippets command does.
type SnippetsAction string

const (
	SnippetsExport SnippetsAction = "export"
	SnippetsLint   SnippetsAction = "lint"
	SnippetsClean  SnippetsAction = "clean"
	SnippetsRun    SnippetsAction = "run"
)

type SnippetsRequest struct {
	Action     SnippetsAction
	ExportOnly bool // run only
	LintOnly   bool // run only
}

type SnippetsResponse struct {
	OutputDir string
	Languages []string
}

type WatchRequest struct {
	MetricsAddr  string
	InitialBuild bool
}

type LinkMapRequest struct {
	Output string // overrides link_maps.generated_file
}

type LinkMapResponse struct {
	Path  string
	Maps  int
	Links int
}

type ReferenceRequest struct {
	Tags []string // overrides reference.tags
}

type ReferenceResponse struct {
	DistDir  string
	Pages    int
	Title    string
	Versions []string
}

type PkgTableRequest struct{}

type PkgTableResponse struct {
	OutputFile string
	Rows       int
}

// DefaultCommandExecutor implements the CommandExecutor interface
type DefaultCommandExecutor struct {
	cfg      *config.Config
	logger   *slog.Logger
	recorder metrics.Recorder
	client   *http.Client
}

// NewCommandExecutor creates an executor for cfg.
func NewCommandExecutor(cfg *config.Config, logger *slog.Logger) *DefaultCommandExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultCommandExecutor{
		cfg:      cfg,
		logger:   logger,
		recorder: metrics.NoopRecorder{},
	}
}

// WithRecorder sets the metrics recorder handed to every component.
func (e *DefaultCommandExecutor) WithRecorder(r metrics.Recorder) *DefaultCommandExecutor {
	e.recorder = metrics.OrNoop(r)
	return e
}

// WithHTTPClient overrides the client used for inventory downloads (for testing).
func (e *DefaultCommandExecutor) WithHTTPClient(c *http.Client) *DefaultCommandExecutor {
	e.client = c
	return e
}

// Command execution implementations

func (e *DefaultCommandExecutor) ExecuteBuild(ctx context.Context, req BuildRequest) foundation.Result[BuildResponse, error] {
	svc, err := NewBuildService(e.cfg, e.logger, e.recorder)
	if err != nil {
		return foundation.Err[BuildResponse](err)
	}
	result, err := svc.Run(ctx, build.BuildRequest{CheckLinks: req.CheckLinks || e.cfg.Build.CheckLinks})
	if err != nil {
		return foundation.Err[BuildResponse](err)
	}
	return foundation.Ok[BuildResponse, error](BuildResponse{
		BuildID:     result.BuildID,
		OutputPath:  result.OutputPath,
		FilesBuilt:  result.FilesBuilt,
		BrokenLinks: result.BrokenLinks,
		Duration:    result.Duration,
	})
}

func (e *DefaultCommandExecutor) ExecuteSnippets(ctx context.Context, req SnippetsRequest) foundation.Result[SnippetsResponse, error] {
	exp := snippets.NewExporter(e.cfg.SourceDir, e.cfg.SnippetsDir, e.logger, e.recorder)
	exp.Concurrency = e.cfg.Build.Concurrency

	var err error
	switch req.Action {
	case SnippetsClean:
		err = exp.CleanAll()
	case SnippetsExport:
		err = exp.Run(ctx, snippets.RunOptions{ExportOnly: true})
	case SnippetsLint:
		err = exp.Run(ctx, snippets.RunOptions{LintOnly: true})
	case SnippetsRun:
		if req.ExportOnly && req.LintOnly {
			err = foundationerrors.ValidationError("--export-only and --lint-only are mutually exclusive").Build()
			break
		}
		err = exp.Run(ctx, snippets.RunOptions{ExportOnly: req.ExportOnly, LintOnly: req.LintOnly})
	default:
		err = foundationerrors.ValidationError("unknown snippets action").
			WithContext("action", string(req.Action)).
			Build()
	}
	if err != nil {
		return foundation.Err[SnippetsResponse](err)
	}

	langs, err := exp.LanguageDirs()
	if err != nil {
		return foundation.Err[SnippetsResponse](err)
	}
	return foundation.Ok[SnippetsResponse, error](SnippetsResponse{OutputDir: e.cfg.SnippetsDir, Languages: langs})
}

// ExecuteWatch builds on change until ctx is cancelled. With a metrics
// address, a Prometheus registry replaces the executor's recorder and is
// served alongside the watcher.
func (e *DefaultCommandExecutor) ExecuteWatch(ctx context.Context, req WatchRequest) error {
	if err := requireDir(e.cfg.SourceDir, "src"); err != nil {
		return err
	}

	addr := req.MetricsAddr
	if addr == "" {
		addr = e.cfg.Watch.MetricsAddr
	}
	recorder := e.recorder
	var reg *prom.Registry
	if addr != "" {
		reg = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	svc, err := NewBuildService(e.cfg, e.logger, recorder)
	if err != nil {
		return err
	}
	w := watch.New(svc, watch.Options{
		SourceDir:       e.cfg.SourceDir,
		Debounce:        e.cfg.Watch.Debounce,
		RebuildInterval: e.cfg.Watch.RebuildInterval,
		Concurrency:     e.cfg.Build.Concurrency,
		InitialBuild:    req.InitialBuild,
	}, e.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	if reg != nil {
		g.Go(func() error { return watch.ServeMetrics(gctx, addr, metrics.HTTPHandler(reg), e.logger) })
	}
	return g.Wait()
}

func (e *DefaultCommandExecutor) ExecuteLinkMapGenerate(ctx context.Context, req LinkMapRequest) foundation.Result[LinkMapResponse, error] {
	sources := make([]linkmap.InventorySource, 0, len(e.cfg.Inventories))
	for _, inv := range e.cfg.Inventories {
		sources = append(sources, linkmap.SourceFromConfig(inv))
	}
	client := e.client
	if client == nil {
		client = &http.Client{Timeout: e.cfg.Reference.Timeout}
	}
	gen := &linkmap.Generator{
		Client:      client,
		Retry:       retry.DefaultPolicy(),
		Logger:      e.logger,
		Recorder:    e.recorder,
		Concurrency: e.cfg.Build.Concurrency,
	}
	maps := gen.GenerateAll(ctx, sources)
	if err := ctx.Err(); err != nil {
		return foundation.Err[LinkMapResponse](err)
	}

	out := req.Output
	if out == "" {
		out = e.cfg.LinkMaps.GeneratedFile
	}
	if err := linkmap.SaveFile(out, maps); err != nil {
		return foundation.Err[LinkMapResponse](err)
	}
	links := 0
	for _, m := range maps {
		links += len(m.Links)
	}
	e.logger.Info("Wrote generated link maps", logfields.Path(out), logfields.Count(links))
	return foundation.Ok[LinkMapResponse, error](LinkMapResponse{Path: out, Maps: len(maps), Links: links})
}

func (e *DefaultCommandExecutor) ExecuteReferenceBuild(ctx context.Context, req ReferenceRequest) foundation.Result[ReferenceResponse, error] {
	tags := req.Tags
	if len(tags) == 0 {
		tags = e.cfg.Reference.Tags
	}
	d := reference.NewDownloader(e.cfg.Reference, e.logger, e.recorder)
	summary, err := d.Build(ctx, e.cfg.Reference.DistDir, tags)
	if err != nil {
		return foundation.Err[ReferenceResponse](err)
	}
	return foundation.Ok[ReferenceResponse, error](ReferenceResponse{
		DistDir:  e.cfg.Reference.DistDir,
		Pages:    summary.Pages,
		Title:    summary.Title,
		Versions: summary.Versions,
	})
}

func (e *DefaultCommandExecutor) ExecutePkgTable(_ context.Context, _ PkgTableRequest) foundation.Result[PkgTableResponse, error] {
	p := e.cfg.Packages
	rows, err := pkgtable.Generate(p.File, p.ProvidersDir, p.OutputFile, e.logger)
	if err != nil {
		return foundation.Err[PkgTableResponse](err)
	}
	return foundation.Ok[PkgTableResponse, error](PkgTableResponse{OutputFile: p.OutputFile, Rows: rows})
}
