package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docpipe/internal/build"
	"git.home.luguber.info/inful/docpipe/internal/logfields"
)

// Builder is the part of build.BuildService the watcher drives.
type Builder interface {
	Run(ctx context.Context, req build.BuildRequest) (*build.BuildResult, error)
	BuildFile(ctx context.Context, path string) error
	RemoveOutputs(path string) error
	OutputPaths(path string) ([]string, error)
}

// Options configures a Watcher.
type Options struct {
	SourceDir string
	// Debounce is how long the tree must be quiet before a batch is built.
	Debounce time.Duration
	// RebuildInterval schedules periodic full rebuilds; 0 disables them.
	RebuildInterval time.Duration
	// Concurrency bounds parallel file rebuilds within a batch.
	Concurrency int
	// InitialBuild runs a full build before watching.
	InitialBuild bool
}

type change int

const (
	changeBuild change = iota
	changeRemove
)

// Watcher rebuilds changed source files until its context is cancelled.
type Watcher struct {
	opts    Options
	builder Builder
	logger  *slog.Logger

	// buildMu serialises batches and full rebuilds; both write the build tree.
	buildMu sync.Mutex
	now     func() time.Time
}

// New creates a watcher over opts.SourceDir.
func New(builder Builder, opts Options, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}
	return &Watcher{opts: opts, builder: builder, logger: logger, now: time.Now}
}

// Run watches until ctx is cancelled. Cancellation is not an error.
func (w *Watcher) Run(ctx context.Context) error {
	absSrc, err := filepath.Abs(w.opts.SourceDir)
	if err != nil {
		return fmt.Errorf("resolve source dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fsw.Close() }()
	if err := w.addDirsRecursive(fsw, absSrc); err != nil {
		return err
	}

	if w.opts.InitialBuild {
		w.fullRebuild(ctx)
	}

	if w.opts.RebuildInterval > 0 {
		s, err := w.schedule(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := s.Shutdown(); err != nil {
				w.logger.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	w.logger.Info("Watching for changes",
		logfields.Path(absSrc),
		slog.Duration("debounce", w.opts.Debounce))
	return w.loop(ctx, fsw)
}

func (w *Watcher) schedule(ctx context.Context) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.RebuildInterval),
		gocron.NewTask(func() { w.fullRebuild(ctx) }),
		gocron.WithName("full-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	s.Start()
	w.logger.Info("Scheduled periodic full rebuild", slog.Duration("interval", w.opts.RebuildInterval))
	return s, nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) error {
	pending := make(map[string]change)
	timer := time.NewTimer(w.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping watcher")
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(fsw, ev, pending) {
				timer.Reset(w.opts.Debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		case <-timer.C:
			batch := pending
			pending = make(map[string]change)
			w.processBatch(ctx, batch)
		}
	}
}

// handleEvent records ev in pending and reports whether anything changed.
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event, pending map[string]change) bool {
	if shouldIgnore(ev.Name) || ev.Op == fsnotify.Chmod {
		return false
	}

	switch {
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		pending[ev.Name] = changeRemove
	case ev.Has(fsnotify.Create):
		info, err := os.Stat(ev.Name)
		if err == nil && info.IsDir() {
			// Files may land before the directory is watched.
			_ = w.addDirsRecursive(fsw, ev.Name)
			_ = filepath.WalkDir(ev.Name, func(p string, d fs.DirEntry, err error) error {
				if err == nil && d.Type().IsRegular() && !shouldIgnore(p) {
					pending[p] = changeBuild
				}
				return nil
			})
			return true
		}
		pending[ev.Name] = changeBuild
	case ev.Has(fsnotify.Write):
		pending[ev.Name] = changeBuild
	default:
		return false
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	return true
}

// processBatch rebuilds or removes every pending path, then touches the
// rebuilt outputs so a running dev server notices them.
func (w *Watcher) processBatch(ctx context.Context, batch map[string]change) {
	if len(batch) == 0 {
		return
	}
	w.buildMu.Lock()
	defer w.buildMu.Unlock()

	paths := make([]string, 0, len(batch))
	for p := range batch {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var toBuild []string
	for _, p := range paths {
		info, err := os.Stat(p)
		switch {
		case batch[p] == changeRemove && err == nil && !info.IsDir():
			// Removed then recreated within one batch (atomic saves).
			toBuild = append(toBuild, p)
		case batch[p] == changeRemove, errors.Is(err, fs.ErrNotExist):
			if err := w.builder.RemoveOutputs(p); err != nil {
				w.logger.Error("Failed to remove outputs", logfields.File(p), logfields.Error(err))
			}
		case err == nil && info.IsDir():
		default:
			toBuild = append(toBuild, p)
		}
	}
	if len(toBuild) == 0 {
		return
	}

	start := w.now()
	w.logger.Info("Rebuilding files", logfields.Count(len(toBuild)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Concurrency)
	var (
		mu    sync.Mutex
		built []string
	)
	for _, p := range toBuild {
		g.Go(func() error {
			if err := w.builder.BuildFile(gctx, p); err != nil {
				w.logger.Error("Failed to build file", logfields.File(p), logfields.Error(err))
				return nil
			}
			mu.Lock()
			built = append(built, p)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	touched := w.touchOutputs(built)
	w.logger.Info("Rebuilt files",
		logfields.Count(len(built)),
		slog.Int("touched", touched),
		logfields.Elapsed(w.now().Sub(start)))
}

func (w *Watcher) touchOutputs(sources []string) int {
	now := w.now()
	touched := 0
	for _, src := range sources {
		outs, err := w.builder.OutputPaths(src)
		if err != nil {
			continue
		}
		for _, out := range outs {
			if err := os.Chtimes(out, now, now); err == nil {
				touched++
			}
		}
	}
	return touched
}

func (w *Watcher) fullRebuild(ctx context.Context) {
	w.buildMu.Lock()
	defer w.buildMu.Unlock()

	res, err := w.builder.Run(ctx, build.BuildRequest{})
	if err != nil {
		w.logger.Error("Full rebuild failed", logfields.Error(err))
		return
	}
	w.logger.Info("Full rebuild complete",
		logfields.BuildID(res.BuildID),
		logfields.Count(res.FilesBuilt),
		logfields.Elapsed(res.Duration))
}

func (w *Watcher) addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			return nil
		}
		if d.IsDir() {
			if err := fsw.Add(p); err != nil {
				w.logger.Warn("Watch add failed", logfields.Path(p), logfields.Error(err))
			}
		}
		return nil
	})
}
