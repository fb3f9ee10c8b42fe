// Package reference fetches the pre-built Python API reference HTML from
// release tarballs and unpacks it into the dist directory.
package reference

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docpipe/internal/config"
	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/docpipe/internal/logfields"
	"git.home.luguber.info/inful/docpipe/internal/metrics"
	"git.home.luguber.info/inful/docpipe/internal/retry"
	"git.home.luguber.info/inful/docpipe/internal/workspace"
)

// DefaultArchiveBase is the GitHub archive prefix of the reference HTML repository.
const DefaultArchiveBase = "https://github.com/langchain-ai/langchain-api-docs-html/archive/refs"

// Downloader fetches and extracts reference tarballs.
type Downloader struct {
	Client      *http.Client
	Retry       retry.Policy
	ArchiveBase string
	// TempDir holds downloaded tarballs until extracted; os.TempDir when empty.
	TempDir  string
	Logger   *slog.Logger
	Recorder metrics.Recorder
}

// NewDownloader builds a Downloader from the reference configuration.
func NewDownloader(cfg config.ReferenceConfig, logger *slog.Logger, recorder metrics.Recorder) *Downloader {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Downloader{
		Client:      &http.Client{Timeout: timeout},
		Retry:       retry.FromConfig(cfg.Retry),
		ArchiveBase: cfg.ArchiveBase,
		Logger:      logger,
		Recorder:    recorder,
	}
}

func (d *Downloader) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// LatestURL is the tarball of the main branch.
func (d *Downloader) LatestURL() string {
	return d.archiveBase() + "/heads/main.tar.gz"
}

// TagURL is the tarball of a tagged release.
func (d *Downloader) TagURL(tag string) string {
	return d.archiveBase() + "/tags/" + url.PathEscape(tag) + ".tar.gz"
}

func (d *Downloader) archiveBase() string {
	if d.ArchiveBase == "" {
		return DefaultArchiveBase
	}
	return d.ArchiveBase
}

// FetchExtract downloads the tarball at rawURL into a scratch file and
// extracts its HTML tree into dest. Only https URLs are accepted.
func (d *Downloader) FetchExtract(ctx context.Context, rawURL, dest string) (int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "invalid tarball URL").
			WithContext("url", rawURL).
			Build()
	}
	if u.Scheme != "https" {
		return 0, foundationerrors.WrapError(ErrInvalidScheme, foundationerrors.CategoryValidation,
			fmt.Sprintf("unsupported scheme %q", u.Scheme)).
			WithContext("url", rawURL).
			Build()
	}

	ws := workspace.NewManager(d.TempDir, d.logger())
	if err := ws.Create(); err != nil {
		return 0, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create workspace").Build()
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			d.logger().Warn("Failed to clean up workspace", logfields.Error(err))
		}
	}()

	tmp, err := ws.TempFile("reference-*.tar.gz")
	if err != nil {
		return 0, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create temp file").Build()
	}
	defer func() { _ = tmp.Close() }()

	d.logger().Info("Downloading reference archive", logfields.URL(rawURL), logfields.Path(tmp.Name()))
	rec := metrics.OrNoop(d.Recorder)
	attempt := 0
	err = d.Retry.Do(ctx, func(ctx context.Context) error {
		if attempt > 0 {
			rec.IncRetry("reference")
			d.logger().Warn("Retrying reference download", logfields.URL(rawURL), slog.Int("attempt", attempt+1))
		}
		attempt++
		return d.download(ctx, rawURL, tmp)
	}, foundationerrors.IsTransient)
	if err != nil {
		return 0, err
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return 0, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to rewind download").Build()
	}
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return 0, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create destination").
			WithContext("path", dest).
			Build()
	}
	n, err := Extract(tmp, dest)
	if err != nil {
		return n, err
	}
	d.logger().Info("Extracted reference archive", logfields.URL(rawURL), logfields.Path(dest), logfields.Count(n))
	return n, nil
}

// download writes the body of rawURL to f, truncating earlier attempts.
func (d *Downloader) download(ctx context.Context, rawURL string, f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to reset temp file").Build()
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to reset temp file").Build()
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "invalid tarball URL").
			WithContext("url", rawURL).
			Build()
	}
	resp, err := client.Do(req)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryNetwork, "tarball download failed").
			Retryable().
			WithContext("url", rawURL).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b := foundationerrors.NetworkError(fmt.Sprintf("tarball download returned %s", resp.Status)).
			WithContext("url", rawURL)
		if resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests {
			b = b.WithRetry(foundationerrors.RetryNever)
		}
		return b.Build()
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryNetwork, "tarball download interrupted").
			Retryable().
			WithContext("url", rawURL).
			Build()
	}
	return nil
}

// Clean empties distDir, creating it when missing.
func Clean(distDir string) error {
	if err := os.MkdirAll(distDir, 0o750); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create dist directory").
			WithContext("path", distDir).
			Build()
	}
	entries, err := os.ReadDir(distDir)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read dist directory").
			WithContext("path", distDir).
			Build()
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(distDir, e.Name())); err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to clean dist directory").
				WithContext("path", filepath.Join(distDir, e.Name())).
				Build()
		}
	}
	return nil
}

// Build cleans distDir, extracts the latest reference into it and each
// tag into distDir/versions/<tag>.
func (d *Downloader) Build(ctx context.Context, distDir string, tags []string) (*Summary, error) {
	d.logger().Info("Cleaning reference dist", logfields.Path(distDir))
	if err := Clean(distDir); err != nil {
		return nil, err
	}

	start := time.Now()
	d.logger().Info("Building reference docs")
	if _, err := d.FetchExtract(ctx, d.LatestURL(), distDir); err != nil {
		return nil, err
	}
	for _, tag := range tags {
		if _, err := d.FetchExtract(ctx, d.TagURL(tag), filepath.Join(distDir, "versions", tag)); err != nil {
			return nil, err
		}
	}
	metrics.OrNoop(d.Recorder).ObserveStageDuration("reference", time.Since(start))

	sum, err := Verify(distDir)
	if err != nil {
		return nil, err
	}
	d.logger().Info("Reference docs built",
		logfields.Path(distDir),
		slog.Int("pages", sum.Pages),
		slog.String("title", sum.Title),
		logfields.Elapsed(time.Since(start)))
	return sum, nil
}
