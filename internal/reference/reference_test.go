package reference

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpipe/internal/config"
	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/docpipe/internal/retry"
)

type member struct {
	name     string
	body     string
	typeflag byte
}

func tarball(t *testing.T, members ...member) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, m := range members {
		hdr := &tar.Header{Name: m.name, Mode: 0o644, Typeflag: m.typeflag}
		switch m.typeflag {
		case tar.TypeDir:
			hdr.Mode = 0o755
		case tar.TypeSymlink:
			hdr.Linkname = m.body
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(m.body))
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(m.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

const indexHTML = "<html><head><title> LangChain Reference </title></head><body>ok</body></html>"

func siteTarball(t *testing.T, root string) []byte {
	return tarball(t,
		member{name: root + "/", typeflag: tar.TypeDir},
		member{name: root + "/README.md", body: "readme"},
		member{name: root + "/api_reference_build/html/", typeflag: tar.TypeDir},
		member{name: root + "/api_reference_build/html/index.html", body: indexHTML},
		member{name: root + "/api_reference_build/html/core/", typeflag: tar.TypeDir},
		member{name: root + "/api_reference_build/html/core/runnables.html", body: "<html><title>r</title></html>"},
		member{name: root + "/api_reference_build/html/latest", body: "core", typeflag: tar.TypeSymlink},
	)
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestExtract(t *testing.T) {
	dest := t.TempDir()
	n, err := Extract(bytes.NewReader(siteTarball(t, "docs-main")), dest)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(filepath.Join(dest, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, indexHTML, string(data))
	assert.FileExists(t, filepath.Join(dest, "core", "runnables.html"))
	assert.NoFileExists(t, filepath.Join(dest, "README.md"))
	assert.NoFileExists(t, filepath.Join(dest, "latest"))
}

func TestExtract_PathTraversal(t *testing.T) {
	tests := []struct {
		name    string
		members []member
	}{
		{"parent escape", []member{
			{name: "../evil/api_reference_build/html/index.html", body: "x"},
		}},
		{"absolute", []member{
			{name: "/tmp/api_reference_build/html/index.html", body: "x"},
		}},
		{"escape after the marker", []member{
			{name: "r/api_reference_build/html/../../../../outside.html", body: "x"},
		}},
		{"escape after safe members", []member{
			{name: "r/api_reference_build/html/ok.html", body: "ok"},
			{name: "r/../../evil.html", body: "x"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := t.TempDir()
			dest := filepath.Join(parent, "dist")
			require.NoError(t, os.MkdirAll(dest, 0o750))

			_, err := Extract(bytes.NewReader(tarball(t, tt.members...)), dest)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrPathTraversal)
			assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryArchive))

			assert.NoFileExists(t, filepath.Join(parent, "evil.html"))
			assert.NoFileExists(t, filepath.Join(parent, "outside.html"))
		})
	}
}

func TestExtract_NotGzip(t *testing.T) {
	_, err := Extract(bytes.NewReader([]byte("plain text")), t.TempDir())
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryArchive))
}

func testDownloader(srv *httptest.Server) *Downloader {
	return &Downloader{
		Client:      srv.Client(),
		Retry:       retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2),
		ArchiveBase: srv.URL + "/archive/refs",
		Logger:      quietLogger(),
	}
}

func TestFetchExtract_RejectsNonHTTPS(t *testing.T) {
	d := &Downloader{Logger: quietLogger()}
	for _, u := range []string{"http://example.com/a.tar.gz", "file:///etc/passwd", "ftp://example.com/a.tar.gz"} {
		_, err := d.FetchExtract(context.Background(), u, t.TempDir())
		assert.ErrorIs(t, err, ErrInvalidScheme, u)
		assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
	}
}

func TestFetchExtract_RetriesTransientFailures(t *testing.T) {
	body := siteTarball(t, "docs-main")
	var calls atomic.Int32
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	dest := t.TempDir()
	n, err := testDownloader(srv).FetchExtract(context.Background(), srv.URL+"/main.tar.gz", dest)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int32(2), calls.Load())
	assert.FileExists(t, filepath.Join(dest, "index.html"))
}

func TestFetchExtract_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testDownloader(srv).FetchExtract(context.Background(), srv.URL+"/missing.tar.gz", t.TempDir())
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryNetwork))
	assert.Equal(t, int32(1), calls.Load())
}

func TestBuild(t *testing.T) {
	main := siteTarball(t, "docs-main")
	tagged := siteTarball(t, "docs-v0.3")
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/archive/refs/heads/main.tar.gz":
			_, _ = w.Write(main)
		case "/archive/refs/tags/v0.3.tar.gz":
			_, _ = w.Write(tagged)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dist := filepath.Join(t.TempDir(), "dist", "python")
	require.NoError(t, os.MkdirAll(filepath.Join(dist, "stale"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dist, "old.html"), []byte("old"), 0o600))

	sum, err := testDownloader(srv).Build(context.Background(), dist, []string{"v0.3"})
	require.NoError(t, err)

	assert.Equal(t, "LangChain Reference", sum.Title)
	assert.Equal(t, 4, sum.Pages)
	assert.Equal(t, []string{"v0.3"}, sum.Versions)
	assert.FileExists(t, filepath.Join(dist, "versions", "v0.3", "core", "runnables.html"))
	assert.NoFileExists(t, filepath.Join(dist, "old.html"))
	assert.NoDirExists(t, filepath.Join(dist, "stale"))
}

func TestBuild_MissingTagFails(t *testing.T) {
	main := siteTarball(t, "docs-main")
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/archive/refs/heads/main.tar.gz" {
			_, _ = w.Write(main)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testDownloader(srv).Build(context.Background(), t.TempDir(), []string{"v9"})
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryNetwork))
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	_, err := Verify(dir)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryArchive))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html><body>no title</body></html>"), 0o600))
	_, err = Verify(dir)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrPathTraversal))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(indexHTML), 0o600))
	sum, err := Verify(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Pages)
	assert.Empty(t, sum.Versions)
}

func TestURLs(t *testing.T) {
	d := &Downloader{}
	assert.Equal(t, DefaultArchiveBase+"/heads/main.tar.gz", d.LatestURL())
	assert.Equal(t, DefaultArchiveBase+"/tags/v0.3.tar.gz", d.TagURL("v0.3"))
}
