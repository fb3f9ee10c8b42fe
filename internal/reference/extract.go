package reference

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
)

// htmlMarker separates the archive prefix from the published HTML tree.
const htmlMarker = "api_reference_build/html/"

var (
	// ErrInvalidScheme is returned for archive URLs that are not https.
	ErrInvalidScheme = errors.New("only https URLs are allowed for tarball downloads")
	// ErrPathTraversal is returned when an archive member would land outside the destination.
	ErrPathTraversal = errors.New("attempted path traversal in tar file")
)

// within reports whether target is dest or below it.
func within(dest, target string) bool {
	rel, err := filepath.Rel(dest, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// checkMember rejects names that escape dest. It runs before anything is
// written for that member.
func checkMember(dest, name string) error {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") || !within(dest, filepath.Join(dest, filepath.FromSlash(name))) {
		return traversal(dest, name)
	}
	return nil
}

func traversal(dest, name string) error {
	return foundationerrors.WrapError(ErrPathTraversal, foundationerrors.CategoryArchive, "unsafe archive member").
		WithContext("member", name).
		WithContext("dest", dest).
		Build()
}

// Extract reads a gzip-compressed tarball and writes the regular files found
// below api_reference_build/html/ into dest, with that prefix stripped.
// It returns the number of files written.
func Extract(r io.Reader, dest string) (int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, foundationerrors.WrapError(err, foundationerrors.CategoryArchive, "invalid gzip stream").Build()
	}
	defer func() { _ = gz.Close() }()

	absDest, err := filepath.Abs(dest)
	if err != nil {
		return 0, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to resolve destination").Build()
	}

	tr := tar.NewReader(gz)
	written := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			return written, traversal(absDest, hdr.Name)
		}
		if err != nil {
			return written, foundationerrors.WrapError(err, foundationerrors.CategoryArchive, "corrupt tarball").Build()
		}
		if err := checkMember(absDest, hdr.Name); err != nil {
			return written, err
		}

		_, rel, found := strings.Cut(hdr.Name, htmlMarker)
		if !found || rel == "" {
			continue
		}
		target := filepath.Join(absDest, filepath.FromSlash(rel))
		if !within(absDest, target) {
			return written, traversal(absDest, hdr.Name)
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return written, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create directory").
				WithContext("path", filepath.Dir(target)).
				Build()
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := writeMember(tr, target); err != nil {
			return written, err
		}
		written++
	}
}

func writeMember(r io.Reader, target string) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644) //nolint:gosec // published HTML
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create file").
			WithContext("path", target).
			Build()
	}
	if _, err := io.Copy(f, r); err != nil { //nolint:gosec // size is bounded by the upstream archive
		_ = f.Close()
		return foundationerrors.WrapError(err, foundationerrors.CategoryArchive, fmt.Sprintf("failed to extract %s", filepath.Base(target))).
			WithContext("path", target).
			Build()
	}
	if err := f.Close(); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to close file").
			WithContext("path", target).
			Build()
	}
	return nil
}
