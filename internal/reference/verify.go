package reference

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
)

// Summary describes an extracted reference tree.
type Summary struct {
	Pages    int      // .html files, versions included
	Title    string   // <title> of the top-level index.html
	Versions []string // directories under versions/
}

// Verify checks that distDir holds a usable reference site: an index.html
// that parses as HTML and has a title.
func Verify(distDir string) (*Summary, error) {
	index := filepath.Join(distDir, "index.html")
	// #nosec G304 -- index is inside the configured dist directory
	f, err := os.Open(index)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryArchive, "reference index.html missing").
			WithContext("path", index).
			Build()
	}
	defer func() { _ = f.Close() }()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryArchive, "reference index.html is not HTML").
			WithContext("path", index).
			Build()
	}
	sum := &Summary{Title: strings.TrimSpace(doc.Find("title").First().Text())}
	if sum.Title == "" {
		return nil, foundationerrors.NewError(foundationerrors.CategoryArchive, "reference index.html has no title").
			WithContext("path", index).
			Build()
	}

	err = filepath.WalkDir(distDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".html") {
			sum.Pages++
		}
		return nil
	})
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to scan reference tree").
			WithContext("path", distDir).
			Build()
	}

	if entries, err := os.ReadDir(filepath.Join(distDir, "versions")); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				sum.Versions = append(sum.Versions, e.Name())
			}
		}
	}
	return sum, nil
}
