package snippets

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/docpipe/internal/logfields"
)

// CleanAll removes previously exported files from every language
// directory: files matched by the directory's .gitignore are deleted, then
// empty subdirectories and directory symlinks are pruned. The language
// directories themselves are kept.
func (e *Exporter) CleanAll() error {
	langs, err := e.LanguageDirs()
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to list language directories").
			WithContext("path", e.OutputDir).
			Build()
	}
	for _, lang := range langs {
		dir := filepath.Join(e.OutputDir, lang)
		if err := e.removeIgnored(dir); err != nil {
			return err
		}
		if err := pruneEmptyDirs(dir, true); err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to prune snippet directories").
				WithContext("path", dir).
				Build()
		}
		e.Logger.Info("Cleaned snippets", logfields.Path(dir))
	}
	return nil
}

func readIgnorePatterns(path string) ([]gitignore.Pattern, error) {
	f, err := os.Open(path) // #nosec G304 -- path is <language dir>/.gitignore
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var ps []gitignore.Pattern
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(line, nil))
	}
	return ps, sc.Err()
}

func (e *Exporter) removeIgnored(dir string) error {
	ps, err := readIgnorePatterns(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read .gitignore").
			WithContext("path", dir).
			Build()
	}
	if len(ps) == 0 {
		return nil
	}
	matcher := gitignore.NewMatcher(ps)

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if !matcher.Match(strings.Split(filepath.ToSlash(rel), "/"), false) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			e.Logger.Warn("Failed to remove snippet", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// pruneEmptyDirs removes empty directories and directory symlinks below
// dir, bottom-up. The root itself is kept.
func pruneEmptyDirs(dir string, root bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		switch {
		case entry.Type()&fs.ModeSymlink != 0:
			if st, err := os.Stat(path); err == nil && st.IsDir() {
				if err := os.Remove(path); err != nil {
					return err
				}
			}
		case entry.IsDir():
			if err := pruneEmptyDirs(path, false); err != nil {
				return err
			}
		}
	}
	if root {
		return nil
	}
	rest, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return os.Remove(dir)
	}
	return nil
}
