package build

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/docpipe/internal/logfields"
	"git.home.luguber.info/inful/docpipe/internal/markdown"
	"git.home.luguber.info/inful/docpipe/internal/observability"
)

// CheckLinks scans built pages for site-absolute links that no built
// file answers. Broken links are logged as warnings, not errors.
func (s *DefaultBuildService) CheckLinks(ctx context.Context) ([]BrokenLink, error) {
	var broken []BrokenLink
	root := s.opts.BuildDir
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || ext(p) != ".mdx" {
			return nil
		}
		// #nosec G304 -- p is a file inside the build tree
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		rel = filepath.ToSlash(rel)
		for _, link := range markdown.ExtractLinks(data) {
			if !link.IsInternal() {
				continue
			}
			target := stripFragment(link.Destination)
			if resolves(root, target) {
				continue
			}
			broken = append(broken, BrokenLink{File: rel, Target: link.Destination})
			observability.WarnContext(ctx, s.logger, "Broken internal link",
				logfields.File(rel),
				logfields.URL(link.Destination))
		}
		return nil
	})
	if err != nil {
		return broken, foundationerrors.WrapError(err, foundationerrors.CategoryBuild, "link check failed").
			WithContext("path", root).
			Build()
	}
	if len(broken) > 0 {
		observability.WarnContext(ctx, s.logger, "Broken internal links found", logfields.Count(len(broken)))
	}
	return broken, nil
}

func stripFragment(dest string) string {
	if i := strings.IndexAny(dest, "#?"); i >= 0 {
		dest = dest[:i]
	}
	return strings.TrimSuffix(dest, "/")
}

// resolves reports whether a site path maps to a built page or asset.
// Pages are addressed without their .mdx extension.
func resolves(root, target string) bool {
	if target == "" {
		return true
	}
	p := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(target, "/")))
	for _, candidate := range []string{p, p + ".mdx", filepath.Join(p, "index.mdx")} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}
