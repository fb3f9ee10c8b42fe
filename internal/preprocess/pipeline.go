package preprocess

import (
	"strings"
	"unicode"

	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/docpipe/internal/linkmap"
	"git.home.luguber.info/inful/docpipe/internal/markdown"
	"git.home.luguber.info/inful/docpipe/internal/patterns"
)

// Document is a markdown file moving through a transform chain.
type Document struct {
	// Content is rewritten in place by transforms.
	Content string

	SourcePath string        // path of the source file, used in logs
	RelPath    string        // slash-separated path relative to the source root
	Target     linkmap.Scope // language the document is rendered for; empty for shared files
}

// FileTransform modifies a document in place.
type FileTransform func(doc *Document) error

// Transform is a named step of a Chain.
type Transform struct {
	Name  string
	Apply FileTransform
}

// Chain runs transforms in order.
type Chain []Transform

// Run applies every transform to doc, stopping at the first failure.
func (c Chain) Run(doc *Document) error {
	for _, t := range c {
		if err := t.Apply(doc); err != nil {
			if foundationerrors.IsClassified(err) {
				return err
			}
			return foundationerrors.WrapError(err, foundationerrors.CategoryBuild, "transform failed").
				WithContext("transform", t.Name).
				WithContext("file", doc.SourcePath).
				Build()
		}
	}
	return nil
}

// ResolveMarkdown runs the preprocessor on the document.
func ResolveMarkdown(p *Preprocessor, opts Options) Transform {
	return Transform{Name: "resolve_markdown", Apply: func(doc *Document) error {
		out, err := p.Preprocess(doc.Content, doc.SourcePath, opts)
		if err != nil {
			return err
		}
		doc.Content = out
		return nil
	}}
}

// URLName is the path segment a language is published under.
func URLName(scope linkmap.Scope) string {
	if scope == linkmap.ScopeJS {
		return "javascript"
	}
	return string(scope)
}

func isVersionedOSSPath(url string) bool {
	return strings.Contains(url, "/oss/python") || strings.Contains(url, "/oss/javascript")
}

// RewriteOSSLinks qualifies absolute /oss/ links with the target's URL
// name: /oss/quickstart becomes /oss/python/quickstart. Image paths and
// links that are already qualified are left alone.
func RewriteOSSLinks(target linkmap.Scope) Transform {
	segment := URLName(target)
	return Transform{Name: "rewrite_oss_links", Apply: func(doc *Document) error {
		return rewriteOSS(doc, func(url string) string {
			if strings.Contains(url, "images") || isVersionedOSSPath(url) {
				return url
			}
			return "/oss/" + segment + "/" + strings.TrimPrefix(url, "/oss/")
		})
	}}
}

// RelativizeOSSLinks turns absolute /oss/ links in shared snippets into
// paths relative to the including page: /oss/providers/groq becomes
// ../providers/groq.
func RelativizeOSSLinks() Transform {
	return Transform{Name: "relativize_oss_links", Apply: func(doc *Document) error {
		return rewriteOSS(doc, func(url string) string {
			if strings.Contains(url, "images") || isVersionedOSSPath(url) {
				return url
			}
			return "../" + strings.TrimPrefix(url, "/oss/")
		})
	}}
}

func rewriteOSS(doc *Document, rewrite func(string) string) error {
	edits := markdown.SubmatchEdits(doc.Content, patterns.OSSLink, 2, rewrite)
	out, err := markdown.ApplyEdits(doc.Content, edits)
	if err != nil {
		return err
	}
	doc.Content = out
	return nil
}

// DefaultEditURLBase is where "edit this page" links point when no base is configured.
const DefaultEditURLBase = "https://github.com/langchain-ai/docs/edit/main/src/"

// AppendEditLink appends the "edit the source" callout pointing at
// editBase + RelPath. Trailing whitespace of the content is dropped first.
func AppendEditLink(editBase string) Transform {
	if editBase == "" {
		editBase = DefaultEditURLBase
	}
	return Transform{Name: "append_edit_link", Apply: func(doc *Document) error {
		if doc.RelPath == "" {
			return nil
		}
		doc.Content = strings.TrimRightFunc(doc.Content, unicode.IsSpace) + EditCallout(editBase+doc.RelPath)
		return nil
	}}
}

// EditCallout renders the footer appended to every page built from the source tree.
func EditCallout(editURL string) string {
	return "\n\n---\n\n" +
		"<Callout icon=\"pen-to-square\" iconType=\"regular\">\n" +
		"    [Edit the source of this page on GitHub.](" + editURL + ")\n" +
		"</Callout>\n" +
		"<Tip icon=\"terminal\" iconType=\"regular\">\n" +
		"    [Connect these docs programmatically](/use-these-docs) to Claude, VSCode, and more via MCP for" +
		"    real-time answers.\n" +
		"</Tip>\n"
}
