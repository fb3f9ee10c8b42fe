package build

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/docpipe/internal/linkmap"
	"git.home.luguber.info/inful/docpipe/internal/preprocess"
)

// Output variants, in the order Run builds them.
const (
	VariantPython     = "python"
	VariantJavaScript = "javascript"
	VariantLangSmith  = "langsmith"
	VariantShared     = "shared"
	VariantOther      = "other"
)

var variantOrder = []string{VariantPython, VariantJavaScript, VariantLangSmith, VariantShared, VariantOther}

const (
	ossDir       = "oss"
	langsmithDir = "langsmith"
	templateName = "TEMPLATE.mdx"
	docsYAMLName = "docs.yml"
)

// copyExtensions lists the file types that reach the build directory at all.
var copyExtensions = map[string]bool{
	".mdx": true, ".md": true, ".json": true, ".svg": true, ".png": true,
	".jpg": true, ".jpeg": true, ".gif": true, ".yml": true, ".yaml": true,
	".css": true, ".js": true,
}

type fileKind int

const (
	kindMarkdown fileKind = iota
	kindSnippet
	kindDocsYAML
	kindCopy
)

// task is one output file derived from one source file.
type task struct {
	rel        string        // slash path relative to the source root
	out        string        // slash path relative to the build root
	variant    string        // one of the Variant constants
	target     linkmap.Scope // empty renders for the default language
	kind       fileKind
	rewriteOSS bool
}

func ext(rel string) string { return strings.ToLower(path.Ext(rel)) }

// IsShared reports whether rel (slash-separated, relative to the source
// root) is built once for all languages instead of per variant.
func IsShared(rel string) bool {
	parts := strings.Split(rel, "/")
	name := parts[len(parts)-1]
	switch {
	case name == "docs.json":
		return true
	case len(parts) == 1 && (name == "index.mdx" || name == "use-these-docs.mdx"):
		return true
	}
	for _, p := range parts[:len(parts)-1] {
		if p == "images" || p == "snippets" {
			return true
		}
	}
	e := ext(name)
	return e == ".js" || e == ".css"
}

func hasSnippetsDir(rel string) bool {
	parts := strings.Split(rel, "/")
	for _, p := range parts[:len(parts)-1] {
		if p == "snippets" {
			return true
		}
	}
	return false
}

// plan maps a source path to the outputs it produces. Files that are
// never published yield nil. The result depends only on rel, so it is
// also used to find the outputs of deleted files.
func plan(rel string) []task {
	name := path.Base(rel)
	e := ext(name)
	if name == templateName || !copyExtensions[e] {
		return nil
	}

	if IsShared(rel) {
		t := task{rel: rel, out: rel, variant: VariantShared, kind: kindCopy}
		if e == ".md" || e == ".mdx" {
			t.kind = kindMarkdown
			if hasSnippetsDir(rel) {
				t.kind = kindSnippet
			}
		}
		return []task{finish(t)}
	}

	top, rest, _ := strings.Cut(rel, "/")
	switch {
	case top == ossDir && rest != "":
		return planOSS(rel, rest)
	case top == langsmithDir && rest != "":
		return []task{finish(task{
			rel: rel, out: rel, variant: VariantLangSmith,
			target: linkmap.ScopePython, kind: fileKindOf(name), rewriteOSS: true,
		})}
	default:
		return []task{finish(task{rel: rel, out: rel, variant: VariantOther, kind: fileKindOf(name)})}
	}
}

// planOSS builds oss/ content once per language. Sources already living
// under oss/python/ or oss/javascript/ only go to their own language.
func planOSS(rel, rest string) []task {
	var tasks []task
	for _, v := range []struct {
		variant string
		target  linkmap.Scope
	}{
		{VariantPython, linkmap.ScopePython},
		{VariantJavaScript, linkmap.ScopeJS},
	} {
		sub := rest
		if first, tail, ok := strings.Cut(rest, "/"); ok && (first == VariantPython || first == VariantJavaScript) {
			if first != preprocess.URLName(v.target) {
				continue
			}
			sub = tail
		}
		tasks = append(tasks, finish(task{
			rel:        rel,
			out:        path.Join(ossDir, preprocess.URLName(v.target), sub),
			variant:    v.variant,
			target:     v.target,
			kind:       fileKindOf(path.Base(rel)),
			rewriteOSS: true,
		}))
	}
	return tasks
}

func fileKindOf(name string) fileKind {
	switch e := ext(name); {
	case name == docsYAMLName:
		return kindDocsYAML
	case e == ".md" || e == ".mdx":
		return kindMarkdown
	default:
		return kindCopy
	}
}

// finish applies output renames: docs.yml becomes docs.json and .md becomes .mdx.
func finish(t task) task {
	switch {
	case t.kind == kindDocsYAML:
		t.out = strings.TrimSuffix(t.out, path.Ext(t.out)) + ".json"
	case (t.kind == kindMarkdown || t.kind == kindSnippet) && ext(t.out) == ".md":
		t.out = strings.TrimSuffix(t.out, path.Ext(t.out)) + ".mdx"
	}
	return t
}
