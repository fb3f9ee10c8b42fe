package preprocess

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/docpipe/internal/linkmap"
)

func TestRewriteOSSLinks(t *testing.T) {
	tests := []struct {
		name   string
		target linkmap.Scope
		in     string
		want   string
	}{
		{"markdown link", linkmap.ScopePython, "[Guide](/oss/quickstart)", "[Guide](/oss/python/quickstart)"},
		{"js uses javascript", linkmap.ScopeJS, "[Guide](/oss/quickstart#step)", "[Guide](/oss/javascript/quickstart#step)"},
		{"href", linkmap.ScopePython, `<Card href="/oss/install">`, `<Card href="/oss/python/install">`},
		{"images untouched", linkmap.ScopePython, "![x](/oss/images/a.png)", "![x](/oss/images/a.png)"},
		{"already qualified", linkmap.ScopePython, "[a](/oss/python/x)", "[a](/oss/python/x)"},
		{"other language kept", linkmap.ScopePython, "[a](/oss/javascript/x)", "[a](/oss/javascript/x)"},
		{"qualified js not doubled", linkmap.ScopeJS, `<a href="/oss/javascript/x">`, `<a href="/oss/javascript/x">`},
		{"external untouched", linkmap.ScopePython, "[a](https://x/oss/y)", "[a](https://x/oss/y)"},
		{"multiple", linkmap.ScopeJS, "[a](/oss/a) and [b](/oss/b)", "[a](/oss/javascript/a) and [b](/oss/javascript/b)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &Document{Content: tt.in}
			require.NoError(t, Chain{RewriteOSSLinks(tt.target)}.Run(doc))
			assert.Equal(t, tt.want, doc.Content)
		})
	}
}

func TestRelativizeOSSLinks(t *testing.T) {
	doc := &Document{Content: "See [Groq](/oss/providers/groq), ![img](/oss/images/x.png) and [py](/oss/python/a)."}
	require.NoError(t, Chain{RelativizeOSSLinks()}.Run(doc))
	assert.Equal(t, "See [Groq](../providers/groq), ![img](/oss/images/x.png) and [py](/oss/python/a).", doc.Content)
}

func TestAppendEditLink(t *testing.T) {
	doc := &Document{Content: "# Title\n\nBody.\n\n\n", RelPath: "oss/quickstart.mdx"}
	require.NoError(t, Chain{AppendEditLink("")}.Run(doc))

	want := "# Title\n\nBody." +
		"\n\n---\n\n" +
		"<Callout icon=\"pen-to-square\" iconType=\"regular\">\n" +
		"    [Edit the source of this page on GitHub.](https://github.com/langchain-ai/docs/edit/main/src/oss/quickstart.mdx)\n" +
		"</Callout>\n" +
		"<Tip icon=\"terminal\" iconType=\"regular\">\n" +
		"    [Connect these docs programmatically](/use-these-docs) to Claude, VSCode, and more via MCP for    real-time answers.\n" +
		"</Tip>\n"
	assert.Equal(t, want, doc.Content)
}

func TestAppendEditLink_NoRelPath(t *testing.T) {
	doc := &Document{Content: "body"}
	require.NoError(t, Chain{AppendEditLink("https://example/edit/")}.Run(doc))
	assert.Equal(t, "body", doc.Content)
}

func TestChain_ResolveThenRewrite(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPreprocessor(t, &buf)
	doc := &Document{
		Content:    ":::js\n[Install](/oss/install)\n:::\n:::python\n[Setup](/oss/setup)\n:::\n",
		SourcePath: "src/oss/index.mdx",
		RelPath:    "oss/index.mdx",
		Target:     linkmap.ScopeJS,
	}
	chain := Chain{
		ResolveMarkdown(p, Options{TargetLanguage: string(doc.Target)}),
		RewriteOSSLinks(doc.Target),
	}
	require.NoError(t, chain.Run(doc))
	assert.Equal(t, "[Install](/oss/javascript/install)\n\n\n", doc.Content)
}

func TestChain_WrapsPlainErrors(t *testing.T) {
	doc := &Document{SourcePath: "src/a.mdx"}
	err := Chain{{Name: "boom", Apply: func(*Document) error { return errors.New("kaput") }}}.Run(doc)
	require.Error(t, err)

	ce, ok := foundationerrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, foundationerrors.CategoryBuild, ce.Category())
	assert.Equal(t, "boom", ce.Context()["transform"])
}
