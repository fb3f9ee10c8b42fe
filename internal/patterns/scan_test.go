package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConditionalBlocks(t *testing.T) {
	text := "intro\n:::python\nPython only\n:::\nmiddle\n  :::js\n  JS only\n  :::\nend"

	blocks := FindConditionalBlocks(text)
	require.Len(t, blocks, 2)

	assert.Equal(t, "python", blocks[0].Language)
	assert.Equal(t, "", blocks[0].Indent)
	assert.Equal(t, "Python only\n", blocks[0].Content)
	assert.Equal(t, ":::python\nPython only\n:::", text[blocks[0].Start:blocks[0].End])

	assert.Equal(t, "js", blocks[1].Language)
	assert.Equal(t, "  ", blocks[1].Indent)
	assert.Equal(t, "  JS only\n", blocks[1].Content)
}

func TestFindConditionalBlocks_Escaped(t *testing.T) {
	text := "\\:::python\nnot a block\n:::\n"
	assert.Empty(t, FindConditionalBlocks(text))
}

func TestFindConditionalBlocks_BlankLinesBeforeContent(t *testing.T) {
	text := ":::python  \n\n\nbody\n:::"
	blocks := FindConditionalBlocks(text)
	require.Len(t, blocks, 1)
	assert.Equal(t, "body\n", blocks[0].Content)
}

func TestFindConditionalBlocks_NoNewlineAfterOpener(t *testing.T) {
	assert.Empty(t, FindConditionalBlocks("text :::python inline :::"))
}

func TestFindConditionalBlocks_Unclosed(t *testing.T) {
	assert.Empty(t, FindConditionalBlocks(":::python\nnever closed\n"))
}

func TestFindConditionalBlocks_CloserMatchesOpenerPrefix(t *testing.T) {
	// A fence naming another language still closes the open block.
	text := ":::python\na\n:::js\nb\n:::\n"
	blocks := FindConditionalBlocks(text)
	require.Len(t, blocks, 1)
	assert.Equal(t, "a\n", blocks[0].Content)
	assert.Equal(t, ":::python\na\n:::", text[blocks[0].Start:blocks[0].End])
}

func TestFindCodeBlocks(t *testing.T) {
	text := "# Title\n\n```python export\nprint('a')\n```\n\n  ```ts   ignore\n  const x = 1\n  ```\n"

	blocks := FindCodeBlocks(text)
	require.Len(t, blocks, 2)

	assert.Equal(t, "python", blocks[0].Language)
	assert.Equal(t, "export", blocks[0].Attributes)
	assert.Equal(t, "print('a')\n", blocks[0].Code)
	assert.Equal(t, 9, blocks[0].Start)

	assert.Equal(t, "ts", blocks[1].Language)
	assert.Equal(t, "  ", blocks[1].Indent)
	assert.Equal(t, "ignore", blocks[1].Attributes)
	assert.Equal(t, "  const x = 1\n", blocks[1].Code)
	assert.Equal(t, "  ```ts   ignore\n  const x = 1\n  ```", text[blocks[1].Start:blocks[1].End])
}

func TestFindCodeBlocks_RequiresLanguage(t *testing.T) {
	assert.Empty(t, FindCodeBlocks("```\nplain\n```\n"))
}

func TestFindCodeBlocks_CloserNeedsSameIndent(t *testing.T) {
	// The indented opener has no matching closer, so the scan retries from
	// later offsets and settles on the unindented fence.
	text := "  ```python\ncode\n```\n"
	blocks := FindCodeBlocks(text)
	require.Len(t, blocks, 1)
	assert.Equal(t, 2, blocks[0].Start)
	assert.Equal(t, "", blocks[0].Indent)
	assert.Equal(t, "code\n", blocks[0].Code)
}

func TestFindConstants(t *testing.T) {
	text := "use $[version] and \\$[escaped] then $[name]"
	tokens := FindConstants(text)
	require.Len(t, tokens, 2)
	assert.Equal(t, "version", tokens[0].Name)
	assert.Equal(t, "$[version]", text[tokens[0].Start:tokens[0].End])
	assert.Equal(t, "name", tokens[1].Name)
}

func TestCrossReference(t *testing.T) {
	m := CrossReference.FindAllStringSubmatch("see @[StateGraph] and @[the graph][StateGraph]", -1)
	require.Len(t, m, 2)
	assert.Equal(t, "StateGraph", m[0][3])
	assert.Equal(t, "the graph", m[1][1])
	assert.Equal(t, "StateGraph", m[1][2])
}

func TestParseConditionalFence(t *testing.T) {
	tests := []struct {
		line   string
		indent string
		lang   string
		ok     bool
	}{
		{":::python", "", "python", true},
		{"  :::js  ", "  ", "js", true},
		{":::", "", "", true},
		{"text :::python", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			indent, lang, ok := ParseConditionalFence(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.indent, indent)
			assert.Equal(t, tt.lang, lang)
		})
	}
}

func TestLanguageHelpers(t *testing.T) {
	assert.Equal(t, "python", NormalizeLanguage("py"))
	assert.Equal(t, "typescript", NormalizeLanguage("javascript"))
	assert.Equal(t, "go", NormalizeLanguage("go"))
	assert.Equal(t, ".ts", ExtensionFor("typescript"))
	assert.Equal(t, ".txt", ExtensionFor("go"))
	assert.Equal(t, "# ", CommentPrefix("python"))
	assert.Empty(t, CommentPrefix("go"))
}

func TestOSSLink(t *testing.T) {
	m := OSSLink.FindStringSubmatch(`[Guide](/oss/quickstart) more`)
	require.NotNil(t, m)
	assert.Equal(t, "[Guide](", m[1])
	assert.Equal(t, "/oss/quickstart", m[2])
	assert.Equal(t, ")", m[3])
}
