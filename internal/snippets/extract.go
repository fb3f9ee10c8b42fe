// Package snippets extracts fenced code blocks marked "export" or "ignore"
// from documentation sources and writes them as standalone files so
// language toolchains can lint them.
package snippets

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"git.home.luguber.info/inful/docpipe/internal/patterns"
)

// CodeBlock is one exported fenced block. Line and Column are zero-based
// and locate the start of the opening fence's indentation.
type CodeBlock struct {
	Line       int
	Column     int
	Language   string
	Attributes string
	Content    string
}

// CodeSnippet groups consecutive blocks of one language. Every block after
// the first carries the merge-before attribute.
type CodeSnippet struct {
	Language   string
	CodeBlocks []CodeBlock
}

// ExtractCodeBlocks returns the fenced blocks whose attributes contain
// "export" or "ignore", with languages normalized through the alias table.
func ExtractCodeBlocks(text string) []CodeBlock {
	var out []CodeBlock
	for _, m := range patterns.FindCodeBlocks(text) {
		attrs := strings.TrimRightFunc(m.Attributes, unicode.IsSpace)
		if !strings.Contains(attrs, "export") && !strings.Contains(attrs, "ignore") {
			continue
		}
		line := strings.Count(text[:m.Start], "\n")
		lineStart := strings.LastIndexByte(text[:m.Start], '\n') + 1
		out = append(out, CodeBlock{
			Line:       line,
			Column:     utf8.RuneCountInString(text[lineStart:m.Start]),
			Language:   patterns.NormalizeLanguage(strings.TrimSpace(m.Language)),
			Attributes: attrs,
			Content:    m.Code,
		})
	}
	return out
}

// ExtractSnippets folds extracted blocks into snippets: a block joins the
// previous snippet when it has the same language and declares merge-before.
func ExtractSnippets(text string) []CodeSnippet {
	var out []CodeSnippet
	for _, blk := range ExtractCodeBlocks(text) {
		if n := len(out); n > 0 && out[n-1].Language == blk.Language && strings.Contains(blk.Attributes, "merge-before") {
			out[n-1].CodeBlocks = append(out[n-1].CodeBlocks, blk)
			continue
		}
		out = append(out, CodeSnippet{Language: blk.Language, CodeBlocks: []CodeBlock{blk}})
	}
	return out
}

var leadingIndent = regexp.MustCompile(`^[ \t]+`)

// Dedent removes the indentation of the first non-blank line from every
// line that starts with it.
func Dedent(text string) string {
	lines := strings.Split(text, "\n")
	first := ""
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			first = l
			break
		}
	}
	indent := leadingIndent.FindString(first)
	if indent == "" {
		return text
	}
	for i, l := range lines {
		lines[i] = strings.TrimPrefix(l, indent)
	}
	return strings.Join(lines, "\n")
}

// Stringify renders a snippet as source text. When the language has a
// comment syntax, a "File:" header is emitted for a non-empty filePath and
// each block is preceded by a "Line: L, Column: C" comment if annotate is set.
func Stringify(s CodeSnippet, filePath string, annotate bool) string {
	prefix := patterns.CommentPrefix(s.Language)
	var lines []string
	if filePath != "" && prefix != "" {
		lines = append(lines, prefix+"File: "+filePath)
	}
	for _, blk := range s.CodeBlocks {
		if annotate && prefix != "" {
			lines = append(lines, fmt.Sprintf("%sLine: %d, Column: %d", prefix, blk.Line, blk.Column))
		}
		lines = append(lines, Dedent(blk.Content))
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
