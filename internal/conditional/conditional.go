// Package conditional resolves language-conditional blocks:
//
//	:::python
//	Only rendered for the python build.
//	:::
//
// Blocks for the target language are unwrapped, blocks for the other
// supported language are dropped and blocks naming any other language are
// left untouched. An escaped marker (\:::) renders as a literal ":::".
// Fenced code blocks marked "ignore" are removed as well.
package conditional

import (
	"strings"

	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/docpipe/internal/linkmap"
	"git.home.luguber.info/inful/docpipe/internal/patterns"
)

// Resolve renders text for target, which must be python or js.
// Resolving already resolved text is a no-op.
func Resolve(text string, target linkmap.Scope) (string, error) {
	if !supported(target) {
		return "", foundationerrors.ValidationError("target_language must be 'python' or 'js'").
			WithContext("target_language", string(target)).
			Build()
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, blk := range patterns.FindConditionalBlocks(text) {
		b.WriteString(text[last:blk.Start])
		switch lang := linkmap.Scope(blk.Language); {
		case !supported(lang):
			b.WriteString(text[blk.Start:blk.End])
		case lang == target:
			b.WriteString(blk.Content)
		}
		last = blk.End
	}
	b.WriteString(text[last:])

	out := strings.ReplaceAll(b.String(), patterns.EscapedConditional, ":::")
	return StripIgnoredCodeBlocks(out), nil
}

// StripIgnoredCodeBlocks removes fenced code blocks whose attributes
// contain "ignore".
func StripIgnoredCodeBlocks(text string) string {
	blocks := patterns.FindCodeBlocks(text)
	if len(blocks) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, blk := range blocks {
		if !strings.Contains(strings.TrimSpace(blk.Attributes), "ignore") {
			continue
		}
		b.WriteString(text[last:blk.Start])
		last = blk.End
	}
	b.WriteString(text[last:])
	return b.String()
}

// Fence is an opening conditional fence that has no closing marker.
type Fence struct {
	Line     int // 1-based
	Language string
}

// UnclosedFences lists opening fences for supported languages that are not
// part of a complete block. Such fences pass through Resolve unchanged.
func UnclosedFences(text string) []Fence {
	blocks := patterns.FindConditionalBlocks(text)
	inBlock := func(offset int) bool {
		for _, blk := range blocks {
			if offset >= blk.Start && offset < blk.End {
				return true
			}
		}
		return false
	}

	var out []Fence
	offset := 0
	for i, line := range strings.SplitAfter(text, "\n") {
		_, lang, ok := patterns.ParseConditionalFence(line)
		if ok && supported(linkmap.Scope(lang)) && !inBlock(offset) {
			out = append(out, Fence{Line: i + 1, Language: lang})
		}
		offset += len(line)
	}
	return out
}

func supported(s linkmap.Scope) bool {
	return s == linkmap.ScopePython || s == linkmap.ScopeJS
}
