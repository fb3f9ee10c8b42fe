package patterns

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ConditionalBlock is one `<indent>:::<lang>` ... `<indent>:::` region.
// Start and End are byte offsets of the whole match, closing marker included.
type ConditionalBlock struct {
	Start    int
	End      int
	Indent   string
	Language string
	Content  string
}

// CodeBlock is one fenced code block. Start is the offset of the opening
// fence's indentation; End is just past the closing backticks.
type CodeBlock struct {
	Start      int
	End        int
	Indent     string
	Language   string
	Attributes string
	Code       string
}

// Token is an occurrence of an inline token such as $[name].
type Token struct {
	Start int
	End   int
	Name  string
}

// FindConditionalBlocks returns the non-overlapping conditional blocks in
// text, scanning left to right.
//
// An opener is `<indent>:::<lang>` not preceded by a backslash, followed by
// whitespace that contains a newline; content starts after the last newline
// of that whitespace. The block ends at the first following line that starts
// with the opener's indent, optional blanks and `:::`. An opener without a
// closer is not a block; scanning resumes one byte later.
func FindConditionalBlocks(text string) []ConditionalBlock {
	var out []ConditionalBlock
	pos := 0
	for pos < len(text) {
		loc := conditionalOpen.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, markerAt, langEnd := pos+loc[0], pos+loc[3], pos+loc[5]

		if markerAt > 0 && text[markerAt-1] == '\\' {
			pos = start + 1
			continue
		}
		contentStart, ok := afterTrailingNewline(text, langEnd)
		if !ok {
			pos = start + 1
			continue
		}
		indent := text[start:markerAt]
		closeAt, closeEnd, ok := findConditionalClose(text, contentStart, indent)
		if !ok {
			pos = start + 1
			continue
		}

		out = append(out, ConditionalBlock{
			Start:    start,
			End:      closeEnd,
			Indent:   indent,
			Language: text[pos+loc[4] : langEnd],
			Content:  text[contentStart:closeAt],
		})
		pos = closeEnd
	}
	return out
}

// afterTrailingNewline consumes the whitespace run starting at i and returns
// the offset after the last newline inside it.
func afterTrailingNewline(text string, i int) (int, bool) {
	lastNL := -1
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isSpace(r) {
			break
		}
		if r == '\n' {
			lastNL = i
		}
		i += size
	}
	if lastNL < 0 {
		return 0, false
	}
	return lastNL + 1, true
}

func findConditionalClose(text string, from int, indent string) (closeAt, closeEnd int, ok bool) {
	for p := from; ; {
		if strings.HasPrefix(text[p:], indent) {
			q := p + len(indent)
			for q < len(text) && (text[q] == ' ' || text[q] == '\t') {
				q++
			}
			if strings.HasPrefix(text[q:], ":::") {
				return p, q + 3, true
			}
		}
		nl := strings.IndexByte(text[p:], '\n')
		if nl < 0 {
			return 0, 0, false
		}
		p += nl + 1
	}
}

// FindCodeBlocks returns the non-overlapping fenced code blocks in text.
//
// The closing fence is the first following line that starts with exactly
// the opener's indentation followed by three backticks.
func FindCodeBlocks(text string) []CodeBlock {
	var out []CodeBlock
	pos := 0
	for pos < len(text) {
		loc := codeOpen.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, openEnd := pos+loc[0], pos+loc[1]
		indent := text[pos+loc[2] : pos+loc[3]]

		closeAt, ok := findCodeClose(text, openEnd, indent+"```")
		if !ok {
			pos = start + 1
			continue
		}
		end := closeAt + len(indent) + 3
		out = append(out, CodeBlock{
			Start:      start,
			End:        end,
			Indent:     indent,
			Language:   text[pos+loc[4] : pos+loc[5]],
			Attributes: text[pos+loc[6] : pos+loc[7]],
			Code:       text[openEnd:closeAt],
		})
		pos = end
	}
	return out
}

func findCodeClose(text string, from int, fence string) (int, bool) {
	for p := from; ; {
		if strings.HasPrefix(text[p:], fence) {
			return p, true
		}
		nl := strings.IndexByte(text[p:], '\n')
		if nl < 0 {
			return 0, false
		}
		p += nl + 1
	}
}

// FindConstants returns the $[name] tokens in text that are not escaped
// with a preceding backslash.
func FindConstants(text string) []Token {
	var out []Token
	pos := 0
	for pos < len(text) {
		loc := constant.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[0]
		if start > 0 && text[start-1] == '\\' {
			pos = start + 1
			continue
		}
		end := pos + loc[1]
		out = append(out, Token{Start: start, End: end, Name: text[pos+loc[2] : pos+loc[3]]})
		pos = end
	}
	return out
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
