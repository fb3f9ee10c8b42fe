// Package patterns holds the markup dialect understood by the pipeline:
// conditional fences, cross-references, constants and fenced code blocks.
//
// Go's regexp engine has no look-behind or backreferences, so "not escaped"
// and "closed at the same indentation" are checked by the scanners in
// scan.go rather than by the expressions themselves. Both the conditional
// resolver and the snippet extractor go through those scanners, which keeps
// the scanning rules in one place.
package patterns

import "regexp"

// spaceClass matches the characters Python's str.isspace accepts, which is
// what the original markup rules were written against.
const spaceClass = `\s\v\x{1c}-\x{1f}\x{85}\p{Z}`

// wordClass is a Unicode-aware \w.
const wordClass = `\p{L}\p{N}_`

var (
	// ConditionalFence matches a line consisting only of a fence marker,
	// optionally naming a language: "  :::python", ":::".
	ConditionalFence = regexp.MustCompile(`^([ \t]*):::([` + wordClass + `]+)?[` + spaceClass + `]*$`)

	// conditionalOpen matches the start of a conditional block opener. The
	// caller verifies the marker is unescaped and followed by a newline.
	conditionalOpen = regexp.MustCompile(`([ \t]*):::([` + wordClass + `]+)`)

	// CrossReference matches @[title][label] (groups 1, 2) or @[label] (group 3).
	CrossReference = regexp.MustCompile(`@\[([^\]]+)\]\[([^\]]+)\]|@\[([^\]]+)\]`)

	// constant matches $[name]; escaping is checked by FindConstants.
	constant = regexp.MustCompile(`\$\[([^\]]+)\]`)

	// codeOpen matches a fenced code block opener line including its newline.
	// Groups: indent, language, attributes.
	codeOpen = regexp.MustCompile("([ \\t]*)```([" + wordClass + "]+)[ ]*([^\\n]*)\\n")

	// OSSLink matches absolute /oss/ URLs in markdown links, href attributes
	// and quoted strings. Groups: prefix, url, terminator.
	OSSLink = regexp.MustCompile(`(\[.*?\]\(|\bhref="|")(/oss/[^")` + spaceClass + `]+)([")` + spaceClass + `])`)
)

// EscapedConditional and EscapedConstant are the literal forms left behind
// by authors who want the markers rendered as text.
const (
	EscapedConditional = `\:::`
	EscapedConstant    = `\$[`
)

// LanguageAliases maps fence language tags to canonical snippet languages.
var LanguageAliases = map[string]string{
	"py":         "python",
	"python":     "python",
	"js":         "typescript",
	"javascript": "typescript",
	"ts":         "typescript",
	"typescript": "typescript",
}

// LanguageExtensions maps canonical languages to exported file extensions.
var LanguageExtensions = map[string]string{
	"python":     ".py",
	"typescript": ".ts",
}

// LanguageCommentSyntax maps canonical languages to their line comment prefix.
var LanguageCommentSyntax = map[string]string{
	"python":     "# ",
	"typescript": "// ",
}

// NormalizeLanguage resolves a fence tag through LanguageAliases.
func NormalizeLanguage(tag string) string {
	if lang, ok := LanguageAliases[tag]; ok {
		return lang
	}
	return tag
}

// ExtensionFor returns the file extension for a canonical language, ".txt" if unknown.
func ExtensionFor(language string) string {
	if ext, ok := LanguageExtensions[language]; ok {
		return ext
	}
	return ".txt"
}

// CommentPrefix returns the line comment prefix for a language, "" if unknown.
func CommentPrefix(language string) string {
	return LanguageCommentSyntax[language]
}

// ParseConditionalFence reports whether line is a bare conditional fence and
// returns its indentation and (possibly empty) language.
func ParseConditionalFence(line string) (indent, language string, ok bool) {
	m := ConditionalFence.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
