package markdown

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Edit replaces text[Start:End] with Replacement. Offsets refer to the
// original text; End is exclusive.
type Edit struct {
	Start       int
	End         int
	Replacement string
}

// ApplyEdits applies non-overlapping byte-range edits to text in one pass.
func ApplyEdits(text string, edits []Edit) (string, error) {
	if len(edits) == 0 {
		return text, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	for i, e := range sorted {
		switch {
		case e.Start < 0 || e.End < 0:
			return "", fmt.Errorf("invalid edit[%d]: negative range", i)
		case e.End < e.Start:
			return "", fmt.Errorf("invalid edit[%d]: end before start", i)
		case e.End > len(text):
			return "", fmt.Errorf("invalid edit[%d]: range out of bounds", i)
		case i > 0 && e.Start < sorted[i-1].End:
			return "", errors.New("invalid edits: overlapping ranges")
		}
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, e := range sorted {
		b.WriteString(text[last:e.Start])
		b.WriteString(e.Replacement)
		last = e.End
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// SubmatchEdits runs re over text and asks rewrite for a replacement of
// capture group n in every match. Matches where rewrite returns the group
// unchanged produce no edit.
func SubmatchEdits(text string, re *regexp.Regexp, n int, rewrite func(group string) string) []Edit {
	var edits []Edit
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2*n], m[2*n+1]
		if start < 0 {
			continue
		}
		group := text[start:end]
		if next := rewrite(group); next != group {
			edits = append(edits, Edit{Start: start, End: end, Replacement: next})
		}
	}
	return edits
}
