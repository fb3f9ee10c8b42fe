// Package markdown extracts links from MDX/markdown bodies and applies
// minimal byte-range edits without re-rendering.
package markdown

import (
	"bytes"
	"regexp"
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var hrefAttr = regexp.MustCompile(`\bhref="([^"]*)"`)

// ExtractLinks parses body and returns its link destinations: inline
// links, images, autolinks, reference definitions and href attributes of
// embedded HTML/JSX elements. Links inside code are not reported.
func ExtractLinks(body []byte) []Link {
	md := goldmark.New()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	links := make([]Link, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		case *gmast.HTMLBlock:
			links = append(links, hrefs(linesOf(node.Lines(), body))...)
		case *gmast.RawHTML:
			links = append(links, hrefs(linesOf(node.Segments, body))...)
		}
		return gmast.WalkContinue, nil
	})

	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}
	return links
}

func linesOf(segs *text.Segments, source []byte) []byte {
	var buf bytes.Buffer
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.Bytes()
}

func hrefs(raw []byte) []Link {
	var out []Link
	for _, m := range hrefAttr.FindAllSubmatch(raw, -1) {
		out = append(out, Link{Kind: LinkKindHref, Destination: string(m[1])})
	}
	return out
}
