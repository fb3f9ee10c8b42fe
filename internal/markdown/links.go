package markdown

// LinkKind tells where a link destination was found.
type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
	LinkKindHref                LinkKind = "href" // href="..." on an HTML or JSX element
)

type Link struct {
	Kind        LinkKind
	Destination string
}

// IsInternal reports whether the destination is a site-absolute path.
func (l Link) IsInternal() bool {
	return len(l.Destination) > 1 && l.Destination[0] == '/' && l.Destination[1] != '/'
}
