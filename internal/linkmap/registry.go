package linkmap

import (
	"sort"
	"strings"
)

// Registry maps (scope, label) to an absolute URL. It is built once and is
// safe for concurrent reads.
type Registry struct {
	scopes     map[Scope]map[string]string
	collisions map[Scope]map[string][]string
}

// Collision is a label defined with more than one URL in the same scope.
type Collision struct {
	Scope  Scope
	Label  string
	URLs   []string // every distinct URL seen, in definition order
	Winner string
}

// NewRegistry enumerates maps in order. A later definition of a label in
// the same scope replaces an earlier one.
func NewRegistry(maps []LinkMap) *Registry {
	r := &Registry{
		scopes:     make(map[Scope]map[string]string),
		collisions: make(map[Scope]map[string][]string),
	}
	for _, m := range maps {
		r.add(m, true)
	}
	return r
}

// BuildRegistry layers manual maps over generated ones. A manual entry
// wins even when a generated map for another host defines the same label
// in the same scope. Such overrides are deliberate and are not collisions;
// only labels defined twice within the generated maps or within the manual
// maps are reported.
func BuildRegistry(manual, auto []LinkMap) *Registry {
	r := NewRegistry(Merge(nil, auto))
	overlay := Merge(manual, nil)
	for _, m := range overlay {
		r.add(m, false)
	}
	for scope, byLabel := range NewRegistry(overlay).collisions {
		for label, urls := range byLabel {
			for _, u := range urls {
				r.noteCollision(scope, label, urls[0], u)
			}
		}
	}
	return r
}

func (r *Registry) add(m LinkMap, track bool) {
	links, ok := r.scopes[m.Scope]
	if !ok {
		links = make(map[string]string)
		r.scopes[m.Scope] = links
	}
	for _, label := range sortedKeys(m.Links) {
		url := absolute(m.Host, m.Links[label])
		if prev, seen := links[label]; seen && prev != url && track {
			r.noteCollision(m.Scope, label, prev, url)
		}
		links[label] = url
	}
}

func (r *Registry) noteCollision(scope Scope, label, prev, next string) {
	byLabel, ok := r.collisions[scope]
	if !ok {
		byLabel = make(map[string][]string)
		r.collisions[scope] = byLabel
	}
	urls := byLabel[label]
	if len(urls) == 0 {
		urls = append(urls, prev)
	}
	for _, u := range urls {
		if u == next {
			byLabel[label] = urls
			return
		}
	}
	byLabel[label] = append(urls, next)
}

func absolute(host, target string) string {
	if strings.HasPrefix(target, "http") {
		return target
	}
	return host + target
}

// Lookup returns the URL registered for label in scope.
func (r *Registry) Lookup(scope Scope, label string) (string, bool) {
	url, ok := r.scopes[scope][label]
	return url, ok
}

// Labels returns the labels known in scope, sorted.
func (r *Registry) Labels(scope Scope) []string {
	return sortedKeys(r.scopes[scope])
}

// Len returns the number of labels in scope.
func (r *Registry) Len(scope Scope) int {
	return len(r.scopes[scope])
}

// Collisions reports labels that were defined with differing URLs, sorted
// by scope and label.
func (r *Registry) Collisions() []Collision {
	var out []Collision
	for scope, byLabel := range r.collisions {
		for label, urls := range byLabel {
			winner, _ := r.Lookup(scope, label)
			out = append(out, Collision{Scope: scope, Label: label, URLs: urls, Winner: winner})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Scope != out[j].Scope {
			return out[i].Scope < out[j].Scope
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
