package linkmap

import (
	"bytes"
	_ "embed"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
)

// LinkMap is a set of labels sharing one host and scope. Link values are
// relative to Host unless they are absolute http(s) URLs.
type LinkMap struct {
	Host  string            `yaml:"host"`
	Scope Scope             `yaml:"scope"`
	Links map[string]string `yaml:"links"`
}

//go:embed manual_links.yaml
var manualLinksYAML []byte

// DefaultManualLinkMaps returns the curated link maps compiled into the binary.
func DefaultManualLinkMaps() ([]LinkMap, error) {
	return decode(manualLinksYAML, "manual_links.yaml")
}

type groupKey struct {
	host  string
	scope Scope
}

// Merge combines generated and manual maps grouped by (host, scope).
// Generated links are applied first and manual links overlay them. Groups
// keep the order in which they first appear, generated maps first.
func Merge(manual, auto []LinkMap) []LinkMap {
	var order []groupKey
	merged := make(map[groupKey]map[string]string)

	add := func(maps []LinkMap) {
		for _, m := range maps {
			key := groupKey{host: m.Host, scope: m.Scope}
			links, ok := merged[key]
			if !ok {
				links = make(map[string]string, len(m.Links))
				merged[key] = links
				order = append(order, key)
			}
			for label, target := range m.Links {
				links[label] = target
			}
		}
	}
	add(auto)
	add(manual)

	out := make([]LinkMap, 0, len(order))
	for _, key := range order {
		out = append(out, LinkMap{Host: key.host, Scope: key.scope, Links: merged[key]})
	}
	return out
}

// LoadFile reads link maps from a YAML file. A missing file yields no maps.
func LoadFile(path string) ([]LinkMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read link map file").
			WithContext("path", path).
			Build()
	}
	return decode(data, path)
}

func decode(data []byte, source string) ([]LinkMap, error) {
	var maps []LinkMap
	if err := yaml.Unmarshal(data, &maps); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryLinkMap, "invalid link map file").
			WithContext("path", source).
			Build()
	}
	for i, m := range maps {
		if _, err := ParseScope(string(m.Scope)); err != nil {
			return nil, foundationerrors.LinkMapError("link map has an invalid scope").
				WithCause(err).
				WithContext("path", source).
				WithContext("index", i).
				Build()
		}
	}
	return maps, nil
}

const generatedHeader = "# Code generated by docpipe linkmap generate. DO NOT EDIT.\n\n"

// SaveFile writes maps as YAML, creating parent directories as needed.
func SaveFile(path string, maps []LinkMap) error {
	var buf bytes.Buffer
	buf.WriteString(generatedHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(maps); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryLinkMap, "failed to encode link maps").Build()
	}
	if err := enc.Close(); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryLinkMap, "failed to encode link maps").Build()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create link map directory").
			WithContext("path", path).
			Build()
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write link map file").
			WithContext("path", path).
			Build()
	}
	return nil
}
