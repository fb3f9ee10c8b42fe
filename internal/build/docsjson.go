package build

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
)

// convertDocsYAML writes the navigation file docs.yml as docs.json,
// keeping key order, indented by two spaces, with no HTML escaping.
func convertDocsYAML(src, dst string) error {
	// #nosec G304 -- src is a file inside the configured source tree
	data, err := os.ReadFile(src)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read docs.yml").
			WithContext("file", src).
			Build()
	}
	out, err := yamlToJSON(data)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryBuild, "failed to convert docs.yml to JSON").
			WithContext("file", src).
			Build()
	}
	if err := os.WriteFile(dst, out, 0o644); err != nil { //nolint:gosec // published site content
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write docs.json").
			WithContext("path", dst).
			Build()
	}
	return nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if doc.Kind == 0 {
		buf.WriteString("null")
		return buf.Bytes(), nil
	}
	if err := writeJSON(&buf, &doc, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, n *yaml.Node, depth int) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeJSON(buf, n.Content[0], depth)
	case yaml.AliasNode:
		return writeJSON(buf, n.Alias, depth)
	case yaml.MappingNode:
		if len(n.Content) == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteString("{\n")
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteString(",\n")
			}
			indent(buf, depth+1)
			if err := writeString(buf, n.Content[i].Value); err != nil {
				return err
			}
			buf.WriteString(": ")
			if err := writeJSON(buf, n.Content[i+1], depth+1); err != nil {
				return err
			}
		}
		buf.WriteString("\n")
		indent(buf, depth)
		buf.WriteString("}")
		return nil
	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteString("[\n")
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteString(",\n")
			}
			indent(buf, depth+1)
			if err := writeJSON(buf, item, depth+1); err != nil {
				return err
			}
		}
		buf.WriteString("\n")
		indent(buf, depth)
		buf.WriteString("]")
		return nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return err
		}
		return writeScalar(buf, v)
	default:
		return fmt.Errorf("unsupported YAML node kind %d at line %d", n.Kind, n.Line)
	}
}

func writeScalar(buf *bytes.Buffer, v any) error {
	if s, ok := v.(string); ok {
		return writeString(buf, s)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.WriteString(strings.TrimSuffix(tmp.String(), "\n"))
	return nil
}

func indent(buf *bytes.Buffer, depth int) {
	buf.WriteString(strings.Repeat("  ", depth))
}
