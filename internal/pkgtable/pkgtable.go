// Package pkgtable generates the "Integration packages" overview page from
// the package registry (packages.yml).
package pkgtable

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
)

// MinDownloads is the monthly download threshold for non-highlighted packages.
const MinDownloads = 100_000

// MaxRows caps the table length.
const MaxRows = 50

// Package types.
const (
	TypeMonorepo     = "monorepo"
	TypeLangChainOrg = "langchain-org"
	TypeThirdParty   = "third-party"
	TypeIgnore       = "ignore"
)

// ignored packages are core libraries, not integrations.
var ignored = map[string]bool{
	"langchain-cli":            true,
	"langchain-core":           true,
	"langchain-classic":        true,
	"langchain":                true,
	"langchain-tests":          true,
	"langchain-text-splitters": true,
	"langchain-community":      true,
	"langchain-experimental":   true,
	"langchain-mcp-adapters":   true,
}

// Package is one entry of packages.yml.
type Package struct {
	Name         string `yaml:"name"`
	Repo         string `yaml:"repo"`
	Downloads    int    `yaml:"downloads"`
	Highlight    bool   `yaml:"highlight"`
	JS           string `yaml:"js"`
	ProviderPage string `yaml:"provider_page"`
	NameTitle    string `yaml:"name_title"`
	Integration  string `yaml:"integration"`
}

// Registry is the decoded packages.yml.
type Registry struct {
	Packages []Package `yaml:"packages"`
}

// Row is a package enriched for display.
type Row struct {
	Package
	ShortName    string
	Title        string
	Type         string
	ProviderLink string
	PackageURL   string
}

// JSExists reports whether the package has a JS/TS counterpart.
func (r Row) JSExists() bool { return r.JS != "" }

// Load reads the package registry.
func Load(path string) (*Registry, error) {
	// #nosec G304 -- path comes from configuration
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, foundationerrors.NotFoundError("package registry not found").
			WithContext("path", path).
			Build()
	}
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read package registry").
			WithContext("path", path).
			Build()
	}
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "invalid package registry").
			WithContext("path", path).
			Build()
	}
	return &reg, nil
}

// ShortName strips the langchain- prefix and -langchain suffix.
func ShortName(name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(name, "langchain-"), "-langchain")
}

// Title derives a display title from a short name: words are title-cased,
// dashes become spaces and the DB and AI acronyms are upper-cased.
func Title(short string) string {
	t := strings.ReplaceAll(titleWords(short), "-", " ")
	for _, r := range [][2]string{{"db", "DB"}, {"Db", "DB"}, {"ai", "AI"}, {"Ai", "AI"}} {
		t = strings.ReplaceAll(t, r[0], r[1])
	}
	return t
}

// titleWords title-cases every run of letters; digits and punctuation
// start a new word.
func titleWords(s string) string {
	caser := cases.Title(language.Und)
	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); {
		j := i
		letters := unicode.IsLetter(runes[i])
		for j < len(runes) && unicode.IsLetter(runes[j]) == letters {
			j++
		}
		if letters {
			b.WriteString(caser.String(string(runes[i:j])))
		} else {
			b.WriteString(string(runes[i:j]))
		}
		i = j
	}
	return b.String()
}

// TypeOf classifies a package by name and source repository.
func TypeOf(p Package) string {
	switch {
	case ignored[p.Name]:
		return TypeIgnore
	case p.Repo == "langchain-ai/langchain":
		return TypeMonorepo
	case strings.HasPrefix(p.Repo, "langchain-ai/"):
		return TypeLangChainOrg
	default:
		return TypeThirdParty
	}
}

// Enrich computes the display fields of p. Ignored packages yield nil. A
// package without a provider page is an error: every listed provider needs one.
func Enrich(p Package, providersDir string) (*Row, error) {
	row := &Row{Package: p, ShortName: ShortName(p.Name), Type: TypeOf(p)}
	if row.Type == TypeIgnore {
		return nil, nil
	}
	row.Title = p.NameTitle
	if row.Title == "" {
		row.Title = Title(row.ShortName)
	}

	switch {
	case p.ProviderPage != "":
		row.ProviderLink = "/oss/integrations/providers/" + p.ProviderPage
	case providerPageExists(providersDir, row.ShortName):
		row.ProviderLink = "/oss/integrations/providers/" + row.ShortName + "/"
	default:
		return nil, foundationerrors.ValidationError(fmt.Sprintf(
			"provider page not found for %s; add one at oss/integrations/providers/%s.mdx", row.ShortName, row.ShortName)).
			WithContext("package", p.Name).
			Build()
	}

	switch row.Type {
	case TypeMonorepo, TypeLangChainOrg:
		if p.Integration == "false" {
			row.PackageURL = "https://reference.langchain.com/python/" + p.Name + "/"
		} else {
			row.PackageURL = "https://reference.langchain.com/python/integrations/" + strings.ReplaceAll(p.Name, "-", "_") + "/"
		}
	default:
		row.PackageURL = "https://pypi.org/project/" + p.Name + "/"
	}
	return row, nil
}

func providerPageExists(dir, short string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), short+".") {
			return true
		}
	}
	return false
}

// Select keeps popular or highlighted packages, highlighted first then by
// downloads, and truncates to MaxRows.
func Select(rows []Row) []Row {
	var kept []Row
	for _, r := range rows {
		if r.Highlight || r.Downloads >= MinDownloads {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Highlight != kept[j].Highlight {
			return kept[i].Highlight
		}
		return kept[i].Downloads > kept[j].Downloads
	})
	if len(kept) > MaxRows {
		kept = kept[:MaxRows]
	}
	return kept
}

// Build enriches and selects every package of reg.
func Build(reg *Registry, providersDir string) ([]Row, error) {
	var rows []Row
	for _, p := range reg.Packages {
		row, err := Enrich(p, providersDir)
		if err != nil {
			return nil, err
		}
		if row != nil {
			rows = append(rows, *row)
		}
	}
	return Select(rows), nil
}
