package pkgtable

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		short string
		want  string
	}{
		{"openai", "OpenAI"},
		{"google-genai", "Google GenAI"},
		{"mongodb", "MongoDB"},
		{"astradb", "AstraDB"},
		{"ai21", "AI21"},
		{"ibm", "Ibm"},
		{"aws", "Aws"},
		{"qdrant", "Qdrant"},
		{"x2y", "X2Y"},
	}
	for _, tt := range tests {
		t.Run(tt.short, func(t *testing.T) {
			assert.Equal(t, tt.want, Title(tt.short))
		})
	}
}

func TestShortNameAndType(t *testing.T) {
	assert.Equal(t, "openai", ShortName("langchain-openai"))
	assert.Equal(t, "databricks", ShortName("databricks-langchain"))
	assert.Equal(t, "tavily", ShortName("tavily"))

	assert.Equal(t, TypeIgnore, TypeOf(Package{Name: "langchain-core", Repo: "langchain-ai/langchain"}))
	assert.Equal(t, TypeMonorepo, TypeOf(Package{Name: "langchain-openai", Repo: "langchain-ai/langchain"}))
	assert.Equal(t, TypeLangChainOrg, TypeOf(Package{Name: "langchain-aws", Repo: "langchain-ai/langchain-aws"}))
	assert.Equal(t, TypeThirdParty, TypeOf(Package{Name: "databricks-langchain", Repo: "databricks/databricks-ai-bridge"}))
}

func providersDir(t *testing.T, pages ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, p := range pages {
		require.NoError(t, os.WriteFile(filepath.Join(dir, p), []byte("page"), 0o600))
	}
	return dir
}

func TestEnrich(t *testing.T) {
	dir := providersDir(t, "openai.mdx", "aws.mdx", "databricks.mdx")

	tests := []struct {
		name    string
		pkg     Package
		want    *Row
		wantErr bool
	}{
		{
			name: "monorepo integration",
			pkg:  Package{Name: "langchain-openai", Repo: "langchain-ai/langchain", JS: "@langchain/openai"},
			want: &Row{
				ShortName: "openai", Title: "OpenAI", Type: TypeMonorepo,
				ProviderLink: "/oss/integrations/providers/openai/",
				PackageURL:   "https://reference.langchain.com/python/integrations/langchain_openai/",
			},
		},
		{
			name: "org package that is not an integration",
			pkg:  Package{Name: "langchain-aws", Repo: "langchain-ai/langchain-aws", Integration: "false"},
			want: &Row{
				ShortName: "aws", Title: "Aws", Type: TypeLangChainOrg,
				ProviderLink: "/oss/integrations/providers/aws/",
				PackageURL:   "https://reference.langchain.com/python/langchain-aws/",
			},
		},
		{
			name: "third party with custom title and page",
			pkg: Package{
				Name: "databricks-langchain", Repo: "databricks/databricks-ai-bridge",
				NameTitle: "Databricks", ProviderPage: "databricks-custom",
			},
			want: &Row{
				ShortName: "databricks", Title: "Databricks", Type: TypeThirdParty,
				ProviderLink: "/oss/integrations/providers/databricks-custom",
				PackageURL:   "https://pypi.org/project/databricks-langchain/",
			},
		},
		{
			name: "ignored",
			pkg:  Package{Name: "langchain-community", Repo: "langchain-ai/langchain-community"},
		},
		{
			name:    "missing provider page",
			pkg:     Package{Name: "langchain-nothing", Repo: "langchain-ai/langchain"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Enrich(tt.pkg, dir)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
				assert.Contains(t, err.Error(), "oss/integrations/providers/nothing.mdx")
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			tt.want.Package = tt.pkg
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelect(t *testing.T) {
	rows := []Row{
		{Package: Package{Name: "small", Downloads: 10}},
		{Package: Package{Name: "big", Downloads: 5_000_000}},
		{Package: Package{Name: "star", Downloads: 10, Highlight: true}},
		{Package: Package{Name: "mid", Downloads: 200_000}},
		{Package: Package{Name: "edge", Downloads: MinDownloads}},
	}
	var names []string
	for _, r := range Select(rows) {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"star", "big", "mid", "edge"}, names)

	var many []Row
	for i := range MaxRows + 10 {
		many = append(many, Row{Package: Package{Name: fmt.Sprintf("p%d", i), Downloads: MinDownloads + i}})
	}
	top := Select(many)
	require.Len(t, top, MaxRows)
	assert.Equal(t, fmt.Sprintf("p%d", MaxRows+9), top[0].Name)
}

func TestTableRow(t *testing.T) {
	row := Row{
		Package:      Package{Name: "langchain-openai", JS: "@langchain/openai"},
		Title:        "OpenAI",
		ProviderLink: "/oss/integrations/providers/openai/",
		PackageURL:   "https://reference.langchain.com/python/integrations/langchain_openai/",
	}
	got := TableRow(row)
	assert.True(t, strings.HasPrefix(got, "| [OpenAI](/oss/integrations/providers/openai/) | [`langchain-openai`](https://reference.langchain.com/python/integrations/langchain_openai/) | "))
	assert.Contains(t, got, `<img src="https://static.pepy.tech/badge/langchain-openai/month"`)
	assert.Contains(t, got, `https://img.shields.io/pypi/v/langchain-openai?style=flat-square&label=%20"`)
	assert.True(t, strings.HasSuffix(got, "| [✅](https://www.npmjs.com/package/@langchain/openai) |"))

	row.JS = ""
	assert.True(t, strings.HasSuffix(TableRow(row), "| ❌ |"))
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	providers := providersDir(t, "openai.mdx", "anthropic.mdx")
	registry := filepath.Join(dir, "packages.yml")
	require.NoError(t, os.WriteFile(registry, []byte(`packages:
  - name: langchain-core
    repo: langchain-ai/langchain
    downloads: 90000000
  - name: langchain-anthropic
    repo: langchain-ai/langchain
    downloads: 2000000
  - name: langchain-openai
    repo: langchain-ai/langchain
    downloads: 9000000
    js: "@langchain/openai"
`), 0o600))
	out := filepath.Join(dir, "src", "overview.mdx")

	n, err := Generate(registry, providers, out, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	page := string(data)
	assert.True(t, strings.HasPrefix(page, "---\ntitle: Integration packages\n"))
	assert.Contains(t, page, "## Popular providers\n\n| Provider | Package API reference |")
	assert.Less(t, strings.Index(page, "[OpenAI]"), strings.Index(page, "[Anthropic]"))
	assert.NotContains(t, page, "langchain-core")
	assert.True(t, strings.HasSuffix(page, "</Info>\n\n"))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryNotFound))

	bad := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("packages: [\n"), 0o600))
	_, err = Load(bad)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
}
