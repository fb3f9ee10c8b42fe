package pkgtable

import (
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/docpipe/internal/logfields"
)

//go:embed overview.mdx.tmpl
var overviewTemplate string

const tableHeader = `| Provider | Package API reference | Downloads | Latest version | <Tooltip tip="Whether an equivalent version exists in the TypeScript version of LangChain. Click the checkmark to visit the respective package.">JS/TS support</Tooltip> |
| :--- | :--- | :--- | :--- | :--- |
`

// TableRow renders one markdown table row.
func TableRow(r Row) string {
	js := "❌"
	if r.JSExists() {
		js = fmt.Sprintf("[✅](https://www.npmjs.com/package/%s)", r.JS)
	}
	provider := r.Title
	if r.ProviderLink != "" {
		provider = fmt.Sprintf("[%s](%s)", r.Title, r.ProviderLink)
	}
	return fmt.Sprintf("| %s ", provider) +
		fmt.Sprintf("| [`%s`](%s) ", r.Name, r.PackageURL) +
		fmt.Sprintf(`| <a href="https://pypi.org/project/%s/" target="_blank"><img src="https://static.pepy.tech/badge/%s/month" alt="Downloads per month" noZoom class="rounded not-prose" /></a> `, r.Name, r.Name) +
		fmt.Sprintf(`| <a href="https://pypi.org/project/%s/" target="_blank"><img src="https://img.shields.io/pypi/v/%s?style=flat-square&label=%%20" alt="PyPI - Latest version" noZoom class="rounded not-prose" /></a> `, r.Name, r.Name) +
		fmt.Sprintf("| %s |", js)
}

// Table renders the header and one row per package.
func Table(rows []Row) string {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, TableRow(r))
	}
	return tableHeader + strings.Join(lines, "\n")
}

// Render produces the overview page.
func Render(rows []Row) (string, error) {
	tpl, err := template.New("overview").Option("missingkey=error").Parse(overviewTemplate)
	if err != nil {
		return "", fmt.Errorf("parse overview template: %w", err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, map[string]any{"Table": Table(rows)}); err != nil {
		return "", fmt.Errorf("render overview template: %w", err)
	}
	return buf.String(), nil
}

// Generate reads packagesFile, renders the overview and writes it to outputFile.
// It returns the number of packages listed.
func Generate(packagesFile, providersDir, outputFile string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reg, err := Load(packagesFile)
	if err != nil {
		return 0, err
	}
	rows, err := Build(reg, providersDir)
	if err != nil {
		return 0, err
	}
	page, err := Render(rows)
	if err != nil {
		return 0, foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "failed to render package table").Build()
	}
	if err := os.MkdirAll(filepath.Dir(outputFile), 0o750); err != nil {
		return 0, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", outputFile).
			Build()
	}
	if err := os.WriteFile(outputFile, []byte(page), 0o644); err != nil { //nolint:gosec // documentation source
		return 0, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write package table").
			WithContext("path", outputFile).
			Build()
	}
	logger.Info("Wrote package table",
		logfields.Path(outputFile),
		logfields.Count(len(rows)),
		slog.Int("registry", len(reg.Packages)))
	return len(rows), nil
}
