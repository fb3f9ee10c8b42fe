package commands

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docpipe/internal/cli"
)

// SnippetsCmd groups the snippet subcommands.
type SnippetsCmd struct {
	Export SnippetsExportCmd `cmd:"" help:"Export code blocks into per-language snippet directories"`
	Lint   SnippetsLintCmd   `cmd:"" help:"Run each language directory's lint target"`
	Clean  SnippetsCleanCmd  `cmd:"" help:"Remove exported snippets ignored by each language's .gitignore"`
	Run    SnippetsRunCmd    `cmd:"" help:"Export, then lint"`
}

type SnippetsExportCmd struct{}

func (c *SnippetsExportCmd) Run(g *Global, root *CLI) error {
	return runSnippets(g, root, cli.SnippetsRequest{Action: cli.SnippetsExport})
}

type SnippetsLintCmd struct{}

func (c *SnippetsLintCmd) Run(g *Global, root *CLI) error {
	return runSnippets(g, root, cli.SnippetsRequest{Action: cli.SnippetsLint})
}

type SnippetsCleanCmd struct{}

func (c *SnippetsCleanCmd) Run(g *Global, root *CLI) error {
	return runSnippets(g, root, cli.SnippetsRequest{Action: cli.SnippetsClean})
}

type SnippetsRunCmd struct {
	ExportOnly bool `name:"export-only" xor:"phase" help:"Only export snippets"`
	LintOnly   bool `name:"lint-only" xor:"phase" help:"Only lint snippets"`
}

func (c *SnippetsRunCmd) Run(g *Global, root *CLI) error {
	return runSnippets(g, root, cli.SnippetsRequest{
		Action:     cli.SnippetsRun,
		ExportOnly: c.ExportOnly,
		LintOnly:   c.LintOnly,
	})
}

func runSnippets(g *Global, root *CLI, req cli.SnippetsRequest) error {
	exec, _, err := newExecutor(g, root)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	res := exec.ExecuteSnippets(ctx, req)
	if res.IsErr() {
		return res.UnwrapErr()
	}
	resp := res.Unwrap()
	langs := "none"
	if len(resp.Languages) > 0 {
		langs = strings.Join(resp.Languages, ", ")
	}
	_, _ = fmt.Fprintf(g.Out, "snippets %s done in %s (languages: %s)\n", req.Action, resp.OutputDir, langs)
	return nil
}
