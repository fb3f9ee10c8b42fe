package commands

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docpipe/internal/cli"
)

// ReferenceCmd groups the API reference subcommands.
type ReferenceCmd struct {
	Build ReferenceBuildCmd `cmd:"" help:"Download and extract the latest reference build and tagged versions"`
}

type ReferenceBuildCmd struct {
	Tags []string `name:"tag" help:"Version tag to include under versions/ (repeatable; default: reference.tags)"`
}

func (c *ReferenceBuildCmd) Run(g *Global, root *CLI) error {
	exec, _, err := newExecutor(g, root)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	res := exec.ExecuteReferenceBuild(ctx, cli.ReferenceRequest{Tags: c.Tags})
	if res.IsErr() {
		return res.UnwrapErr()
	}
	resp := res.Unwrap()
	_, _ = fmt.Fprintf(g.Out, "Reference %q: %d pages in %s\n", resp.Title, resp.Pages, resp.DistDir)
	if len(resp.Versions) > 0 {
		_, _ = fmt.Fprintf(g.Out, "Versions: %s\n", strings.Join(resp.Versions, ", "))
	}
	return nil
}
