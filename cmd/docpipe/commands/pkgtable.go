package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/docpipe/internal/cli"
)

// PkgTableCmd implements the 'pkgtable' command.
type PkgTableCmd struct{}

func (c *PkgTableCmd) Run(g *Global, root *CLI) error {
	exec, _, err := newExecutor(g, root)
	if err != nil {
		return err
	}
	resp, err := exec.ExecutePkgTable(context.Background(), cli.PkgTableRequest{}).ToTuple()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "Wrote %d packages to %s\n", resp.Rows, resp.OutputFile)
	return nil
}
