package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docpipe/internal/cli"
)

// LinkMapCmd groups the link map subcommands.
type LinkMapCmd struct {
	Generate LinkMapGenerateCmd `cmd:"" help:"Regenerate link maps from the configured Sphinx inventories"`
}

type LinkMapGenerateCmd struct {
	Output string `short:"o" help:"Output file (default: link_maps.generated_file from config)"`
}

func (c *LinkMapGenerateCmd) Run(g *Global, root *CLI) error {
	exec, _, err := newExecutor(g, root)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	resp, err := exec.ExecuteLinkMapGenerate(ctx, cli.LinkMapRequest{Output: c.Output}).ToTuple()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "Wrote %d links from %d inventories to %s\n", resp.Links, resp.Maps, resp.Path)
	return nil
}
