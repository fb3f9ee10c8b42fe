package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docpipe/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Global, _ *CLI) error {
	_, err := fmt.Fprintln(g.Out, version.String())
	return err
}
