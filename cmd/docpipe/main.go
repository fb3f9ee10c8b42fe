package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docpipe/cmd/docpipe/commands"
	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{Out: os.Stdout}
	ctx := kong.Parse(cli,
		kong.Name("docpipe"),
		kong.Description("Build the multi-language documentation site from src/."),
		kong.UsageOnError(),
		kong.Bind(global),
	)
	if err := ctx.Run(global, cli); err != nil {
		foundationerrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
}
