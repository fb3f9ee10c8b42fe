package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docpipe/internal/cli"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics on this address (e.g. :9090)"`
	SkipInitial bool   `name:"skip-initial" help:"Do not run a full build before watching"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	exec, cfg, err := newExecutor(g, root)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	_, _ = fmt.Fprintf(g.Out, "Watching %s (Ctrl+C to stop)\n", cfg.SourceDir)
	return exec.ExecuteWatch(ctx, cli.WatchRequest{
		MetricsAddr:  w.MetricsAddr,
		InitialBuild: !w.SkipInitial,
	})
}
