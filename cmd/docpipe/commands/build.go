package commands

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/docpipe/internal/cli"
	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	CheckLinks bool `name:"check-links" help:"Fail when built pages link to internal pages that do not exist"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	exec, cfg, err := newExecutor(g, root)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	_, _ = fmt.Fprintf(g.Out, "Building %s into %s\n", cfg.SourceDir, cfg.BuildDir)
	res := exec.ExecuteBuild(ctx, cli.BuildRequest{CheckLinks: b.CheckLinks})
	if res.IsErr() {
		return res.UnwrapErr()
	}
	resp := res.Unwrap()
	_, _ = fmt.Fprintf(g.Out, "Built %d files in %s\n", resp.FilesBuilt, resp.Duration.Round(time.Millisecond))

	if len(resp.BrokenLinks) == 0 {
		return nil
	}
	for _, l := range resp.BrokenLinks {
		_, _ = fmt.Fprintf(g.Out, "  broken link in %s: %s\n", l.File, l.Target)
	}
	return foundationerrors.ValidationError(fmt.Sprintf("%d broken internal links", len(resp.BrokenLinks))).
		WithContext("build_id", resp.BuildID).
		Build()
}
