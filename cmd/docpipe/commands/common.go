// Package commands defines the docpipe command line.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"git.home.luguber.info/inful/docpipe/internal/cli"
	"git.home.luguber.info/inful/docpipe/internal/config"
	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer // user-facing output; os.Stdout unless a test replaces it
}

// CLI definition & global flags.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"docpipe.yaml" env:"DOCPIPE_CONFIG"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build     BuildCmd     `cmd:"" help:"Preprocess src/ into build/ for every language variant"`
	Snippets  SnippetsCmd  `cmd:"" help:"Export, lint or clean code snippets extracted from the docs"`
	Watch     WatchCmd     `cmd:"" help:"Build, then rebuild changed files until interrupted"`
	Linkmap   LinkMapCmd   `cmd:"" name:"linkmap" help:"Manage cross-reference link maps"`
	Reference ReferenceCmd `cmd:"" help:"Download the API reference site"`
	Pkgtable  PkgTableCmd  `cmd:"" name:"pkgtable" help:"Generate the integration packages overview page"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(g *Global) error {
	level := parseLogLevel(c.Verbose)
	g.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	if g.Out == nil {
		g.Out = os.Stdout
	}
	return nil
}

// parseLogLevel maps DOCPIPE_LOG_LEVEL (debug, info, warn, error) to a
// level. -v forces debug.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DOCPIPE_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to load configuration").
			WithContext("path", path).
			Build()
	}
	return cfg, nil
}

func newExecutor(g *Global, root *CLI) (*cli.DefaultCommandExecutor, *config.Config, error) {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return nil, nil, err
	}
	return cli.NewCommandExecutor(cfg, g.Logger), cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
