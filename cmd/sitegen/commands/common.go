package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitegen/internal/config"
	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/observability"
	"git.home.luguber.info/inful/sitegen/internal/version"
)

// Global carries process-wide state shared by subcommands.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer
	Ctx    context.Context
}

// CLI definition & global flags.
type CLI struct {
	Root      string `help:"Project root; relative directories are resolved against it" default:"." type:"path"`
	Config    string `short:"c" help:"Configuration file (default: <root>/sitegen.yaml)" type:"path"`
	Content   string `help:"Content directory (overrides paths.content)"`
	Templates string `help:"Template directory (overrides paths.templates)"`
	Static    string `help:"Static asset directory (overrides paths.static)"`
	Output    string `short:"o" help:"Output directory (overrides paths.output)"`
	Verbose   bool   `short:"v" help:"Enable verbose logging"`

	ShowVersion kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the site once"`
	Daemon  DaemonCmd  `cmd:"" help:"Rebuild the site on an interval and serve build status"`
	Init    InitCmd    `cmd:"" help:"Create a configuration file and a starter project"`
	Version VersionCmd `cmd:"" help:"Print version information"`

	stderr io.Writer `kong:"-"`
}

// AfterApply runs after flag parsing; sets up logging until the config
// file is read.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(observability.NewLogger(c.stderr, level, config.DefaultLogFormat))
	return nil
}

// Execute parses args, runs the selected command and returns the process
// exit code.
func Execute(args []string, stdout, stderr io.Writer, exit func(int)) int {
	cli := &CLI{stderr: stderr}
	parser, err := kong.New(cli,
		kong.Name("sitegen"),
		kong.Description("Render a tree of markdown documents into an HTML site."),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("sitegen %s (commit %s, built %s)", version.Version, version.GitCommit, version.BuildTime)},
		kong.Writers(stdout, stderr),
		kong.Exit(exit),
	)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g := &Global{Logger: slog.Default(), Stdout: stdout, Stderr: stderr, Ctx: ctx}
	if err := kctx.Run(g, cli); err != nil {
		observability.CriticalContext(ctx, "sitegen aborted", logfields.Error(err))
		adapter := serrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		_, _ = fmt.Fprintln(stderr, adapter.FormatError(err))
		return adapter.ExitCodeFor(err)
	}
	return 0
}

// configPath returns the config file to read and whether it must exist.
func (c *CLI) configPath() (string, bool) {
	if c.Config != "" {
		return c.Config, true
	}
	return filepath.Join(c.Root, config.DefaultFileName), false
}

// load reads and validates the configuration, applies flag overrides,
// switches the logger to the configured level and resolves the project
// directories.
func (c *CLI) load(g *Global) (*config.Config, config.Paths, error) {
	path, required := c.configPath()
	cfg, err := config.LoadOrDefault(path, required)
	if err != nil {
		return nil, config.Paths{}, err
	}
	c.applyOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, config.Paths{}, err
	}

	level := observability.ParseLevel(cfg.Logging.Level)
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = observability.NewLogger(g.Stderr, level, cfg.Logging.Format)
	slog.SetDefault(g.Logger)

	paths, err := cfg.Resolve(c.Root)
	if err != nil {
		return nil, config.Paths{}, err
	}
	slog.Debug("Configuration loaded", "config", path,
		"content", paths.Content, "templates", paths.Templates,
		"static", paths.Static, "output", paths.Output)
	return cfg, paths, nil
}

func (c *CLI) applyOverrides(cfg *config.Config) {
	if c.Content != "" {
		cfg.Paths.Content = c.Content
	}
	if c.Templates != "" {
		cfg.Paths.Templates = c.Templates
	}
	if c.Static != "" {
		cfg.Paths.Static = c.Static
	}
	if c.Output != "" {
		cfg.Paths.Output = c.Output
	}
}
