package main

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

	"git.home.luguber.info/inful/bookbinder/internal/book"
	"git.home.luguber.info/inful/bookbinder/internal/config"
	"git.home.luguber.info/inful/bookbinder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbinder/internal/linkcheck"
	"git.home.luguber.info/inful/bookbinder/internal/logfields"
	"git.home.luguber.info/inful/bookbinder/internal/preview"
	"git.home.luguber.info/inful/bookbinder/internal/render"
	"git.home.luguber.info/inful/bookbinder/internal/version"
)

var CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"book.yaml"`
	LogLevel  string           `help:"Log level (debug, info, warn, error); overrides the config file"`
	LogFormat string           `help:"Log format (text, json); overrides the config file"`
	Quiet     bool             `short:"q" help:"Only log errors"`
	Version   kong.VersionFlag `short:"V" help:"Print version and exit"`

	Build struct{} `cmd:"" help:"Build the book into the output directory"`

	Serve struct {
		Addr string `help:"Listen address; overrides preview.addr from the config"`
	} `cmd:"" help:"Serve the book locally, rebuilding and reloading on changes"`

	Check struct {
		External bool `help:"Also probe external URLs over HTTP"`
	} `cmd:"" help:"Verify links in the built output (run build first)"`

	Init struct {
		Force bool `help:"Overwrite an existing configuration file"`
	} `cmd:"" help:"Write a starter configuration file"`

	Render struct {
		File        string `arg:"" help:"Markdown file to render, or - for stdin"`
		CurlyQuotes bool   `help:"Convert straight quotes to curly ones"`
		HeadingIDs  bool   `help:"Add anchor ids to headings"`
		Highlight   bool   `help:"Highlight fenced code blocks"`
		Style       string `help:"Highlight style" default:"github"`
	} `cmd:"" help:"Render one markdown file to HTML on stdout"`
}

// effectiveLevel is the level setupLogging last applied; the error
// adapter uses it to decide how much detail failures show.
var effectiveLevel = config.LogLevelInfo

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("bookbinder"),
		kong.Description("Renders a markdown book into a static site."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	setupLogging(nil)

	switch kctx.Command() {
	case "build":
		handle(withConfig(runBuild))
	case "serve":
		handle(withConfig(runServe))
	case "check":
		handle(withConfig(runCheck))
	case "init":
		handle(runInit())
	case "render <file>":
		handle(runRender())
	}
}

// handle reports err through the CLI adapter and exits with its
// category's code. A nil err returns normally.
func handle(err error) {
	if err == nil {
		return
	}
	adapter := errors.NewCLIErrorAdapter(effectiveLevel == config.LogLevelDebug, nil)
	adapter.HandleError(err)
}

// withConfig loads and resolves the configuration, reapplies logging
// with its settings, and runs fn.
func withConfig(fn func(*config.Config) error) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	cfg.ResolvePaths(filepath.Dir(CLI.Config))
	setupLogging(cfg)
	return fn(cfg)
}

// setupLogging applies the configured level and format, with flags
// taking precedence over the config file and --quiet over both.
func setupLogging(cfg *config.Config) {
	level := config.LogLevelInfo
	format := config.LogFormatText
	if cfg != nil {
		level = cfg.Logging.Level
		format = cfg.Logging.Format
	}
	if CLI.LogLevel != "" {
		level = config.NormalizeLogLevel(CLI.LogLevel)
	}
	if CLI.LogFormat != "" {
		format = config.NormalizeLogFormat(CLI.LogFormat)
	}
	if CLI.Quiet {
		level = config.LogLevelError
	}
	effectiveLevel = level

	opts := &slog.HandlerOptions{Level: level.SlogLevel()}
	var handler slog.Handler
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func runBuild(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("building book",
		logfields.Path(cfg.Book.Src),
		slog.String("output", cfg.Output.Directory))

	report, err := book.NewEngine(cfg).Build(ctx)
	if err != nil {
		return err
	}
	slog.Info("book built",
		logfields.BuildID(report.BuildID),
		logfields.Pages(report.Pages),
		logfields.Assets(report.Assets),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return nil
}

func runServe(cfg *config.Config) error {
	if CLI.Serve.Addr != "" {
		cfg.Preview.Addr = CLI.Serve.Addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return preview.NewServer(cfg).Run(ctx)
}

func runCheck(cfg *config.Config) error {
	if CLI.Check.External {
		cfg.LinkCheck.External = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_, err := linkcheck.NewChecker(cfg).Check(ctx)
	return err
}

func runInit() error {
	if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", CLI.Config)
	return nil
}

func runRender() error {
	var in io.Reader = os.Stdin
	if CLI.Render.File != "-" {
		f, err := os.Open(CLI.Render.File)
		if err != nil {
			return errors.WrapError(err, errors.CategoryNotFound, "cannot open markdown file").
				WithContext("path", CLI.Render.File).
				Build()
		}
		defer func() { _ = f.Close() }()
		in = f
	}
	source, err := io.ReadAll(in)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to read markdown source").Build()
	}

	r := render.New(render.Options{
		CurlyQuotes:    CLI.Render.CurlyQuotes,
		HeadingIDs:     CLI.Render.HeadingIDs,
		Highlight:      CLI.Render.Highlight,
		HighlightStyle: CLI.Render.Style,
	})
	html, err := r.Render(source)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(os.Stdout, html); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to write output").Build()
	}
	return nil
}
