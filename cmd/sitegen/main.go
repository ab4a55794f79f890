package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

var version = "dev"

// Global is shared with every command's Run method.
type Global struct {
	Logger *slog.Logger
}

type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitegen.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Generate GenerateCmd `cmd:"" help:"Generate every environment, or one with --env"`
	Watch    WatchCmd    `cmd:"" help:"Generate, then regenerate whenever content or templates change"`
	Serve    ServeCmd    `cmd:"" help:"Run the admin server and the watcher"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("sitegen"),
		kong.Description("Static site generator for multi-language blogs."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	err := kctx.Run(&Global{Logger: slog.Default()}, &cli)
	kctx.FatalIfErrorf(err)
}
