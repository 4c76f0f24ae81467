package main

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"slices"

	ucli "github.com/urfave/cli/v2"

	"github.com/toyz/docnote/internal/cli"
	"github.com/toyz/docnote/internal/diagnostics"
	"github.com/toyz/docnote/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		stop()
		os.Exit(1)
	}
}

func newApp() *ucli.App {
	return &ucli.App{
		Name:            "docnote",
		Usage:           "Read docblock annotations from Go source comments",
		ArgsUsage:       "[package patterns...]",
		HideHelpCommand: true,
		Description: "Loads Go packages, parses @name value annotations from the doc comments of\n" +
			"types, struct fields and methods, and prints them as a table or JSON.\n\n" +
			"Examples:\n" +
			"   docnote ./...                              # every annotated target\n" +
			"   docnote --target models:User ./...         # one type\n" +
			"   docnote --target ./models:User.Save() .    # one method\n" +
			"   docnote --rule port=int --format json ./... # coerce @port to an integer",
		Flags: []ucli.Flag{
			&ucli.StringFlag{
				Name:  "dir",
				Usage: "directory package patterns are resolved in",
				Value: ".",
			},
			&ucli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "output format: table or json",
				Value:   cli.FormatTable,
			},
			&ucli.StringSliceFlag{
				Name:  "rule",
				Usage: "coerce an annotation to a kind, as name=kind (repeatable)",
			},
			&ucli.StringSliceFlag{
				Name:  "target",
				Usage: "only read [pkg:]Type[.Member] (repeatable)",
			},
			&ucli.StringFlag{
				Name:    "cache-dir",
				Usage:   "persist parsed comments in this directory",
				EnvVars: []string{"DOCNOTE_CACHE_DIR"},
			},
			&ucli.StringFlag{
				Name:  "config",
				Usage: "YAML configuration file; flags override its values",
			},
			&ucli.BoolFlag{
				Name:  "tests",
				Usage: "also read _test.go files",
			},
			&ucli.BoolFlag{
				Name:  "verbose",
				Usage: "show progress and a summary",
			},
			&ucli.BoolFlag{
				Name:  "debug",
				Usage: "also trace cache lookups, implies --verbose",
			},
			&ucli.BoolFlag{
				Name:  "no-color",
				Usage: "disable colored diagnostics",
			},
			&ucli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "only show errors",
			},
		},
		Action: run,
	}
}

func run(c *ucli.Context) error {
	diag := diagnostics.New(diagnostics.LevelFor(c.Bool("verbose"), c.Bool("debug"), c.Bool("quiet"))).
		WithWriters(c.App.Writer, c.App.ErrWriter)
	if c.Bool("no-color") {
		diag.WithColors(false)
	}

	cfg, err := configFromContext(c)
	if err != nil {
		report(diag, err)
		return err
	}

	runner := cli.NewRunner(cfg, diag)
	if err := runner.Run(c.Context); err != nil {
		report(diag, err)
		return err
	}
	return nil
}

// configFromContext layers flags over the optional config file
func configFromContext(c *ucli.Context) (*cli.Config, error) {
	cfg := cli.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := cli.LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("dir") {
		cfg.Dir = c.String("dir")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("cache-dir") {
		cfg.CacheDir = c.String("cache-dir")
	}
	if c.IsSet("tests") {
		cfg.Tests = c.Bool("tests")
	}
	if c.IsSet("target") {
		cfg.Targets = c.StringSlice("target")
	}
	if c.NArg() > 0 {
		cfg.Patterns = c.Args().Slice()
	}
	if err := cfg.AddRules(c.StringSlice("rule")); err != nil {
		return nil, err
	}

	cfg.Verbose = c.Bool("verbose")
	cfg.Quiet = c.Bool("quiet")
	return cfg, nil
}

// report prints err and any hints attached to it
func report(diag *diagnostics.System, err error) {
	var multi *errors.MultipleErrors
	if stderrors.As(err, &multi) {
		diag.Error("%d problems found", len(multi.Errors))
		diag.Indent()
		for _, e := range multi.Errors {
			diag.Error("%v", e)
			diag.Hints(e.Suggestions())
			reportContext(diag, e)
		}
		diag.Unindent()
		return
	}

	diag.Error("%v", err)
	var docErr errors.DocnoteError
	if stderrors.As(err, &docErr) {
		diag.Hints(docErr.Suggestions())
		reportContext(diag, docErr)
	}
}

// reportContext traces the context data of err in verbose mode
func reportContext(diag *diagnostics.System, err errors.DocnoteError) {
	data := err.Context()
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	diag.Indent()
	for _, key := range keys {
		diag.Verbose("%s: %v", key, data[key])
	}
	diag.Unindent()
}
