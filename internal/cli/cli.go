// Package cli is the sfcmod command line. It runs transformations over files,
// lists what can be run and serves the playground.
package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/livebud/cli"
	"github.com/livebud/sfcmod/internal/cli/graceful"
	"github.com/livebud/sfcmod/internal/config"
	"github.com/livebud/sfcmod/internal/playground"
	"github.com/livebud/sfcmod/internal/preset"
	"github.com/livebud/sfcmod/internal/registry"
	"github.com/rs/zerolog"
)

// Default CLI writing to the standard streams
func Default() *CLI {
	return &CLI{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Dir:    ".",
	}
}

// CLI for sfcmod
type CLI struct {
	Stdout io.Writer
	Stderr io.Writer
	Dir    string
	// Registry of transformations. Defaults to the built-in presets.
	Registry *registry.Registry

	logLevel string
}

func (c *CLI) logger() (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if c.logLevel != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(c.logLevel))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("cli: invalid log level %q", c.logLevel)
		}
		level = parsed
	}
	writer := zerolog.ConsoleWriter{Out: c.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger(), nil
}

func (c *CLI) registry(log zerolog.Logger) (*registry.Registry, error) {
	if c.Registry != nil {
		return c.Registry, nil
	}
	r := registry.New(log)
	if err := preset.Register(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Parse the arguments and run the command
func (c *CLI) Parse(ctx context.Context, args ...string) error {
	cli := cli.New("sfcmod", "codemods for vue single-file components")

	{ // run [flags] [pattern]
		in := new(Run)
		cmd := cli.Command("run", "run a transformation over files")
		cmd.Flag("transformation", "name of the transformation").Short('t').String(&in.Transformation).Default("")
		cmd.Flag("preset", "preset from sfcmod.yaml, matched fuzzily").String(&in.Preset).Default("")
		cmd.Flag("param", "key=value param, repeatable").Strings(&in.Params).Default()
		cmd.Flag("params", "params as a yaml mapping").String(&in.ParamsFlow).Default("")
		cmd.Flag("dry", "print a diff instead of writing").Bool(&in.Dry).Default(false)
		cmd.Flag("concurrency", "files to transform at once").Int(&in.Concurrency).Default(0)
		cmd.Flag("watch", "rerun when files change").Bool(&in.Watch).Default(false)
		cmd.Flag("log", "log level").String(&c.logLevel).Default("info")
		cmd.Arg("pattern").String(&in.Pattern).Default("")
		cmd.Run(func(ctx context.Context) error {
			summary, err := c.run(ctx, in)
			if err != nil {
				return err
			}
			if len(summary.Errors) > 0 {
				return fmt.Errorf("cli: %d of %d files failed", len(summary.Errors), summary.Processed)
			}
			return nil
		})
	}

	{ // list
		cmd := cli.Command("list", "list transformations and presets")
		cmd.Flag("log", "log level").String(&c.logLevel).Default("info")
		cmd.Run(c.list)
	}

	{ // playground [flags] [dir]
		in := new(Playground)
		cmd := cli.Command("playground", "serve the playground api")
		cmd.Flag("listen", "address to listen on").String(&in.Listen).Default(":3000")
		cmd.Flag("log", "log level").String(&c.logLevel).Default("info")
		cmd.Arg("dir").String(&in.Dir).Default(".")
		cmd.Run(func(ctx context.Context) error {
			return c.playground(ctx, in)
		})
	}

	return cli.Parse(ctx, args...)
}

func (c *CLI) list(ctx context.Context) error {
	log, err := c.logger()
	if err != nil {
		return err
	}
	reg, err := c.registry(log)
	if err != nil {
		return err
	}
	cfg, err := config.Load(c.Dir)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.Stdout, nameStyle.Render("Transformations"))
	for _, entry := range reg.List() {
		fmt.Fprintf(c.Stdout, "  %s %s %s\n", entry.Name, mutedStyle.Render("("+strings.Join(entry.Blocks(), ", ")+")"), entry.Description)
	}
	if len(cfg.Presets) == 0 {
		return nil
	}
	fmt.Fprintln(c.Stdout, nameStyle.Render("Presets")+" "+mutedStyle.Render(cfg.Path))
	for _, preset := range cfg.Presets {
		line := "  " + preset.Name
		if preset.Name != preset.Transformation {
			line += " " + mutedStyle.Render("→ "+preset.Transformation)
		}
		if preset.Glob != "" {
			line += " " + preset.Glob
		}
		fmt.Fprintln(c.Stdout, line)
	}
	return nil
}

// Playground command
type Playground struct {
	Listen string
	Dir    string
}

func (c *CLI) playground(ctx context.Context, in *Playground) error {
	log, err := c.logger()
	if err != nil {
		return err
	}
	reg, err := c.registry(log)
	if err != nil {
		return err
	}
	cfg, err := config.Load(in.Dir)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", in.Listen)
	if err != nil {
		return fmt.Errorf("cli: unable to listen on %s: %w", in.Listen, err)
	}
	server := playground.New(log, reg, cfg, in.Dir)
	go server.Watch(ctx)
	log.Info().Msgf("Playground listening on http://%s", ln.Addr())
	return graceful.Serve(ctx, log, ln, server)
}
