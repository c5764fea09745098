// Command custom is sfcmod with a project's own transformations registered
// next to the built-in ones
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/livebud/sfcmod"
)

// removeConsole drops console.log statements from scripts
func removeConsole(file sfcmod.FileInfo, api *sfcmod.Script, params sfcmod.Params) (string, error) {
	for _, stmt := range api.Statements() {
		if strings.HasPrefix(stmt.Text, "console.log(") {
			api.Remove(stmt.LeadingStart, stmt.End)
		}
	}
	if !api.Changed() {
		return "", nil
	}
	return api.String()
}

// darkBackground swaps white backgrounds for the dark theme color
func darkBackground(file sfcmod.FileInfo, ctx *sfcmod.Stylesheet, params sfcmod.Params) (string, error) {
	ctx.Root.WalkDecls("background", func(decl *sfcmod.Decl) {
		if decl.Value == "white" {
			decl.Value = "#111111"
		}
	})
	return "", nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := sfcmod.Register("remove-console", "Removes console.log statements", sfcmod.ScriptFunc(removeConsole)); err != nil {
		return err
	}
	if err := sfcmod.Register("dark-background", "Swaps white backgrounds for #111111", &sfcmod.Transformation{Style: darkBackground}); err != nil {
		return err
	}
	return sfcmod.Main(ctx, os.Args[1:]...)
}
