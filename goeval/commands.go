package goeval

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/telnet2/go-practice/modsh"
)

// Commands returns the command set of a console backed by in: the base
// commands plus units.
func Commands(in *Interpreter) *modsh.Registry {
	return modsh.BaseCommands().Derive().MustRegister(
		modsh.NewCommand("units").
			Optional("pattern").
			Doc(`List the units that can be loaded.

With a pattern, only the units matching it are listed. Patterns are globs
where "*" stays within one path element and "**" crosses them, so
"encoding/*" lists encoding/json and its siblings.`).
			Handle(func(ctx context.Context, c *modsh.Console, args []string) error {
				return in.listUnits(c, args)
			}),
	)
}

func (in *Interpreter) listUnits(c *modsh.Console, args []string) error {
	pattern := ""
	if len(args) > 0 {
		pattern = args[0]
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid pattern %q", pattern)
		}
	}

	var names []string
	for _, name := range in.Known() {
		if pattern != "" {
			if ok, _ := doublestar.Match(pattern, name); !ok {
				continue
			}
		}
		names = append(names, name)
	}

	if c.Verbose() {
		if pattern == "" {
			fmt.Fprintln(c.Stdout(), "Listing all the units that can be loaded")
		} else {
			fmt.Fprintf(c.Stdout(), "Listing the units matching %s\n", pattern)
		}
	}
	modsh.ListNames(c.Stdout(), names, c.Width())
	return nil
}
