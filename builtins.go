package modsh

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// BaseCommands returns a new registry holding cd, ls and pwd. Consoles that
// add commands derive from it.
func BaseCommands() *Registry {
	return NewRegistry().MustRegister(
		NewCommand("cd").
			Optional("target").
			Doc(`Change the current unit.

The new unit is loaded, and its name can be relative to the old unit.
Without an argument, go to the entry unit.`).
			Handle(cmdCd),
		NewCommand("ls").
			Doc(`Print a list of the names in the current unit.

The names are sorted and printed in as many columns as fit the terminal.`).
			Handle(cmdLs),
		NewCommand("pwd").
			Doc("Print the name of the current unit.").
			Handle(cmdPwd),
	)
}

// cmdCd implements the cd command
func cmdCd(ctx context.Context, c *Console, args []string) error {
	target := c.nav.Entry()
	if len(args) > 0 {
		target = args[0]
	}
	if c.verbose {
		fmt.Fprintln(c.stdout, "Loading", target, "and changing the current unit to it")
	}
	return c.nav.ChangeTo(ctx, target)
}

// cmdLs implements the ls command
func cmdLs(ctx context.Context, c *Console, args []string) error {
	if c.verbose {
		fmt.Fprintln(c.stdout, "Listing the names in", c.nav.Name())
	}
	names := append([]string(nil), c.nav.Unit().Names()...)
	sort.Strings(names)
	ListNames(c.stdout, names, c.Width())
	return nil
}

// cmdPwd implements the pwd command
func cmdPwd(ctx context.Context, c *Console, args []string) error {
	if c.verbose {
		fmt.Fprint(c.stdout, "You are currently in ")
	}
	fmt.Fprintln(c.stdout, DisplayName(c.nav.Unit()))
	return nil
}

// DisplayName returns a unit's representation without its angle brackets.
func DisplayName(u Unit) string {
	s := u.String()
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") && len(s) >= 2 {
		s = s[1 : len(s)-1]
	}
	return s
}
