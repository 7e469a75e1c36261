package modsh

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

const wrapWidth = 70

var summaryParagraphs = []string{
	"This is a special Go prompt for debugging programs that consist of several packages.",
	"Using this prompt is easy. You can enter any Go code to run it. It runs in the " +
		"current unit, which is a lot like the current working directory of a shell " +
		"or a command prompt.",
}

// wprint wraps a paragraph and prints it followed by a blank line.
func wprint(w io.Writer, s string) {
	fmt.Fprintf(w, "%s\n\n", wordwrap.String(s, wrapWidth))
}

// ListCommands prints one line per command: the name alone when the
// command is undocumented, otherwise the name and its summary.
func ListCommands(w io.Writer, reg *Registry) {
	for _, d := range reg.All() {
		summary := d.Summary()
		if summary == "" {
			fmt.Fprintln(w, d.Name)
			continue
		}
		fmt.Fprintf(w, "  %-10s  %s\n", d.Name, summary)
	}
}

// ListNames prints names in as many columns as fit in width. Names are
// laid out column by column; with fewer than two columns each name gets its
// own line.
func ListNames(w io.Writer, names []string, width int) {
	if len(names) == 0 {
		return
	}
	maxLen := 0
	for _, n := range names {
		if len(n) > maxLen {
			maxLen = len(n)
		}
	}

	columns := width / (maxLen + 2)
	if columns < 2 {
		for _, n := range names {
			fmt.Fprintln(w, n)
		}
		return
	}

	rows := (len(names) + columns - 1) / columns
	for y := 0; y < rows; y++ {
		var cells []string
		for i := y; i < len(names); i += rows {
			cells = append(cells, fmt.Sprintf("%-*s", maxLen, names[i]))
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

// Helper is the value bound as "help" inside the current unit.
type Helper struct {
	console *Console
}

// String is what evaluating a bare "help" shows.
func (h *Helper) String() string {
	return wordwrap.String("Type help() for help about this debugging console or "+
		"help(something) to use the evaluator's documentation.", wrapWidth)
}

// Call prints the console summary without arguments, or the evaluator's
// documentation for its single argument.
func (h *Helper) Call(ctx context.Context, args []any) error {
	switch len(args) {
	case 0:
		h.console.Summary()
		return nil
	case 1:
		return h.console.Detail(ctx, args[0])
	default:
		return fmt.Errorf("help takes at most one argument (%d given)", len(args))
	}
}

// Summary prints general help and the command list.
func (c *Console) Summary() {
	for _, p := range summaryParagraphs {
		wprint(c.stdout, p)
	}
	fmt.Fprintln(c.stdout, "Here is a list of the special commands:")
	ListCommands(c.stdout, c.commands)
}

// Detail prints the evaluator's documentation for v.
func (c *Console) Detail(ctx context.Context, v any) error {
	return c.eval.Document(ctx, c.stdout, v)
}
