// Package modsh implements an interactive debugging console that navigates
// the units loaded into an evaluator as if they were directories.
//
// A line typed at the primary prompt is first split with shell quoting
// rules. If its first word names a registered command (cd, ls, pwd, ...)
// the command runs; anything else is handed to the Evaluator as code to run
// in the current unit.
package modsh

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Default prompts.
const (
	DefaultPrompt             = ">>> "
	DefaultContinuationPrompt = "... "
	defaultWidth              = 80
)

// Options configures a Console.
type Options struct {
	// Commands is the registry view of the console. Defaults to BaseCommands().
	Commands *Registry
	Loader   Loader
	Eval     Evaluator
	// Entry is the unit `cd` returns to without an argument.
	Entry   string
	Verbose bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Width reports the terminal width used by ls. Defaults to the width of
	// Stdout when it is a terminal, otherwise 80.
	Width func() int

	Prompt             string
	ContinuationPrompt string
	NoColor            bool
	Logger             *zerolog.Logger
}

// Console is one debugging session.
type Console struct {
	commands *Registry
	nav      *Navigator
	eval     Evaluator
	helper   *Helper

	in     *bufio.Reader
	stdout io.Writer
	stderr io.Writer
	width  func() int

	verbose    bool
	prompt     string
	contPrompt string
	errColor   *color.Color
	log        zerolog.Logger

	// pending holds the lines of an incomplete evaluation.
	pending []string
}

// NewConsole creates a console. The session starts with Start or Run.
func NewConsole(opts Options) (*Console, error) {
	if opts.Loader == nil {
		return nil, errors.New("modsh: a Loader is required")
	}
	if opts.Eval == nil {
		return nil, errors.New("modsh: an Evaluator is required")
	}
	if opts.Commands == nil {
		opts.Commands = BaseCommands()
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Width == nil {
		opts.Width = terminalWidth(opts.Stdout)
	}
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}
	if opts.ContinuationPrompt == "" {
		opts.ContinuationPrompt = DefaultContinuationPrompt
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	c := &Console{
		commands:   opts.Commands,
		eval:       opts.Eval,
		in:         bufio.NewReader(opts.Stdin),
		stdout:     opts.Stdout,
		stderr:     opts.Stderr,
		width:      opts.Width,
		verbose:    opts.Verbose,
		prompt:     opts.Prompt,
		contPrompt: opts.ContinuationPrompt,
		errColor:   color.New(color.FgRed, color.Bold),
		log:        log,
	}
	if opts.NoColor {
		c.errColor.DisableColor()
	}
	c.helper = &Helper{console: c}
	c.nav = NewNavigator(opts.Loader, opts.Entry, c.helper)
	return c, nil
}

// Commands returns the console's registry view.
func (c *Console) Commands() *Registry { return c.commands }

// Navigator returns the console's navigation state.
func (c *Console) Navigator() *Navigator { return c.nav }

// Helper returns the value bound as "help".
func (c *Console) Helper() *Helper { return c.helper }

// Verbose reports whether commands explain what they do.
func (c *Console) Verbose() bool { return c.verbose }

// Stdout is where commands write normal output.
func (c *Console) Stdout() io.Writer { return c.stdout }

// Stderr is where diagnostics go.
func (c *Console) Stderr() io.Writer { return c.stderr }

// Width returns the current terminal width.
func (c *Console) Width() int { return c.width() }

// Logger returns the console's logger.
func (c *Console) Logger() *zerolog.Logger { return &c.log }

// SetIO replaces the console's streams.
func (c *Console) SetIO(stdin io.Reader, stdout, stderr io.Writer) {
	if stdin != nil {
		c.in = bufio.NewReader(stdin)
	}
	c.stdout = stdout
	c.stderr = stderr
}

// Location returns the canonical name of the current unit.
func (c *Console) Location() string { return c.nav.Name() }

// Pending reports whether the console waits for continuation lines.
func (c *Console) Pending() bool { return len(c.pending) > 0 }

func terminalWidth(w io.Writer) func() int {
	return func() int {
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
				return width
			}
		}
		return defaultWidth
	}
}
