package modsh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"
)

// Start prints the banner and changes to the initial unit (the entry unit
// when initial is empty). The session cannot start without a current unit,
// so a failure here is returned.
func (c *Console) Start(ctx context.Context, initial string) error {
	if initial == "" {
		initial = c.nav.Entry()
	}
	fmt.Fprintf(c.stdout, "Starting a debugging session in unit %q on Go %s\n",
		initial, strings.TrimPrefix(runtime.Version(), "go"))
	fmt.Fprintln(c.stdout, "Type 'help' for more info.")

	if err := c.RunCommand(ctx, "cd", []string{initial}); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	c.log.Debug().Str("unit", c.nav.Name()).Msg("session started")
	return nil
}

// Run starts the session and reads lines until end of input or until ctx is
// cancelled. Command faults never end the session.
func (c *Console) Run(ctx context.Context, initial string) error {
	if err := c.Start(ctx, initial); err != nil {
		return err
	}
	for ctx.Err() == nil {
		line, err := c.readLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return fmt.Errorf("read input: %w", err)
			}
			fmt.Fprintln(c.stdout)
			break
		}
		c.Feed(ctx, line)
	}
	c.Close()
	return nil
}

// Close ends the session: the helper binding is removed from the current
// unit.
func (c *Console) Close() {
	fmt.Fprintln(c.stdout, "Exiting the debugging session.")
	c.nav.RemoveHelper()
	c.log.Debug().Str("unit", c.nav.Name()).Msg("session closed")
}

// Feed processes one input line and reports whether the console now waits
// for continuation lines.
func (c *Console) Feed(ctx context.Context, line string) bool {
	if len(c.pending) > 0 {
		// Continuation lines are code, never commands.
		if strings.TrimSpace(line) == "" {
			src := strings.Join(c.pending, "\n")
			c.pending = nil
			return c.evaluate(ctx, src, true)
		}
		c.pending = append(c.pending, line)
		return c.evaluate(ctx, strings.Join(c.pending, "\n"), false)
	}

	if strings.TrimSpace(line) == "" {
		return false
	}

	d := Decide(c.commands, line)
	if d.Kind == KindPassthrough {
		c.log.Debug().AnErr("reason", d.Reason).Msg("passthrough")
		return c.evaluate(ctx, line, false)
	}

	c.log.Debug().Str("command", d.Name).Strs("args", d.Args).Msg("dispatch")
	if err := c.RunCommand(ctx, d.Name, d.Args); err != nil {
		var arity *ArityError
		if !errors.As(err, &arity) {
			c.reportFault(d.Name, err)
		}
	}
	return false
}

// RunCommand validates args and runs the named command. An arity problem
// is printed here, before the *ArityError is returned. Panics inside the
// handler are returned as *HandlerFault.
func (c *Console) RunCommand(ctx context.Context, name string, args []string) error {
	d, ok := c.commands.Lookup(name)
	if !ok {
		return &UnknownCommandError{Name: name}
	}
	if err := Validate(d, args); err != nil {
		var arity *ArityError
		if errors.As(err, &arity) {
			fmt.Fprintln(c.stderr, arity.Error())
			fmt.Fprintln(c.stderr, arity.Usage)
		}
		return err
	}
	return c.invoke(ctx, d, args)
}

func (c *Console) invoke(ctx context.Context, d *Descriptor, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerFault{Command: d.Name, Value: r, Stack: debug.Stack()}
		}
	}()
	return d.Handler(ctx, c, args)
}

func (c *Console) reportFault(name string, err error) {
	c.log.Error().Err(err).Str("command", name).Msg("command failed")
	c.errColor.Fprintf(c.stderr, "An error occurred while running %s!\n", name)

	var fault *HandlerFault
	if errors.As(err, &fault) {
		fmt.Fprintf(c.stderr, "%v\n%s", fault, fault.Stack)
		return
	}
	fmt.Fprintf(c.stderr, "%T: %v\n", err, err)
}

// evaluate hands src to the evaluator. Without flush, an incomplete result
// keeps src pending.
func (c *Console) evaluate(ctx context.Context, src string, flush bool) (more bool) {
	defer func() {
		if r := recover(); r != nil {
			c.pending = nil
			more = false
			c.log.Error().Interface("panic", r).Msg("evaluator panicked")
			fmt.Fprintf(c.stderr, "panic: %v\n%s", r, debug.Stack())
		}
	}()

	res, err := c.eval.Eval(ctx, c.nav.Unit(), src)
	if errors.Is(err, ErrIncomplete) && !flush {
		c.pending = strings.Split(src, "\n")
		return true
	}
	c.pending = nil
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return false
	}
	if res != nil {
		fmt.Fprintln(c.stdout, res)
	}
	return false
}

func (c *Console) readLine() (string, error) {
	prompt := c.prompt
	if len(c.pending) > 0 {
		prompt = c.contPrompt
	}
	fmt.Fprint(c.stdout, prompt)

	line, err := c.in.ReadString('\n')
	if err != nil {
		if line == "" {
			return "", err
		}
		// Last line without a trailing newline.
		return strings.TrimRight(line, "\r\n"), nil
	}
	return strings.TrimRight(line, "\r\n"), nil
}
