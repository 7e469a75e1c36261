package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// AttachOptions configures Attach.
type AttachOptions struct {
	Prompt             string
	ContinuationPrompt string
	NoColor            bool
}

// Attach drives a remote session from in until EOF, printing what each line
// produced. The session is left running.
func Attach(ctx context.Context, c *Client, sessionID string, in io.Reader, out, errOut io.Writer, opts AttachOptions) error {
	if opts.Prompt == "" {
		opts.Prompt = ">>> "
	}
	if opts.ContinuationPrompt == "" {
		opts.ContinuationPrompt = "... "
	}
	red := color.New(color.FgRed)
	if opts.NoColor {
		red.DisableColor()
	}

	scanner := bufio.NewScanner(in)
	more := false
	for {
		if more {
			fmt.Fprint(out, opts.ContinuationPrompt)
		} else {
			fmt.Fprint(out, opts.Prompt)
		}
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		res, err := c.Execute(ctx, sessionID, strings.TrimRight(scanner.Text(), "\r"))
		if err != nil {
			return err
		}
		for _, line := range res.Output {
			fmt.Fprintln(out, line)
		}
		for _, line := range res.Errors {
			red.Fprintln(errOut, line)
		}
		more = res.More
	}
}

// PrintResult writes a result the way Attach does, without color.
func PrintResult(out, errOut io.Writer, res *ExecuteResult) {
	if res == nil {
		return
	}
	for _, line := range res.Output {
		fmt.Fprintln(out, line)
	}
	for _, line := range res.Errors {
		fmt.Fprintln(errOut, line)
	}
}
