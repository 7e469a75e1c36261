package goeval

import "github.com/telnet2/go-practice/modsh"

// NewConsole creates a console that loads units from in, evaluates code
// with it and offers the units command. Fields of opts left empty get
// in-based defaults; the entry unit defaults to main.
func NewConsole(in *Interpreter, opts modsh.Options) (*modsh.Console, error) {
	if opts.Commands == nil {
		opts.Commands = Commands(in)
	}
	if opts.Loader == nil {
		opts.Loader = in
	}
	if opts.Eval == nil {
		opts.Eval = in
	}
	if opts.Entry == "" {
		opts.Entry = MainUnit
	}
	return modsh.NewConsole(opts)
}
