package modsh

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is wrapped by loaders when a unit does not exist.
var ErrNotFound = errors.New("unit not found")

// ErrIncomplete is returned by an Evaluator when the code needs more lines
// before it can be evaluated.
var ErrIncomplete = errors.New("incomplete input")

// ArityError reports a wrong number of arguments for a known command.
type ArityError struct {
	Command string
	Got     int
	Missing bool
	Usage   string
}

func (e *ArityError) Error() string {
	if e.Missing {
		return fmt.Sprintf("Missing arguments for %s.", e.Command)
	}
	return fmt.Sprintf("Too many arguments for %s.", e.Command)
}

// TokenizeError reports input that cannot be split into command words.
type TokenizeError struct {
	Input string
	Err   error
}

func (e *TokenizeError) Error() string {
	return fmt.Sprintf("cannot tokenize %q: %v", e.Input, e.Err)
}

func (e *TokenizeError) Unwrap() error { return e.Err }

// UnknownCommandError reports a first word that is not a registered command.
// The loop never prints it; the line goes to the evaluator instead.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("%s: not a console command", e.Name)
}

// NavigationError reports a unit that cannot be resolved or loaded.
type NavigationError struct {
	Name        string
	Err         error
	Suggestions []string
}

func (e *NavigationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot change to %q: %v", e.Name, e.Err)
	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, " (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return b.String()
}

func (e *NavigationError) Unwrap() error { return e.Err }

// HandlerFault wraps a panic raised inside a command handler.
type HandlerFault struct {
	Command string
	Value   any
	Stack   []byte
}

func (e *HandlerFault) Error() string {
	return fmt.Sprintf("%s: panic: %v", e.Command, e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *HandlerFault) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// UnsupportedSignatureError reports a command declared with a parameter
// shape the console cannot validate.
type UnsupportedSignatureError struct {
	Command string
	Reason  string
}

func (e *UnsupportedSignatureError) Error() string {
	return fmt.Sprintf("unsupported command signature for %q: %s", e.Command, e.Reason)
}
