package modsh

import (
	"context"
	"io"
)

// Unit is a loaded, named collection of bindings.
type Unit interface {
	// Name returns the canonical name that produced the unit.
	Name() string
	// Names lists the names visible in the unit, including console bindings.
	Names() []string
	// Lookup finds a visible name.
	Lookup(name string) (any, bool)
	// Bind adds a console-owned binding to the unit's namespace.
	Bind(name string, v any)
	// Unbind removes a console-owned binding.
	Unbind(name string)
	// String returns the unit's representation, usually in angle brackets.
	String() string
}

// Loader resolves and loads units.
type Loader interface {
	// Resolve turns a possibly relative name into a canonical one.
	Resolve(name, relativeTo string) (string, error)
	// Load returns the unit for a canonical name. Missing units are
	// reported with an error wrapping ErrNotFound.
	Load(ctx context.Context, name string) (Unit, error)
}

// Evaluator runs code that is not a console command.
type Evaluator interface {
	// Eval evaluates code in the context of u. It returns an error wrapping
	// ErrIncomplete when code needs more lines.
	Eval(ctx context.Context, u Unit, code string) (any, error)
	// Document writes help about an arbitrary value.
	Document(ctx context.Context, w io.Writer, v any) error
}

// Callable is implemented by console bindings that evaluated code can call.
type Callable interface {
	Call(ctx context.Context, args []any) error
}
