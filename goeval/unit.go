package goeval

import (
	"fmt"
	"reflect"
	"sort"
)

type unitKind int

const (
	kindCompiled unitKind = iota
	kindSource
	kindInterpreter
)

func (k unitKind) String() string {
	switch k {
	case kindCompiled:
		return "compiled"
	case kindSource:
		return "source"
	case kindInterpreter:
		return "interpreter"
	default:
		return "unknown"
	}
}

// Unit is a package known to the interpreter. Console bindings live in an
// overlay that shadows the package's own symbols.
type Unit struct {
	in      *Interpreter
	name    string
	kind    unitKind
	dir     string
	overlay map[string]any
}

func newUnit(in *Interpreter, name string, kind unitKind, dir string) *Unit {
	return &Unit{in: in, name: name, kind: kind, dir: dir, overlay: make(map[string]any)}
}

// Name returns the unit's import path.
func (u *Unit) Name() string { return u.name }

// Dir returns the source directory of a source unit.
func (u *Unit) Dir() string { return u.dir }

func (u *Unit) symbols() map[string]reflect.Value {
	switch u.kind {
	case kindCompiled:
		return u.in.compiled[u.name]
	case kindInterpreter:
		// The session's own variables and constants, exported or not.
		return u.in.i.Globals()
	default:
		return u.in.symbols(u.name)
	}
}

// Names returns the visible symbols and the console bindings. For main
// these are the globals declared during the session.
func (u *Unit) Names() []string {
	syms := u.symbols()
	names := make([]string, 0, len(syms)+len(u.overlay))
	for name := range syms {
		if _, shadowed := u.overlay[name]; !shadowed {
			names = append(names, name)
		}
	}
	for name := range u.overlay {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a console binding or an exported symbol.
func (u *Unit) Lookup(name string) (any, bool) {
	if v, ok := u.overlay[name]; ok {
		return v, true
	}
	v, ok := u.symbols()[name]
	if !ok {
		return nil, false
	}
	return interfaceOf(v), true
}

// Bind adds a console binding.
func (u *Unit) Bind(name string, v any) { u.overlay[name] = v }

// Unbind removes a console binding.
func (u *Unit) Unbind(name string) { delete(u.overlay, name) }

func (u *Unit) String() string {
	switch u.kind {
	case kindSource:
		return fmt.Sprintf("<package %q from %q>", u.name, u.dir)
	case kindInterpreter:
		return fmt.Sprintf("<package %q (interpreter)>", u.name)
	default:
		return fmt.Sprintf("<package %q (compiled)>", u.name)
	}
}

// interfaceOf unwraps a reflect.Value coming from the interpreter.
func interfaceOf(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}
