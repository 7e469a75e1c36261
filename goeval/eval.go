package goeval

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strings"

	"github.com/telnet2/go-practice/modsh"
)

// Eval implements modsh.Evaluator.
func (in *Interpreter) Eval(ctx context.Context, u modsh.Unit, code string) (any, error) {
	src := strings.TrimSpace(code)
	if src == "" {
		return nil, nil
	}

	if expr, err := parser.ParseExpr(src); err == nil && u != nil {
		if v, handled, err := in.evalBinding(ctx, u, src, expr); handled {
			return v, err
		}
	}

	if unit, ok := u.(*Unit); ok && unit.kind != kindInterpreter {
		if err := in.importPackage(ctx, unit.name); err != nil {
			in.log.Debug().Err(err).Str("unit", unit.name).Msg("import of current unit failed")
		} else {
			code = in.qualify(unit, code)
		}
	}

	res, err := in.i.EvalWithContext(ctx, code)
	if err != nil {
		if isIncomplete(err) {
			return nil, fmt.Errorf("%w: %v", modsh.ErrIncomplete, err)
		}
		return nil, err
	}
	return interfaceOf(res), nil
}

// evalBinding handles expressions that name a unit binding: a bare name
// evaluates to the binding, and a call of a modsh.Callable binding is made
// with arguments evaluated by the interpreter.
func (in *Interpreter) evalBinding(ctx context.Context, u modsh.Unit, src string, expr ast.Expr) (any, bool, error) {
	switch e := expr.(type) {
	case *ast.Ident:
		v, ok := u.Lookup(e.Name)
		return v, ok, nil

	case *ast.CallExpr:
		fn, ok := e.Fun.(*ast.Ident)
		if !ok || e.Ellipsis.IsValid() {
			return nil, false, nil
		}
		v, ok := u.Lookup(fn.Name)
		if !ok {
			return nil, false, nil
		}
		callable, ok := v.(modsh.Callable)
		if !ok {
			return nil, false, nil
		}

		args := make([]any, 0, len(e.Args))
		for _, arg := range e.Args {
			// Positions are 1-based offsets into src.
			argSrc := src[arg.Pos()-1 : arg.End()-1]
			val, err := in.evalArg(ctx, u, argSrc)
			if err != nil {
				return nil, true, err
			}
			args = append(args, val)
		}
		return nil, true, callable.Call(ctx, args)
	}
	return nil, false, nil
}

// evalArg evaluates one argument of a binding call. A unit name that is not
// a value, such as a package identifier, is passed as its name.
func (in *Interpreter) evalArg(ctx context.Context, u modsh.Unit, src string) (any, error) {
	if ident, err := parser.ParseExpr(src); err == nil {
		if id, ok := ident.(*ast.Ident); ok {
			if v, ok := u.Lookup(id.Name); ok {
				return v, nil
			}
		}
	}

	v, err := in.Eval(ctx, u, src)
	if err == nil {
		return v, nil
	}
	if name, rerr := in.Resolve(src, u.Name()); rerr == nil && in.known(name) {
		return name, nil
	}
	return nil, err
}

// qualify makes the exports of u usable unqualified: free identifiers of
// code that u exports are prefixed with its package name. Names declared in
// the snippet or as globals of main are left alone.
func (in *Interpreter) qualify(u *Unit, code string) string {
	exports := u.symbols()
	if len(exports) == 0 {
		return code
	}
	globals := in.i.Globals()
	return qualifyIdents(code, in.packageName(u.name), func(name string) bool {
		if _, ok := exports[name]; !ok {
			return false
		}
		_, shadowed := globals[name]
		return !shadowed
	})
}

const snippetPrefix = "package p; func _() {\n"

// qualifyIdents rewrites the unresolved exported identifiers of code for
// which want returns true into pkg.Name. Code that does not parse as a
// function body is returned unchanged.
func qualifyIdents(code, pkg string, want func(name string) bool) string {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "", snippetPrefix+code+"\n}", 0)
	if err != nil {
		return code
	}

	var offsets []int
	for _, id := range f.Unresolved {
		if id.IsExported() && want(id.Name) {
			offsets = append(offsets, fset.Position(id.Pos()).Offset-len(snippetPrefix))
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(offsets)))
	for _, off := range offsets {
		code = code[:off] + pkg + "." + code[off:]
	}
	return code
}
