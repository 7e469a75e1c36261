package modsh

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"testing"
)

// fakeUnit is a unit backed by a plain map.
type fakeUnit struct {
	name     string
	bindings map[string]any
}

func newFakeUnit(name string, names ...string) *fakeUnit {
	u := &fakeUnit{name: name, bindings: map[string]any{}}
	for _, n := range names {
		u.bindings[n] = n
	}
	return u
}

func (u *fakeUnit) Name() string { return u.name }

func (u *fakeUnit) Names() []string {
	names := make([]string, 0, len(u.bindings))
	for n := range u.bindings {
		names = append(names, n)
	}
	return names
}

func (u *fakeUnit) Lookup(name string) (any, bool) {
	v, ok := u.bindings[name]
	return v, ok
}

func (u *fakeUnit) Bind(name string, v any) { u.bindings[name] = v }
func (u *fakeUnit) Unbind(name string)      { delete(u.bindings, name) }
func (u *fakeUnit) String() string          { return fmt.Sprintf("<unit %q>", u.name) }

// fakeLoader resolves names path-style: "/x" is absolute, "./x" and "../x"
// are relative, and a bare name is looked up under the current unit first.
type fakeLoader struct {
	units map[string]*fakeUnit
	fail  map[string]error
	loads []string
}

func newFakeLoader(units ...*fakeUnit) *fakeLoader {
	l := &fakeLoader{units: map[string]*fakeUnit{}, fail: map[string]error{}}
	for _, u := range units {
		l.units[u.name] = u
	}
	return l
}

func (l *fakeLoader) Resolve(name, relativeTo string) (string, error) {
	switch {
	case strings.HasPrefix(name, "/"):
		return strings.TrimPrefix(path.Clean(name), "/"), nil
	case strings.HasPrefix(name, "."):
		joined := path.Join(relativeTo, name)
		if joined == "." || strings.HasPrefix(joined, "..") {
			return "", fmt.Errorf("%q goes above the top level", name)
		}
		return joined, nil
	case relativeTo != "":
		if _, ok := l.units[relativeTo+"/"+name]; ok {
			return relativeTo + "/" + name, nil
		}
	}
	return name, nil
}

func (l *fakeLoader) Load(ctx context.Context, name string) (Unit, error) {
	l.loads = append(l.loads, name)
	if err, ok := l.fail[name]; ok {
		return nil, err
	}
	u, ok := l.units[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return u, nil
}

// fakeEvaluator records evaluated code. Code ending in "{" is incomplete;
// "help()" and "help" use the unit's help binding.
type fakeEvaluator struct {
	evaluated []string
	results   map[string]any
	errs      map[string]error
}

func newFakeEvaluator() *fakeEvaluator {
	return &fakeEvaluator{results: map[string]any{}, errs: map[string]error{}}
}

func (e *fakeEvaluator) Eval(ctx context.Context, u Unit, code string) (any, error) {
	e.evaluated = append(e.evaluated, code)
	if err, ok := e.errs[code]; ok {
		return nil, err
	}
	trimmed := strings.TrimSpace(code)
	if strings.Count(trimmed, "{") > strings.Count(trimmed, "}") {
		return nil, fmt.Errorf("line 1: %w", ErrIncomplete)
	}
	switch trimmed {
	case "help":
		v, _ := u.Lookup(HelperName)
		return v, nil
	case "help()":
		v, ok := u.Lookup(HelperName)
		if !ok {
			return nil, fmt.Errorf("undefined: help")
		}
		return nil, v.(Callable).Call(ctx, nil)
	}
	return e.results[code], nil
}

func (e *fakeEvaluator) Document(ctx context.Context, w io.Writer, v any) error {
	fmt.Fprintf(w, "doc for %v\n", v)
	return nil
}

type testConsole struct {
	*Console
	loader *fakeLoader
	eval   *fakeEvaluator
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestConsole(t *testing.T, reg *Registry, input string) *testConsole {
	t.Helper()
	loader := newFakeLoader(
		newFakeUnit("root", "alpha", "beta"),
		newFakeUnit("root/sub", "gamma"),
		newFakeUnit("other", "delta"),
	)
	eval := newFakeEvaluator()
	var stdout, stderr bytes.Buffer
	c, err := NewConsole(Options{
		Commands: reg,
		Loader:   loader,
		Eval:     eval,
		Entry:    "root",
		Stdin:    strings.NewReader(input),
		Stdout:   &stdout,
		Stderr:   &stderr,
		Width:    func() int { return 80 },
		NoColor:  true,
	})
	if err != nil {
		t.Fatalf("NewConsole() error = %v", err)
	}
	return &testConsole{Console: c, loader: loader, eval: eval, stdout: &stdout, stderr: &stderr}
}

func sortedNames(u Unit) []string {
	names := u.Names()
	sort.Strings(names)
	return names
}
