package goeval

import (
	"context"
	"errors"
	"fmt"
	"go/scanner"
	"io"
	"os"
	"path"
	"reflect"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/telnet2/go-practice/modsh"
)

// MainUnit is the name of the interpreter's own package.
const MainUnit = "main"

// Options configures an Interpreter.
type Options struct {
	// GoPath is the root of the source units (GoPath/src/<import path>).
	// Defaults to $GOPATH.
	GoPath string
	// Fs is used to discover source units. Defaults to the OS filesystem.
	Fs afero.Fs

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Logger *zerolog.Logger
}

// Interpreter is a yaegi interpreter seen as a modsh.Loader and a
// modsh.Evaluator. It is not safe for concurrent use.
type Interpreter struct {
	i      *interp.Interpreter
	gopath string
	fs     afero.Fs
	log    zerolog.Logger
	watch  *sourceWatcher

	compiled map[string]map[string]reflect.Value
	pkgNames map[string]string // compiled import path => package name
	sources  map[string]string // import path => directory
	units    map[string]*Unit
	imported map[string]bool
}

var (
	_ modsh.Loader    = (*Interpreter)(nil)
	_ modsh.Evaluator = (*Interpreter)(nil)
)

// New creates an interpreter with the standard library available and
// discovers the source units below GoPath.
func New(opts Options) (*Interpreter, error) {
	if opts.GoPath == "" {
		opts.GoPath = os.Getenv("GOPATH")
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
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
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	i := interp.New(interp.Options{
		GoPath:               opts.GoPath,
		SourcecodeFilesystem: newSourceFS(opts.Fs),
		Stdin:                opts.Stdin,
		Stdout:               opts.Stdout,
		Stderr:               opts.Stderr,
	})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib symbols: %w", err)
	}

	sources, err := discoverSources(opts.Fs, opts.GoPath)
	if err != nil {
		return nil, fmt.Errorf("discover source units: %w", err)
	}

	compiled, pkgNames := compiledPackages()
	in := &Interpreter{
		i:        i,
		gopath:   opts.GoPath,
		fs:       opts.Fs,
		log:      log,
		compiled: compiled,
		pkgNames: pkgNames,
		sources:  sources,
		units:    make(map[string]*Unit),
		imported: make(map[string]bool),
	}
	in.log.Debug().
		Int("compiled", len(in.compiled)).
		Int("sources", len(in.sources)).
		Str("gopath", opts.GoPath).
		Msg("interpreter ready")
	return in, nil
}

// compiledPackages groups the stdlib symbol table by import path. Keys of
// stdlib.Symbols are "<import path>/<package name>".
func compiledPackages() (map[string]map[string]reflect.Value, map[string]string) {
	pkgs := make(map[string]map[string]reflect.Value)
	names := make(map[string]string)
	for key, syms := range stdlib.Symbols {
		importPath := path.Dir(key)
		names[importPath] = path.Base(key)
		if pkgs[importPath] == nil {
			pkgs[importPath] = make(map[string]reflect.Value)
		}
		for name, v := range syms {
			pkgs[importPath][name] = v
		}
	}
	return pkgs, names
}

// packageName returns the identifier a unit is imported under.
func (in *Interpreter) packageName(importPath string) string {
	if name, ok := in.pkgNames[importPath]; ok {
		return name
	}
	return path.Base(importPath)
}

// Known lists every unit name that Load accepts, sorted.
func (in *Interpreter) Known() []string {
	in.refresh()
	names := make([]string, 0, len(in.compiled)+len(in.sources)+1)
	names = append(names, MainUnit)
	for name := range in.compiled {
		names = append(names, name)
	}
	for name := range in.sources {
		if _, dup := in.compiled[name]; !dup {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (in *Interpreter) known(name string) bool {
	in.refresh()
	if name == MainUnit {
		return true
	}
	if _, ok := in.compiled[name]; ok {
		return true
	}
	_, ok := in.sources[name]
	return ok
}

// Resolve implements modsh.Loader.
func (in *Interpreter) Resolve(name, relativeTo string) (string, error) {
	switch {
	case strings.HasPrefix(name, "/"):
		resolved := strings.TrimPrefix(path.Clean(name), "/")
		if resolved == "" {
			return "", fmt.Errorf("%q does not name a unit", name)
		}
		return resolved, nil
	case name == "." || name == ".." || strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../"):
		base := relativeTo
		if base == MainUnit {
			base = ""
		}
		joined := path.Join(base, name)
		if joined == "." && base == "" {
			return MainUnit, nil
		}
		if joined == "." || joined == ".." || strings.HasPrefix(joined, "../") {
			return "", fmt.Errorf("%q goes above the top level", name)
		}
		return joined, nil
	}

	name = path.Clean(name)
	if relativeTo != "" && relativeTo != MainUnit {
		if nested := relativeTo + "/" + name; in.known(nested) {
			return nested, nil
		}
	}
	return name, nil
}

// Load implements modsh.Loader. Source units are imported into the
// interpreter, so a package that does not compile cannot be loaded.
func (in *Interpreter) Load(ctx context.Context, name string) (modsh.Unit, error) {
	if u, ok := in.units[name]; ok {
		return u, nil
	}
	in.refresh()

	var u *Unit
	switch {
	case name == MainUnit:
		u = newUnit(in, name, kindInterpreter, "")
	case in.compiled[name] != nil:
		u = newUnit(in, name, kindCompiled, "")
	case in.sources[name] != "":
		if err := in.importPackage(ctx, name); err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		u = newUnit(in, name, kindSource, in.sources[name])
	default:
		return nil, &modsh.NavigationError{
			Name:        name,
			Err:         modsh.ErrNotFound,
			Suggestions: in.suggest(name),
		}
	}

	in.units[name] = u
	in.log.Debug().Str("unit", name).Str("kind", u.kind.String()).Msg("unit loaded")
	return u, nil
}

// importPackage imports path into the main package once.
func (in *Interpreter) importPackage(ctx context.Context, importPath string) error {
	if in.imported[importPath] {
		return nil
	}
	if _, err := in.i.EvalWithContext(ctx, fmt.Sprintf("import %q", importPath)); err != nil {
		return err
	}
	in.imported[importPath] = true
	return nil
}

// symbols returns the exported symbols the interpreter knows for
// importPath.
func (in *Interpreter) symbols(importPath string) map[string]reflect.Value {
	merged := make(map[string]reflect.Value)
	for _, syms := range in.i.Symbols(importPath) {
		for name, v := range syms {
			merged[name] = v
		}
	}
	return merged
}

// suggest returns up to three known names close to name.
func (in *Interpreter) suggest(name string) []string {
	type candidate struct {
		name string
		dist int
	}
	limit := len(name)/3 + 1
	var found []candidate
	for _, known := range in.Known() {
		d := levenshtein.ComputeDistance(name, known)
		if d2 := levenshtein.ComputeDistance(name, path.Base(known)); d2 < d {
			d = d2
		}
		if d <= limit {
			found = append(found, candidate{known, d})
		}
	}
	sort.SliceStable(found, func(a, b int) bool {
		if found[a].dist != found[b].dist {
			return found[a].dist < found[b].dist
		}
		return found[a].name < found[b].name
	})

	var out []string
	for i := 0; i < len(found) && i < 3; i++ {
		out = append(out, found[i].name)
	}
	return out
}

// isIncomplete reports whether err only says that the source ended early.
// These are the messages the yaegi REPL itself waits on.
func isIncomplete(err error) bool {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		return incompleteMessage(list[0].Msg)
	}
	msg := err.Error()
	return strings.HasSuffix(msg, "found 'EOF'") || strings.HasSuffix(msg, "raw string literal not terminated")
}

func incompleteMessage(msg string) bool {
	return strings.HasSuffix(msg, "found 'EOF'") || msg == "raw string literal not terminated"
}
