package goeval

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// discoverSources walks gopath/src and returns the import path and
// directory of every package directory (one holding a non-test .go file).
// A missing src directory yields no units.
func discoverSources(fsys afero.Fs, gopath string) (map[string]string, error) {
	found := make(map[string]string)
	if gopath == "" {
		return found, nil
	}

	root := filepath.Join(gopath, "src")
	if ok, err := afero.DirExists(fsys, root); err != nil || !ok {
		return found, nil
	}

	err := afero.Walk(fsys, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrPermission) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			if p != root && skipDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isPackageFile(info.Name()) {
			return nil
		}
		dir := filepath.Dir(p)
		rel, err := filepath.Rel(root, dir)
		if err != nil || rel == "." {
			return nil
		}
		found[filepath.ToSlash(rel)] = dir
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasPrefix(name, "_") ||
		name == "testdata" ||
		name == "vendor"
}

func isPackageFile(name string) bool {
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasPrefix(name, ".") &&
		!strings.HasPrefix(name, "_")
}

// sourceFS is the afero filesystem as the interpreter sees it when it
// imports source units. The interpreter asks for absolute paths, which
// io/fs does not accept, so names are taken relative to the root.
type sourceFS struct {
	iofs afero.IOFS
}

func newSourceFS(fsys afero.Fs) fs.FS {
	return sourceFS{iofs: afero.NewIOFS(afero.NewBasePathFs(fsys, "/"))}
}

func (s sourceFS) Open(name string) (fs.File, error) { return s.iofs.Open(unroot(name)) }

func (s sourceFS) Stat(name string) (fs.FileInfo, error) { return fs.Stat(s.iofs, unroot(name)) }

func (s sourceFS) ReadDir(name string) ([]fs.DirEntry, error) { return s.iofs.ReadDir(unroot(name)) }

func (s sourceFS) ReadFile(name string) ([]byte, error) { return s.iofs.ReadFile(unroot(name)) }

func unroot(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "/")
	if name == "" {
		return "."
	}
	return name
}
