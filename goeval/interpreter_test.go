package goeval

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telnet2/go-practice/modsh"
)

func newTestFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/gopath/src/example.com/app/main.go":         "package main\n",
		"/gopath/src/example.com/app/store/store.go":  "package store\n\nfunc Size() int { return 3 }\n",
		"/gopath/src/example.com/app/store/x_test.go": "package store\n",
		"/gopath/src/example.com/onlytests/a_test.go": "package onlytests\n",
		"/gopath/src/example.com/app/testdata/t.go":   "package testdata\n",
		"/gopath/src/example.com/app/.hidden/h.go":    "package hidden\n",
		"/gopath/src/example.com/app/README.md":       "readme\n",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func newTestInterpreter(t *testing.T) (*Interpreter, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	in, err := New(Options{
		GoPath: "/gopath",
		Fs:     newTestFs(t),
		Stdin:  bytes.NewReader(nil),
		Stdout: &out,
		Stderr: &out,
	})
	require.NoError(t, err)
	return in, &out
}

func TestDiscoverSources(t *testing.T) {
	found, err := discoverSources(newTestFs(t), "/gopath")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"example.com/app":       "/gopath/src/example.com/app",
		"example.com/app/store": "/gopath/src/example.com/app/store",
	}, found)
}

func TestDiscoverSources_MissingRoot(t *testing.T) {
	found, err := discoverSources(afero.NewMemMapFs(), "/nowhere")
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = discoverSources(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestInterpreter_Known(t *testing.T) {
	in, _ := newTestInterpreter(t)

	known := in.Known()
	assert.Contains(t, known, MainUnit)
	assert.Contains(t, known, "fmt")
	assert.Contains(t, known, "encoding/json")
	assert.Contains(t, known, "example.com/app/store")
	assert.IsNonDecreasing(t, known)
}

func TestInterpreter_Resolve(t *testing.T) {
	in, _ := newTestInterpreter(t)

	tests := []struct {
		name       string
		relativeTo string
		want       string
		wantErr    bool
	}{
		{name: "fmt", relativeTo: "", want: "fmt"},
		{name: "/fmt", relativeTo: "encoding", want: "fmt"},
		{name: "json", relativeTo: "encoding", want: "encoding/json"},
		{name: "json", relativeTo: "fmt", want: "json"},
		{name: "store", relativeTo: "example.com/app", want: "example.com/app/store"},
		{name: "..", relativeTo: "example.com/app/store", want: "example.com/app"},
		{name: "../json", relativeTo: "encoding/xml", want: "encoding/json"},
		{name: "./store", relativeTo: "example.com/app", want: "example.com/app/store"},
		{name: "fmt", relativeTo: MainUnit, want: "fmt"},
		{name: ".", relativeTo: MainUnit, want: MainUnit},
		{name: "./", relativeTo: MainUnit, want: MainUnit},
		{name: ".", relativeTo: "fmt", want: "fmt"},
		{name: "..", relativeTo: MainUnit, wantErr: true},
		{name: "..", relativeTo: "fmt", wantErr: true},
		{name: "../../../x", relativeTo: "encoding/json", wantErr: true},
		{name: "/", relativeTo: "fmt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.relativeTo+" "+tt.name, func(t *testing.T) {
			got, err := in.Resolve(tt.name, tt.relativeTo)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterpreter_LoadCompiled(t *testing.T) {
	in, _ := newTestInterpreter(t)
	ctx := context.Background()

	u, err := in.Load(ctx, "strings")
	require.NoError(t, err)
	assert.Equal(t, "strings", u.Name())
	assert.Equal(t, `<package "strings" (compiled)>`, u.String())
	assert.Contains(t, u.Names(), "ToUpper")

	v, ok := u.Lookup("ToUpper")
	require.True(t, ok)
	upper, ok := v.(func(string) string)
	require.True(t, ok)
	assert.Equal(t, "GO", upper("go"))

	again, err := in.Load(ctx, "strings")
	require.NoError(t, err)
	assert.Same(t, u, again)
}

func TestInterpreter_LoadSource(t *testing.T) {
	in, _ := newTestInterpreter(t)
	ctx := context.Background()

	u, err := in.Load(ctx, "example.com/app/store")
	require.NoError(t, err)
	assert.Equal(t, `<package "example.com/app/store" from "/gopath/src/example.com/app/store">`, u.String())
	assert.Contains(t, u.Names(), "Size")

	v, err := in.Eval(ctx, u, "Size()")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestInterpreter_MainListsGlobals(t *testing.T) {
	in, _ := newTestInterpreter(t)
	ctx := context.Background()

	main, err := in.Load(ctx, MainUnit)
	require.NoError(t, err)
	assert.NotContains(t, main.Names(), "x")

	_, err = in.Eval(ctx, main, "x := 42")
	require.NoError(t, err)
	assert.Contains(t, main.Names(), "x")

	v, ok := main.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestInterpreter_LoadMissing(t *testing.T) {
	in, _ := newTestInterpreter(t)

	_, err := in.Load(context.Background(), "fmtt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, modsh.ErrNotFound))

	var navErr *modsh.NavigationError
	require.True(t, errors.As(err, &navErr))
	assert.Contains(t, navErr.Suggestions, "fmt")
	assert.Contains(t, err.Error(), "did you mean")
}

func TestUnit_Overlay(t *testing.T) {
	in, _ := newTestInterpreter(t)

	u, err := in.Load(context.Background(), "strings")
	require.NoError(t, err)

	u.Bind("help", "helper")
	u.Bind("ToUpper", "shadowed")
	v, ok := u.Lookup("ToUpper")
	require.True(t, ok)
	assert.Equal(t, "shadowed", v)
	assert.Contains(t, u.Names(), "help")

	count := 0
	for _, n := range u.Names() {
		if n == "ToUpper" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	u.Unbind("ToUpper")
	u.Unbind("help")
	_, ok = u.Lookup("help")
	assert.False(t, ok)
	v, _ = u.Lookup("ToUpper")
	assert.IsType(t, func(string) string { return "" }, v)
}

func TestIsIncomplete(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"1:12: expected '}', found 'EOF'", true},
		{"1:1: raw string literal not terminated", true},
		{"1:1: undefined: x", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isIncomplete(errors.New(tt.msg)), tt.msg)
	}
}
