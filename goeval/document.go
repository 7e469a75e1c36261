package goeval

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/telnet2/go-practice/modsh"
)

const docWidth = 80

// Document implements modsh.Evaluator. A string naming a known unit lists
// that unit; any other value is described by its type, value, fields and
// methods.
func (in *Interpreter) Document(ctx context.Context, w io.Writer, v any) error {
	if rv, ok := v.(reflect.Value); ok {
		v = interfaceOf(rv)
	}

	if name, ok := v.(string); ok && in.known(name) {
		u, err := in.Load(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, u)
		modsh.ListNames(w, u.Names(), docWidth)
		return nil
	}

	if v == nil {
		fmt.Fprintln(w, "nil")
		return nil
	}

	t := reflect.TypeOf(v)
	fmt.Fprintf(w, "type %s (%s)\n", t, t.Kind())
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		fmt.Fprintln(w, "value nil")
	} else {
		fmt.Fprintf(w, "value %v\n", v)
	}

	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() == reflect.Struct {
		var fields []string
		for i := 0; i < st.NumField(); i++ {
			f := st.Field(i)
			if f.IsExported() {
				fields = append(fields, fmt.Sprintf("%s %s", f.Name, f.Type))
			}
		}
		if len(fields) > 0 {
			fmt.Fprintln(w, "\nfields:")
			for _, f := range fields {
				fmt.Fprintf(w, "  %s\n", f)
			}
		}
	}

	if t.NumMethod() > 0 {
		fmt.Fprintln(w, "\nmethods:")
		for i := 0; i < t.NumMethod(); i++ {
			m := t.Method(i)
			fmt.Fprintf(w, "  %s %s\n", m.Name, m.Type)
		}
	}
	return nil
}
