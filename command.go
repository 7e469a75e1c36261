package modsh

import (
	"context"
	"strings"
)

// HandlerFunc runs a console command. args has already been checked
// against the command's declared parameters.
type HandlerFunc func(ctx context.Context, c *Console, args []string) error

// Descriptor is the registered metadata for one command.
type Descriptor struct {
	Name     string
	Required []string
	Optional []string
	Doc      string
	Handler  HandlerFunc
}

// Summary returns the first line of the documentation.
func (d *Descriptor) Summary() string {
	doc := strings.TrimSpace(d.Doc)
	if i := strings.IndexByte(doc, '\n'); i >= 0 {
		doc = doc[:i]
	}
	return strings.TrimSpace(doc)
}

// Usage renders the usage line, e.g. "Usage: cd [TARGET]".
func (d *Descriptor) Usage() string {
	var b strings.Builder
	b.WriteString("Usage: ")
	b.WriteString(d.Name)
	for _, p := range d.Required {
		b.WriteString(" ")
		b.WriteString(strings.ToUpper(p))
	}
	for _, p := range d.Optional {
		b.WriteString(" [")
		b.WriteString(strings.ToUpper(p))
		b.WriteString("]")
	}
	return b.String()
}

// CommandBuilder declares a command's parameters explicitly.
//
//	modsh.NewCommand("cd").
//		Optional("target").
//		Doc("Change the current unit.").
//		Handle(cmdCd)
type CommandBuilder struct {
	d      Descriptor
	params []param
}

type param struct {
	name     string
	optional bool
}

// NewCommand starts a command declaration.
func NewCommand(name string) *CommandBuilder {
	return &CommandBuilder{d: Descriptor{Name: name}}
}

// Required appends required parameters.
func (b *CommandBuilder) Required(names ...string) *CommandBuilder {
	for _, n := range names {
		b.params = append(b.params, param{name: n})
	}
	return b
}

// Optional appends optional parameters.
func (b *CommandBuilder) Optional(names ...string) *CommandBuilder {
	for _, n := range names {
		b.params = append(b.params, param{name: n, optional: true})
	}
	return b
}

// Doc sets the documentation. The first line is used as the summary.
func (b *CommandBuilder) Doc(doc string) *CommandBuilder {
	b.d.Doc = doc
	return b
}

// Handle sets the handler.
func (b *CommandBuilder) Handle(fn HandlerFunc) *CommandBuilder {
	b.d.Handler = fn
	return b
}

// Build validates the declaration and returns the descriptor.
func (b *CommandBuilder) Build() (*Descriptor, error) {
	d := b.d
	if strings.TrimSpace(d.Name) == "" || strings.ContainsAny(d.Name, " \t\n") {
		return nil, &UnsupportedSignatureError{Command: d.Name, Reason: "command name must be a single word"}
	}
	if d.Handler == nil {
		return nil, &UnsupportedSignatureError{Command: d.Name, Reason: "missing handler"}
	}

	seen := make(map[string]bool, len(b.params))
	sawOptional := false
	for _, p := range b.params {
		switch {
		case strings.TrimSpace(p.name) == "" || strings.ContainsAny(p.name, " \t\n"):
			return nil, &UnsupportedSignatureError{Command: d.Name, Reason: "parameter names must be single words"}
		case strings.HasPrefix(p.name, "...") || strings.HasPrefix(p.name, "*"):
			return nil, &UnsupportedSignatureError{Command: d.Name, Reason: "variadic parameter " + p.name}
		case strings.HasPrefix(p.name, "-"):
			return nil, &UnsupportedSignatureError{Command: d.Name, Reason: "flag parameter " + p.name}
		case seen[p.name]:
			return nil, &UnsupportedSignatureError{Command: d.Name, Reason: "duplicate parameter " + p.name}
		case !p.optional && sawOptional:
			return nil, &UnsupportedSignatureError{Command: d.Name, Reason: "required parameter " + p.name + " follows an optional one"}
		}
		seen[p.name] = true
		if p.optional {
			sawOptional = true
			d.Optional = append(d.Optional, p.name)
		} else {
			d.Required = append(d.Required, p.name)
		}
	}
	return &d, nil
}
