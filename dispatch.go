package modsh

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// DispatchKind tags the result of Dispatch.
type DispatchKind int

const (
	// KindPassthrough means the line goes to the evaluator unchanged.
	KindPassthrough DispatchKind = iota
	// KindCommand means the line names a registered command.
	KindCommand
)

func (k DispatchKind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindPassthrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

// Dispatch is the decision taken for one primary-prompt line.
type Dispatch struct {
	Kind       DispatchKind
	Name       string
	Args       []string
	Descriptor *Descriptor
	// Text is the original line for passthrough results.
	Text string
	// Reason explains a passthrough: a *TokenizeError, an
	// *UnknownCommandError, or nil for an empty line.
	Reason error
}

// Decide tokenizes line and looks the first word up in reg. It has no side
// effects; arity is checked later by the console.
func Decide(reg *Registry, line string) Dispatch {
	words, err := Tokenize(line)
	if err != nil {
		return Dispatch{Kind: KindPassthrough, Text: line, Reason: err}
	}
	if len(words) == 0 {
		return Dispatch{Kind: KindPassthrough, Text: line}
	}
	d, ok := reg.Lookup(words[0])
	if !ok {
		return Dispatch{Kind: KindPassthrough, Text: line, Reason: &UnknownCommandError{Name: words[0]}}
	}
	return Dispatch{Kind: KindCommand, Name: words[0], Args: words[1:], Descriptor: d}
}

// Tokenize splits a line into words with shell quoting rules. Only a single
// simple command made of literal and quoted words is accepted: pipes,
// redirections, assignments, command lists and expansions are reported as
// *TokenizeError so the line can be handed to the evaluator as code.
func Tokenize(line string) ([]string, error) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(line), "")
	if err != nil {
		return nil, &TokenizeError{Input: line, Err: err}
	}

	switch len(file.Stmts) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, &TokenizeError{Input: line, Err: errors.New("more than one statement")}
	}

	stmt := file.Stmts[0]
	if stmt.Negated || stmt.Background || stmt.Coprocess || len(stmt.Redirs) > 0 {
		return nil, &TokenizeError{Input: line, Err: errors.New("not a simple command")}
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok || len(call.Assigns) > 0 {
		return nil, &TokenizeError{Input: line, Err: errors.New("not a simple command")}
	}

	words := make([]string, 0, len(call.Args))
	for _, w := range call.Args {
		s, err := literalWord(w)
		if err != nil {
			return nil, &TokenizeError{Input: line, Err: err}
		}
		words = append(words, s)
	}
	return words, nil
}

// literalWord joins the parts of a word that has no expansions.
func literalWord(w *syntax.Word) (string, error) {
	var b strings.Builder
	for _, part := range w.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			b.WriteString(unescape(p.Value, false))
		case *syntax.SglQuoted:
			if p.Dollar {
				return "", fmt.Errorf("unsupported $'...' quoting")
			}
			b.WriteString(p.Value)
		case *syntax.DblQuoted:
			if p.Dollar {
				return "", fmt.Errorf("unsupported $\"...\" quoting")
			}
			for _, inner := range p.Parts {
				lit, ok := inner.(*syntax.Lit)
				if !ok {
					return "", fmt.Errorf("expansion inside double quotes")
				}
				b.WriteString(unescape(lit.Value, true))
			}
		default:
			return "", fmt.Errorf("unsupported word part %T", part)
		}
	}
	return b.String(), nil
}

// unescape removes shell backslash escapes from raw literal text. Inside
// double quotes only \$, \`, \", \\ and line continuations are escapes.
func unescape(raw string, quoted bool) string {
	if !strings.Contains(raw, `\`) {
		return raw
	}
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 == len(raw) {
			b.WriteByte(c)
			continue
		}
		next := raw[i+1]
		switch {
		case next == '\n':
			i++
		case !quoted:
			b.WriteByte(next)
			i++
		case strings.IndexByte("$`\"\\", next) >= 0:
			b.WriteByte(next)
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
