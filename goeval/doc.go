// Package goeval backs a modsh console with the yaegi Go interpreter.
//
// # Units
//
// Three kinds of unit can be loaded:
//
//   - compiled packages, the standard library symbols shipped with yaegi
//     (for example "fmt" or "encoding/json");
//   - source packages, directories holding .go files below GOPATH/src,
//     which the interpreter imports on load;
//   - "main", the interpreter's own package, where code typed at the prompt
//     declares its names.
//
// Unit names are import paths and behave like directories: "/x" is
// absolute, "./x" and "../x" are relative to the current unit, and a bare
// name is looked up below the current unit before it is taken as absolute.
//
// # Evaluation
//
// Code runs in the interpreter's main package with the current unit's
// package imported, so "json.Marshal(v)" works while in encoding/json.
// A bare name that the current unit exports, or a call of a console binding
// such as help(x), is handled without the interpreter.
package goeval
