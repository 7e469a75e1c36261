package modsh

import (
	"context"
	"errors"
)

// HelperName is the name the console binds its helper to.
const HelperName = "help"

// Navigator tracks the current unit.
type Navigator struct {
	loader Loader
	entry  string
	helper any

	name string
	unit Unit
}

// NewNavigator creates a navigator whose "home" is entry. helper is bound as
// HelperName into whichever unit is current; it may be nil.
func NewNavigator(loader Loader, entry string, helper any) *Navigator {
	return &Navigator{loader: loader, entry: entry, helper: helper}
}

// Name returns the canonical name of the current unit.
func (n *Navigator) Name() string { return n.name }

// Unit returns the current unit, nil before the first ChangeTo.
func (n *Navigator) Unit() Unit { return n.unit }

// Entry returns the unit `cd` goes to without an argument.
func (n *Navigator) Entry() string { return n.entry }

// Resolve returns the canonical name for requested, relative to the current
// unit. An empty name means the entry unit.
func (n *Navigator) Resolve(requested string) (string, error) {
	if requested == "" {
		requested = n.entry
	}
	name, err := n.loader.Resolve(requested, n.name)
	if err != nil {
		return "", navigationError(requested, err)
	}
	return name, nil
}

// ChangeTo makes requested the current unit. If it cannot be resolved or
// loaded, the navigator is left exactly as it was.
func (n *Navigator) ChangeTo(ctx context.Context, requested string) error {
	name, err := n.Resolve(requested)
	if err != nil {
		return err
	}
	unit, err := n.loader.Load(ctx, name)
	if err != nil {
		return navigationError(name, err)
	}

	if n.unit != nil {
		n.RemoveHelper()
	}
	n.name = name
	n.unit = unit
	n.addHelper()
	return nil
}

// RemoveHelper unbinds the helper from the current unit if the binding is
// still the one the navigator installed.
func (n *Navigator) RemoveHelper() {
	if n.unit == nil || n.helper == nil {
		return
	}
	if v, ok := n.unit.Lookup(HelperName); ok && v == n.helper {
		n.unit.Unbind(HelperName)
	}
}

func (n *Navigator) addHelper() {
	if n.helper == nil {
		return
	}
	if _, taken := n.unit.Lookup(HelperName); taken {
		return
	}
	n.unit.Bind(HelperName, n.helper)
}

func navigationError(name string, err error) error {
	var navErr *NavigationError
	if errors.As(err, &navErr) {
		return navErr
	}
	return &NavigationError{Name: name, Err: err}
}
