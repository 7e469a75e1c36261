package modsh

import "sort"

// Registry maps command names to descriptors. A registry created with
// Derive sees every command of its parent, and commands registered on it
// shadow the parent's without changing the parent.
//
// Registries are filled at startup and only read afterwards, so they carry
// no lock.
type Registry struct {
	parent *Registry
	layer  map[string]*Descriptor
}

// NewRegistry creates an empty registry without a parent.
func NewRegistry() *Registry {
	return &Registry{}
}

// Derive creates a registry chained to r.
func (r *Registry) Derive() *Registry {
	return &Registry{parent: r}
}

// Parent returns the registry r was derived from, or nil.
func (r *Registry) Parent() *Registry {
	return r.parent
}

// EnsureOwnLayer creates r's private command layer if it does not exist yet.
func (r *Registry) EnsureOwnLayer() {
	if r.layer == nil {
		r.layer = make(map[string]*Descriptor)
	}
}

// Register adds a command. A command registered twice on the same registry
// keeps the last registration.
func (r *Registry) Register(b *CommandBuilder) error {
	d, err := b.Build()
	if err != nil {
		return err
	}
	r.add(d)
	return nil
}

// MustRegister is Register for command tables built at startup. A bad
// declaration is a programming error and panics.
func (r *Registry) MustRegister(builders ...*CommandBuilder) *Registry {
	for _, b := range builders {
		if err := r.Register(b); err != nil {
			panic(err)
		}
	}
	return r
}

// add inserts a descriptor that Build has checked.
func (r *Registry) add(d *Descriptor) {
	r.EnsureOwnLayer()
	r.layer[d.Name] = d
}

// Lookup finds a command in r or its ancestors.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	for reg := r; reg != nil; reg = reg.parent {
		if d, ok := reg.layer[name]; ok {
			return d, true
		}
	}
	return nil, false
}

// Has reports whether name is a registered command.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// All returns every visible command sorted by name. Where a derived
// registry shadows a parent command, the derived descriptor is returned.
func (r *Registry) All() []*Descriptor {
	merged := make(map[string]*Descriptor)
	for reg := r; reg != nil; reg = reg.parent {
		for name, d := range reg.layer {
			if _, shadowed := merged[name]; !shadowed {
				merged[name] = d
			}
		}
	}

	all := make([]*Descriptor, 0, len(merged))
	for _, d := range merged {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// Names returns the sorted names of all visible commands.
func (r *Registry) Names() []string {
	all := r.All()
	names := make([]string, len(all))
	for i, d := range all {
		names[i] = d.Name
	}
	return names
}
