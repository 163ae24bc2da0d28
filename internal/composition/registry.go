package composition

import "sort"

// Registry is the read-only set of compositions the coordinator
// manages. It is built once at startup and never mutated afterwards,
// so lookups need no locking.
type Registry struct {
	compositions map[string]Composition
	names        []string
}

// NewRegistry creates a registry from the loaded composition map.
func NewRegistry(compositions map[string]Composition) *Registry {
	comps := make(map[string]Composition, len(compositions))
	names := make([]string, 0, len(compositions))
	for name, comp := range compositions {
		comps[name] = comp
		names = append(names, name)
	}
	sort.Strings(names)

	return &Registry{
		compositions: comps,
		names:        names,
	}
}

// Get retrieves a composition by name.
func (r *Registry) Get(name string) (Composition, bool) {
	comp, ok := r.compositions[name]
	return comp, ok
}

// Names returns all composition names in sorted order, giving sweeps a
// stable iteration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Count returns the number of registered compositions.
func (r *Registry) Count() int {
	return len(r.compositions)
}
