package workflow

import (
	"sort"
	"sync"
)

// Registry maps workflow names to versioned definitions. Multiple versions
// of the same workflow can be registered; the latest version is used for
// new sessions while restored sessions look up the version they started
// with. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	versions map[string][]*Definition
}

// NewRegistry creates an empty workflow registry.
func NewRegistry() *Registry {
	return &Registry{
		versions: make(map[string][]*Definition),
	}
}

// Register adds a copy of def. A definition with the same name and
// version replaces the previous one.
func (r *Registry) Register(in *Definition) {
	def := *in
	if def.Version <= 0 {
		def.Version = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.versions[def.Name]
	for i, v := range existing {
		if v.Version == def.Version {
			existing[i] = &def
			return
		}
	}
	r.versions[def.Name] = append(existing, &def)
}

// Get returns the latest version of the named workflow.
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := r.versions[name]
	if len(versions) == 0 {
		return nil, false
	}
	best := versions[0]
	for _, v := range versions[1:] {
		if v.Version > best.Version {
			best = v
		}
	}
	return best, true
}

// GetVersion returns a specific version of a workflow. If version <= 0 it
// behaves like Get.
func (r *Registry) GetVersion(name string, version int) (*Definition, bool) {
	if version <= 0 {
		return r.Get(name)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.versions[name] {
		if v.Version == version {
			return v, true
		}
	}
	return nil, false
}

// Names returns all registered workflow names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.versions))
	for name := range r.versions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
