package chain

import (
	"fmt"
	"sync"
)

// Registry is the ordered collection of registered descriptors. Registration
// happens at boot; once frozen the registry is read-only and safe for
// unsynchronized concurrent reads by dispatch walks.
//
// Registration order is the dispatch order. A broad predicate registered
// before a narrower one shadows it when the earlier handler stops the walk;
// that is deliberate, not a conflict the registry resolves.
type Registry struct {
	mu          sync.Mutex
	frozen      bool
	descriptors []Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a descriptor. It fails after Freeze, and rejects
// descriptors with an empty name or a nil predicate or handler.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("register chain: name is required")
	}
	if d.Match == nil {
		return fmt.Errorf("register chain %s: match predicate is required", d.Name)
	}
	if d.Handle == nil {
		return fmt.Errorf("register chain %s: handler is required", d.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("register chain %s: registry is frozen (chains must be registered before start)", d.Name)
	}
	r.descriptors = append(r.descriptors, d)
	return nil
}

// Freeze marks the end of the boot phase. Further Register calls fail.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Snapshot returns the descriptors in registration order. The returned slice
// must not be mutated; descriptors are referenced, never copied, by dispatch
// walks.
func (r *Registry) Snapshot() []Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.descriptors[:len(r.descriptors):len(r.descriptors)]
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.descriptors)
}
