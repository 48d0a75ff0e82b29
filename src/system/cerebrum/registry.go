package cerebrum

import (
	"fmt"

	"github.com/voodooEntity/cyberfocus/src/system/interfaces"
)

type registration struct {
	name      string
	component interfaces.ComponentInterface
}

// Registry holds the live components in registration order. Each component
// owns its private state; the registry only hands out references.
type Registry struct {
	entries []registration
	index   map[string]int
}

func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]int),
	}
}

// Register adds a component under a unique name.
func (r *Registry) Register(name string, component interfaces.ComponentInterface) error {
	if name == "" {
		return ErrEmptyComponentName
	}
	if component == nil {
		return fmt.Errorf("%s: %w", name, ErrNilComponent)
	}
	if _, ok := r.index[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrDuplicateComponent)
	}
	r.entries = append(r.entries, registration{name: name, component: component})
	r.index[name] = len(r.entries) - 1
	return nil
}

func (r *Registry) Get(name string) (interfaces.ComponentInterface, bool) {
	idx, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.entries[idx].component, true
}

func (r *Registry) Len() int {
	return len(r.entries)
}

// Names returns the component names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		names = append(names, entry.name)
	}
	return names
}

// each stops at the first error fn returns.
func (r *Registry) each(fn func(name string, component interfaces.ComponentInterface) error) error {
	for _, entry := range r.entries {
		if err := fn(entry.name, entry.component); err != nil {
			return err
		}
	}
	return nil
}
