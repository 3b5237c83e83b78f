package llms

import (
	"fmt"

	"github.com/kadirpekel/minion/internal/registry"
)

// Registry holds constructed Provider instances by name, mirroring the
// deferred-construction discipline used throughout the module: callers
// build providers once (usually at config load time) and look them up by
// the alias used in routing and cost reporting.
type Registry struct {
	*registry.BaseRegistry[Provider]
}

// NewRegistry builds an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{BaseRegistry: registry.NewBaseRegistry[Provider]()}
}

// RegisterProvider adds p under name. Registering a name that is already
// taken returns an error and keeps the existing provider.
func (r *Registry) RegisterProvider(name string, p Provider) error {
	if name == "" {
		return fmt.Errorf("llms: provider name cannot be empty")
	}
	if p == nil {
		return fmt.Errorf("llms: provider cannot be nil")
	}
	return r.Register(name, p)
}

// GetProvider looks up a provider by name.
func (r *Registry) GetProvider(name string) (Provider, error) {
	p, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("llms: provider %q not registered", name)
	}
	return p, nil
}

// Close closes every registered provider, collecting the first error.
func (r *Registry) Close() error {
	var firstErr error
	for _, name := range r.Names() {
		p, ok := r.Get(name)
		if !ok {
			continue
		}
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("llms: closing provider %q: %w", name, err)
		}
	}
	return firstErr
}
