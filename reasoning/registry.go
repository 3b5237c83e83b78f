// Package reasoning implements the Worker strategies (C6): the ten
// routes an Action Node turn can be wrapped in (raw, native, cot, dcot,
// python, code, plan, ensemble, route, moderator), registered in a
// process-wide MinionRegistry keyed by route name.
package reasoning

import (
	"context"
	"fmt"

	"github.com/kadirpekel/minion/internal/registry"
	"github.com/kadirpekel/minion/schema"
)

// Worker is the contract every route satisfies: execute(input, deps) →
// AgentResponse, per spec.md §4.6. Workers never mutate the shared
// registry; they may mutate their own Input (e.g. attach Feedback
// before a retry).
type Worker interface {
	Name() string
	Execute(ctx context.Context, input schema.Input, deps Deps) (*schema.AgentResponse, error)
}

// Factory builds a fresh Worker instance; the registry hands out a new
// instance per lookup rather than sharing a singleton.
type Factory func() Worker

// Registry maps route name to Worker factory.
type Registry struct {
	*registry.BaseRegistry[Factory]
}

// NewRegistry builds an empty, isolated registry — for tests that need
// repeatable registration without touching MinionRegistry.
func NewRegistry() *Registry {
	return &Registry{BaseRegistry: registry.NewBaseRegistry[Factory]()}
}

// MinionRegistry is the process-wide registry. Strategy files register
// into it explicitly from their own init(), per spec.md §9's design
// note ruling out decorator-style implicit registration.
var MinionRegistry = NewRegistry()

// Register adds factory under name to MinionRegistry. Called from each
// strategy file's init().
func Register(name string, factory Factory) {
	if err := MinionRegistry.Register(name, factory); err != nil {
		panic(fmt.Sprintf("reasoning: %v", err))
	}
}

// New instantiates the worker registered under name in r.
func (r *Registry) New(name string) (Worker, error) {
	factory, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("reasoning: no worker registered for route %q", name)
	}
	return factory(), nil
}
