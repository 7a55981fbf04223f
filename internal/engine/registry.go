package engine

import (
	"context"
	"fmt"
)

// Registry maps module identifiers to their adapters. It is built once at
// orchestrator construction time and injected, never looked up from ambient
// state.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry from the given adapters. A later adapter
// with the same identifier replaces an earlier one.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.ID()] = a
	}
	return r
}

// Plan computes the ordered list of modules to run for the given options.
func (r *Registry) Plan(opts Options) []string {
	var plan []string
	for _, id := range ModuleOrder {
		if opts.Enabled(id) {
			plan = append(plan, id)
		}
	}
	return plan
}

// Resolve returns the adapter for a module identifier. Unknown identifiers
// resolve to a no-op adapter whose result records the unknown module rather
// than failing the scan.
func (r *Registry) Resolve(id string) Adapter {
	if a, ok := r.adapters[id]; ok {
		return a
	}
	return unknownAdapter{id: id}
}

type unknownAdapter struct {
	id string
}

func (u unknownAdapter) ID() string { return u.id }

func (u unknownAdapter) Execute(context.Context, string, Options) ModuleResult {
	return ModuleResult{
		Status: ResultError,
		Error:  fmt.Sprintf("unknown module %q", u.id),
	}
}
