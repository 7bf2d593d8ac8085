// Package stdlib provides the PyTerpreter operation registry and the operation
// modules built on top of the evaluator.
package stdlib

import (
	"sort"

	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
)

// Fn describes a registered operation.
type Fn struct {
	Name    string
	Module  string
	Arity   []int // allowed argument counts
	Execute evaluator.Operation
}

// Registry holds registered operations.
type Registry struct {
	fns map[string]*Fn
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fns: make(map[string]*Fn),
	}
}

// Register adds an operation to the registry.
func (r *Registry) Register(fn Fn) {
	r.fns[fn.Name] = &fn
}

// Get retrieves an operation by name.
func (r *Registry) Get(name string) *Fn {
	return r.fns[name]
}

// All returns all registered operations.
func (r *Registry) All() map[string]*Fn {
	return r.fns
}

// Names returns the registered operation names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Operations builds the dispatch table handed to the evaluator. The table is a
// fresh copy, so later registrations never affect a running program.
func (r *Registry) Operations() map[string]evaluator.Operation {
	ops := make(map[string]evaluator.Operation, len(r.fns))
	for name, fn := range r.fns {
		ops[name] = fn.Execute
	}
	return ops
}

// Default returns a registry with every operation registered.
func Default() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
