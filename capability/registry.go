// Package capability resolves parsed plan calls against the robot's
// action vocabulary and executes them in plan order.
//
// Dispatch is an explicit registry from capability name to a typed
// function, populated at startup. There is no reflective method lookup;
// an unknown name is a BindError, full stop.
//
// Information Hiding:
// - Argument decoding from the parser's loosely typed values
// - The mapping between plan-call names and Go methods

package capability

import (
	"context"
	"fmt"
	"sort"

	"github.com/praxisapocalyptica/jamie/plan"
)

// Func is a registered capability implementation. Args carry the
// keyword arguments from the parsed plan call; each implementation does
// its own decoding and reports bad arguments as errors.
type Func func(ctx context.Context, args map[string]any) (string, error)

// BindError reports a plan call that names no registered capability.
type BindError struct {
	// Capability is the unresolved call name.
	Capability string
	// Owner describes the registry owner type.
	Owner string
}

func (e *BindError) Error() string {
	return fmt.Sprintf("capability: %q not found in %s", e.Capability, e.Owner)
}

// BoundCall is one plan call resolved to its implementation, ready to
// invoke with no further arguments. Bound calls are created fresh per
// Bind, owned by the caller and discarded after use.
type BoundCall struct {
	Name   string
	invoke func(ctx context.Context) (string, error)
}

// Invoke executes the bound call. Errors from the underlying capability
// propagate unwrapped; the plan executor decides whether to abort the
// remaining plan.
func (b BoundCall) Invoke(ctx context.Context) (string, error) {
	return b.invoke(ctx)
}

// Registry maps capability names to implementations.
type Registry struct {
	owner string
	funcs map[string]Func
}

// NewRegistry creates an empty registry. The owner string names the
// providing object in BindError messages.
func NewRegistry(owner string) *Registry {
	return &Registry{owner: owner, funcs: make(map[string]Func)}
}

// Register adds a capability under the given plan-call name.
// Re-registering a name replaces the previous implementation.
func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// Names returns the registered capability names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bind resolves every call of the plan against the registry, preserving
// plan order. Resolution is all-or-nothing: the first unknown name
// fails the whole bind with a BindError and no calls are returned.
func (r *Registry) Bind(p plan.Plan) ([]BoundCall, error) {
	bound := make([]BoundCall, 0, len(p.Calls))
	for _, call := range p.Calls {
		fn, ok := r.funcs[call.Name]
		if !ok {
			return nil, &BindError{Capability: call.Name, Owner: r.owner}
		}
		args := call.Args
		bound = append(bound, BoundCall{
			Name: call.Name,
			invoke: func(ctx context.Context) (string, error) {
				return fn(ctx, args)
			},
		})
	}
	return bound, nil
}

// RunAll invokes bound calls strictly in list order, so each call's
// side effects are visible before the next begins. The first error
// aborts the remaining calls and is returned alongside the outputs
// collected so far.
func RunAll(ctx context.Context, calls []BoundCall) ([]string, error) {
	outputs := make([]string, 0, len(calls))
	for _, call := range calls {
		out, err := call.Invoke(ctx)
		if err != nil {
			return outputs, fmt.Errorf("capability %s failed: %w", call.Name, err)
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}
