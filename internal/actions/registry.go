package actions

import (
	"context"
	"fmt"
	"sort"

	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

// Executor runs one action and produces a dual-track tool result.
type Executor interface {
	Execute(ctx context.Context, action Action) (kernel.ToolResult, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, action Action) (kernel.ToolResult, error)

func (f ExecutorFunc) Execute(ctx context.Context, action Action) (kernel.ToolResult, error) {
	return f(ctx, action)
}

// Registry maps a tag name to the executor that implements it.
type Registry struct {
	executors map[string]Executor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]Executor)}
}

// Register binds tag to executor. Registering a known tag twice is a
// programmer error (fatal at startup, same as kernel tool registration).
func (r *Registry) Register(tag string, ex Executor) error {
	if !KnownTags[tag] {
		return fmt.Errorf("actions: %q is not a known action tag", tag)
	}
	if _, exists := r.executors[tag]; exists {
		return fmt.Errorf("actions: executor for %q already registered", tag)
	}
	r.executors[tag] = ex
	return nil
}

// Lookup returns the executor bound to tag, if any.
func (r *Registry) Lookup(tag string) (Executor, bool) {
	ex, ok := r.executors[tag]
	return ex, ok
}

// Tags lists the registered tags in sorted order.
func (r *Registry) Tags() []string {
	out := make([]string, 0, len(r.executors))
	for t := range r.executors {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Run dispatches action to its registered executor, or returns an UNKNOWN
// result if no executor is bound to the tag.
func (r *Registry) Run(ctx context.Context, action Action) kernel.ToolResult {
	ex, ok := r.executors[action.Tag]
	if !ok {
		return kernel.ErrResult(kernel.ErrUnknown, fmt.Sprintf("no executor registered for <%s>", action.Tag), "")
	}
	res, err := ex.Execute(ctx, action)
	if err != nil {
		return kernel.FromError(err)
	}
	return res
}
