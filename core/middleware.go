package core

import "context"

// Next continues the middleware chain. A middleware must call it exactly once
// to let the transition proceed; omitting the call (or calling
// TransitionContext.Cancel) cleanly cancels the attempt without committing.
type Next func(ctx context.Context) error

// Middleware is a composable interceptor running inside the transition
// pipeline. The global chain registered on the engine runs first, then any
// rule-scoped middleware, each wrapping the remainder of the pipeline
// including the commit itself.
//
// Execute receives the attempt's TransitionContext and the continuation. Code
// before next(ctx) observes the pre-commit state and may rewrite the target or
// data; code after next(ctx) runs post-commit and can no longer influence the
// outcome. Returning an error aborts the pipeline and surfaces to the caller
// as a MiddlewareError.
type Middleware[D any] interface {
	// Name identifies the middleware within the registry. Names must be
	// unique per chain.
	Name() string

	// Execute runs this link of the chain.
	Execute(ctx context.Context, tc *TransitionContext[D], next Next) error
}

// MiddlewareFunc adapts a bare function into a named Middleware.
type MiddlewareFunc[D any] struct {
	name string
	fn   func(ctx context.Context, tc *TransitionContext[D], next Next) error
}

// NewMiddleware wraps fn as a Middleware with the given name.
func NewMiddleware[D any](name string, fn func(ctx context.Context, tc *TransitionContext[D], next Next) error) MiddlewareFunc[D] {
	return MiddlewareFunc[D]{name: name, fn: fn}
}

// Name returns the registered middleware name.
func (m MiddlewareFunc[D]) Name() string { return m.name }

// Execute invokes the wrapped function.
func (m MiddlewareFunc[D]) Execute(ctx context.Context, tc *TransitionContext[D], next Next) error {
	return m.fn(ctx, tc, next)
}
