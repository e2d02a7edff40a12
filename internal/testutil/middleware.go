package testutil

import (
	"context"
	"sync"

	"github.com/simplecore-inc/stageflow/core"
)

// ScriptedMiddleware records its executions and can be scripted to cancel,
// skip next, rewrite the target or fail. The zero behavior is a transparent
// pass-through. Chain only the behaviors you need:
//
//	mw := testutil.NewScriptedMiddleware[Data]("veto").Cancel()
type ScriptedMiddleware[D any] struct {
	name string

	mu        sync.Mutex
	execs     int
	cancel    bool
	skipNext  bool
	err       error
	retarget  core.StageName
	hasTarget bool
}

// NewScriptedMiddleware creates a pass-through middleware with the given
// name.
func NewScriptedMiddleware[D any](name string) *ScriptedMiddleware[D] {
	return &ScriptedMiddleware[D]{name: name}
}

// Cancel makes the middleware call TransitionContext.Cancel before
// continuing (chainable).
func (m *ScriptedMiddleware[D]) Cancel() *ScriptedMiddleware[D] {
	m.cancel = true
	return m
}

// SkipNext makes the middleware return without calling next (chainable).
func (m *ScriptedMiddleware[D]) SkipNext() *ScriptedMiddleware[D] {
	m.skipNext = true
	return m
}

// Fail makes the middleware return err without calling next (chainable).
func (m *ScriptedMiddleware[D]) Fail(err error) *ScriptedMiddleware[D] {
	m.err = err
	return m
}

// Retarget makes the middleware rewrite the transition target (chainable).
func (m *ScriptedMiddleware[D]) Retarget(to core.StageName) *ScriptedMiddleware[D] {
	m.retarget = to
	m.hasTarget = true
	return m
}

// Executions returns how many times the middleware ran.
func (m *ScriptedMiddleware[D]) Executions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.execs
}

// Name implements core.Middleware.
func (m *ScriptedMiddleware[D]) Name() string { return m.name }

// Execute implements core.Middleware.
func (m *ScriptedMiddleware[D]) Execute(ctx context.Context, tc *core.TransitionContext[D], next core.Next) error {
	m.mu.Lock()
	m.execs++
	m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	if m.hasTarget {
		tc.SetTarget(m.retarget)
	}
	if m.cancel {
		tc.Cancel()
	}
	if m.skipNext {
		return nil
	}
	return next(ctx)
}
