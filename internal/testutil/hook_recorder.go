package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/simplecore-inc/stageflow/core"
)

// HookRecorder is a plugin that records every hook invocation in order.
// Example:
//
//	rec := testutil.NewHookRecorder[Data]("rec")
//	_ = eng.InstallPlugin(ctx, rec)
//	...
//	require.Equal(t, []string{"enter:idle", "before:idle->loading", ...}, rec.Calls())
//
// Chain FailOn to inject an error from a specific hook.
type HookRecorder[D any] struct {
	name string

	mu       sync.Mutex
	calls    []string
	failHook string
	failErr  error
}

// NewHookRecorder creates a recorder registered under the given plugin name.
func NewHookRecorder[D any](name string) *HookRecorder[D] {
	return &HookRecorder[D]{name: name}
}

// FailOn makes the named hook ("before", "after", "enter", "exit") return
// err after recording (chainable).
func (r *HookRecorder[D]) FailOn(hook string, err error) *HookRecorder[D] {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failHook = hook
	r.failErr = err
	return r
}

// Calls returns a copy of the recorded invocations in order.
func (r *HookRecorder[D]) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset clears the recorded invocations.
func (r *HookRecorder[D]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *HookRecorder[D]) record(hook, detail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf("%s:%s", hook, detail))
	if r.failHook == hook {
		return r.failErr
	}
	return nil
}

// Name implements core.Plugin.
func (r *HookRecorder[D]) Name() string { return r.name }

// Install implements core.Plugin.
func (r *HookRecorder[D]) Install(context.Context, core.EngineHandle[D]) error { return nil }

// BeforeTransition records "before:from->to".
func (r *HookRecorder[D]) BeforeTransition(_ context.Context, tc *core.TransitionContext[D]) error {
	return r.record("before", fmt.Sprintf("%s->%s", tc.From, tc.To()))
}

// AfterTransition records "after:from->to".
func (r *HookRecorder[D]) AfterTransition(_ context.Context, tc *core.TransitionContext[D]) error {
	return r.record("after", fmt.Sprintf("%s->%s", tc.From, tc.To()))
}

// OnStageEnter records "enter:stage".
func (r *HookRecorder[D]) OnStageEnter(_ context.Context, sc core.StageContext[D]) error {
	return r.record("enter", sc.Current.String())
}

// OnStageExit records "exit:stage".
func (r *HookRecorder[D]) OnStageExit(_ context.Context, sc core.StageContext[D]) error {
	return r.record("exit", sc.Current.String())
}
