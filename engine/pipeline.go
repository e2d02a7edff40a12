package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/simplecore-inc/stageflow/core"
	"github.com/simplecore-inc/stageflow/graph"
)

var errNextCalledTwice = errors.New("next called more than once")

// request describes one transition attempt entering the pipeline. Event and
// direct requests resolve their rule against the graph; timer requests carry
// the rule that elapsed plus the timer set it belonged to, so stale fires
// from a superseded stage incarnation can be dropped.
type request[D any] struct {
	trigger core.Trigger
	event   string
	target  core.StageName
	rule    graph.Rule[D]
	set     *timerSet[D]
	data    *D
}

// dispatch runs the transition pipeline for one request:
//
//  1. guard check (engine must be idle) and claim of the transitioning flag
//  2. rule resolution against the stage graph
//  3. condition evaluation, before any observable side effect
//  4. plugin beforeTransition hooks
//  5. middleware chain (global, then rule-scoped) wrapping:
//     exit hooks -> commit -> enter hooks -> afterTransition hooks
//  6. timer re-arm for the new stage, release of the flag, notification
//
// The transitioning flag is restored on every exit path. Before the commit
// step nothing is mutated, so an abort anywhere leaves the original stage and
// data intact; after commit, errors surface but the committed state stands.
func (e *Engine[D]) dispatch(ctx context.Context, req request[D]) error {
	// Guard and claim. The flag is claimed here, at guard-pass, so no second
	// pipeline can interleave during condition evaluation.
	e.mu.Lock()
	switch e.lifecycle {
	case stateStopped:
		e.mu.Unlock()
		return core.NewGuardError("", req.event, core.ErrNotStarted)
	case stateTransitioning:
		from := e.stage
		e.mu.Unlock()
		return core.NewGuardError(from, req.event, core.ErrTransitionInProgress)
	}

	from := e.stage

	var rule graph.Rule[D]
	switch req.trigger {
	case core.TriggerEvent:
		r, ok := e.graph.ResolveEvent(from, req.event)
		if !ok {
			e.mu.Unlock()
			return core.NewNoRuleError(from, req.event)
		}
		rule = r
	case core.TriggerDirect:
		r, ok := e.graph.ResolveTarget(from, req.target)
		if !ok {
			e.mu.Unlock()
			return core.NewNoTargetError(from, req.target)
		}
		rule = r
	case core.TriggerTimer:
		// A countdown from a superseded stage incarnation must not replay
		// against the new stage.
		if e.timers != req.set || req.set.paused {
			e.mu.Unlock()
			return &core.TransitionError{From: from, Reason: "stale timer fire"}
		}
		rule = req.rule
	}

	e.lifecycle = stateTransitioning
	epoch := e.epoch
	data := e.data
	if req.data != nil {
		data = *req.data
	}
	middleware := slices.Clone(e.middleware)
	plugins := slices.Clone(e.plugins)
	e.mu.Unlock()

	committed := false
	defer func() {
		e.mu.Lock()
		// Release only our own claim. After Stop+Start the transitioning
		// flag may belong to a pipeline of the new incarnation.
		if e.lifecycle == stateTransitioning && e.epoch == epoch {
			e.lifecycle = stateIdle
		}
		e.mu.Unlock()
	}()

	// Condition evaluation. A rejection aborts before any hook runs, so a
	// rejected transition has no observable side effect at all.
	if cond := rule.Condition(); cond != nil {
		pass, err := cond(ctx, from, data)
		if err != nil {
			return &core.TransitionError{
				From:   from,
				Event:  req.event,
				Reason: fmt.Sprintf("condition evaluation failed: %v", err),
				Err:    err,
			}
		}
		if !pass {
			return core.NewConditionRejectedError(from, req.event)
		}
	}

	tc := core.NewTransitionContext(e.newID(), from, rule.Target(), req.event, req.trigger, data)

	for _, p := range plugins {
		if p.hooks.beforeTransition != nil {
			if err := p.hooks.beforeTransition(ctx, tc); err != nil {
				return &core.PluginError{Plugin: p.name, Hook: "beforeTransition", Err: err}
			}
		}
	}

	chain := append(middleware, rule.Middleware()...)

	// terminal is the innermost link: exit hooks, commit, enter hooks and
	// afterTransition hooks. Everything up to the commit is abortable;
	// everything after it stands.
	terminal := func(ctx context.Context) error {
		if tc.Canceled() {
			return nil
		}

		exitSC := core.StageContext[D]{Current: from, Data: tc.Data(), Timestamp: tc.Timestamp}
		for _, p := range plugins {
			if p.hooks.onStageExit != nil {
				if err := p.hooks.onStageExit(ctx, exitSC); err != nil {
					return &core.PluginError{Plugin: p.name, Hook: "onStageExit", Err: err}
				}
			}
		}

		e.mu.Lock()
		if e.lifecycle != stateTransitioning || e.epoch != epoch {
			// Stopped mid-flight, possibly restarted since: the pipeline
			// dies without committing.
			e.mu.Unlock()
			return core.NewGuardError(from, req.event, core.ErrNotStarted)
		}
		e.stage = tc.To()
		e.data = tc.Data()
		e.mu.Unlock()
		committed = true

		enterSC := core.StageContext[D]{Current: tc.To(), Data: tc.Data(), Timestamp: tc.Timestamp}
		for _, p := range plugins {
			if p.hooks.onStageEnter != nil {
				if err := p.hooks.onStageEnter(ctx, enterSC); err != nil {
					return &core.PluginError{Plugin: p.name, Hook: "onStageEnter", Err: err}
				}
			}
		}
		for _, p := range plugins {
			if p.hooks.afterTransition != nil {
				if err := p.hooks.afterTransition(ctx, tc); err != nil {
					return &core.PluginError{Plugin: p.name, Hook: "afterTransition", Err: err}
				}
			}
		}
		return nil
	}

	err := e.runChain(ctx, chain, tc, terminal)

	if committed {
		e.finishCommit(tc, epoch)
		if err != nil {
			// Post-commit hook or middleware failure: the new stage stands,
			// the error still surfaces to the caller.
			e.logger.Warn("post-commit hook failed",
				"from", from.String(), "to", tc.To().String(), "error", err)
		}
		return err
	}
	if err != nil {
		e.logger.Debug("transition aborted",
			"from", from.String(), "to", tc.To().String(), "trigger", string(req.trigger), "error", err)
		return err
	}

	// Clean cancellation: a middleware called Cancel or omitted next. This
	// is a normal policy decision, not a failure.
	e.logger.Debug("transition canceled",
		"from", from.String(), "to", tc.To().String(), "trigger", string(req.trigger))
	return core.NewGuardError(from, req.event, core.ErrTransitionCanceled)
}

// runChain executes the middleware chain around terminal, enforcing the
// call-next-exactly-once contract. An error a middleware returns itself is
// wrapped as a MiddlewareError; errors it merely propagates from deeper links
// keep their original type.
func (e *Engine[D]) runChain(ctx context.Context, chain []core.Middleware[D], tc *core.TransitionContext[D], terminal core.Next) error {
	var run func(ctx context.Context, i int) error
	run = func(ctx context.Context, i int) error {
		if i == len(chain) {
			return terminal(ctx)
		}
		mw := chain[i]

		called := false
		var nextErr error
		next := func(ctx context.Context) error {
			if called {
				nextErr = &core.MiddlewareError{Middleware: mw.Name(), Err: errNextCalledTwice}
				return nextErr
			}
			called = true
			if tc.Canceled() {
				return nil
			}
			nextErr = run(ctx, i+1)
			return nextErr
		}

		err := mw.Execute(ctx, tc, next)
		if err == nil {
			return nil
		}
		if nextErr != nil && errors.Is(err, nextErr) {
			return err
		}
		return &core.MiddlewareError{Middleware: mw.Name(), Err: err}
	}
	return run(ctx, 0)
}

// finishCommit completes a committed transition: discard the old stage's
// timers, schedule the new stage's countdowns from zero, release the guard
// and notify subscribers outside the lock.
func (e *Engine[D]) finishCommit(tc *core.TransitionContext[D], epoch uint64) {
	e.mu.Lock()
	if e.lifecycle != stateTransitioning || e.epoch != epoch {
		// Stopped (possibly restarted) between commit and wrap-up: the
		// committed state stands but timers stay cleared, nobody is notified
		// and the new incarnation's guard is left alone.
		e.mu.Unlock()
		return
	}
	e.rearmTimersLocked(tc.To())
	e.lifecycle = stateIdle
	subs, stage, data := e.notifyLocked()
	e.mu.Unlock()

	for _, fn := range subs {
		fn(stage, data)
	}

	e.logger.Debug("transition committed",
		"transition_id", tc.ID,
		"from", tc.From.String(),
		"to", stage.String(),
		"trigger", string(tc.Trigger),
		"elapsed", time.Since(tc.Timestamp))
}
