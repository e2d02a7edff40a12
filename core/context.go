package core

import "time"

// TransitionContext is the ephemeral record created for a single transition
// attempt. It is handed to beforeTransition/afterTransition hooks and to every
// middleware in the chain. Middleware may rewrite the target stage or the data
// payload until the engine commits, or cancel the attempt entirely.
//
// A TransitionContext is only ever mutated by the pipeline that created it and
// is discarded immediately after commit or cancellation; holding a reference
// past the hook invocation is a programming error.
type TransitionContext[D any] struct {
	// ID uniquely identifies this attempt, for correlation in logs and
	// analytics. It is regenerated for every attempt, including retries of
	// the same event.
	ID string

	// From is the stage the engine occupied when the attempt started.
	From StageName

	// Event is the triggering event name. Empty for timer-driven and direct
	// (GoTo) transitions.
	Event string

	// Trigger records how the attempt was initiated.
	Trigger Trigger

	// Timestamp records when the attempt passed the engine guard.
	Timestamp time.Time

	to       StageName
	data     D
	canceled bool
}

// NewTransitionContext assembles a context for one transition attempt.
// Intended for the engine pipeline and for tests that exercise middleware
// directly.
func NewTransitionContext[D any](id string, from, to StageName, event string, trigger Trigger, data D) *TransitionContext[D] {
	return &TransitionContext[D]{
		ID:        id,
		From:      from,
		Event:     event,
		Trigger:   trigger,
		Timestamp: time.Now(),
		to:        to,
		data:      data,
	}
}

// To returns the target stage as currently negotiated. Middleware rewrites via
// SetTarget are visible to later links in the chain.
func (tc *TransitionContext[D]) To() StageName { return tc.to }

// Data returns the payload that will be committed if the attempt succeeds.
func (tc *TransitionContext[D]) Data() D { return tc.data }

// SetTarget rewrites the target stage. Effective only before commit.
func (tc *TransitionContext[D]) SetTarget(to StageName) { tc.to = to }

// SetData rewrites the payload carried into the commit. Effective only before
// commit.
func (tc *TransitionContext[D]) SetData(data D) { tc.data = data }

// Cancel marks the attempt void. The pipeline stops before commit, the engine
// returns to idle with its stage and data untouched, and the originating
// Send/GoTo call returns ErrTransitionCanceled. Cancellation is cooperative:
// it has no effect once the commit step has run.
func (tc *TransitionContext[D]) Cancel() { tc.canceled = true }

// Canceled reports whether Cancel has been called on this attempt.
func (tc *TransitionContext[D]) Canceled() bool { return tc.canceled }
