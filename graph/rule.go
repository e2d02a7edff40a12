package graph

import (
	"context"
	"time"

	"github.com/simplecore-inc/stageflow/core"
)

// Condition gates a single transition rule. It receives the stage the engine
// is leaving and the payload the transition would carry. Returning false
// rejects the transition with a TransitionError before any hook or middleware
// runs; returning an error marks the evaluation itself as failed. Conditions
// must be side-effect free.
type Condition[D any] func(ctx context.Context, from core.StageName, data D) (bool, error)

// Rule declares one legal move out of a stage. A rule is triggered by an
// event name, by an elapsed duration, or by both independently (each firing
// toward the same target). Rules are immutable values; the With-style methods
// return amended copies.
type Rule[D any] struct {
	target     core.StageName
	event      string
	hasEvent   bool
	after      time.Duration
	hasAfter   bool
	condition  Condition[D]
	middleware []core.Middleware[D]
}

// On declares an event-triggered rule toward target.
func On[D any](event string, target core.StageName) Rule[D] {
	return Rule[D]{target: target, event: event, hasEvent: true}
}

// After declares a timer-triggered rule toward target. The countdown starts
// from zero every time the owning stage is entered; a zero duration fires as
// soon as the stage is entered and the engine is idle.
func After[D any](d time.Duration, target core.StageName) Rule[D] {
	return Rule[D]{target: target, after: d, hasAfter: true}
}

// After adds an independent timer trigger to an event rule. Both triggers
// lead to the same target.
func (r Rule[D]) After(d time.Duration) Rule[D] {
	r.after = d
	r.hasAfter = true
	return r
}

// On adds an independent event trigger to a timer rule.
func (r Rule[D]) On(event string) Rule[D] {
	r.event = event
	r.hasEvent = true
	return r
}

// When attaches a condition to the rule.
func (r Rule[D]) When(cond Condition[D]) Rule[D] {
	r.condition = cond
	return r
}

// Use appends rule-scoped middleware, executed nested inside the engine's
// global chain in the order given here.
func (r Rule[D]) Use(mw ...core.Middleware[D]) Rule[D] {
	combined := make([]core.Middleware[D], 0, len(r.middleware)+len(mw))
	combined = append(combined, r.middleware...)
	combined = append(combined, mw...)
	r.middleware = combined
	return r
}

// Target returns the stage this rule leads to.
func (r Rule[D]) Target() core.StageName { return r.target }

// Event returns the event trigger, if the rule has one.
func (r Rule[D]) Event() (string, bool) { return r.event, r.hasEvent }

// Delay returns the timer trigger duration, if the rule has one.
func (r Rule[D]) Delay() (time.Duration, bool) { return r.after, r.hasAfter }

// Condition returns the attached condition, nil when unguarded.
func (r Rule[D]) Condition() Condition[D] { return r.condition }

// Middleware returns the rule-scoped middleware in execution order.
func (r Rule[D]) Middleware() []core.Middleware[D] {
	out := make([]core.Middleware[D], len(r.middleware))
	copy(out, r.middleware)
	return out
}

// Stage couples a stage name with its declared outbound rules and optional
// effect metadata.
type Stage[D any] struct {
	name      core.StageName
	effect    string
	hasEffect bool
	rules     []Rule[D]
}

// NewStage declares a stage with its outbound rules. Rule order is
// resolution order.
func NewStage[D any](name core.StageName, rules ...Rule[D]) Stage[D] {
	return Stage[D]{name: name, rules: rules}
}

// WithEffect tags the stage with an opaque effect identifier, typically
// consumed by a rendering layer to pick an animation or component.
func (s Stage[D]) WithEffect(tag string) Stage[D] {
	s.effect = tag
	s.hasEffect = true
	return s
}

// Name returns the stage name.
func (s Stage[D]) Name() core.StageName { return s.name }

// Effect returns the declared effect tag, if any.
func (s Stage[D]) Effect() (string, bool) { return s.effect, s.hasEffect }

// Rules returns the stage's rules in declaration order.
func (s Stage[D]) Rules() []Rule[D] {
	out := make([]Rule[D], len(s.rules))
	copy(out, s.rules)
	return out
}
