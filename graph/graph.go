package graph

import (
	"github.com/simplecore-inc/stageflow/core"
)

// Options tunes graph construction.
type Options struct {
	// DefaultEffect is returned by EffectFor for stages without a declared
	// effect tag.
	DefaultEffect string
}

// Graph is the validated, immutable stage graph. All resolution helpers are
// side-effect free and safe for concurrent use.
type Graph[D any] struct {
	initial       core.StageName
	defaultEffect string
	stages        map[core.StageName]Stage[D]
	order         []core.StageName
}

// New validates the configuration and builds a Graph. It fails with a
// ConfigurationError when the initial stage is undeclared, a rule targets an
// undeclared stage, a rule has no trigger or a negative delay, or two rules
// in the same stage claim the same event name. Ambiguity is rejected instead
// of resolved by declaration order: declaration order is fragile to maintain
// and silently picking the first match is a common source of flow bugs.
func New[D any](initial core.StageName, stages []Stage[D], optFns ...func(o *Options)) (*Graph[D], error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if initial == "" {
		return nil, core.NewConfigurationError("initial stage must not be empty")
	}
	if len(stages) == 0 {
		return nil, core.NewConfigurationError("at least one stage is required")
	}

	g := &Graph[D]{
		initial:       initial,
		defaultEffect: opts.DefaultEffect,
		stages:        make(map[core.StageName]Stage[D], len(stages)),
		order:         make([]core.StageName, 0, len(stages)),
	}

	for _, s := range stages {
		if s.name == "" {
			return nil, core.NewConfigurationError("stage with empty name")
		}
		if _, exists := g.stages[s.name]; exists {
			return nil, core.NewConfigurationError("duplicate stage '%s'", s.name)
		}
		g.stages[s.name] = s
		g.order = append(g.order, s.name)
	}

	if _, ok := g.stages[initial]; !ok {
		return nil, core.NewConfigurationError("initial stage '%s' is not declared", initial)
	}

	for _, name := range g.order {
		seenEvents := map[string]struct{}{}
		for i, r := range g.stages[name].rules {
			if !r.hasEvent && !r.hasAfter {
				return nil, core.NewConfigurationError("stage '%s' rule %d has no trigger", name, i)
			}
			if r.hasEvent {
				if r.event == "" {
					return nil, core.NewConfigurationError("stage '%s' rule %d has an empty event name", name, i)
				}
				if _, dup := seenEvents[r.event]; dup {
					return nil, core.NewConfigurationError("stage '%s' declares event '%s' twice", name, r.event)
				}
				seenEvents[r.event] = struct{}{}
			}
			if r.hasAfter && r.after < 0 {
				return nil, core.NewConfigurationError("stage '%s' rule %d has a negative delay", name, i)
			}
			if r.target == "" {
				return nil, core.NewConfigurationError("stage '%s' rule %d has an empty target", name, i)
			}
			if _, ok := g.stages[r.target]; !ok {
				return nil, core.NewConfigurationError("stage '%s' has a rule targeting undeclared stage '%s'", name, r.target)
			}
		}
	}

	return g, nil
}

// Initial returns the configured starting stage.
func (g *Graph[D]) Initial() core.StageName { return g.initial }

// Contains reports whether the stage is declared.
func (g *Graph[D]) Contains(name core.StageName) bool {
	_, ok := g.stages[name]
	return ok
}

// StageNames returns all declared stages in declaration order.
func (g *Graph[D]) StageNames() []core.StageName {
	out := make([]core.StageName, len(g.order))
	copy(out, g.order)
	return out
}

// Rules returns the declared rules for a stage in declaration order, nil for
// an undeclared stage.
func (g *Graph[D]) Rules(name core.StageName) []Rule[D] {
	s, ok := g.stages[name]
	if !ok {
		return nil
	}
	return s.Rules()
}

// ResolveEvent returns the first rule of the stage whose event trigger
// matches. Duplicate events are rejected at construction, so first-match and
// only-match coincide here; the declaration-order contract matters for GoTo
// and timer resolution where several rules may share a target.
func (g *Graph[D]) ResolveEvent(from core.StageName, event string) (Rule[D], bool) {
	s, ok := g.stages[from]
	if !ok {
		return Rule[D]{}, false
	}
	for _, r := range s.rules {
		if r.hasEvent && r.event == event {
			return r, true
		}
	}
	return Rule[D]{}, false
}

// ResolveTarget returns the first rule of the stage leading to the requested
// target, regardless of the rule's trigger kind. Direct navigation traverses
// declared rules only; without one the move is illegal.
func (g *Graph[D]) ResolveTarget(from, to core.StageName) (Rule[D], bool) {
	s, ok := g.stages[from]
	if !ok {
		return Rule[D]{}, false
	}
	for _, r := range s.rules {
		if r.target == to {
			return r, true
		}
	}
	return Rule[D]{}, false
}

// AfterRules returns the stage's timer-triggered rules in declaration order.
func (g *Graph[D]) AfterRules(name core.StageName) []Rule[D] {
	s, ok := g.stages[name]
	if !ok {
		return nil
	}
	var out []Rule[D]
	for _, r := range s.rules {
		if r.hasAfter {
			out = append(out, r)
		}
	}
	return out
}

// EffectFor returns the stage's declared effect tag, or the configured
// default when the stage declares none (or is undeclared).
func (g *Graph[D]) EffectFor(name core.StageName) string {
	if s, ok := g.stages[name]; ok && s.hasEffect {
		return s.effect
	}
	return g.defaultEffect
}
