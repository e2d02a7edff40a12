package graph

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/simplecore-inc/stageflow/core"
)

// Definition is the intermediate form of a parsed flow document. It exists so
// callers can attach code-only concerns (conditions, middleware) to parsed
// rules via AmendRule before freezing the graph with Build.
type Definition[D any] struct {
	Initial       core.StageName
	DefaultEffect string
	Stages        []Stage[D]
}

type flowDoc struct {
	Initial       string     `yaml:"initial"`
	DefaultEffect string     `yaml:"default_effect"`
	Stages        []stageDoc `yaml:"stages"`
}

type stageDoc struct {
	Name   string    `yaml:"name"`
	Effect string    `yaml:"effect"`
	Rules  []ruleDoc `yaml:"rules"`
}

type ruleDoc struct {
	Event  string `yaml:"event"`
	After  string `yaml:"after"`
	Target string `yaml:"target"`
}

// ParseYAML decodes a declarative flow document into a Definition. Durations
// use time.ParseDuration syntax ("250ms", "5s", "0s").
//
//	initial: idle
//	default_effect: none
//	stages:
//	  - name: idle
//	    effect: fade
//	    rules:
//	      - event: start
//	        target: loading
//	  - name: loading
//	    rules:
//	      - event: done
//	        target: success
//	      - after: 5s
//	        target: timeout
//	  - name: success
//	  - name: timeout
func ParseYAML[D any](data []byte) (*Definition[D], error) {
	var doc flowDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, core.NewConfigurationError("parse flow document: %v", err)
	}

	def := &Definition[D]{
		Initial:       core.StageName(doc.Initial),
		DefaultEffect: doc.DefaultEffect,
	}

	for _, sd := range doc.Stages {
		rules := make([]Rule[D], 0, len(sd.Rules))
		for i, rd := range sd.Rules {
			r, err := ruleFromDoc[D](sd.Name, i, rd)
			if err != nil {
				return nil, err
			}
			rules = append(rules, r)
		}
		s := NewStage(core.StageName(sd.Name), rules...)
		if sd.Effect != "" {
			s = s.WithEffect(sd.Effect)
		}
		def.Stages = append(def.Stages, s)
	}

	return def, nil
}

func ruleFromDoc[D any](stage string, idx int, rd ruleDoc) (Rule[D], error) {
	if rd.Event == "" && rd.After == "" {
		return Rule[D]{}, core.NewConfigurationError("stage '%s' rule %d declares neither event nor after", stage, idx)
	}

	var r Rule[D]
	target := core.StageName(rd.Target)
	switch {
	case rd.Event != "":
		r = On[D](rd.Event, target)
		if rd.After != "" {
			d, err := parseDelay(stage, idx, rd.After)
			if err != nil {
				return Rule[D]{}, err
			}
			r = r.After(d)
		}
	default:
		d, err := parseDelay(stage, idx, rd.After)
		if err != nil {
			return Rule[D]{}, err
		}
		r = After[D](d, target)
	}
	return r, nil
}

func parseDelay(stage string, idx int, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, core.NewConfigurationError("stage '%s' rule %d has invalid delay %q: %v", stage, idx, raw, err)
	}
	return d, nil
}

// AmendRule rewrites the parsed rule matched by stage and event through fn.
// Use it to attach conditions or middleware that cannot be expressed in YAML:
//
//	def.AmendRule("checkout", "pay", func(r graph.Rule[Cart]) graph.Rule[Cart] {
//		return r.When(cartNotEmpty)
//	})
func (d *Definition[D]) AmendRule(stage core.StageName, event string, fn func(r Rule[D]) Rule[D]) error {
	for si, s := range d.Stages {
		if s.name != stage {
			continue
		}
		for ri, r := range s.rules {
			if r.hasEvent && r.event == event {
				d.Stages[si].rules[ri] = fn(r)
				return nil
			}
		}
		return core.NewConfigurationError("stage '%s' has no rule for event '%s'", stage, event)
	}
	return core.NewConfigurationError("stage '%s' is not declared", stage)
}

// Build validates the definition and freezes it into a Graph.
func (d *Definition[D]) Build() (*Graph[D], error) {
	return New(d.Initial, d.Stages, func(o *Options) {
		o.DefaultEffect = d.DefaultEffect
	})
}

// FromYAML is a convenience that parses and builds in one step, for flows
// that need no code-attached conditions or middleware.
func FromYAML[D any](r io.Reader) (*Graph[D], error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read flow document: %w", err)
	}
	def, err := ParseYAML[D](data)
	if err != nil {
		return nil, err
	}
	return def.Build()
}
