// Package graph models the static stage graph that drives a flow: the closed
// set of stages, their outbound transition rules and optional per-stage effect
// metadata.
//
// A graph is built once, validated at construction and read-only afterwards.
// Rules are declared with the On/After constructors and resolved strictly in
// declaration order; ambiguous configurations (two rules on the same event in
// one stage, undeclared targets, a missing initial stage) are rejected with a
// ConfigurationError rather than silently tolerated.
//
// Graphs can also be loaded from declarative YAML documents via ParseYAML.
// Conditions and middleware are code-only concerns and are attached to parsed
// rules through Definition.AmendRule before building.
package graph
