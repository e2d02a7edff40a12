// Package stageflow provides a high-level façade over the transition engine
// and stage graph abstractions for building client-side UI flows. Most
// applications interact with this package by:
//  1. Declaring a stage graph (in code via graph.NewStage/graph.On, or from a
//     YAML document via graph.ParseYAML)
//  2. Creating an engine via New() with the initial data payload
//  3. Installing plugins and middleware, then driving the flow with
//     Start/Send/GoTo and the timer controls
//
// The façade delegates everything to engine.Engine while keeping setup
// ergonomics concise. Defaults are safe for local development and testing;
// applications typically supply a structured logger and the reference
// plugins they need.
package stageflow

import (
	"github.com/simplecore-inc/stageflow/core"
	"github.com/simplecore-inc/stageflow/engine"
	"github.com/simplecore-inc/stageflow/graph"
)

// StageName re-exports core.StageName for callers that only import the
// façade.
type StageName = core.StageName

// Engine re-exports engine.Engine.
type Engine[D any] = engine.Engine[D]

// Options re-exports engine.Options.
type Options[D any] = engine.Options[D]

// Re-exported sentinel conditions, checkable with errors.Is on the error
// returned from Send/GoTo.
var (
	ErrTransitionCanceled   = core.ErrTransitionCanceled
	ErrTransitionInProgress = core.ErrTransitionInProgress
	ErrNotStarted           = core.ErrNotStarted
	ErrAlreadyStarted       = core.ErrAlreadyStarted
)

// New creates an engine for a validated graph. See engine.New.
func New[D any](g *graph.Graph[D], initialData D, optFns ...func(o *Options[D])) (*Engine[D], error) {
	return engine.New(g, initialData, optFns...)
}

// NewFromStages builds and validates the graph inline, then creates the
// engine, collapsing the common two-step setup:
//
//	eng, err := stageflow.NewFromStages("idle", []graph.Stage[Data]{
//		graph.NewStage[Data]("idle", graph.On[Data]("start", "loading")),
//		graph.NewStage[Data]("loading", graph.On[Data]("done", "success")),
//		graph.NewStage[Data]("success"),
//	}, Data{})
func NewFromStages[D any](initial StageName, stages []graph.Stage[D], initialData D, optFns ...func(o *Options[D])) (*Engine[D], error) {
	g, err := graph.New(initial, stages)
	if err != nil {
		return nil, err
	}
	return engine.New(g, initialData, optFns...)
}
