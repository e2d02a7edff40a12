package plugin

import (
	"context"

	"github.com/simplecore-inc/stageflow/core"
	"github.com/simplecore-inc/stageflow/logging"
)

// Logging is the reference observability plugin. It logs every transition
// attempt it observes plus stage entry/exit, and never influences the
// outcome: hook errors are impossible by construction, all methods return
// nil.
type Logging[D any] struct {
	logger logging.Logger
}

// NewLogging creates the logging plugin. With a nil logger it adopts the
// engine's logger at install time.
func NewLogging[D any](logger logging.Logger) *Logging[D] {
	return &Logging[D]{logger: logger}
}

// Name implements core.Plugin.
func (p *Logging[D]) Name() string { return "logging" }

// Install implements core.Plugin.
func (p *Logging[D]) Install(_ context.Context, h core.EngineHandle[D]) error {
	if p.logger == nil {
		p.logger = h.Logger()
	}
	return nil
}

// BeforeTransition logs the attempt before middleware runs.
func (p *Logging[D]) BeforeTransition(_ context.Context, tc *core.TransitionContext[D]) error {
	p.logger.Debug("transition attempt",
		"transition_id", tc.ID,
		"from", tc.From.String(),
		"to", tc.To().String(),
		"event", tc.Event,
		"trigger", string(tc.Trigger))
	return nil
}

// AfterTransition logs the committed transition with its final target.
func (p *Logging[D]) AfterTransition(_ context.Context, tc *core.TransitionContext[D]) error {
	p.logger.Info("transition committed",
		"transition_id", tc.ID,
		"from", tc.From.String(),
		"to", tc.To().String(),
		"event", tc.Event,
		"trigger", string(tc.Trigger))
	return nil
}

// OnStageEnter logs stage entry, including the initial stage on Start.
func (p *Logging[D]) OnStageEnter(_ context.Context, sc core.StageContext[D]) error {
	p.logger.Debug("stage entered", "stage", sc.Current.String())
	return nil
}

// OnStageExit logs stage exit while the engine still reports the old stage.
func (p *Logging[D]) OnStageExit(_ context.Context, sc core.StageContext[D]) error {
	p.logger.Debug("stage exited", "stage", sc.Current.String())
	return nil
}
