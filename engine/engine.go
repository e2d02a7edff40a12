package engine

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/simplecore-inc/stageflow/core"
	"github.com/simplecore-inc/stageflow/graph"
	"github.com/simplecore-inc/stageflow/logging"
)

// lifecycleState tracks where the engine is in its stopped/idle/transitioning
// cycle. There is no terminal state: Stop returns the engine to stopped and a
// fresh Start re-enters from the configured initial stage.
type lifecycleState int

const (
	stateStopped lifecycleState = iota
	stateIdle
	stateTransitioning
)

func (s lifecycleState) String() string {
	switch s {
	case stateStopped:
		return "stopped"
	case stateIdle:
		return "idle"
	case stateTransitioning:
		return "transitioning"
	default:
		return "unknown"
	}
}

// subscriberEntry keeps subscribers in registration order so notification
// order is stable.
type subscriberEntry[D any] struct {
	id int
	fn func(stage core.StageName, data D)
}

// Engine drives a single flow: it holds the current stage and data payload,
// accepts events and navigation requests, runs timer-driven transitions and
// dispatches the plugin/middleware pipeline around every commit.
//
// All methods are safe for concurrent use. Reads (CurrentStage, CurrentData,
// timer queries) are lock-free point-in-time snapshots; the committed
// (stage, data) pair is only ever mutated by the pipeline's commit step.
type Engine[D any] struct {
	// Immutable after construction.
	graph        *graph.Graph[D]
	logger       logging.Logger
	cfg          Config
	validateData func(D) error
	newID        func() string
	initialData  D

	mu        sync.Mutex
	lifecycle lifecycleState
	stage     core.StageName
	data      D

	// epoch identifies the current Start incarnation. A pipeline captures it
	// at guard-claim; Stop+Start bumps it, so a pipeline orphaned mid-flight
	// can neither commit into the new incarnation nor release its guard.
	epoch uint64

	// Timer bookkeeping for the current stage incarnation. Replaced
	// wholesale on every stage change; nil when the stage owns no timer
	// rules or the engine is stopped.
	timers *timerSet[D]

	// Registries, protected by mu. Snapshotted before each pipeline run so
	// dynamic add/remove never mutates a chain mid-flight.
	middleware []core.Middleware[D]
	plugins    []*installedPlugin[D]

	subscribers []subscriberEntry[D]
	nextSubID   int
}

// New creates an engine for the given validated graph. The engine starts in
// the stopped state; initialData becomes the payload every time Start (re-)
// enters the initial stage.
func New[D any](g *graph.Graph[D], initialData D, optFns ...func(o *Options[D])) (*Engine[D], error) {
	if g == nil {
		return nil, core.NewConfigurationError("graph must not be nil")
	}

	opts := defaultOptions[D]()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.TransitionID == nil {
		return nil, core.NewConfigurationError("TransitionID generator must not be nil")
	}

	return &Engine[D]{
		graph:        g,
		logger:       opts.Logger,
		cfg:          opts.Config,
		validateData: opts.DataValidator,
		newID:        opts.TransitionID,
		initialData:  initialData,
		lifecycle:    stateStopped,
	}, nil
}

// Start moves the engine from stopped to idle: the current stage becomes the
// graph's initial stage with the configured initial data, the initial stage's
// timers are scheduled and onStageEnter hooks fire. Starting a running engine
// fails with a TransitionError wrapping ErrAlreadyStarted.
//
// An error from an enter hook is surfaced but leaves the engine started;
// hooks observe state, they do not gate it.
func (e *Engine[D]) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.lifecycle != stateStopped {
		from := e.stage
		e.mu.Unlock()
		return core.NewGuardError(from, "", core.ErrAlreadyStarted)
	}
	e.lifecycle = stateIdle
	e.epoch++
	e.stage = e.graph.Initial()
	e.data = e.initialData
	stage, data := e.stage, e.data
	e.rearmTimersLocked(stage)
	plugins := slices.Clone(e.plugins)
	e.mu.Unlock()

	e.logger.Info("engine started", "stage", stage.String())

	sc := core.StageContext[D]{Current: stage, Data: data, Timestamp: time.Now()}
	for _, p := range plugins {
		if p.hooks.onStageEnter != nil {
			if err := p.hooks.onStageEnter(ctx, sc); err != nil {
				return &core.PluginError{Plugin: p.name, Hook: "onStageEnter", Err: err}
			}
		}
	}
	return nil
}

// Stop returns the engine to stopped from any state and discards every
// pending countdown. It never rolls back already-committed side effects, and
// an in-flight pipeline that has not yet committed will fail its commit step.
// Stopping a stopped engine is a no-op.
func (e *Engine[D]) Stop() {
	e.mu.Lock()
	if e.lifecycle == stateStopped {
		e.mu.Unlock()
		return
	}
	e.discardTimersLocked()
	e.lifecycle = stateStopped
	e.mu.Unlock()

	e.logger.Info("engine stopped")
}

// Send requests an event-triggered transition, keeping the current payload.
// It returns once the transition fully commits or fully does not: on success
// stage, data and timers have all been updated together.
func (e *Engine[D]) Send(ctx context.Context, event string) error {
	return e.send(ctx, event, nil)
}

// SendWithData is Send with a replacement payload carried into the
// transition.
func (e *Engine[D]) SendWithData(ctx context.Context, event string, data D) error {
	return e.send(ctx, event, &data)
}

func (e *Engine[D]) send(ctx context.Context, event string, data *D) error {
	if e.cfg.ValidateRequests {
		if event == "" {
			return &core.ValidationError{Field: "event", Reason: "event name must not be empty"}
		}
		if err := e.checkPayload(data); err != nil {
			return err
		}
	}
	return e.dispatch(ctx, request[D]{trigger: core.TriggerEvent, event: event, data: data})
}

// GoTo requests direct navigation to a stage. The move must still traverse a
// declared rule whose target is the requested stage; the graph remains the
// single source of truth for legal moves.
func (e *Engine[D]) GoTo(ctx context.Context, stage core.StageName) error {
	return e.goTo(ctx, stage, nil)
}

// GoToWithData is GoTo with a replacement payload.
func (e *Engine[D]) GoToWithData(ctx context.Context, stage core.StageName, data D) error {
	return e.goTo(ctx, stage, &data)
}

func (e *Engine[D]) goTo(ctx context.Context, stage core.StageName, data *D) error {
	if e.cfg.ValidateRequests {
		if stage == "" {
			return &core.ValidationError{Field: "stage", Reason: "target stage must not be empty"}
		}
		if err := e.checkPayload(data); err != nil {
			return err
		}
	}
	return e.dispatch(ctx, request[D]{trigger: core.TriggerDirect, target: stage, data: data})
}

// SetStageData replaces the current payload in place, without a transition:
// no hooks, no middleware, no timer reset and no subscriber notification. It
// is allowed only while the engine is idle and fails with a TransitionError
// while a transition is in flight.
func (e *Engine[D]) SetStageData(data D) error {
	if e.cfg.ValidateRequests {
		if err := e.checkPayload(&data); err != nil {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.lifecycle {
	case stateStopped:
		return core.NewGuardError(e.stage, "", core.ErrNotStarted)
	case stateTransitioning:
		return core.NewGuardError(e.stage, "", core.ErrTransitionInProgress)
	}
	e.data = data
	return nil
}

func (e *Engine[D]) checkPayload(data *D) error {
	if data == nil || e.validateData == nil {
		return nil
	}
	if err := e.validateData(*data); err != nil {
		return &core.ValidationError{Field: "data", Reason: err.Error(), Err: err}
	}
	return nil
}

// CurrentStage returns the committed stage at the time of the call.
func (e *Engine[D]) CurrentStage() core.StageName {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stage
}

// CurrentData returns the committed payload at the time of the call.
func (e *Engine[D]) CurrentData() D {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.data
}

// CurrentEffect returns the effect tag declared for the current stage, or the
// graph's default.
func (e *Engine[D]) CurrentEffect() string {
	e.mu.Lock()
	stage := e.stage
	e.mu.Unlock()
	return e.graph.EffectFor(stage)
}

// Graph returns the immutable stage graph driving this engine.
func (e *Engine[D]) Graph() *graph.Graph[D] { return e.graph }

// IsStarted reports whether the engine has been started and not yet stopped.
func (e *Engine[D]) IsStarted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lifecycle != stateStopped
}

// IsTransitioning reports whether a transition pipeline is in flight. The
// flag is true for exactly the span between guard-pass and commit or abort.
func (e *Engine[D]) IsTransitioning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lifecycle == stateTransitioning
}

// Subscribe registers a callback invoked with (newStage, newData) after every
// committed transition, in registration order. The returned function removes
// the subscription and is safe to call more than once.
func (e *Engine[D]) Subscribe(fn func(stage core.StageName, data D)) core.UnsubscribeFunc {
	e.mu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subscribers = append(e.subscribers, subscriberEntry[D]{id: id, fn: fn})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			e.subscribers = slices.DeleteFunc(e.subscribers, func(s subscriberEntry[D]) bool {
				return s.id == id
			})
			e.mu.Unlock()
		})
	}
}

func (e *Engine[D]) notifyLocked() (subs []func(core.StageName, D), stage core.StageName, data D) {
	subs = make([]func(core.StageName, D), 0, len(e.subscribers))
	for _, s := range e.subscribers {
		subs = append(subs, s.fn)
	}
	return subs, e.stage, e.data
}
