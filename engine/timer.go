package engine

import (
	"context"
	"errors"
	"time"

	"github.com/simplecore-inc/stageflow/core"
	"github.com/simplecore-inc/stageflow/graph"
)

// timerSet owns every pending countdown for one stage incarnation. A fresh
// set is built each time a stage with timer rules becomes current and the
// whole set is discarded on stage exit or engine stop; countdowns never carry
// over between stages, even between two visits to the same stage name.
//
// All fields are guarded by the engine mutex.
type timerSet[D any] struct {
	stage   core.StageName
	paused  bool
	handles []*timerHandle[D]
}

// timerHandle tracks one timer rule's countdown.
type timerHandle[D any] struct {
	rule      graph.Rule[D]
	duration  time.Duration // configured duration, restored by reset
	remaining time.Duration // time left; frozen while paused
	startedAt time.Time     // last (re)start of the countdown
	timer     *time.Timer
	fired     bool // countdown elapsed for this incarnation
}

// rearmTimersLocked replaces the current timer set with a fresh one for the
// given stage, every countdown starting from its configured duration. Caller
// must hold e.mu.
func (e *Engine[D]) rearmTimersLocked(stage core.StageName) {
	e.discardTimersLocked()

	rules := e.graph.AfterRules(stage)
	if len(rules) == 0 {
		return
	}

	set := &timerSet[D]{stage: stage}
	now := time.Now()
	for _, r := range rules {
		d, _ := r.Delay()
		h := &timerHandle[D]{rule: r, duration: d, remaining: d, startedAt: now}
		e.scheduleHandleLocked(set, h, d)
		set.handles = append(set.handles, h)
	}
	e.timers = set
}

// discardTimersLocked stops and drops every pending countdown. Caller must
// hold e.mu. A handle whose AfterFunc already fired is neutralized by the
// staleness check in dispatch.
func (e *Engine[D]) discardTimersLocked() {
	if e.timers == nil {
		return
	}
	for _, h := range e.timers.handles {
		if h.timer != nil {
			h.timer.Stop()
		}
	}
	e.timers = nil
}

func (e *Engine[D]) scheduleHandleLocked(set *timerSet[D], h *timerHandle[D], d time.Duration) {
	h.timer = time.AfterFunc(d, func() {
		e.onTimerElapsed(set, h)
	})
}

// onTimerElapsed runs on the timer goroutine when a countdown reaches zero.
// It synthesizes a transition request through the same guarded pipeline as an
// event; if the engine happens to be transitioning at that instant the
// request is rejected and dropped, which is acceptable because a new schedule
// is established on every stage change.
func (e *Engine[D]) onTimerElapsed(set *timerSet[D], h *timerHandle[D]) {
	e.mu.Lock()
	if e.timers != set || set.paused || h.fired {
		e.mu.Unlock()
		return
	}
	h.fired = true
	stage := set.stage
	e.mu.Unlock()

	err := e.dispatch(context.Background(), request[D]{
		trigger: core.TriggerTimer,
		rule:    h.rule,
		set:     set,
	})

	target := h.rule.Target()
	switch {
	case err == nil:
		e.logger.Debug("countdown fired",
			"stage", stage.String(), "target", target.String(), "configured", h.duration)
	case errors.Is(err, core.ErrTransitionInProgress):
		e.logger.Debug("countdown fire rejected, transition in progress",
			"stage", stage.String(), "target", target.String())
	default:
		e.logger.Warn("countdown transition failed",
			"stage", stage.String(), "target", target.String(), "error", err)
	}
}

// PauseTimers freezes every countdown of the current stage by recording the
// remaining time at the moment of the call. Pausing when already paused, or
// when no timers are pending, is a no-op.
func (e *Engine[D]) PauseTimers() {
	e.mu.Lock()
	defer e.mu.Unlock()

	set := e.timers
	if set == nil || set.paused {
		return
	}
	now := time.Now()
	for _, h := range set.handles {
		if h.fired {
			continue
		}
		h.timer.Stop()
		h.remaining -= now.Sub(h.startedAt)
		if h.remaining < 0 {
			h.remaining = 0
		}
	}
	set.paused = true
	e.logger.Debug("timers paused", "stage", set.stage.String())
}

// ResumeTimers restarts frozen countdowns from their recorded remaining time.
// No-op when not paused.
func (e *Engine[D]) ResumeTimers() {
	e.mu.Lock()
	defer e.mu.Unlock()

	set := e.timers
	if set == nil || !set.paused {
		return
	}
	now := time.Now()
	for _, h := range set.handles {
		if h.fired {
			continue
		}
		h.startedAt = now
		e.scheduleHandleLocked(set, h, h.remaining)
	}
	set.paused = false
	e.logger.Debug("timers resumed", "stage", set.stage.String())
}

// ResetTimers restores every countdown of the current stage to its configured
// duration and restarts them, implicitly unpausing. Already-elapsed
// countdowns are revived.
func (e *Engine[D]) ResetTimers() {
	e.mu.Lock()
	defer e.mu.Unlock()

	set := e.timers
	if set == nil {
		return
	}
	now := time.Now()
	for _, h := range set.handles {
		if h.timer != nil {
			h.timer.Stop()
		}
		h.fired = false
		h.remaining = h.duration
		h.startedAt = now
		e.scheduleHandleLocked(set, h, h.duration)
	}
	set.paused = false
	e.logger.Debug("timers reset", "stage", set.stage.String())
}

// TimerRemaining returns the shortest remaining time across the current
// stage's pending countdowns. The second return is false when no countdown is
// pending; callers poll this for live UI display, the engine never pushes
// timer updates.
func (e *Engine[D]) TimerRemaining() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	set := e.timers
	if set == nil {
		return 0, false
	}
	now := time.Now()
	var min time.Duration
	found := false
	for _, h := range set.handles {
		if h.fired {
			continue
		}
		left := h.remaining
		if !set.paused {
			left -= now.Sub(h.startedAt)
			if left < 0 {
				left = 0
			}
		}
		if !found || left < min {
			min = left
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return min, true
}

// TimersPaused reports whether the current stage's timer set is paused.
// False when no timers are pending.
func (e *Engine[D]) TimersPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timers != nil && e.timers.paused
}
