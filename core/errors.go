package core

import (
	"errors"
	"fmt"
)

// Sentinel conditions surfaced inside TransitionError values. Callers check
// them with errors.Is.
var (
	// ErrTransitionCanceled is returned from Send/GoTo when a middleware
	// cancels the attempt (explicitly via TransitionContext.Cancel or by not
	// calling next). It marks a normal policy decision, not a failure.
	ErrTransitionCanceled = errors.New("transition canceled")

	// ErrTransitionInProgress is returned when a request arrives while
	// another transition is in flight. Requests are rejected, never queued.
	ErrTransitionInProgress = errors.New("transition in progress")

	// ErrNotStarted is returned when an operation requires a started engine.
	ErrNotStarted = errors.New("engine not started")

	// ErrAlreadyStarted is returned from Start on an engine that is already
	// running.
	ErrAlreadyStarted = errors.New("engine already started")
)

// ConfigurationError reports an invalid stage graph or engine setup. It is
// fatal: construction fails and no engine is produced.
type ConfigurationError struct {
	Reason string
}

// NewConfigurationError formats a ConfigurationError.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return "stageflow: invalid configuration: " + e.Reason
}

// TransitionError reports a recoverable transition failure: no matching rule,
// a rejected condition, or a guard violation. The engine is back in a stable
// state when the caller observes it.
type TransitionError struct {
	// From is the stage the engine occupied when the request failed.
	From StageName

	// Event is the triggering event name, when the request was event-driven.
	Event string

	// Reason is a human-readable description of the failure.
	Reason string

	// Err optionally carries one of the sentinel conditions above.
	Err error
}

func (e *TransitionError) Error() string {
	return "stageflow: transition failed: " + e.Reason
}

func (e *TransitionError) Unwrap() error { return e.Err }

// NewNoRuleError reports that no declared rule matches an event from a stage.
func NewNoRuleError(from StageName, event string) *TransitionError {
	return &TransitionError{
		From:   from,
		Event:  event,
		Reason: fmt.Sprintf("no rule for event '%s' from '%s'", event, from),
	}
}

// NewNoTargetError reports that no declared rule leads from a stage to the
// requested target. Direct navigation must traverse the configured graph.
func NewNoTargetError(from, to StageName) *TransitionError {
	return &TransitionError{
		From:   from,
		Reason: fmt.Sprintf("no rule from '%s' to '%s'", from, to),
	}
}

// NewConditionRejectedError reports that a rule's condition returned false.
func NewConditionRejectedError(from StageName, event string) *TransitionError {
	return &TransitionError{
		From:   from,
		Event:  event,
		Reason: fmt.Sprintf("condition rejected transition from '%s'", from),
	}
}

// NewGuardError wraps a sentinel guard condition (not started, already
// started, in progress, canceled) in a TransitionError.
func NewGuardError(from StageName, event string, sentinel error) *TransitionError {
	return &TransitionError{
		From:   from,
		Event:  event,
		Reason: sentinel.Error(),
		Err:    sentinel,
	}
}

// ValidationError reports a malformed request shape: an empty event name, an
// empty target stage, or a payload rejected by the configured data validator.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("stageflow: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// MiddlewareError reports a middleware that returned an error (distinct from
// a clean cancellation, which is ErrTransitionCanceled). The pipeline aborted
// and, unless the error occurred post-commit, the engine state is unchanged.
type MiddlewareError struct {
	// Middleware is the name of the failing link.
	Middleware string

	Err error
}

func (e *MiddlewareError) Error() string {
	return fmt.Sprintf("stageflow: middleware %q failed: %v", e.Middleware, e.Err)
}

func (e *MiddlewareError) Unwrap() error { return e.Err }

// PluginError reports a failure in plugin registration or in a plugin hook.
type PluginError struct {
	// Plugin is the registry name of the plugin involved.
	Plugin string

	// Hook names the failing hook, empty for install/uninstall failures.
	Hook string

	Reason string
	Err    error
}

func (e *PluginError) Error() string {
	if e.Hook != "" {
		return fmt.Sprintf("stageflow: plugin %q hook %s failed: %v", e.Plugin, e.Hook, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("stageflow: plugin %q: %s: %v", e.Plugin, e.Reason, e.Err)
	}
	return fmt.Sprintf("stageflow: plugin %q: %s", e.Plugin, e.Reason)
}

func (e *PluginError) Unwrap() error { return e.Err }
