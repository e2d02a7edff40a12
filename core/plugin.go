package core

import (
	"context"

	"github.com/simplecore-inc/stageflow/logging"
)

// Plugin is an installable unit that observes the engine through lifecycle
// hooks without participating in the commit decision. Plugins declare the
// hooks they care about by implementing the optional capability interfaces
// (BeforeTransitionHook, AfterTransitionHook, StageEnterHook, StageExitHook,
// Uninstaller, Versioner); the engine detects and normalizes them once at
// install time, so absent hooks cost nothing at dispatch.
type Plugin[D any] interface {
	// Name is the unique registry key for this plugin. Installing a second
	// plugin with the same name fails with a PluginError.
	Name() string

	// Install wires the plugin to the engine. The handle remains valid for
	// the plugin's lifetime and exposes the read/navigate/subscribe surface
	// plus the plugin's private key/value store.
	Install(ctx context.Context, h EngineHandle[D]) error
}

// Versioner optionally reports a plugin version for diagnostics.
type Versioner interface {
	Version() string
}

// Uninstaller optionally releases plugin resources when the plugin is removed
// from the engine. It runs before the engine clears the plugin's store.
type Uninstaller interface {
	Uninstall() error
}

// BeforeTransitionHook observes a transition attempt after its rule and
// condition passed but before any middleware runs. Returning an error aborts
// the attempt.
type BeforeTransitionHook[D any] interface {
	BeforeTransition(ctx context.Context, tc *TransitionContext[D]) error
}

// AfterTransitionHook observes a committed transition. The context carries the
// final target and data. Errors surface to the caller but no longer affect the
// committed state.
type AfterTransitionHook[D any] interface {
	AfterTransition(ctx context.Context, tc *TransitionContext[D]) error
}

// StageEnterHook observes a stage being entered, including the initial stage
// on Start.
type StageEnterHook[D any] interface {
	OnStageEnter(ctx context.Context, sc StageContext[D]) error
}

// StageExitHook observes a stage being left. The engine still reports the old
// stage while this hook runs.
type StageExitHook[D any] interface {
	OnStageExit(ctx context.Context, sc StageContext[D]) error
}

// UnsubscribeFunc removes a previously registered subscriber. Safe to call
// more than once.
type UnsubscribeFunc func()

// EngineHandle is the narrow engine surface given to plugins at install time.
// It deliberately exposes only what external collaborators (persistence,
// rendering, analytics) need: point-in-time reads, direct navigation, change
// subscription, plugin-private storage and the engine logger.
type EngineHandle[D any] interface {
	// CurrentStage returns the committed stage at the time of the call.
	CurrentStage() StageName

	// CurrentData returns the committed payload at the time of the call.
	CurrentData() D

	// GoTo requests a direct navigation, traversing a declared rule exactly
	// like an external GoTo call.
	GoTo(ctx context.Context, stage StageName) error

	// GoToWithData is GoTo with a replacement payload.
	GoToWithData(ctx context.Context, stage StageName, data D) error

	// Subscribe registers a callback invoked after every committed
	// transition with the new stage and data.
	Subscribe(fn func(stage StageName, data D)) UnsubscribeFunc

	// Store returns the plugin's private key/value storage, owned by the
	// engine and scoped to the plugin's installed lifetime.
	Store() PluginStore

	// Logger returns the engine's logger.
	Logger() logging.Logger
}

// PluginStore is opaque key/value storage the engine keeps on a plugin's
// behalf. It is cleared when the plugin is uninstalled.
type PluginStore interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
	Keys() []string
}
