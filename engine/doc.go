// Package engine implements the stageflow transition engine: the component
// that owns the current (stage, data) pair and reconciles the three sources of
// state change — explicit events, direct navigation and autonomous timers —
// under a single consistency guarantee.
//
// # Core Responsibilities
//
// State & Guard:
//   - Lifecycle management (stopped, idle, transitioning) with strict
//     start/stop semantics
//   - The single-flight invariant: no two transition pipelines ever overlap;
//     requests arriving mid-transition are rejected, never queued
//
// Transition Pipeline:
//   - Rule resolution against the immutable stage graph
//   - Condition evaluation before any observable side effect
//   - Plugin hooks (beforeTransition, onStageExit, onStageEnter,
//     afterTransition) and the global-then-rule-scoped middleware chain
//   - All-or-nothing commit: a transition either fully commits (stage, data
//     and timers updated together) or leaves the engine untouched
//
// Timer Subsystem:
//   - One countdown per timer rule of the current stage, discarded wholesale
//     on every stage change and on Stop
//   - Pause, resume, reset and remaining-time queries for live UI display
//
// Registries:
//   - Ordered plugin and middleware collections with dynamic install,
//     uninstall, add and remove
//
// # Concurrency Model
//
// The engine is safe for concurrent use. A single mutex guards the
// (stage, data, lifecycle) tuple; conditions, hooks and middleware run outside
// the lock so reads stay lock-free point-in-time snapshots with no
// transactional guarantee across two separate reads. The transitioning flag is
// claimed at guard time and released on every exit path, failure included.
package engine
