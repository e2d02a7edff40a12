// Package core provides the foundational domain types, interfaces and
// transition contexts used by stageflow. It defines the core abstractions for:
//
//   - Stages (named positions in a UI flow)
//   - TransitionContext / StageContext (scoped records passed to middleware and hooks)
//   - Middleware (composable interceptors that can observe, rewrite or cancel
//     a transition before commit)
//   - Plugins (installable units with lifecycle hooks and engine-owned state)
//   - The error taxonomy shared by the graph and engine packages
//
// The package intentionally keeps implementation concerns (graph validation,
// pipeline execution, timers) out of scope, exposing small interfaces so the
// engine and external extensions depend on contracts rather than concrete
// types.
package core
