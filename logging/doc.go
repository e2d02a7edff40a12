// Package logging provides a minimal logging interface and adapters for
// stageflow.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the engine and plugins use for observability. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - StageFlowLogger with flow-aware contextual helpers
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelDebug, "text", false)
//	eng := engine.New(g, initialData, func(o *engine.Options[Data]) {
//		o.Logger = logger
//	})
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
