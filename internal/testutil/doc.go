// Package testutil provides shared helpers for stageflow tests: a hook
// recorder plugin for asserting pipeline ordering and a scripted middleware
// for exercising cancellation, rewriting and failure paths. Test-only; not
// part of the public API.
package testutil
