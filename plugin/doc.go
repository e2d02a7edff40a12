// Package plugin houses the reference plugins shipped with stageflow:
// logging, persistence and analytics. Each is an ordinary implementation of
// the core.Plugin contract with no privileged access to the engine — anything
// they do, third-party plugins can do too.
//
//   - Logging observes all four hooks and writes structured transition and
//     stage records through a logging.Logger.
//   - Persistence snapshots the (stage, data) pair into a SnapshotStore after
//     every committed transition and can restore the last snapshot through
//     direct navigation.
//   - Analytics exports Prometheus counters and a duration histogram for
//     committed transitions.
package plugin
