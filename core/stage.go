package core

import "time"

// StageName identifies a single stage in a flow. Stage names are opaque to the
// engine; the set of legal names is fixed by the graph at construction time.
type StageName string

// String returns the stage name as a plain string.
func (s StageName) String() string { return string(s) }

// Trigger describes what caused a transition attempt.
type Trigger string

const (
	// TriggerEvent marks a transition requested via Send.
	TriggerEvent Trigger = "event"

	// TriggerTimer marks a transition synthesized by an elapsed countdown.
	TriggerTimer Trigger = "timer"

	// TriggerDirect marks a transition requested via GoTo.
	TriggerDirect Trigger = "direct"
)

// StageContext is the read-only record handed to stage entry/exit hooks.
// It captures a point-in-time view of the engine around a single stage
// boundary crossing.
type StageContext[D any] struct {
	// Current is the stage the hook observes. Exit hooks still see the stage
	// being left; entry hooks see the stage being entered.
	Current StageName

	// Data is the payload at the moment the hook runs.
	Data D

	// Timestamp records when the surrounding transition attempt began.
	Timestamp time.Time
}
