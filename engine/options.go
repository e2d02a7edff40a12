package engine

import (
	"github.com/google/uuid"

	"github.com/simplecore-inc/stageflow/logging"
)

// Config defines tuning parameters for the engine's operational behavior.
//
// Additional concerns such as logging and payload validation are configured
// via functional options rather than expanding this struct, to keep it small
// and serializable.
type Config struct {
	// ValidateRequests enables shape validation of incoming requests before
	// they reach the pipeline: empty event names and empty navigation
	// targets are rejected with a ValidationError, and payloads supplied
	// with a request are checked against the configured DataValidator.
	ValidateRequests bool
}

// DefaultConfig provides the default engine configuration: request
// validation on.
var DefaultConfig = Config{
	ValidateRequests: true,
}

// Options configures an Engine instance using the functional options pattern.
//
// Example:
//
//	eng, err := engine.New(g, initialData, func(o *engine.Options[Data]) {
//		o.Logger = logging.NewSlogLogger(logging.LogLevelDebug, "text", false)
//		o.DataValidator = validateData
//	})
type Options[D any] struct {
	// Config contains operational parameters for the engine behavior.
	// Defaults to DefaultConfig if not specified.
	Config Config

	// Logger provides structured logging for debugging and monitoring.
	// Defaults to NoOp logger if nil so the engine has no logging
	// dependencies out of the box.
	Logger logging.Logger

	// DataValidator validates payloads supplied with SendWithData,
	// GoToWithData and SetStageData. Only consulted when
	// Config.ValidateRequests is enabled. Nil disables payload validation.
	DataValidator func(data D) error

	// TransitionID generates the per-attempt identifier carried by each
	// TransitionContext. Defaults to uuid.NewString. Override for
	// deterministic IDs in tests.
	TransitionID func() string
}

func defaultOptions[D any]() Options[D] {
	return Options[D]{
		Config:       DefaultConfig,
		Logger:       logging.NoOpLogger{},
		TransitionID: uuid.NewString,
	}
}
