package core

import (
	"errors"
	"strings"
	"testing"
)

func TestConfigurationError_Message(t *testing.T) {
	err := NewConfigurationError("stage '%s' declared twice", "idle")
	if !strings.Contains(err.Error(), "stage 'idle' declared twice") {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if !strings.HasPrefix(err.Error(), "stageflow: invalid configuration") {
		t.Fatalf("missing prefix: %s", err.Error())
	}
}

func TestTransitionError_Constructors(t *testing.T) {
	noRule := NewNoRuleError("idle", "SUBMIT")
	if noRule.From != "idle" || noRule.Event != "SUBMIT" {
		t.Fatalf("NewNoRuleError did not retain fields: %+v", noRule)
	}
	if !strings.Contains(noRule.Error(), "no rule for event 'SUBMIT' from 'idle'") {
		t.Fatalf("unexpected message: %s", noRule.Error())
	}

	noTarget := NewNoTargetError("idle", "done")
	if !strings.Contains(noTarget.Error(), "no rule from 'idle' to 'done'") {
		t.Fatalf("unexpected message: %s", noTarget.Error())
	}

	rejected := NewConditionRejectedError("loading", "RETRY")
	if rejected.Event != "RETRY" || !strings.Contains(rejected.Error(), "condition rejected") {
		t.Fatalf("unexpected rejection error: %+v", rejected)
	}
}

func TestTransitionError_GuardSentinels(t *testing.T) {
	cases := []error{
		ErrTransitionCanceled,
		ErrTransitionInProgress,
		ErrNotStarted,
		ErrAlreadyStarted,
	}
	for _, sentinel := range cases {
		err := NewGuardError("idle", "GO", sentinel)
		if !errors.Is(err, sentinel) {
			t.Errorf("guard error does not unwrap to %v", sentinel)
		}
		var te *TransitionError
		if !errors.As(err, &te) {
			t.Errorf("guard error is not a *TransitionError: %T", err)
		}
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	cause := errors.New("age must be positive")
	err := &ValidationError{Field: "data", Reason: "payload rejected", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatal("expected ValidationError to unwrap its cause")
	}
	if !strings.Contains(err.Error(), "invalid data") {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestMiddlewareError_Unwrap(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := &MiddlewareError{Middleware: "rate-limit", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatal("expected MiddlewareError to unwrap its cause")
	}
	if !strings.Contains(err.Error(), `middleware "rate-limit" failed`) {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestPluginError_Messages(t *testing.T) {
	hookErr := &PluginError{Plugin: "audit", Hook: "onStageEnter", Err: errors.New("boom")}
	if !strings.Contains(hookErr.Error(), `plugin "audit" hook onStageEnter failed`) {
		t.Fatalf("unexpected hook message: %s", hookErr.Error())
	}

	installErr := &PluginError{Plugin: "audit", Reason: "install failed", Err: errors.New("boom")}
	if !strings.Contains(installErr.Error(), "install failed: boom") {
		t.Fatalf("unexpected install message: %s", installErr.Error())
	}

	dupErr := &PluginError{Plugin: "audit", Reason: "already installed"}
	if !strings.Contains(dupErr.Error(), "already installed") {
		t.Fatalf("unexpected duplicate message: %s", dupErr.Error())
	}
}
