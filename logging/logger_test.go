package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogLevel_String(t *testing.T) {
	cases := map[LogLevel]string{
		LogLevelDebug:  "DEBUG",
		LogLevelInfo:   "INFO",
		LogLevelWarn:   "WARN",
		LogLevelError:  "ERROR",
		LogLevel(42):   "UNKNOWN",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", level, got, want)
		}
	}
}

func TestStageFlowLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "text", Output: &buf})

	l.Debug("debug msg")
	l.Info("info msg")
	l.Warn("warn msg")
	l.Error("error msg")

	out := buf.String()
	if strings.Contains(out, "debug msg") || strings.Contains(out, "info msg") {
		t.Fatalf("below-threshold entries leaked: %s", out)
	}
	if !strings.Contains(out, "warn msg") || !strings.Contains(out, "error msg") {
		t.Fatalf("expected warn and error entries: %s", out)
	}
}

func TestStageFlowLogger_KeyValueArgs(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "text", Output: &buf})

	l.Info("transition committed", "from", "idle", "to", "loading")
	out := buf.String()
	if !strings.Contains(out, "from=idle") || !strings.Contains(out, "to=loading") {
		t.Fatalf("key/value args not attached: %s", out)
	}
}

func TestStageFlowLogger_ContextualHelpers(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "text", Output: &buf})

	derived := base.WithComponent("timers").WithFlow("flow-7").WithContext("attempt", 3)
	derived.Info("countdown armed")

	out := buf.String()
	for _, want := range []string{"component=timers", "flow_id=flow-7", "attempt=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}

	// The base logger stays untouched.
	buf.Reset()
	base.Info("plain entry")
	if strings.Contains(buf.String(), "component=") {
		t.Fatalf("With helpers mutated the base logger: %s", buf.String())
	}
}

func TestStageFlowLogger_LogTransition(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "text", Output: &buf})

	l.LogTransition("idle", "loading", "event", 5*time.Millisecond, true, nil)
	if !strings.Contains(buf.String(), "Transition committed") {
		t.Fatalf("missing success entry: %s", buf.String())
	}

	buf.Reset()
	l.LogTransition("idle", "loading", "event", time.Millisecond, false, errors.New("no rule"))
	out := buf.String()
	if !strings.Contains(out, "Transition failed") || !strings.Contains(out, "no rule") {
		t.Fatalf("missing failure entry: %s", out)
	}
}

func TestStageFlowLogger_LogTimerFire(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "text", Output: &buf})

	l.LogTimerFire("loading", "timeout", 5*time.Second, true)
	out := buf.String()
	if !strings.Contains(out, "Countdown elapsed") || !strings.Contains(out, "accepted=true") {
		t.Fatalf("missing timer entry: %s", out)
	}
}

func TestStageFlowLogger_StartTimer(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "text", Output: &buf})

	done := l.StartTimer("restore")
	if buf.Len() != 0 {
		t.Fatalf("nothing should be logged before the closure runs: %s", buf.String())
	}
	done()

	out := buf.String()
	if !strings.Contains(out, "Operation completed") || !strings.Contains(out, "operation=restore") {
		t.Fatalf("missing completion entry: %s", out)
	}
	if !strings.Contains(out, "duration=") {
		t.Fatalf("missing duration attribute: %s", out)
	}
}

func TestSlogAdapterAndNoOp(t *testing.T) {
	// NoOpLogger must swallow everything without panicking.
	var n NoOpLogger
	n.Debug("a")
	n.Info("b", "k", "v")
	n.Warn("c")
	n.Error("d")

	if NewDefaultSlogLogger() == nil {
		t.Fatal("expected a default adapter")
	}
}
