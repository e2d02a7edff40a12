package plugin

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplecore-inc/stageflow/logging"
)

func TestLogging_LogsTransitions(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := logging.NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	eng := checkoutEngine(t)
	require.NoError(t, eng.InstallPlugin(ctx, NewLogging[orderData](logger)))
	require.NoError(t, eng.Start(ctx))
	require.NoError(t, eng.Send(ctx, "PAY"))

	out := buf.String()
	assert.Contains(t, out, "stage entered")
	assert.Contains(t, out, "transition attempt")
	assert.Contains(t, out, "stage exited")
	assert.Contains(t, out, "transition committed")
	assert.Contains(t, out, "from=cart")
	assert.Contains(t, out, "to=payment")
	assert.Contains(t, out, "trigger=event")
}

func TestLogging_AdoptsEngineLogger(t *testing.T) {
	ctx := context.Background()
	eng := checkoutEngine(t)

	p := NewLogging[orderData](nil)
	require.NoError(t, eng.InstallPlugin(ctx, p))
	require.NotNil(t, p.logger, "nil logger must be replaced at install")

	// Hooks never influence the pipeline outcome.
	require.NoError(t, eng.Start(ctx))
	require.NoError(t, eng.Send(ctx, "PAY"))
}
