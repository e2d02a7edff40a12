package plugin

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalytics_CountsTransitionsAndEntries(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	eng := checkoutEngine(t)
	a := NewAnalytics[orderData](reg)

	require.NoError(t, eng.InstallPlugin(ctx, a))
	require.NoError(t, eng.Start(ctx))
	require.NoError(t, eng.Send(ctx, "PAY"))
	require.NoError(t, eng.Send(ctx, "CANCEL"))
	require.NoError(t, eng.Send(ctx, "PAY"))

	assert.Equal(t, float64(2), testutil.ToFloat64(a.transitions.WithLabelValues("cart", "payment", "event")))
	assert.Equal(t, float64(1), testutil.ToFloat64(a.transitions.WithLabelValues("payment", "cart", "event")))

	// Initial entry on Start plus three committed transitions.
	assert.Equal(t, float64(2), testutil.ToFloat64(a.entered.WithLabelValues("cart")))
	assert.Equal(t, float64(2), testutil.ToFloat64(a.entered.WithLabelValues("payment")))

	count := testutil.CollectAndCount(a.duration)
	assert.Equal(t, 2, count, "one histogram series per (from, to) pair")
}

func TestAnalytics_SessionLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewAnalytics[orderData](reg)
	b := NewAnalytics[orderData](reg)

	assert.NotEmpty(t, a.SessionID())
	assert.NotEqual(t, a.SessionID(), b.SessionID())

	// Distinct session labels let two engines share one registry.
	ctx := context.Background()
	engA := checkoutEngine(t)
	engB := checkoutEngine(t)
	require.NoError(t, engA.InstallPlugin(ctx, a))
	require.NoError(t, engB.InstallPlugin(ctx, b))
}

func TestAnalytics_DuplicateRegistrationFails(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	a := NewAnalytics[orderData](reg)
	eng := checkoutEngine(t)
	require.NoError(t, eng.InstallPlugin(ctx, a))

	// Same collectors registered twice collide; the install must fail and
	// leave the plugin uninstalled.
	eng2 := checkoutEngine(t)
	err := eng2.InstallPlugin(ctx, a)
	require.Error(t, err)
	assert.Empty(t, eng2.Plugins())
}

func TestAnalytics_UninstallUnregisters(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	a := NewAnalytics[orderData](reg)
	eng := checkoutEngine(t)

	require.NoError(t, eng.InstallPlugin(ctx, a))
	require.NoError(t, eng.UninstallPlugin("analytics"))

	// Collectors are gone; a fresh install into the same registry succeeds.
	b := NewAnalytics[orderData](reg)
	eng2 := checkoutEngine(t)
	require.NoError(t, eng2.InstallPlugin(ctx, b))
}
