package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplecore-inc/stageflow/core"
	"github.com/simplecore-inc/stageflow/internal/testutil"
)

// configPlugin exercises the full install surface: versioning, uninstall and
// the engine-owned store.
type configPlugin struct {
	name        string
	installErr  error
	uninstalled bool
	handle      core.EngineHandle[formData]
}

func (p *configPlugin) Name() string { return p.name }

func (p *configPlugin) Version() string { return "v2" }

func (p *configPlugin) Install(ctx context.Context, h core.EngineHandle[formData]) error {
	if p.installErr != nil {
		return p.installErr
	}
	p.handle = h
	h.Store().Set("installed_at_stage", h.CurrentStage().String())
	return nil
}

func (p *configPlugin) Uninstall() error {
	p.uninstalled = true
	return nil
}

func TestRegistry_InstallPlugin(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, wizardGraph(t))

	p := &configPlugin{name: "config"}
	require.NoError(t, eng.InstallPlugin(ctx, p))
	assert.Equal(t, []string{"config"}, eng.Plugins())

	require.NotNil(t, p.handle)
	v, ok := p.handle.Store().Get("installed_at_stage")
	require.True(t, ok)
	assert.Equal(t, "", v, "engine not yet started")
	assert.Equal(t, []string{"installed_at_stage"}, p.handle.Store().Keys())
	assert.NotNil(t, p.handle.Logger())
}

func TestRegistry_InstallPluginFailures(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, wizardGraph(t))

	var pe *core.PluginError

	err := eng.InstallPlugin(ctx, &configPlugin{name: ""})
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "name must not be empty")

	require.NoError(t, eng.InstallPlugin(ctx, &configPlugin{name: "config"}))
	err = eng.InstallPlugin(ctx, &configPlugin{name: "config"})
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "already installed")

	// A failing Install rolls the registration back.
	installErr := errors.New("backend unreachable")
	err = eng.InstallPlugin(ctx, &configPlugin{name: "flaky", installErr: installErr})
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, installErr)
	assert.Equal(t, []string{"config"}, eng.Plugins())
}

// navDuringInstallPlugin drives a transition from inside Install and counts
// its own hook invocations, to pin down when the plugin becomes visible to
// the pipeline.
type navDuringInstallPlugin struct {
	hookCalls int
	navErr    error
	failAfter error
}

func (p *navDuringInstallPlugin) Name() string { return "nav-install" }

func (p *navDuringInstallPlugin) Install(ctx context.Context, h core.EngineHandle[formData]) error {
	p.navErr = h.GoTo(ctx, "loading")
	return p.failAfter
}

func (p *navDuringInstallPlugin) BeforeTransition(context.Context, *core.TransitionContext[formData]) error {
	p.hookCalls++
	return nil
}

func TestRegistry_PluginInvisibleUntilInstalled(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, wizardGraph(t))
	require.NoError(t, eng.Start(ctx))

	p := &navDuringInstallPlugin{}
	require.NoError(t, eng.InstallPlugin(ctx, p))

	// The transition Install drove committed, but the half-installed
	// plugin's hooks must not have observed it.
	require.NoError(t, p.navErr)
	assert.Equal(t, core.StageName("loading"), eng.CurrentStage())
	assert.Zero(t, p.hookCalls)

	// Once installed, hooks fire normally.
	require.NoError(t, eng.Send(ctx, "DONE"))
	assert.Equal(t, 1, p.hookCalls)
}

func TestRegistry_FailedInstallNeverObserves(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, wizardGraph(t))
	require.NoError(t, eng.Start(ctx))

	p := &navDuringInstallPlugin{failAfter: errors.New("backend unreachable")}
	var pe *core.PluginError
	require.ErrorAs(t, eng.InstallPlugin(ctx, p), &pe)
	assert.Empty(t, eng.Plugins())

	require.NoError(t, eng.Send(ctx, "DONE"))
	assert.Zero(t, p.hookCalls, "a plugin whose install failed must never see a hook")
}

func TestRegistry_UninstallPlugin(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, wizardGraph(t))

	p := &configPlugin{name: "config"}
	require.NoError(t, eng.InstallPlugin(ctx, p))
	require.NoError(t, eng.UninstallPlugin("config"))

	assert.True(t, p.uninstalled)
	assert.Empty(t, eng.Plugins())
	assert.Empty(t, p.handle.Store().Keys(), "store is cleared on uninstall")

	var pe *core.PluginError
	err := eng.UninstallPlugin("config")
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "not installed")
}

func TestRegistry_UninstalledPluginStopsObserving(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, wizardGraph(t))
	rec := testutil.NewHookRecorder[formData]("rec")
	require.NoError(t, eng.InstallPlugin(ctx, rec))
	require.NoError(t, eng.Start(ctx))
	require.NoError(t, eng.UninstallPlugin("rec"))
	rec.Reset()

	require.NoError(t, eng.Send(ctx, "START"))
	assert.Empty(t, rec.Calls())
}

func TestRegistry_PluginInstallOrderIsHookOrder(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, wizardGraph(t))

	var order []string
	first := testutil.NewHookRecorder[formData]("first")
	second := testutil.NewHookRecorder[formData]("second")
	require.NoError(t, eng.InstallPlugin(ctx, first))
	require.NoError(t, eng.InstallPlugin(ctx, second))
	assert.Equal(t, []string{"first", "second"}, eng.Plugins())

	probe1 := core.NewMiddleware("probe", func(ctx context.Context, tc *core.TransitionContext[formData], next core.Next) error {
		order = append(order, "chain")
		return next(ctx)
	})
	require.NoError(t, eng.Use(probe1))
	require.NoError(t, eng.Start(ctx))
	require.NoError(t, eng.Send(ctx, "START"))

	// Both recorders saw the same sequence; ordering between plugins follows
	// installation order within each hook point.
	assert.Equal(t, first.Calls(), second.Calls())
	assert.Equal(t, []string{"chain"}, order)
}

func TestRegistry_MiddlewareManagement(t *testing.T) {
	eng := newTestEngine(t, wizardGraph(t))

	a := testutil.NewScriptedMiddleware[formData]("a")
	b := testutil.NewScriptedMiddleware[formData]("b")
	require.NoError(t, eng.Use(a))
	require.NoError(t, eng.Use(b))
	assert.Equal(t, []string{"a", "b"}, eng.Middlewares())

	var me *core.MiddlewareError
	err := eng.Use(testutil.NewScriptedMiddleware[formData]("a"))
	require.ErrorAs(t, err, &me)
	assert.Contains(t, err.Error(), "already registered")

	err = eng.Use(testutil.NewScriptedMiddleware[formData](""))
	require.ErrorAs(t, err, &me)

	require.NoError(t, eng.RemoveMiddleware("a"))
	assert.Equal(t, []string{"b"}, eng.Middlewares())

	err = eng.RemoveMiddleware("a")
	require.ErrorAs(t, err, &me)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegistry_RemovedMiddlewareNoLongerRuns(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, wizardGraph(t))

	mw := testutil.NewScriptedMiddleware[formData]("counter")
	require.NoError(t, eng.Use(mw))
	require.NoError(t, eng.Start(ctx))
	require.NoError(t, eng.Send(ctx, "START"))
	assert.Equal(t, 1, mw.Executions())

	require.NoError(t, eng.RemoveMiddleware("counter"))
	require.NoError(t, eng.Send(ctx, "DONE"))
	assert.Equal(t, 1, mw.Executions())
}

func TestRegistry_HandleNavigation(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, wizardGraph(t))

	p := &configPlugin{name: "nav"}
	require.NoError(t, eng.InstallPlugin(ctx, p))
	require.NoError(t, eng.Start(ctx))

	require.NoError(t, p.handle.GoTo(ctx, "loading"))
	assert.Equal(t, core.StageName("loading"), p.handle.CurrentStage())

	require.NoError(t, p.handle.GoToWithData(ctx, "failure", formData{Attempts: 4}))
	assert.Equal(t, 4, p.handle.CurrentData().Attempts)

	var seen []core.StageName
	unsub := p.handle.Subscribe(func(stage core.StageName, data formData) { seen = append(seen, stage) })
	defer unsub()
	require.NoError(t, eng.Send(ctx, "RETRY"))
	assert.Equal(t, []core.StageName{"loading"}, seen)
}
