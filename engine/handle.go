package engine

import (
	"context"
	"errors"

	"github.com/simplecore-inc/stageflow/core"
	"github.com/simplecore-inc/stageflow/logging"
)

var (
	errEmptyMiddlewareName = errors.New("middleware name must not be empty")
	errDuplicateMiddleware = errors.New("middleware already registered")
	errUnknownMiddleware   = errors.New("middleware not registered")
)

// pluginHandle is the per-plugin view of the engine given to Install. It
// narrows the engine to the external-collaborator surface and binds the
// plugin's private store.
type pluginHandle[D any] struct {
	engine *Engine[D]
	store  *pluginStore
}

var _ core.EngineHandle[struct{}] = (*pluginHandle[struct{}])(nil)

func (h *pluginHandle[D]) CurrentStage() core.StageName { return h.engine.CurrentStage() }

func (h *pluginHandle[D]) CurrentData() D { return h.engine.CurrentData() }

func (h *pluginHandle[D]) GoTo(ctx context.Context, stage core.StageName) error {
	return h.engine.GoTo(ctx, stage)
}

func (h *pluginHandle[D]) GoToWithData(ctx context.Context, stage core.StageName, data D) error {
	return h.engine.GoToWithData(ctx, stage, data)
}

func (h *pluginHandle[D]) Subscribe(fn func(stage core.StageName, data D)) core.UnsubscribeFunc {
	return h.engine.Subscribe(fn)
}

func (h *pluginHandle[D]) Store() core.PluginStore { return h.store }

func (h *pluginHandle[D]) Logger() logging.Logger { return h.engine.logger }
