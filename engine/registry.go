package engine

import (
	"context"
	"slices"
	"sync"

	"github.com/simplecore-inc/stageflow/core"
)

// hookSet is the fixed-shape internal record a plugin's optional hooks are
// normalized into at install time. Nil fields cost a single comparison at
// dispatch; there are no capability checks on the hot path.
type hookSet[D any] struct {
	beforeTransition func(ctx context.Context, tc *core.TransitionContext[D]) error
	afterTransition  func(ctx context.Context, tc *core.TransitionContext[D]) error
	onStageEnter     func(ctx context.Context, sc core.StageContext[D]) error
	onStageExit      func(ctx context.Context, sc core.StageContext[D]) error
}

func normalizeHooks[D any](p core.Plugin[D]) hookSet[D] {
	var hs hookSet[D]
	if h, ok := p.(core.BeforeTransitionHook[D]); ok {
		hs.beforeTransition = h.BeforeTransition
	}
	if h, ok := p.(core.AfterTransitionHook[D]); ok {
		hs.afterTransition = h.AfterTransition
	}
	if h, ok := p.(core.StageEnterHook[D]); ok {
		hs.onStageEnter = h.OnStageEnter
	}
	if h, ok := p.(core.StageExitHook[D]); ok {
		hs.onStageExit = h.OnStageExit
	}
	return hs
}

// installedPlugin couples a registered plugin with its normalized hooks and
// its engine-owned private store.
type installedPlugin[D any] struct {
	plugin  core.Plugin[D]
	name    string
	version string
	hooks   hookSet[D]
	store   *pluginStore
}

// InstallPlugin calls the plugin's Install with an engine handle and
// registers it. Installation order is hook invocation order. Duplicate or
// empty names fail with a PluginError. The plugin becomes visible to the
// pipeline only after Install returns nil, so a transition running
// concurrently can never invoke the hooks of a half-installed plugin.
func (e *Engine[D]) InstallPlugin(ctx context.Context, p core.Plugin[D]) error {
	name := p.Name()
	if name == "" {
		return &core.PluginError{Plugin: name, Reason: "plugin name must not be empty"}
	}

	ip := &installedPlugin[D]{
		plugin: p,
		name:   name,
		hooks:  normalizeHooks(p),
		store:  newPluginStore(),
	}
	if v, ok := p.(core.Versioner); ok {
		ip.version = v.Version()
	}

	e.mu.Lock()
	if e.findPluginLocked(name) != nil {
		e.mu.Unlock()
		return &core.PluginError{Plugin: name, Reason: "already installed"}
	}
	e.mu.Unlock()

	h := &pluginHandle[D]{engine: e, store: ip.store}
	if err := p.Install(ctx, h); err != nil {
		return &core.PluginError{Plugin: name, Reason: "install failed", Err: err}
	}

	e.mu.Lock()
	if e.findPluginLocked(name) != nil {
		// Lost a race against a concurrent install of the same name.
		e.mu.Unlock()
		return &core.PluginError{Plugin: name, Reason: "already installed"}
	}
	e.plugins = append(e.plugins, ip)
	e.mu.Unlock()

	e.logger.Info("plugin installed", "plugin", name, "version", ip.version)
	return nil
}

// UninstallPlugin removes the plugin's hooks, calls its Uninstall when
// implemented and clears its private store. Unknown names fail with a
// PluginError.
func (e *Engine[D]) UninstallPlugin(name string) error {
	e.mu.Lock()
	ip := e.findPluginLocked(name)
	if ip == nil {
		e.mu.Unlock()
		return &core.PluginError{Plugin: name, Reason: "not installed"}
	}
	e.removePluginLocked(name)
	e.mu.Unlock()

	var uninstallErr error
	if u, ok := ip.plugin.(core.Uninstaller); ok {
		uninstallErr = u.Uninstall()
	}
	ip.store.clear()

	e.logger.Info("plugin uninstalled", "plugin", name)
	if uninstallErr != nil {
		return &core.PluginError{Plugin: name, Reason: "uninstall failed", Err: uninstallErr}
	}
	return nil
}

// Plugins returns the names of installed plugins in installation order.
func (e *Engine[D]) Plugins() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.plugins))
	for _, ip := range e.plugins {
		out = append(out, ip.name)
	}
	return out
}

func (e *Engine[D]) findPluginLocked(name string) *installedPlugin[D] {
	for _, ip := range e.plugins {
		if ip.name == name {
			return ip
		}
	}
	return nil
}

func (e *Engine[D]) removePluginLocked(name string) {
	e.plugins = slices.DeleteFunc(e.plugins, func(ip *installedPlugin[D]) bool {
		return ip.name == name
	})
}

// Use appends middleware to the global chain. Registration order is execution
// order; rule-scoped middleware runs nested inside the global chain. Empty or
// duplicate names fail with a MiddlewareError.
func (e *Engine[D]) Use(m core.Middleware[D]) error {
	name := m.Name()
	if name == "" {
		return &core.MiddlewareError{Middleware: name, Err: errEmptyMiddlewareName}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.middleware {
		if existing.Name() == name {
			return &core.MiddlewareError{Middleware: name, Err: errDuplicateMiddleware}
		}
	}
	e.middleware = append(e.middleware, m)
	return nil
}

// RemoveMiddleware removes a middleware from the global chain by name.
// Unknown names fail with a MiddlewareError. A pipeline already in flight
// keeps the chain it started with.
func (e *Engine[D]) RemoveMiddleware(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	before := len(e.middleware)
	e.middleware = slices.DeleteFunc(e.middleware, func(m core.Middleware[D]) bool {
		return m.Name() == name
	})
	if len(e.middleware) == before {
		return &core.MiddlewareError{Middleware: name, Err: errUnknownMiddleware}
	}
	return nil
}

// Middlewares returns the names of the global chain in execution order.
func (e *Engine[D]) Middlewares() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.middleware))
	for _, m := range e.middleware {
		out = append(out, m.Name())
	}
	return out
}

// pluginStore is the engine-owned key/value storage kept on a plugin's
// behalf. It has its own lock so hooks can use it while the engine mutex is
// held elsewhere.
type pluginStore struct {
	mu     sync.RWMutex
	values map[string]any
}

func newPluginStore() *pluginStore {
	return &pluginStore{values: map[string]any{}}
}

// Get returns the stored value for key.
func (s *pluginStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores a value under key.
func (s *pluginStore) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes a key.
func (s *pluginStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Keys returns all stored keys, unordered.
func (s *pluginStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.values))
	for k := range s.values {
		out = append(out, k)
	}
	return out
}

func (s *pluginStore) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = map[string]any{}
}
