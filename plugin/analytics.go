package plugin

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/simplecore-inc/stageflow/core"
)

// Analytics is the reference metrics plugin. It exports Prometheus series
// for committed transitions and stage entries, labeled with a per-install
// flow session ID so several engine instances can share one registry.
type Analytics[D any] struct {
	registerer prometheus.Registerer
	sessionID  string

	transitions *prometheus.CounterVec
	entered     *prometheus.CounterVec
	duration    *prometheus.HistogramVec

	mu     sync.Mutex
	starts map[string]time.Time // transition ID -> pipeline entry time
}

// NewAnalytics creates the analytics plugin registering its collectors with
// reg. A nil reg falls back to prometheus.DefaultRegisterer.
func NewAnalytics[D any](reg prometheus.Registerer) *Analytics[D] {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Analytics[D]{
		registerer: reg,
		sessionID:  uuid.NewString(),
		starts:     map[string]time.Time{},
	}
}

// Name implements core.Plugin.
func (p *Analytics[D]) Name() string { return "analytics" }

// SessionID returns the flow session label attached to every series.
func (p *Analytics[D]) SessionID() string { return p.sessionID }

// Install registers the collectors.
func (p *Analytics[D]) Install(_ context.Context, _ core.EngineHandle[D]) error {
	labels := prometheus.Labels{"flow_session": p.sessionID}

	p.transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "stageflow",
		Name:        "transitions_total",
		Help:        "Committed transitions by source, target and trigger.",
		ConstLabels: labels,
	}, []string{"from", "to", "trigger"})

	p.entered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "stageflow",
		Name:        "stage_entered_total",
		Help:        "Stage entries, including the initial stage on start.",
		ConstLabels: labels,
	}, []string{"stage"})

	p.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   "stageflow",
		Name:        "transition_duration_seconds",
		Help:        "Pipeline latency from guard-pass to afterTransition.",
		ConstLabels: labels,
		Buckets:     prometheus.DefBuckets,
	}, []string{"from", "to"})

	for _, c := range p.collectors() {
		if err := p.registerer.Register(c); err != nil {
			p.unregister()
			return err
		}
	}
	return nil
}

// Uninstall unregisters the collectors.
func (p *Analytics[D]) Uninstall() error {
	p.unregister()
	return nil
}

func (p *Analytics[D]) collectors() []prometheus.Collector {
	return []prometheus.Collector{p.transitions, p.entered, p.duration}
}

func (p *Analytics[D]) unregister() {
	for _, c := range p.collectors() {
		if c != nil {
			p.registerer.Unregister(c)
		}
	}
}

// BeforeTransition records the attempt start for duration measurement.
func (p *Analytics[D]) BeforeTransition(_ context.Context, tc *core.TransitionContext[D]) error {
	now := time.Now()
	p.mu.Lock()
	// Aborted attempts never reach AfterTransition; prune their leftovers.
	if len(p.starts) > 128 {
		for id, t := range p.starts {
			if now.Sub(t) > time.Minute {
				delete(p.starts, id)
			}
		}
	}
	p.starts[tc.ID] = now
	p.mu.Unlock()
	return nil
}

// AfterTransition counts the committed transition and observes its latency.
func (p *Analytics[D]) AfterTransition(_ context.Context, tc *core.TransitionContext[D]) error {
	p.mu.Lock()
	start, ok := p.starts[tc.ID]
	delete(p.starts, tc.ID)
	p.mu.Unlock()

	from, to := tc.From.String(), tc.To().String()
	p.transitions.WithLabelValues(from, to, string(tc.Trigger)).Inc()
	if ok {
		p.duration.WithLabelValues(from, to).Observe(time.Since(start).Seconds())
	}
	return nil
}

// OnStageEnter counts stage entries.
func (p *Analytics[D]) OnStageEnter(_ context.Context, sc core.StageContext[D]) error {
	p.entered.WithLabelValues(sc.Current.String()).Inc()
	return nil
}
