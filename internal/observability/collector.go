// Package observability exports loop and scene figures as Prometheus
// metrics and keeps running statistics over loop frames.
package observability

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/pulleysim/internal/sim"
)

const namespace = "pulleysim"

// Collector is a loop observer that updates Prometheus metrics per frame.
type Collector struct {
	reg prometheus.Gatherer

	ticks        prometheus.Counter
	restarts     prometheus.Counter
	markers      prometheus.Gauge
	entities     prometheus.Gauge
	cableError   prometheus.Gauge
	tickDuration prometheus.Histogram
}

// NewCollector registers the loop metrics on reg. Metrics that are already
// registered are reused. A nil reg gets a fresh private registry.
func NewCollector(reg *prometheus.Registry) (*Collector, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	c := &Collector{reg: reg}

	var err error
	if c.ticks, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ticks_total",
		Help:      "Loop ticks executed",
	})); err != nil {
		return nil, err
	}
	if c.restarts, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "restarts_total",
		Help:      "Scene rebuilds",
	})); err != nil {
		return nil, err
	}
	if c.markers, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "trace_markers",
		Help:      "Live trace markers",
	})); err != nil {
		return nil, err
	}
	if c.entities, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scene_entities",
		Help:      "Registered scene entities",
	})); err != nil {
		return nil, err
	}
	if c.cableError, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cable_error",
		Help:      "Largest absolute cable length violation",
	})); err != nil {
		return nil, err
	}
	if c.tickDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tick_duration_seconds",
		Help:      "Wall time spent in one tick",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})); err != nil {
		return nil, err
	}
	return c, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return c, nil
}

func (c *Collector) OnFrame(f sim.Frame) {
	c.ticks.Inc()
	if f.Restarted {
		c.restarts.Inc()
	}
	c.markers.Set(float64(f.Markers))
	c.entities.Set(float64(f.SceneSize))
	c.cableError.Set(f.CableError)
	c.tickDuration.Observe(f.Elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
