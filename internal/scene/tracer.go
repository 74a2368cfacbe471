package scene

import (
	"context"

	"github.com/san-kum/pulleysim/internal/logging"
)

type TraceState int

const (
	TraceIdle TraceState = iota
	TraceTracing
)

func (s TraceState) String() string {
	if s == TraceTracing {
		return "tracing"
	}
	return "idle"
}

// Tracer drops a marker at every traceable body on each sampled tick while
// tracing is enabled. Markers are never capped; they live until a clear, a
// disable or the next restart.
type Tracer struct {
	reg    *Registry
	pres   Presentation
	params *ParameterStore
	log    logging.Logger
	state  TraceState
}

func NewTracer(reg *Registry, pres Presentation, params *ParameterStore, log logging.Logger) *Tracer {
	if log == nil {
		log = logging.Noop()
	}
	t := &Tracer{
		reg:    reg,
		pres:   pres,
		params: params,
		log:    log.With(logging.String("component", "tracer")),
	}
	if params.TracingEnabled() {
		t.state = TraceTracing
	}
	return t
}

func (t *Tracer) State() TraceState { return t.state }

// Markers returns the number of live trace markers.
func (t *Tracer) Markers() int { return t.reg.Count(RoleTraceMarker) }

// Sync moves the state machine to match the tracing flag. Leaving the
// tracing state clears every marker.
func (t *Tracer) Sync(ctx context.Context) {
	enabled := t.params.TracingEnabled()
	switch {
	case enabled && t.state == TraceIdle:
		t.state = TraceTracing
		t.log.Debug(ctx, "tracing enabled")
	case !enabled && t.state == TraceTracing:
		t.state = TraceIdle
		t.Clear(ctx)
	}
}

// Sample spawns one marker per traceable entity at its current transform
// and returns how many were spawned. It does nothing while idle.
func (t *Tracer) Sample(ctx context.Context) int {
	t.Sync(ctx)
	if t.state != TraceTracing {
		return 0
	}
	spawned := 0
	for _, e := range t.reg.Traceable() {
		tr, ok := t.pres.QueryTransform(e.Visual)
		if !ok {
			continue
		}
		mesh, material := t.params.TraceAssets(t.pres)
		h := t.pres.SpawnVisual(mesh, material, tr, TagTrace)
		t.reg.Add(Entity{Role: RoleTraceMarker, Visual: h, Generation: t.reg.Generation()})
		spawned++
	}
	return spawned
}

// Clear despawns every trace marker and returns how many were removed. The
// tracing state is left unchanged.
func (t *Tracer) Clear(ctx context.Context) int {
	removed := t.reg.RemoveRole(RoleTraceMarker)
	for _, e := range removed {
		t.pres.Despawn(e.Visual)
	}
	if len(removed) > 0 {
		t.log.Debug(ctx, "trace cleared", logging.Int("markers", len(removed)))
	}
	return len(removed)
}
