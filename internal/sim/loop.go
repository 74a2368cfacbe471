package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pulleysim/internal/config"
	"github.com/san-kum/pulleysim/internal/logging"
	"github.com/san-kum/pulleysim/internal/present"
	"github.com/san-kum/pulleysim/internal/scene"
)

var ErrInvalidDt = errors.New("sim: dt must be positive")

// Input runs in the first phase of a tick and may edit the surface.
type Input func(s *Surface)

type Observer interface {
	OnFrame(f Frame)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(f Frame)

func (fn ObserverFunc) OnFrame(f Frame) { fn(f) }

// Snapshotter is implemented by presentations that can list their visuals.
type Snapshotter interface {
	Snapshot() []present.Visual
}

// CableMeter is implemented by simulations that report constraint drift.
type CableMeter interface {
	CableError() float64
}

// Cable is one rendered cable path: side body, over the pulley, to the
// central body.
type Cable struct {
	From mgl64.Vec3 `json:"from"`
	Via  mgl64.Vec3 `json:"via"`
	To   mgl64.Vec3 `json:"to"`
}

// Frame is what observers see at the end of a tick.
type Frame struct {
	Tick          uint64               `json:"tick"`
	Time          float64              `json:"time"`
	Generation    uint64               `json:"generation"`
	Restarted     bool                 `json:"restarted"`
	Entities      []present.Visual     `json:"entities,omitempty"`
	Cables        []Cable              `json:"cables"`
	Traceable     []mgl64.Vec3         `json:"traceable"`
	Markers       int                  `json:"markers"`
	SceneSize     int                  `json:"scene_size"`
	CableError    float64              `json:"cable_error"`
	Tracing       bool                 `json:"tracing"`
	Demonstration config.Demonstration `json:"demonstration"`
	Solver        config.Solver        `json:"solver"`
	Elapsed       time.Duration        `json:"-"`
}

// Loop drives one scene through the fixed tick phases: input, commands,
// simulation step, trace sampling, then observers.
type Loop struct {
	params  *scene.ParameterStore
	reg     *scene.Registry
	sim     scene.Simulation
	pres    scene.Presentation
	life    *scene.Lifecycle
	tracer  *scene.Tracer
	queue   *Queue
	surface *Surface
	log     logging.Logger

	observers []Observer
	tick      uint64
	time      float64
	last      scene.Report
	// restarted carries a restart made by Apply into the next tick's frame.
	restarted bool
}

// NewLoop builds a loop with one restart queued so the first tick populates
// the scene.
func NewLoop(params *scene.ParameterStore, sim scene.Simulation, pres scene.Presentation, log logging.Logger) *Loop {
	if log == nil {
		log = logging.Noop()
	}
	reg := scene.NewRegistry()
	queue := &Queue{}
	l := &Loop{
		params:    params,
		reg:       reg,
		sim:       sim,
		pres:      pres,
		life:      scene.NewLifecycle(sim, pres, reg, params, log),
		tracer:    scene.NewTracer(reg, pres, params, log),
		queue:     queue,
		surface:   NewSurface(params, queue),
		log:       log.With(logging.String("component", "loop")),
		observers: make([]Observer, 0),
	}
	queue.Push(CmdRestart)
	return l
}

func (l *Loop) AddObserver(o Observer) { l.observers = append(l.observers, o) }

func (l *Loop) Surface() *Surface                { return l.surface }
func (l *Loop) Params() *scene.ParameterStore    { return l.params }
func (l *Loop) Registry() *scene.Registry        { return l.reg }
func (l *Loop) Tracer() *scene.Tracer            { return l.tracer }
func (l *Loop) LastRestart() scene.Report        { return l.last }
func (l *Loop) Ticks() uint64                    { return l.tick }
func (l *Loop) Time() float64                    { return l.time }
func (l *Loop) Simulation() scene.Simulation     { return l.sim }
func (l *Loop) Presentation() scene.Presentation { return l.pres }

// Tick runs one full tick of dt seconds of wall time. The simulation is
// advanced by dt divided by the slow motion factor.
func (l *Loop) Tick(ctx context.Context, dt float64, input Input) (Frame, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return Frame{}, fmt.Errorf("%w, got %g", ErrInvalidDt, dt)
	}
	start := time.Now()

	if input != nil {
		input(l.surface)
	}

	restarted := l.dispatch(ctx) || l.restarted
	l.restarted = false

	sv := l.params.Solver()
	step := dt / sv.SlowMotion
	l.sim.Step(scene.StepParams{
		Dt:                  step,
		IntegrationSubsteps: sv.IntegrationSubsteps,
		ConstraintSubsteps:  sv.ConstraintSubsteps,
		Baumgarte:           sv.Baumgarte,
	})
	scene.SyncTransforms(l.reg, l.sim, l.pres)

	l.tracer.Sample(ctx)

	l.tick++
	l.time += step
	f := l.frame(restarted)
	f.Elapsed = time.Since(start)
	for _, o := range l.observers {
		o.OnFrame(f)
	}
	return f, nil
}

// Apply runs the input and command phases of a tick without stepping the
// simulation or sampling the trace. Paused front ends use it so restarts
// and edits take effect immediately. Observers are not notified and the
// tick counter is unchanged.
func (l *Loop) Apply(ctx context.Context, input Input) Frame {
	if input != nil {
		input(l.surface)
	}
	restarted := l.dispatch(ctx)
	if restarted {
		scene.SyncTransforms(l.reg, l.sim, l.pres)
	}
	l.restarted = l.restarted || restarted
	return l.frame(restarted)
}

// Run ticks n times with a fixed dt and returns the last frame.
func (l *Loop) Run(ctx context.Context, n int, dt float64) (Frame, error) {
	var f Frame
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return f, ctx.Err()
		default:
		}
		var err error
		if f, err = l.Tick(ctx, dt, nil); err != nil {
			return f, err
		}
	}
	return f, nil
}

func (l *Loop) dispatch(ctx context.Context) bool {
	restarted := false
	for _, c := range l.queue.Drain() {
		switch c {
		case CmdRestart:
			l.last = l.life.Restart(ctx)
			l.time = 0
			restarted = true
		case CmdToggleTrace:
			l.tracer.Sync(ctx)
		case CmdClearTrace:
			l.tracer.Clear(ctx)
		}
	}
	return restarted
}

func (l *Loop) frame(restarted bool) Frame {
	f := Frame{
		Tick:          l.tick,
		Time:          l.time,
		Generation:    l.reg.Generation(),
		Restarted:     restarted,
		Cables:        make([]Cable, 0, 2),
		Traceable:     make([]mgl64.Vec3, 0, 1),
		Markers:       l.tracer.Markers(),
		SceneSize:     l.reg.Len(),
		Tracing:       l.tracer.State() == scene.TraceTracing,
		Demonstration: l.params.Demonstration(),
		Solver:        l.params.Solver(),
	}
	if s, ok := l.pres.(Snapshotter); ok {
		f.Entities = s.Snapshot()
	}
	if m, ok := l.sim.(CableMeter); ok {
		f.CableError = m.CableError()
	}
	for _, e := range l.reg.ByRole(scene.RoleConstraint) {
		if e.Cable == nil {
			continue
		}
		a, okA := l.pres.QueryTransform(e.Cable.A)
		b, okB := l.pres.QueryTransform(e.Cable.B)
		if !okA || !okB {
			continue
		}
		f.Cables = append(f.Cables, Cable{From: a.Translation, Via: e.Cable.Anchor, To: b.Translation})
	}
	for _, e := range l.reg.Traceable() {
		if t, ok := l.pres.QueryTransform(e.Visual); ok {
			f.Traceable = append(f.Traceable, t.Translation)
		}
	}
	return f
}
