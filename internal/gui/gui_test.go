package gui

import (
	"context"
	"image/color"
	"math"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pulleysim/internal/config"
	"github.com/san-kum/pulleysim/internal/physics"
	"github.com/san-kum/pulleysim/internal/present"
	"github.com/san-kum/pulleysim/internal/scene"
	"github.com/san-kum/pulleysim/internal/sim"
)

func newTestApp() *App {
	params := scene.NewParameterStore(config.DefaultDemonstration(), config.DefaultSolver())
	loop := sim.NewLoop(params, physics.NewWorld(), present.NewWorld(), nil)
	return NewApp(context.Background(), loop, Options{}, nil)
}

func TestConversions(t *testing.T) {
	v := vec(mgl64.Vec3{1, -2, 3.5})
	if v.X != 1 || v.Y != -2 || v.Z != 3.5 {
		t.Errorf("vec = %+v", v)
	}
	c := toRL(color.RGBA{25, 25, 112, 255})
	if c != rl.NewColor(25, 25, 112, 255) {
		t.Errorf("color = %+v", c)
	}
}

func TestAxisAngle(t *testing.T) {
	deg, axis := axisAngle(mgl64.QuatIdent())
	if deg != 0 || axis != (mgl64.Vec3{0, 1, 0}) {
		t.Errorf("identity = %f about %v", deg, axis)
	}
	deg, axis = axisAngle(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}))
	if math.Abs(deg-90) > 1e-9 || math.Abs(axis.Z()-1) > 1e-9 {
		t.Errorf("quarter turn = %f about %v", deg, axis)
	}
}

func TestActionFor(t *testing.T) {
	cases := map[int32]Action{
		rl.KeyEscape: ActQuit,
		rl.KeySpace:  ActRestart,
		rl.KeyT:      ActToggleTrace,
		rl.KeyC:      ActClearTrace,
		rl.KeyF1:     ActNone,
	}
	for key, want := range cases {
		if got := ActionFor(key); got != want {
			t.Errorf("ActionFor(%d) = %d, want %d", key, got, want)
		}
	}
}

func TestHandleQueuesEditsForNextTick(t *testing.T) {
	app := newTestApp()
	app.Update()
	if app.Frame().Generation != 1 {
		t.Fatalf("generation = %d, want 1", app.Frame().Generation)
	}

	app.Handle(ActToggleTrace)
	if app.Frame().Tracing {
		t.Fatal("edits should wait for the next tick")
	}
	app.Update()
	if !app.Frame().Tracing || app.Frame().Markers != 1 {
		t.Errorf("tracing = %v markers = %d", app.Frame().Tracing, app.Frame().Markers)
	}

	app.Handle(ActIncrease)
	app.Handle(ActRestart)
	app.Update()
	if got := app.Frame().Demonstration.M1; got != config.DefaultMass+1 {
		t.Errorf("m1 = %g, want %g", got, config.DefaultMass+1)
	}
	if app.Frame().Generation != 2 {
		t.Errorf("generation = %d, want 2", app.Frame().Generation)
	}
}

func TestPauseAndStep(t *testing.T) {
	app := newTestApp()
	app.Update()
	app.Handle(ActPause)
	app.Update()
	if !app.Paused() || app.Frame().Tick != 1 {
		t.Errorf("paused = %v tick = %d", app.Paused(), app.Frame().Tick)
	}
	app.Handle(ActStep)
	if app.Frame().Tick != 2 {
		t.Errorf("step tick = %d, want 2", app.Frame().Tick)
	}
	app.Handle(ActQuit)
	if !app.Done() {
		t.Error("quit should finish the app")
	}
}

func TestPausedEditsApplyAtOnce(t *testing.T) {
	app := newTestApp()
	app.Update()
	app.Handle(ActPause)

	app.Handle(ActIncrease)
	app.Handle(ActRestart)
	f := app.Frame()
	if f.Generation != 2 || f.Tick != 1 {
		t.Errorf("generation = %d tick = %d, want 2 and 1", f.Generation, f.Tick)
	}
	if f.Demonstration.M1 != config.DefaultMass+1 {
		t.Errorf("m1 = %g, want %g", f.Demonstration.M1, config.DefaultMass+1)
	}

	app.Handle(ActPause)
	app.Update()
	if !app.Frame().Restarted || app.Frame().Generation != 2 {
		t.Errorf("first tick after a paused restart: restarted = %v generation = %d",
			app.Frame().Restarted, app.Frame().Generation)
	}
}

func TestOrbit(t *testing.T) {
	o := NewOrbit()
	if got := o.Position(); got.Sub(mgl64.Vec3{0, -6, 40}).Len() > 1e-9 {
		t.Errorf("default eye = %v", got)
	}
	o.Rotate(0, 10)
	if o.Pitch != maxPitch {
		t.Errorf("pitch = %f, want clamp %f", o.Pitch, maxPitch)
	}
	o.Zoom(1000)
	if o.Distance != 200 {
		t.Errorf("distance = %f", o.Distance)
	}
	if d := o.Position().Sub(o.Target).Len(); math.Abs(d-o.Distance) > 1e-9 {
		t.Errorf("eye distance = %f, want %f", d, o.Distance)
	}
}
