package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pulleysim/internal/geometry"
	"github.com/san-kum/pulleysim/internal/scene"
)

var params = scene.StepParams{
	Dt:                  1.0 / 64.0,
	IntegrationSubsteps: 32,
	ConstraintSubsteps:  32,
	Baumgarte:           0.02,
}

func build(t *testing.T, in geometry.Input) (*World, scene.BodyHandle, geometry.Configuration) {
	t.Helper()
	cfg := geometry.Solve(in)
	w := NewWorld()

	body := func(p geometry.Placement) scene.BodyHandle {
		return w.CreateRigidBody(scene.BodyDesc{
			Shape:     scene.ShapeSphere,
			Mass:      p.Mass,
			Transform: scene.At(p.Position),
		})
	}
	a, b, c := body(cfg.SideA), body(cfg.SideB), body(cfg.Central)

	if w.CreatePulley(scene.PulleyDesc{BodyA: a, BodyB: c, Length: cfg.CableLength, WorldAnchor: cfg.PulleyA}) == 0 {
		t.Fatal("pulley A not created")
	}
	if w.CreatePulley(scene.PulleyDesc{BodyA: b, BodyB: c, Length: cfg.CableLength, WorldAnchor: cfg.PulleyB}) == 0 {
		t.Fatal("pulley B not created")
	}
	return w, c, cfg
}

func TestFreeFall(t *testing.T) {
	w := NewWorld()
	h := w.CreateRigidBody(scene.BodyDesc{Mass: 10, Transform: scene.At(mgl64.Vec3{0, 10, 0})})
	e0 := w.Energy()

	for i := 0; i < 64; i++ {
		w.Step(params)
	}

	b, err := w.Body(h)
	if err != nil {
		t.Fatal(err)
	}
	want := 10 - 0.5*DefaultGravity
	if math.Abs(b.Position.Y()-want) > 0.01 {
		t.Errorf("y after 1s = %f, want ~%f", b.Position.Y(), want)
	}
	if math.Abs(w.Energy()-e0) > 1 {
		t.Errorf("energy drift %f", w.Energy()-e0)
	}
	if math.Abs(w.Time()-1) > 1e-9 {
		t.Errorf("time = %f", w.Time())
	}
}

func TestEqualMassesHoldEquilibrium(t *testing.T) {
	w, central, cfg := build(t, geometry.Input{M1: 10, M2: 10, MC: 10, Span: 10, Offset: 0})

	for i := 0; i < 128; i++ {
		w.Step(params)
	}

	b, _ := w.Body(central)
	if d := b.Position.Sub(cfg.Equilibrium).Len(); d > 0.05 {
		t.Errorf("central body drifted %f from equilibrium", d)
	}
	if e := w.CableError(); e > 0.05 {
		t.Errorf("cable error %f", e)
	}
}

func TestDisplacedCentralKeepsCableLength(t *testing.T) {
	w, central, cfg := build(t, geometry.Input{M1: 10, M2: 10, MC: 10, Span: 10, Offset: -5})

	moved := false
	for i := 0; i < 128; i++ {
		w.Step(params)
		b, _ := w.Body(central)
		if b.Position.Sub(cfg.Central.Position).Len() > 0.1 {
			moved = true
		}
	}

	if !moved {
		t.Error("displaced central body should move")
	}
	if e := w.CableError(); e > 0.05 {
		t.Errorf("cable error %f", e)
	}
}

func TestDestroyBodyDropsPulleys(t *testing.T) {
	w, central, _ := build(t, geometry.Input{M1: 10, M2: 10, MC: 10, Span: 10, Offset: -5})

	if !w.DestroyBody(central) {
		t.Fatal("destroy of live body failed")
	}
	if w.NumPulleys() != 0 {
		t.Errorf("pulleys = %d, want 0", w.NumPulleys())
	}
	if w.NumBodies() != 2 {
		t.Errorf("bodies = %d, want 2", w.NumBodies())
	}
	if w.DestroyBody(central) {
		t.Error("second destroy should report false")
	}
	if _, ok := w.BodyTransform(central); ok {
		t.Error("transform of destroyed body should not be found")
	}
	if _, err := w.Body(central); !errors.Is(err, scene.ErrStaleHandle) {
		t.Errorf("err = %v, want ErrStaleHandle", err)
	}
	w.Step(params)
}

func TestCreatePulleyUnknownBody(t *testing.T) {
	w := NewWorld()
	a := w.CreateRigidBody(scene.BodyDesc{Mass: 1})
	if h := w.CreatePulley(scene.PulleyDesc{BodyA: a, BodyB: 99, Length: 1}); h != 0 {
		t.Errorf("handle = %d, want 0", h)
	}
	if w.DestroyConstraint(42) {
		t.Error("destroying unknown constraint should report false")
	}
}

func TestStepIgnoresNonPositiveDt(t *testing.T) {
	w := NewWorld()
	h := w.CreateRigidBody(scene.BodyDesc{Mass: 1, Transform: scene.At(mgl64.Vec3{0, 3, 0})})
	w.Step(scene.StepParams{Dt: 0})
	w.Step(scene.StepParams{Dt: -1})

	tr, _ := w.BodyTransform(h)
	if tr.Translation.Y() != 3 {
		t.Errorf("y = %f, want 3", tr.Translation.Y())
	}
}

func TestAngularVelocityRotates(t *testing.T) {
	w := NewWorld()
	h := w.CreateRigidBody(scene.BodyDesc{
		Mass:            1,
		Transform:       scene.At(mgl64.Vec3{}),
		AngularVelocity: mgl64.Vec3{0, 0, 1},
	})
	w.Gravity = mgl64.Vec3{}
	for i := 0; i < 64; i++ {
		w.Step(params)
	}

	tr, _ := w.BodyTransform(h)
	if math.Abs(tr.Rotation.Len()-1) > 1e-9 {
		t.Errorf("rotation not normalised: %f", tr.Rotation.Len())
	}
	if tr.Rotation.ApproxEqual(mgl64.QuatIdent()) {
		t.Error("body should have rotated")
	}
}
