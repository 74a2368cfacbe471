package physics

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pulleysim/internal/scene"
)

const (
	DefaultGravity = 9.81
	// minCableSpan is the distance below which a cable direction is treated
	// as undefined and the constraint is skipped for that substep.
	minCableSpan = 1e-9
)

type Body struct {
	Shape           scene.Shape
	Mass            float64
	InvMass         float64
	Dimensions      mgl64.Vec3
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	LinearVelocity  mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

// Pulley holds the path length of a cable from A over Anchor to B.
type Pulley struct {
	A, B         scene.BodyHandle
	LocalAnchorA mgl64.Vec3
	LocalAnchorB mgl64.Vec3
	Length       float64
	Anchor       mgl64.Vec3
}

// World is a point-mass rigid body simulation with pulley constraints. It is
// stepped with semi-implicit Euler substeps and a Gauss-Seidel velocity
// solve with Baumgarte position feedback.
type World struct {
	Gravity mgl64.Vec3

	bodies      map[scene.BodyHandle]*Body
	pulleys     map[scene.ConstraintHandle]*Pulley
	nextBody    scene.BodyHandle
	nextPulley  scene.ConstraintHandle
	pulleyOrder []scene.ConstraintHandle
	time        float64
}

func NewWorld() *World {
	return &World{
		Gravity: mgl64.Vec3{0, -DefaultGravity, 0},
		bodies:  make(map[scene.BodyHandle]*Body),
		pulleys: make(map[scene.ConstraintHandle]*Pulley),
	}
}

func (w *World) CreateRigidBody(desc scene.BodyDesc) scene.BodyHandle {
	w.nextBody++
	inv := 0.0
	if desc.Mass > 0 {
		inv = 1 / desc.Mass
	}
	rot := desc.Transform.Rotation
	if rot.Len() == 0 {
		rot = mgl64.QuatIdent()
	}
	w.bodies[w.nextBody] = &Body{
		Shape:           desc.Shape,
		Mass:            desc.Mass,
		InvMass:         inv,
		Dimensions:      desc.Dimensions,
		Position:        desc.Transform.Translation,
		Rotation:        rot,
		LinearVelocity:  desc.LinearVelocity,
		AngularVelocity: desc.AngularVelocity,
	}
	return w.nextBody
}

// CreatePulley returns 0 when either body is unknown.
func (w *World) CreatePulley(desc scene.PulleyDesc) scene.ConstraintHandle {
	if _, ok := w.bodies[desc.BodyA]; !ok {
		return 0
	}
	if _, ok := w.bodies[desc.BodyB]; !ok {
		return 0
	}
	w.nextPulley++
	w.pulleys[w.nextPulley] = &Pulley{
		A:            desc.BodyA,
		B:            desc.BodyB,
		LocalAnchorA: desc.LocalAnchorA,
		LocalAnchorB: desc.LocalAnchorB,
		Length:       desc.Length,
		Anchor:       desc.WorldAnchor,
	}
	w.pulleyOrder = append(w.pulleyOrder, w.nextPulley)
	return w.nextPulley
}

// DestroyBody removes the body and every pulley attached to it.
func (w *World) DestroyBody(h scene.BodyHandle) bool {
	if _, ok := w.bodies[h]; !ok {
		return false
	}
	delete(w.bodies, h)
	for id, p := range w.pulleys {
		if p.A == h || p.B == h {
			w.DestroyConstraint(id)
		}
	}
	return true
}

func (w *World) DestroyConstraint(h scene.ConstraintHandle) bool {
	if _, ok := w.pulleys[h]; !ok {
		return false
	}
	delete(w.pulleys, h)
	for i, id := range w.pulleyOrder {
		if id == h {
			w.pulleyOrder = append(w.pulleyOrder[:i], w.pulleyOrder[i+1:]...)
			break
		}
	}
	return true
}

func (w *World) BodyTransform(h scene.BodyHandle) (scene.Transform, bool) {
	b, ok := w.bodies[h]
	if !ok {
		return scene.Transform{}, false
	}
	return scene.Transform{Translation: b.Position, Rotation: b.Rotation}, true
}

// Body returns a copy of the body state.
func (w *World) Body(h scene.BodyHandle) (Body, error) {
	b, ok := w.bodies[h]
	if !ok {
		return Body{}, fmt.Errorf("body %d: %w", h, scene.ErrStaleHandle)
	}
	return *b, nil
}

func (w *World) Pulley(h scene.ConstraintHandle) (Pulley, error) {
	p, ok := w.pulleys[h]
	if !ok {
		return Pulley{}, fmt.Errorf("pulley %d: %w", h, scene.ErrStaleHandle)
	}
	return *p, nil
}

func (w *World) NumBodies() int  { return len(w.bodies) }
func (w *World) NumPulleys() int { return len(w.pulleys) }
func (w *World) Time() float64   { return w.time }

// Step advances the world by p.Dt. Non-positive dt is ignored and substep
// counts below one are treated as one.
func (w *World) Step(p scene.StepParams) {
	if p.Dt <= 0 {
		return
	}
	substeps := max(p.IntegrationSubsteps, 1)
	iterations := max(p.ConstraintSubsteps, 1)
	h := p.Dt / float64(substeps)

	for s := 0; s < substeps; s++ {
		for _, b := range w.bodies {
			if b.InvMass == 0 {
				continue
			}
			b.LinearVelocity = b.LinearVelocity.Add(w.Gravity.Mul(h))
		}

		for i := 0; i < iterations; i++ {
			for _, id := range w.pulleyOrder {
				w.solvePulley(w.pulleys[id], h, p.Baumgarte)
			}
		}

		for _, b := range w.bodies {
			b.Position = b.Position.Add(b.LinearVelocity.Mul(h))
			b.Rotation = integrateRotation(b.Rotation, b.AngularVelocity, h)
		}
	}
	w.time += p.Dt
}

func (w *World) solvePulley(p *Pulley, h, beta float64) {
	a, b := w.bodies[p.A], w.bodies[p.B]
	k := a.InvMass + b.InvMass
	if k == 0 {
		return
	}

	ra := a.Position.Add(p.LocalAnchorA).Sub(p.Anchor)
	rb := b.Position.Add(p.LocalAnchorB).Sub(p.Anchor)
	la, lb := ra.Len(), rb.Len()
	if la < minCableSpan || lb < minCableSpan {
		return
	}
	ua, ub := ra.Mul(1/la), rb.Mul(1/lb)

	c := la + lb - p.Length
	cdot := ua.Dot(a.LinearVelocity) + ub.Dot(b.LinearVelocity)
	lambda := -(cdot + beta/h*c) / k

	a.LinearVelocity = a.LinearVelocity.Add(ua.Mul(lambda * a.InvMass))
	b.LinearVelocity = b.LinearVelocity.Add(ub.Mul(lambda * b.InvMass))
}

func integrateRotation(q mgl64.Quat, omega mgl64.Vec3, h float64) mgl64.Quat {
	if omega.Len() == 0 {
		return q
	}
	spin := mgl64.Quat{W: 0, V: omega}.Mul(q).Scale(0.5 * h)
	return q.Add(spin).Normalize()
}

// CableError returns the largest absolute path length violation over all
// pulleys.
func (w *World) CableError() float64 {
	worst := 0.0
	for _, p := range w.pulleys {
		a, b := w.bodies[p.A], w.bodies[p.B]
		la := a.Position.Add(p.LocalAnchorA).Sub(p.Anchor).Len()
		lb := b.Position.Add(p.LocalAnchorB).Sub(p.Anchor).Len()
		worst = math.Max(worst, math.Abs(la+lb-p.Length))
	}
	return worst
}

// Energy returns kinetic plus gravitational potential energy, measured from
// y = 0.
func (w *World) Energy() float64 {
	g := w.Gravity.Len()
	e := 0.0
	for _, b := range w.bodies {
		v := b.LinearVelocity.Len()
		e += 0.5*b.Mass*v*v + b.Mass*g*b.Position.Y()
	}
	return e
}

// Handles returns the live body handles in creation order.
func (w *World) Handles() []scene.BodyHandle {
	out := make([]scene.BodyHandle, 0, len(w.bodies))
	for h := range w.bodies {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
