// Package geometry derives the initial placement of the double-pulley
// mechanism from the demonstration parameters.
//
// The placement is closed form. The central body hangs below the midpoint of
// the two pulley anchors, at the resting height of the two-cable triangle,
// displaced vertically by the requested offset. Each side body hangs straight
// below its pulley with just enough drop to make the cable path
//
//	side body -> pulley -> central body
//
// equal to the shared constraint length.
//
// # Boundary behaviour
//
// [Solve] never rejects input. When the offset is large enough that the
// pulley-to-centre distance exceeds the cable length, [Placement.Drop] is
// negative and the side bodies are placed above their pulleys. Within the
// ranges enforced by the config package this cannot happen: the drop stays
// above roughly 0.236 of the half span.
package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CableFactor is the constraint length in units of the half span.
const CableFactor = 3.0

// Input is the subset of the demonstration parameters the solver reads.
type Input struct {
	M1, M2, MC float64
	Span       float64
	Offset     float64
}

// Placement is the spawn state of one body. Velocities are always zero.
type Placement struct {
	Mass            float64
	Position        mgl64.Vec3
	LinearVelocity  mgl64.Vec3
	AngularVelocity mgl64.Vec3
	// Drop is the vertical distance below the pulley for side bodies, zero
	// for the central body.
	Drop float64
}

// Configuration is the solver output. It is consumed once by scene
// construction and not stored.
type Configuration struct {
	SideA, SideB Placement
	Central      Placement
	PulleyA      mgl64.Vec3
	PulleyB      mgl64.Vec3
	Equilibrium  mgl64.Vec3
	CableLength  float64
}

// Solve places every body and anchor for in.
func Solve(in Input) Configuration {
	half := in.Span / 2

	equilibrium := mgl64.Vec3{0, -half / math.Sqrt(3), 0}
	central := equilibrium.Add(mgl64.Vec3{0, in.Offset, 0})

	pulleyA := mgl64.Vec3{-half, 0, 0}
	pulleyB := mgl64.Vec3{half, 0, 0}

	length := CableFactor * half
	dropA := length - central.Sub(pulleyA).Len()
	dropB := length - central.Sub(pulleyB).Len()

	return Configuration{
		SideA: Placement{
			Mass:     in.M1,
			Position: pulleyA.Add(mgl64.Vec3{0, -dropA, 0}),
			Drop:     dropA,
		},
		SideB: Placement{
			Mass:     in.M2,
			Position: pulleyB.Add(mgl64.Vec3{0, -dropB, 0}),
			Drop:     dropB,
		},
		Central: Placement{
			Mass:     in.MC,
			Position: central,
		},
		PulleyA:     pulleyA,
		PulleyB:     pulleyB,
		Equilibrium: equilibrium,
		CableLength: length,
	}
}

// PathLength returns pulley-to-side plus pulley-to-centre distance for the
// given side. It equals CableLength whenever the side's drop is non-negative.
func (c Configuration) PathLength(side Placement, pulley mgl64.Vec3) float64 {
	return side.Position.Sub(pulley).Len() + c.Central.Position.Sub(pulley).Len()
}

// Overdrawn reports whether any side body was placed above its pulley.
func (c Configuration) Overdrawn() bool {
	return c.SideA.Drop < 0 || c.SideB.Drop < 0
}
