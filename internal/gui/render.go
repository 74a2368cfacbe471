package gui

import (
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pulleysim/internal/present"
	"github.com/san-kum/pulleysim/internal/scene"
	"github.com/san-kum/pulleysim/internal/sim"
)

func vec(v mgl64.Vec3) rl.Vector3 {
	return rl.NewVector3(float32(v.X()), float32(v.Y()), float32(v.Z()))
}

func toRL(c color.RGBA) rl.Color {
	return rl.NewColor(c.R, c.G, c.B, c.A)
}

// axisAngle converts a unit quaternion to a rotation in degrees about an
// axis. The identity maps to a zero angle about +Y.
func axisAngle(q mgl64.Quat) (deg float64, axis mgl64.Vec3) {
	q = q.Normalize()
	w := math.Max(-1, math.Min(1, q.W))
	s := math.Sqrt(1 - w*w)
	if s < 1e-9 {
		return 0, mgl64.Vec3{0, 1, 0}
	}
	return mgl64.RadToDeg(2 * math.Acos(w)), q.V.Mul(1 / s)
}

// drawScene renders cables, then solid visuals, then additive trace markers.
func drawScene(f sim.Frame) {
	cable := toRL(scene.CableColor())
	for _, cb := range f.Cables {
		rl.DrawLine3D(vec(cb.From), vec(cb.Via), cable)
		rl.DrawLine3D(vec(cb.Via), vec(cb.To), cable)
	}

	var markers []present.Visual
	for _, v := range f.Entities {
		if v.Material.Additive {
			markers = append(markers, v)
			continue
		}
		drawVisual(v)
	}

	if len(markers) == 0 {
		return
	}
	rl.BeginBlendMode(rl.BlendAdditive)
	for _, v := range markers {
		drawVisual(v)
	}
	rl.EndBlendMode()
}

func drawVisual(v present.Visual) {
	col := toRL(v.Material.Color)
	pos := v.Transform.Translation
	switch v.Mesh.Shape {
	case scene.ShapeBox:
		size := v.Mesh.Size
		deg, axis := axisAngle(v.Transform.Rotation)
		rl.PushMatrix()
		rl.Translatef(float32(pos.X()), float32(pos.Y()), float32(pos.Z()))
		rl.Rotatef(float32(deg), float32(axis.X()), float32(axis.Y()), float32(axis.Z()))
		origin := rl.NewVector3(0, 0, 0)
		rl.DrawCube(origin, float32(size.X()), float32(size.Y()), float32(size.Z()), col)
		rl.DrawCubeWires(origin, float32(size.X()), float32(size.Y()), float32(size.Z()), ColBg)
		rl.PopMatrix()
	default:
		rl.DrawSphere(vec(pos), float32(v.Mesh.Size.X()), col)
	}
}
