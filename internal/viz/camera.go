package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	cameraNear = 0.1
	// viewExtent is how many world units fit across the short side of the
	// canvas at zoom 1.
	viewExtent = 26.0
	maxPitch   = 1.4
)

// Camera orbits a target point and projects world positions onto a canvas
// with a simple perspective divide.
type Camera struct {
	Target     mgl64.Vec3
	Yaw, Pitch float64
	Distance   float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Target: mgl64.Vec3{0, -6, 0}, Distance: 60, Zoom: 1}
}

func (c *Camera) Orbit(yaw, pitch float64) {
	c.Yaw += yaw
	c.Pitch = math.Max(-maxPitch, math.Min(maxPitch, c.Pitch+pitch))
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(8, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.2, c.Zoom/1.2) }

func (c *Camera) Reset() { *c = *NewCamera() }

func (c *Camera) view() mgl64.Mat4 {
	t := c.Target
	return mgl64.HomogRotate3DX(c.Pitch).
		Mul4(mgl64.HomogRotate3DY(c.Yaw)).
		Mul4(mgl64.Translate3D(-t.X(), -t.Y(), -t.Z()))
}

// Project maps p to dot coordinates on a w by h canvas. It also returns the
// view-space depth, the number of dots per world unit at that depth and
// whether the point lands on the canvas.
func (c *Camera) Project(p mgl64.Vec3, w, h int) (x, y int, depth, scale float64, ok bool) {
	v := c.view().Mul4x1(p.Vec4(1)).Vec3()
	if v.Z() >= c.Distance-cameraNear {
		return 0, 0, 0, 0, false
	}
	unit := float64(min(w, h)) / viewExtent
	scale = c.Distance / (c.Distance - v.Z()) * c.Zoom * unit
	x = int(math.Round(v.X()*scale)) + w/2
	y = int(math.Round(-v.Y()*scale)) + h/2
	return x, y, v.Z(), scale, x >= 0 && x < w && y >= 0 && y < h
}
