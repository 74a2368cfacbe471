package scene

import (
	"errors"
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrStaleHandle is what services report for a handle that no longer exists.
// Scene code treats it as a no-op.
var ErrStaleHandle = errors.New("scene: stale handle")

type (
	BodyHandle       uint64
	ConstraintHandle uint64
	EntityHandle     uint64
	AssetHandle      uint64
)

type Transform struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
}

// At returns an unrotated transform at p.
func At(p mgl64.Vec3) Transform {
	return Transform{Translation: p, Rotation: mgl64.QuatIdent()}
}

type Shape int

const (
	ShapeBox Shape = iota
	ShapeSphere
)

func (s Shape) String() string {
	switch s {
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	default:
		return "unknown"
	}
}

// BodyDesc describes a rigid body to create. Dimensions are the box extents
// or, for spheres, the radius in X.
type BodyDesc struct {
	Shape           Shape
	Mass            float64
	Dimensions      mgl64.Vec3
	Transform       Transform
	LinearVelocity  mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

// PulleyDesc routes a cable from BodyA over WorldAnchor to BodyB.
type PulleyDesc struct {
	BodyA, BodyB BodyHandle
	LocalAnchorA mgl64.Vec3
	LocalAnchorB mgl64.Vec3
	Length       float64
	WorldAnchor  mgl64.Vec3
}

type StepParams struct {
	Dt                  float64
	IntegrationSubsteps int
	ConstraintSubsteps  int
	Baumgarte           float64
}

type MeshDesc struct {
	Shape Shape
	Size  mgl64.Vec3
}

func BoxMesh(w, h, d float64) MeshDesc {
	return MeshDesc{Shape: ShapeBox, Size: mgl64.Vec3{w, h, d}}
}

func SphereMesh(radius float64) MeshDesc {
	return MeshDesc{Shape: ShapeSphere, Size: mgl64.Vec3{radius, radius, radius}}
}

type MaterialDesc struct {
	Color    color.RGBA
	Additive bool
}

type Tag string

const (
	TagRigidBody  Tag = "rigid_body"
	TagConstraint Tag = "constraint"
	TagTrace      Tag = "trace_marker"
	TagDecoration Tag = "decoration"
	TagTraceable  Tag = "traceable"
)

// Simulation is the physics service the scene is built on.
type Simulation interface {
	CreateRigidBody(desc BodyDesc) BodyHandle
	CreatePulley(desc PulleyDesc) ConstraintHandle
	DestroyBody(h BodyHandle) bool
	DestroyConstraint(h ConstraintHandle) bool
	Step(p StepParams)
	BodyTransform(h BodyHandle) (Transform, bool)
}

// AssetLoader registers meshes and materials and hands back shared handles.
type AssetLoader interface {
	LoadMesh(desc MeshDesc) AssetHandle
	LoadMaterial(desc MaterialDesc) AssetHandle
}

// Presentation is the rendering service the scene is shown through.
type Presentation interface {
	AssetLoader
	SpawnVisual(mesh, material AssetHandle, t Transform, tags ...Tag) EntityHandle
	Despawn(h EntityHandle) bool
	QueryTransform(h EntityHandle) (Transform, bool)
	SetTransform(h EntityHandle, t Transform) bool
}
