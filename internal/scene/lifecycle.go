package scene

import (
	"context"
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pulleysim/internal/geometry"
	"github.com/san-kum/pulleysim/internal/logging"
)

const (
	sideBoxSize       = 1.0
	centralRadius     = 0.5
	pulleyRadius      = 0.2
	equilibriumRadius = 0.25
	traceRadius       = 0.1
)

var (
	colorSide        = color.RGBA{R: 255, A: 255}
	colorCentral     = color.RGBA{G: 255, A: 255}
	colorPulley      = color.RGBA{R: 25, G: 25, B: 112, A: 255}
	colorCable       = color.RGBA{R: 245, G: 245, B: 220, A: 255}
	colorEquilibrium = color.RGBA{G: 255, B: 255, A: 255}
	colorTrace       = color.RGBA{G: 255, A: 128}
)

// CableColor is the colour renderers use for cable segments.
func CableColor() color.RGBA { return colorCable }

type palette struct {
	boxMesh, centralMesh, pulleyMesh, equilibriumMesh AssetHandle
	side, central, pulley, equilibrium                AssetHandle
}

func loadPalette(l AssetLoader) *palette {
	return &palette{
		boxMesh:         l.LoadMesh(BoxMesh(sideBoxSize, sideBoxSize, sideBoxSize)),
		centralMesh:     l.LoadMesh(SphereMesh(centralRadius)),
		pulleyMesh:      l.LoadMesh(SphereMesh(pulleyRadius)),
		equilibriumMesh: l.LoadMesh(SphereMesh(equilibriumRadius)),
		side:            l.LoadMaterial(MaterialDesc{Color: colorSide}),
		central:         l.LoadMaterial(MaterialDesc{Color: colorCentral}),
		pulley:          l.LoadMaterial(MaterialDesc{Color: colorPulley}),
		equilibrium:     l.LoadMaterial(MaterialDesc{Color: colorEquilibrium}),
	}
}

// Report summarises one restart.
type Report struct {
	Generation    uint64
	Despawned     int
	Spawned       int
	Configuration geometry.Configuration
}

// Lifecycle rebuilds the scene from the current parameters. It is the only
// writer of rigid body, constraint and decoration entities.
type Lifecycle struct {
	sim     Simulation
	pres    Presentation
	reg     *Registry
	params  *ParameterStore
	log     logging.Logger
	palette *palette
}

func NewLifecycle(sim Simulation, pres Presentation, reg *Registry, params *ParameterStore, log logging.Logger) *Lifecycle {
	if log == nil {
		log = logging.Noop()
	}
	return &Lifecycle{
		sim:    sim,
		pres:   pres,
		reg:    reg,
		params: params,
		log:    log.With(logging.String("component", "lifecycle")),
	}
}

// Restart despawns every entity of the previous generation, solves the
// geometry for a snapshot of the parameters and spawns the new generation.
// Restarting an empty scene only spawns.
func (l *Lifecycle) Restart(ctx context.Context) Report {
	despawned := l.Teardown()

	in := l.params.GeometryInput()
	cfg := geometry.Solve(in)

	if l.palette == nil {
		l.palette = loadPalette(l.pres)
	}
	gen := l.reg.advance()

	a := l.spawnBody(gen, ShapeBox, cfg.SideA, l.palette.boxMesh, l.palette.side, false)
	b := l.spawnBody(gen, ShapeBox, cfg.SideB, l.palette.boxMesh, l.palette.side, false)
	c := l.spawnBody(gen, ShapeSphere, cfg.Central, l.palette.centralMesh, l.palette.central, true)

	l.spawnPulley(gen, a, c, cfg.CableLength, cfg.PulleyA)
	l.spawnPulley(gen, b, c, cfg.CableLength, cfg.PulleyB)

	marker := l.pres.SpawnVisual(l.palette.equilibriumMesh, l.palette.equilibrium, At(cfg.Equilibrium), TagDecoration)
	l.reg.Add(Entity{Role: RoleStaticDecoration, Visual: marker, Generation: gen})

	if cfg.Overdrawn() {
		l.log.Warn(ctx, "side body placed above its pulley",
			logging.Float("drop_a", cfg.SideA.Drop),
			logging.Float("drop_b", cfg.SideB.Drop))
	}
	l.log.Debug(ctx, "scene restarted",
		logging.Uint64("generation", gen),
		logging.Int("despawned", despawned),
		logging.Int("entities", l.reg.Len()),
		logging.Float("cable_length", cfg.CableLength))

	return Report{
		Generation:    gen,
		Despawned:     despawned,
		Spawned:       l.reg.Len(),
		Configuration: cfg,
	}
}

// Teardown despawns every registered entity of any role and returns how many
// were removed. Constraints are destroyed before the bodies they join.
func (l *Lifecycle) Teardown() int {
	removed := l.reg.RemoveAll()
	for _, e := range removed {
		if e.Constraint != 0 {
			l.sim.DestroyConstraint(e.Constraint)
		}
	}
	for _, e := range removed {
		if e.Body != 0 {
			l.sim.DestroyBody(e.Body)
		}
		if e.Visual != 0 {
			l.pres.Despawn(e.Visual)
		}
	}
	return len(removed)
}

func (l *Lifecycle) spawnBody(gen uint64, shape Shape, p geometry.Placement, mesh, material AssetHandle, traceable bool) Entity {
	dims := mgl64.Vec3{sideBoxSize, sideBoxSize, sideBoxSize}
	if shape == ShapeSphere {
		dims = mgl64.Vec3{centralRadius, centralRadius, centralRadius}
	}
	t := At(p.Position)
	body := l.sim.CreateRigidBody(BodyDesc{
		Shape:           shape,
		Mass:            p.Mass,
		Dimensions:      dims,
		Transform:       t,
		LinearVelocity:  p.LinearVelocity,
		AngularVelocity: p.AngularVelocity,
	})

	tags := []Tag{TagRigidBody}
	if traceable {
		tags = append(tags, TagTraceable)
	}
	visual := l.pres.SpawnVisual(mesh, material, t, tags...)

	e := Entity{
		Role:       RoleRigidBody,
		Visual:     visual,
		Body:       body,
		Traceable:  traceable,
		Generation: gen,
	}
	l.reg.Add(e)
	return e
}

func (l *Lifecycle) spawnPulley(gen uint64, side, central Entity, length float64, anchor mgl64.Vec3) {
	constraint := l.sim.CreatePulley(PulleyDesc{
		BodyA:       side.Body,
		BodyB:       central.Body,
		Length:      length,
		WorldAnchor: anchor,
	})
	wheel := l.pres.SpawnVisual(l.palette.pulleyMesh, l.palette.pulley, At(anchor), TagConstraint)
	l.reg.Add(Entity{
		Role:       RoleConstraint,
		Visual:     wheel,
		Constraint: constraint,
		Cable:      &Cable{A: side.Visual, B: central.Visual, Anchor: anchor},
		Generation: gen,
	})
}

// SyncTransforms copies every rigid body's simulated transform onto its
// visual. Bodies the simulation no longer knows are skipped.
func SyncTransforms(reg *Registry, sim Simulation, pres Presentation) {
	for _, e := range reg.entities {
		if e.Role != RoleRigidBody {
			continue
		}
		t, ok := sim.BodyTransform(e.Body)
		if !ok {
			continue
		}
		pres.SetTransform(e.Visual, t)
	}
}
