package scene

import (
	"github.com/san-kum/pulleysim/internal/config"
	"github.com/san-kum/pulleysim/internal/geometry"
)

type traceAssets struct {
	mesh     AssetHandle
	material AssetHandle
}

// ParameterStore owns the demonstration parameters and the solver tuning
// knobs for the lifetime of the program. Writes happen in the input phase of
// a tick and reads in the command phase, so it carries no lock.
type ParameterStore struct {
	demo   config.Demonstration
	solver config.Solver
	trace  *traceAssets
}

func NewParameterStore(demo config.Demonstration, solver config.Solver) *ParameterStore {
	demo.Clamp()
	solver.Clamp()
	return &ParameterStore{demo: demo, solver: solver}
}

func (p *ParameterStore) Demonstration() config.Demonstration { return p.demo }
func (p *ParameterStore) Solver() config.Solver               { return p.solver }
func (p *ParameterStore) TracingEnabled() bool                { return p.demo.EnableTracing }

// UpdateDemonstration applies fn to a copy of the parameters and stores the
// clamped result.
func (p *ParameterStore) UpdateDemonstration(fn func(*config.Demonstration)) config.Demonstration {
	d := p.demo
	fn(&d)
	d.Clamp()
	p.demo = d
	return d
}

func (p *ParameterStore) UpdateSolver(fn func(*config.Solver)) config.Solver {
	s := p.solver
	fn(&s)
	s.Clamp()
	p.solver = s
	return s
}

func (p *ParameterStore) SetTracing(enabled bool) {
	p.demo.EnableTracing = enabled
}

// TraceAssets returns the mesh and material shared by every trace marker,
// registering them with loader on first use.
func (p *ParameterStore) TraceAssets(loader AssetLoader) (mesh, material AssetHandle) {
	if p.trace == nil {
		p.trace = &traceAssets{
			mesh:     loader.LoadMesh(SphereMesh(traceRadius)),
			material: loader.LoadMaterial(MaterialDesc{Color: colorTrace, Additive: true}),
		}
	}
	return p.trace.mesh, p.trace.material
}

// GeometryInput converts the current parameters to solver input.
func (p *ParameterStore) GeometryInput() geometry.Input {
	d := p.demo
	return geometry.Input{M1: d.M1, M2: d.M2, MC: d.MC, Span: d.L, Offset: d.X0}
}
