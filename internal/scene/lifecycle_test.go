package scene_test

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pulleysim/internal/config"
	"github.com/san-kum/pulleysim/internal/logging"
	"github.com/san-kum/pulleysim/internal/physics"
	"github.com/san-kum/pulleysim/internal/present"
	"github.com/san-kum/pulleysim/internal/scene"
)

// recordingSim wraps a physics world and records destroy calls in order.
type recordingSim struct {
	*physics.World
	calls []string
}

func (r *recordingSim) DestroyBody(h scene.BodyHandle) bool {
	r.calls = append(r.calls, "body")
	return r.World.DestroyBody(h)
}

func (r *recordingSim) DestroyConstraint(h scene.ConstraintHandle) bool {
	r.calls = append(r.calls, "constraint")
	return r.World.DestroyConstraint(h)
}

func translations(p *present.World) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, 0)
	for _, v := range p.Snapshot() {
		out = append(out, v.Transform.Translation)
	}
	return out
}

var _ = Describe("Lifecycle", func() {
	var (
		ctx    context.Context
		sim    *physics.World
		pres   *present.World
		reg    *scene.Registry
		params *scene.ParameterStore
		lc     *scene.Lifecycle
	)

	BeforeEach(func() {
		ctx = context.Background()
		sim = physics.NewWorld()
		pres = present.NewWorld()
		reg = scene.NewRegistry()
		params = scene.NewParameterStore(config.DefaultDemonstration(), config.DefaultSolver())
		lc = scene.NewLifecycle(sim, pres, reg, params, logging.Noop())
	})

	It("spawns three bodies, two pulleys and the equilibrium marker", func() {
		report := lc.Restart(ctx)

		Expect(report.Generation).To(Equal(uint64(1)))
		Expect(report.Despawned).To(BeZero())
		Expect(report.Spawned).To(Equal(6))
		Expect(reg.Count(scene.RoleRigidBody)).To(Equal(3))
		Expect(reg.Count(scene.RoleConstraint)).To(Equal(2))
		Expect(reg.Count(scene.RoleStaticDecoration)).To(Equal(1))
		Expect(sim.NumBodies()).To(Equal(3))
		Expect(sim.NumPulleys()).To(Equal(2))
		Expect(pres.Len()).To(Equal(6))
	})

	It("tags only the central body as traceable", func() {
		report := lc.Restart(ctx)

		traceable := reg.Traceable()
		Expect(traceable).To(HaveLen(1))
		tr, ok := pres.QueryTransform(traceable[0].Visual)
		Expect(ok).To(BeTrue())
		Expect(tr.Translation.Y()).To(BeNumerically("~", -5/math.Sqrt(3)-5, 1e-9))
		Expect(tr.Translation).To(Equal(report.Configuration.Central.Position))
		Expect(pres.Count(scene.TagTraceable)).To(Equal(1))
	})

	It("links each pulley to its side body and the central body", func() {
		lc.Restart(ctx)

		bodies := reg.ByRole(scene.RoleRigidBody)
		central := reg.Traceable()[0]
		for i, c := range reg.ByRole(scene.RoleConstraint) {
			Expect(c.Cable).NotTo(BeNil())
			Expect(c.Cable.A).To(Equal(bodies[i].Visual))
			Expect(c.Cable.B).To(Equal(central.Visual))
			Expect(c.Constraint).NotTo(BeZero())
		}
	})

	It("is idempotent under repetition", func() {
		first := lc.Restart(ctx)
		positions := translations(pres)
		count := reg.Len()

		second := lc.Restart(ctx)

		Expect(second.Despawned).To(Equal(count))
		Expect(reg.Len()).To(Equal(count))
		Expect(pres.Len()).To(Equal(count))
		Expect(translations(pres)).To(Equal(positions))
		Expect(second.Configuration).To(Equal(first.Configuration))
	})

	It("leaves nothing of the previous generation reachable", func() {
		lc.Restart(ctx)
		old := reg.All()

		lc.Restart(ctx)

		for _, e := range old {
			_, ok := pres.QueryTransform(e.Visual)
			Expect(ok).To(BeFalse())
			if e.Body != 0 {
				_, ok := sim.BodyTransform(e.Body)
				Expect(ok).To(BeFalse())
			}
		}
		for _, e := range reg.All() {
			Expect(e.Generation).To(Equal(uint64(2)))
		}
		Expect(sim.NumBodies()).To(Equal(3))
		Expect(sim.NumPulleys()).To(Equal(2))
	})

	It("removes trace markers without touching the trace state", func() {
		params.SetTracing(true)
		tracer := scene.NewTracer(reg, pres, params, logging.Noop())
		lc.Restart(ctx)
		tracer.Sample(ctx)
		tracer.Sample(ctx)
		Expect(tracer.Markers()).To(Equal(2))

		report := lc.Restart(ctx)

		Expect(report.Despawned).To(Equal(8))
		Expect(tracer.Markers()).To(BeZero())
		Expect(pres.Count(scene.TagTrace)).To(BeZero())
		Expect(tracer.State()).To(Equal(scene.TraceTracing))
	})

	It("treats teardown of an empty scene as a no-op", func() {
		Expect(lc.Teardown()).To(BeZero())
		lc.Restart(ctx)
		Expect(lc.Teardown()).To(Equal(6))
		Expect(lc.Teardown()).To(BeZero())
		Expect(pres.Len()).To(BeZero())
		Expect(sim.NumBodies()).To(BeZero())
	})

	It("loads the palette once", func() {
		lc.Restart(ctx)
		meshes, materials := pres.Assets()

		lc.Restart(ctx)
		lc.Restart(ctx)

		m2, mat2 := pres.Assets()
		Expect(m2).To(Equal(meshes))
		Expect(mat2).To(Equal(materials))
	})

	It("builds from the parameters current at restart time", func() {
		lc.Restart(ctx)
		params.UpdateDemonstration(func(d *config.Demonstration) { d.L = 20 })

		report := lc.Restart(ctx)

		Expect(report.Configuration.CableLength).To(Equal(30.0))
		Expect(report.Configuration.PulleyB).To(Equal(mgl64.Vec3{10, 0, 0}))
	})

	It("destroys constraints before bodies", func() {
		rec := &recordingSim{World: physics.NewWorld()}
		lc := scene.NewLifecycle(rec, pres, reg, params, logging.Noop())
		lc.Restart(ctx)

		lc.Restart(ctx)

		Expect(rec.calls).To(Equal([]string{"constraint", "constraint", "body", "body", "body"}))
	})
})

var _ = Describe("ParameterStore", func() {
	It("clamps on construction and update", func() {
		params := scene.NewParameterStore(config.Demonstration{M1: 0, M2: 500, MC: 10, L: 1, X0: -30}, config.Solver{})

		d := params.Demonstration()
		Expect(d.M1).To(Equal(config.MinMass))
		Expect(d.M2).To(Equal(config.MaxMass))
		Expect(d.L).To(Equal(config.MinSpan))
		Expect(d.X0).To(Equal(-config.MinSpan))
		Expect(params.Solver().IntegrationSubsteps).To(Equal(config.MinSubsteps))

		d = params.UpdateDemonstration(func(d *config.Demonstration) { d.MC = -1 })
		Expect(d.MC).To(Equal(config.MinMass))

		s := params.UpdateSolver(func(s *config.Solver) { s.Baumgarte = 1 })
		Expect(s.Baumgarte).To(Equal(config.MaxBaumgarte))
	})

	It("creates the trace assets once", func() {
		pres := present.NewWorld()
		params := scene.NewParameterStore(config.DefaultDemonstration(), config.DefaultSolver())

		mesh, mat := params.TraceAssets(pres)
		again, againMat := params.TraceAssets(pres)

		Expect(again).To(Equal(mesh))
		Expect(againMat).To(Equal(mat))
		meshes, materials := pres.Assets()
		Expect(meshes).To(Equal(1))
		Expect(materials).To(Equal(1))
	})
})

var _ = Describe("Registry", func() {
	It("removes entities by role", func() {
		reg := scene.NewRegistry()
		reg.Add(scene.Entity{Role: scene.RoleRigidBody, Visual: 1})
		reg.Add(scene.Entity{Role: scene.RoleTraceMarker, Visual: 2})
		reg.Add(scene.Entity{Role: scene.RoleRigidBody, Visual: 3, Traceable: true})
		reg.Add(scene.Entity{Role: scene.RoleTraceMarker, Visual: 4})

		removed := reg.RemoveRole(scene.RoleTraceMarker)

		Expect(removed).To(HaveLen(2))
		Expect(reg.Len()).To(Equal(2))
		Expect(reg.Traceable()).To(ConsistOf(scene.Entity{Role: scene.RoleRigidBody, Visual: 3, Traceable: true}))
		Expect(reg.RemoveAll()).To(HaveLen(2))
		Expect(reg.Len()).To(BeZero())
	})
})
