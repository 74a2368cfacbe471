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

var _ = Describe("Tracer", func() {
	var (
		ctx    context.Context
		pres   *present.World
		reg    *scene.Registry
		params *scene.ParameterStore
		tracer *scene.Tracer
	)

	BeforeEach(func() {
		ctx = context.Background()
		pres = present.NewWorld()
		reg = scene.NewRegistry()
		params = scene.NewParameterStore(config.DefaultDemonstration(), config.DefaultSolver())
		scene.NewLifecycle(physics.NewWorld(), pres, reg, params, logging.Noop()).Restart(ctx)
		tracer = scene.NewTracer(reg, pres, params, logging.Noop())
	})

	It("starts idle and samples nothing", func() {
		Expect(tracer.State()).To(Equal(scene.TraceIdle))
		Expect(tracer.Sample(ctx)).To(BeZero())
		Expect(tracer.Markers()).To(BeZero())
	})

	It("does not touch entities on the transition to tracing", func() {
		before := pres.Len()
		params.SetTracing(true)

		tracer.Sync(ctx)

		Expect(tracer.State()).To(Equal(scene.TraceTracing))
		Expect(pres.Len()).To(Equal(before))
	})

	Context("while tracing a stationary body", func() {
		BeforeEach(func() {
			params.SetTracing(true)
			tracer.Sync(ctx)
			for i := 0; i < 3; i++ {
				tracer.Sample(ctx)
			}
		})

		It("leaves one marker per tick at the body's transform", func() {
			Expect(tracer.Markers()).To(Equal(3))
			Expect(pres.Count(scene.TagTrace)).To(Equal(3))

			central, _ := pres.QueryTransform(reg.Traceable()[0].Visual)
			for _, m := range reg.ByRole(scene.RoleTraceMarker) {
				tr, ok := pres.QueryTransform(m.Visual)
				Expect(ok).To(BeTrue())
				Expect(tr.Translation.ApproxEqual(central.Translation)).To(BeTrue())
			}
		})

		It("shares one translucent additive material across markers", func() {
			markers := reg.ByRole(scene.RoleTraceMarker)
			first, err := pres.Lookup(markers[0].Visual)
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Material.Additive).To(BeTrue())
			Expect(first.Material.Color.A).To(BeNumerically("<", 255))
			Expect(first.Mesh.Shape).To(Equal(scene.ShapeSphere))

			meshes, materials := pres.Assets()
			tracer.Sample(ctx)
			m2, mat2 := pres.Assets()
			Expect(m2).To(Equal(meshes))
			Expect(mat2).To(Equal(materials))
		})

		It("clears every marker and keeps tracing", func() {
			Expect(tracer.Clear(ctx)).To(Equal(3))
			Expect(tracer.Markers()).To(BeZero())
			Expect(pres.Count(scene.TagTrace)).To(BeZero())
			Expect(tracer.State()).To(Equal(scene.TraceTracing))

			Expect(tracer.Sample(ctx)).To(Equal(1))
		})

		It("drops every marker when tracing is disabled", func() {
			for i := 0; i < 50; i++ {
				tracer.Sample(ctx)
			}
			params.SetTracing(false)

			tracer.Sync(ctx)

			Expect(tracer.State()).To(Equal(scene.TraceIdle))
			Expect(tracer.Markers()).To(BeZero())
			Expect(pres.Count(scene.TagTrace)).To(BeZero())
			Expect(tracer.Sample(ctx)).To(BeZero())
		})

		It("keeps the scene bodies when clearing", func() {
			tracer.Clear(ctx)
			Expect(reg.Count(scene.RoleRigidBody)).To(Equal(3))
			Expect(reg.Count(scene.RoleConstraint)).To(Equal(2))
			Expect(reg.Count(scene.RoleStaticDecoration)).To(Equal(1))
		})
	})

	It("places markers at the full transform including rotation", func() {
		body := reg.Traceable()[0].Visual
		rotated := scene.Transform{
			Translation: mgl64.Vec3{1, -7, 0},
			Rotation:    mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1}),
		}
		Expect(pres.SetTransform(body, rotated)).To(BeTrue())
		params.SetTracing(true)

		Expect(tracer.Sample(ctx)).To(Equal(1))

		marker := reg.ByRole(scene.RoleTraceMarker)[0]
		tr, ok := pres.QueryTransform(marker.Visual)
		Expect(ok).To(BeTrue())
		Expect(tr.Translation.ApproxEqual(rotated.Translation)).To(BeTrue())
		Expect(tr.Rotation.ApproxEqual(rotated.Rotation)).To(BeTrue())
	})

	It("skips a traceable entity whose visual is gone", func() {
		params.SetTracing(true)
		pres.Despawn(reg.Traceable()[0].Visual)

		Expect(tracer.Sample(ctx)).To(BeZero())
	})

	It("starts in the tracing state when the flag is already set", func() {
		params.SetTracing(true)
		t := scene.NewTracer(reg, pres, params, logging.Noop())
		Expect(t.State()).To(Equal(scene.TraceTracing))
	})
})
