package sim_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pulleysim/internal/config"
	"github.com/san-kum/pulleysim/internal/logging"
	"github.com/san-kum/pulleysim/internal/physics"
	"github.com/san-kum/pulleysim/internal/present"
	"github.com/san-kum/pulleysim/internal/scene"
	"github.com/san-kum/pulleysim/internal/sim"
)

const dt = 1.0 / 64.0

var _ = Describe("Loop", func() {
	var (
		ctx    context.Context
		world  *physics.World
		pres   *present.World
		params *scene.ParameterStore
		loop   *sim.Loop
		frames []sim.Frame
	)

	BeforeEach(func() {
		ctx = context.Background()
		world = physics.NewWorld()
		pres = present.NewWorld()
		params = scene.NewParameterStore(config.DefaultDemonstration(), config.DefaultSolver())
		loop = sim.NewLoop(params, world, pres, logging.Noop())
		frames = nil
		loop.AddObserver(sim.ObserverFunc(func(f sim.Frame) { frames = append(frames, f) }))
	})

	It("populates the scene on the first tick", func() {
		f, err := loop.Tick(ctx, dt, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(f.Restarted).To(BeTrue())
		Expect(f.Generation).To(Equal(uint64(1)))
		Expect(f.SceneSize).To(Equal(6))
		Expect(f.Entities).To(HaveLen(6))
		Expect(f.Cables).To(HaveLen(2))
		Expect(f.Traceable).To(HaveLen(1))
		Expect(frames).To(HaveLen(1))
	})

	It("rejects a non-positive dt", func() {
		_, err := loop.Tick(ctx, 0, nil)
		Expect(err).To(MatchError(sim.ErrInvalidDt))
		_, err = loop.Tick(ctx, math.NaN(), nil)
		Expect(err).To(MatchError(sim.ErrInvalidDt))
		Expect(frames).To(BeEmpty())
	})

	It("moves the displaced central body and syncs its visual", func() {
		first, _ := loop.Tick(ctx, dt, nil)
		last, err := loop.Run(ctx, 32, dt)

		Expect(err).NotTo(HaveOccurred())
		Expect(last.Traceable[0]).NotTo(Equal(first.Traceable[0]))
		Expect(last.CableError).To(BeNumerically("<", 0.05))
		Expect(last.Time).To(BeNumerically("~", 33*dt, 1e-9))
		Expect(last.Restarted).To(BeFalse())
	})

	It("slows the simulation clock by the slow motion factor", func() {
		loop.Tick(ctx, dt, func(s *sim.Surface) { s.Set(sim.FieldSlowMotion, 4) })
		f, _ := loop.Tick(ctx, dt, nil)

		Expect(f.Time).To(BeNumerically("~", 2*dt/4, 1e-12))
	})

	It("applies surface edits before the restart they request", func() {
		loop.Tick(ctx, dt, nil)

		f, _ := loop.Tick(ctx, dt, func(s *sim.Surface) {
			s.Set(sim.FieldL, 20)
			s.Restart()
		})

		Expect(f.Restarted).To(BeTrue())
		Expect(f.Generation).To(Equal(uint64(2)))
		Expect(loop.LastRestart().Configuration.CableLength).To(Equal(30.0))
		Expect(f.Time).To(BeNumerically("~", dt, 1e-12))
	})

	It("applies commands without stepping while paused", func() {
		loop.Tick(ctx, dt, nil)
		loop.Run(ctx, 8, dt)
		ticks := loop.Ticks()
		observed := len(frames)

		f := loop.Apply(ctx, func(s *sim.Surface) {
			s.Set(sim.FieldM1, 20)
			s.Restart()
			s.ToggleTracing()
		})

		Expect(f.Restarted).To(BeTrue())
		Expect(f.Generation).To(Equal(uint64(2)))
		Expect(f.Time).To(BeZero())
		Expect(f.Tracing).To(BeTrue())
		Expect(f.Markers).To(BeZero())
		Expect(f.Demonstration.M1).To(Equal(20.0))
		Expect(loop.Ticks()).To(Equal(ticks))
		Expect(frames).To(HaveLen(observed))

		next, err := loop.Tick(ctx, dt, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Restarted).To(BeTrue())
		Expect(next.Markers).To(Equal(1))

		after, _ := loop.Tick(ctx, dt, nil)
		Expect(after.Restarted).To(BeFalse())
	})

	It("keeps entity counts stable across repeated restarts", func() {
		loop.Tick(ctx, dt, nil)
		for i := 0; i < 5; i++ {
			f, _ := loop.Tick(ctx, dt, func(s *sim.Surface) { s.Restart() })
			Expect(f.SceneSize).To(Equal(6))
			Expect(world.NumBodies()).To(Equal(3))
			Expect(world.NumPulleys()).To(Equal(2))
			Expect(pres.Len()).To(Equal(6))
		}
	})

	Context("tracing", func() {
		It("leaves one marker per tick and clears on demand", func() {
			loop.Tick(ctx, dt, func(s *sim.Surface) { s.ToggleTracing() })
			loop.Tick(ctx, dt, nil)
			f, _ := loop.Tick(ctx, dt, nil)

			Expect(f.Tracing).To(BeTrue())
			Expect(f.Markers).To(Equal(3))
			Expect(pres.Count(scene.TagTrace)).To(Equal(3))

			f, _ = loop.Tick(ctx, dt, func(s *sim.Surface) { s.ClearTrace() })
			Expect(f.Markers).To(Equal(1))
			Expect(f.Tracing).To(BeTrue())
		})

		It("drops every marker when disabled", func() {
			loop.Tick(ctx, dt, func(s *sim.Surface) { s.SetTracing(true) })
			loop.Run(ctx, 40, dt)

			f, _ := loop.Tick(ctx, dt, func(s *sim.Surface) { s.ToggleTracing() })

			Expect(f.Tracing).To(BeFalse())
			Expect(f.Markers).To(BeZero())
			Expect(pres.Count(scene.TagTrace)).To(BeZero())
		})

		It("keeps tracing across a restart", func() {
			loop.Tick(ctx, dt, func(s *sim.Surface) { s.SetTracing(true) })
			loop.Tick(ctx, dt, nil)

			f, _ := loop.Tick(ctx, dt, func(s *sim.Surface) { s.Restart() })

			Expect(f.Tracing).To(BeTrue())
			Expect(f.Markers).To(Equal(1))
		})

		It("follows the moving body", func() {
			loop.Tick(ctx, dt, func(s *sim.Surface) { s.SetTracing(true) })
			loop.Run(ctx, 20, dt)

			ys := map[float64]bool{}
			for _, m := range loop.Registry().ByRole(scene.RoleTraceMarker) {
				tr, ok := pres.QueryTransform(m.Visual)
				Expect(ok).To(BeTrue())
				ys[tr.Translation.Y()] = true
			}
			Expect(len(ys)).To(BeNumerically(">", 1))
		})
	})
})

var _ = Describe("Ensemble", func() {
	It("runs every scenario on its own services", func() {
		services := func() (scene.Simulation, scene.Presentation) {
			return physics.NewWorld(), present.NewWorld()
		}
		heavy, _ := config.GetPreset("heavy_center")
		ens := sim.NewEnsemble(services, logging.Noop(),
			sim.Scenario{Name: "default", Demonstration: config.DefaultDemonstration(), Solver: config.DefaultSolver()},
			sim.Scenario{Name: "heavy_center", Demonstration: heavy, Solver: config.DefaultSolver()},
		)

		sums, err := ens.Run(context.Background(), 64, dt)

		Expect(err).NotTo(HaveOccurred())
		Expect(sums).To(HaveLen(2))
		Expect(sums[0].Name).To(Equal("default"))
		Expect(sums[1].Name).To(Equal("heavy_center"))
		for _, s := range sums {
			Expect(s.Ticks).To(Equal(64))
			Expect(s.MaxY).To(BeNumerically(">", s.MinY))
			Expect(s.MaxCableError).To(BeNumerically("<", 0.05))
		}
	})

	It("stops on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ens := sim.NewEnsemble(func() (scene.Simulation, scene.Presentation) {
			return physics.NewWorld(), present.NewWorld()
		}, nil, sim.Scenario{Name: "default", Demonstration: config.DefaultDemonstration(), Solver: config.DefaultSolver()})

		_, err := ens.Run(ctx, 10, dt)
		Expect(err).To(MatchError(context.Canceled))
	})
})
