package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pulleysim/internal/analysis"
	"github.com/san-kum/pulleysim/internal/config"
	"github.com/san-kum/pulleysim/internal/export"
	"github.com/san-kum/pulleysim/internal/geometry"
	"github.com/san-kum/pulleysim/internal/gui"
	"github.com/san-kum/pulleysim/internal/logging"
	"github.com/san-kum/pulleysim/internal/observability"
	"github.com/san-kum/pulleysim/internal/physics"
	"github.com/san-kum/pulleysim/internal/present"
	"github.com/san-kum/pulleysim/internal/scene"
	"github.com/san-kum/pulleysim/internal/sim"
	"github.com/san-kum/pulleysim/internal/storage"
	"github.com/san-kum/pulleysim/internal/viz"
	"github.com/spf13/cobra"
)

func runTUI(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, true)
	if err != nil {
		return err
	}
	defer s.close()
	opts := viz.Options{Dt: s.cfg.Loop.Dt, FPS: s.cfg.Loop.FPS, Theme: theme}
	return viz.Run(cmd.Context(), s.loop, opts, s.log)
}

func runGUI(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, true)
	if err != nil {
		return err
	}
	defer s.close()
	opts := gui.Options{Dt: s.cfg.Loop.Dt, FPS: s.cfg.Loop.FPS}
	return gui.Run(cmd.Context(), s.loop, opts, s.log)
}

func runName() string {
	if preset != "" {
		return preset
	}
	return "custom"
}

func runHeadless(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, false)
	if err != nil {
		return err
	}
	defer s.close()
	ctx := cmd.Context()

	rec := storage.NewRecorder(0)
	stats := observability.DefaultSet()
	s.loop.AddObserver(rec)
	s.loop.AddObserver(stats)

	last, err := s.loop.Run(ctx, ticks, s.cfg.Loop.Dt)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(last); err != nil {
			return err
		}
	} else {
		fmt.Printf("ticks: %d  time: %.3fs  generation: %d\n", last.Tick, last.Time, last.Generation)
		fmt.Printf("markers: %d  scene entities: %d\n", last.Markers, last.SceneSize)
		for name, v := range stats.Values() {
			fmt.Printf("%s: %.6f\n", name, v)
		}
	}

	if plotRun && len(rec.Samples()) > 1 {
		fmt.Println(asciigraph.Plot(storage.Heights(rec.Samples()),
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("central body height"),
		))
	}

	if saveRun {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		meta := rec.Metadata(runName(), s.cfg.Loop.Dt)
		meta.Metrics = stats.Values()
		meta, err := st.Save(meta, rec.Samples())
		if err != nil {
			return err
		}
		s.log.Info(ctx, "run saved", logging.String("id", meta.ID), logging.String("dir", filepath.Join(dataDir, meta.ID)))
		fmt.Printf("saved: %s\n", meta.ID)
	}
	return nil
}

func solveGeometry(cmd *cobra.Command, args []string) error {
	log, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()
	cfg, err := loadConfig(cmd, log)
	if err != nil {
		return err
	}
	params := scene.NewParameterStore(cfg.Demonstration, cfg.Solver)
	c := geometry.Solve(params.GeometryInput())

	if svgPath != "" {
		if err := snapshotSVG(cmd, params, svgPath); err != nil {
			return err
		}
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODY\tMASS\tX\tY\tZ\tDROP")
	row := func(name string, p geometry.Placement) {
		fmt.Fprintf(w, "%s\t%.2f\t%.4f\t%.4f\t%.4f\t%.4f\n", name, p.Mass, p.Position.X(), p.Position.Y(), p.Position.Z(), p.Drop)
	}
	row("side_a", c.SideA)
	row("side_b", c.SideB)
	row("central", c.Central)
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\npulleys: (%.4f, 0, 0) (%.4f, 0, 0)\n", c.PulleyA.X(), c.PulleyB.X())
	fmt.Printf("equilibrium: y = %.4f\n", c.Equilibrium.Y())
	fmt.Printf("cable length: %.4f\n", c.CableLength)
	if c.Overdrawn() {
		fmt.Println("warning: offset pulls a side body above its pulley")
	}
	return nil
}

// snapshotSVG renders the scene after its first tick from the default
// terminal camera.
func snapshotSVG(cmd *cobra.Command, params *scene.ParameterStore, path string) error {
	loop := sim.NewLoop(params, physics.NewWorld(), present.NewWorld(), nil)
	f, err := loop.Tick(cmd.Context(), config.DefaultDt, nil)
	if err != nil {
		return err
	}
	canvas := viz.NewCanvas(80, 40)
	viz.DrawFrame(canvas, viz.NewCamera(), f)
	return os.WriteFile(path, []byte(export.CanvasSVG(canvas, 4, "#f5f5dc")), 0644)
}

func sweep(cmd *cobra.Command, args []string) error {
	log, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()
	cfg, err := loadConfig(cmd, log)
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = config.ListPresets()
	}
	scenarios := make([]sim.Scenario, 0, len(names))
	for _, name := range names {
		demo, err := config.GetPreset(name)
		if err != nil {
			return err
		}
		demo.EnableTracing = cfg.Demonstration.EnableTracing
		scenarios = append(scenarios, sim.Scenario{Name: name, Demonstration: demo, Solver: cfg.Solver})
	}

	services := func() (scene.Simulation, scene.Presentation) {
		return physics.NewWorld(), present.NewWorld()
	}
	summaries, err := sim.NewEnsemble(services, log, scenarios...).Run(cmd.Context(), ticks, cfg.Loop.Dt)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tTICKS\tMIN Y\tMAX Y\tCABLE ERR\tMAX CABLE ERR\tMARKERS")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%.3f\t%.3f\t%.2e\t%.2e\t%d\n",
			s.Name, s.Ticks, s.MinY, s.MaxY, s.CableError, s.MaxCableError, s.Markers)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tTICKS\tDURATION\tDT\tL\tX0")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2fs\t%.4fs\t%.2f\t%.2f\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Duration,
			run.Dt,
			run.Demonstration.L,
			run.Demonstration.X0,
		)
	}
	return w.Flush()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("run %s has no samples", runID)
	}

	interval := meta.Dt
	if meta.Solver.SlowMotion > 0 {
		interval /= meta.Solver.SlowMotion
	}
	heights := storage.Heights(samples)
	bins, err := analysis.Spectrum(heights, interval)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("preset: %s  samples: %d\n\n", meta.Name, len(samples))

	mags := analysis.Magnitudes(bins)
	if len(mags) > 8 {
		mags = mags[:len(mags)/4]
	}
	fmt.Println(asciigraph.Plot(mags,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("height spectrum"),
	))
	fmt.Println()

	freq, err := analysis.DominantFrequency(heights, interval)
	if err != nil {
		return err
	}
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	times := make([]float64, len(samples))
	for i, smp := range samples {
		times[i] = smp.Time
	}
	fmt.Println()
	fmt.Print(analysis.NewPhasePortrait(times, heights).ASCII(60, 20))
	fmt.Println("height vs vertical velocity")
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if svgPath != "" {
		doc := export.TraceSVG(samples, 800, 600, "#00ff00")
		if doc == "" {
			return fmt.Errorf("run %s has too few samples to draw", args[0])
		}
		return os.WriteFile(svgPath, []byte(doc), 0644)
	}
	return storage.ExportJSON(os.Stdout, *meta, samples)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tM1\tM2\tMC\tL\tX0")
	for _, name := range config.ListPresets() {
		p, _ := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\n", name, p.M1, p.M2, p.MC, p.L, p.X0)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := "pulleysim.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	log, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()
	cfg, err := loadConfig(cmd, log)
	if err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
