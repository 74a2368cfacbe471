package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/san-kum/pulleysim/internal/config"
	"github.com/san-kum/pulleysim/internal/logging"
	"github.com/san-kum/pulleysim/internal/physics"
	"github.com/san-kum/pulleysim/internal/present"
	"github.com/san-kum/pulleysim/internal/scene"
	"github.com/san-kum/pulleysim/internal/sim"
	"github.com/spf13/cobra"
)

var (
	configFile string
	preset     string
	dataDir    string
	logLevel   string
	logFormat  string
	logFile    string
	// Demonstration overrides, applied only when the flag is set.
	m1, m2, mc float64
	span       float64
	offset     float64
	trace      bool
	// Front ends
	theme string
	// Headless runs
	ticks    int
	saveRun  bool
	plotRun  bool
	asJSON   bool
	addr     string
	realtime bool
	svgPath  string
)

// main registers every command and runs the root. The terminal front end
// starts when no subcommand is given.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pulleysim",
		Short:         "double pulley rigid-body demonstration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}
	rootCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "terminal theme")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset demonstration")
	pf.StringVar(&dataDir, "data", ".pulleysim", "data directory")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "log format (text, json)")
	pf.StringVar(&logFile, "log-file", "", "write logs to a file")
	pf.Float64Var(&m1, "m1", config.DefaultMass, "mass of side body 1")
	pf.Float64Var(&m2, "m2", config.DefaultMass, "mass of side body 2")
	pf.Float64Var(&mc, "mc", config.DefaultMass, "mass of the central body")
	pf.Float64Var(&span, "l", config.DefaultSpan, "distance between the pulleys")
	pf.Float64Var(&offset, "x0", config.DefaultOffset, "vertical offset of the central body from equilibrium")
	pf.BoolVar(&trace, "trace", false, "trace the central body")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive terminal demonstration",
		RunE:  runTUI,
	}
	tuiCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "terminal theme")

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "interactive windowed demonstration",
		RunE:  runGUI,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the demonstration headless",
		RunE:  runHeadless,
	}
	runCmd.Flags().IntVar(&ticks, "ticks", 640, "number of ticks")
	runCmd.Flags().BoolVar(&saveRun, "save", false, "save the run to the data directory")
	runCmd.Flags().BoolVar(&plotRun, "plot", false, "plot the central body height")
	runCmd.Flags().BoolVar(&asJSON, "json", false, "print the final frame as json")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "print the initial scene geometry",
		RunE:  solveGeometry,
	}
	solveCmd.Flags().BoolVar(&asJSON, "json", false, "print as json")
	solveCmd.Flags().StringVar(&svgPath, "svg", "", "also draw the initial scene to an svg file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream frames over websocket and export metrics",
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().BoolVar(&realtime, "realtime", true, "pace ticks to wall time")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset...]",
		Short: "run presets side by side and compare them",
		RunE:  sweep,
	}
	sweepCmd.Flags().IntVar(&ticks, "ticks", 640, "number of ticks per preset")
	sweepCmd.Flags().BoolVar(&asJSON, "json", false, "print as json")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&svgPath, "svg", "", "draw the trace to an svg file instead of printing json")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "configuration file helpers",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the effective configuration as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(tuiCmd, guiCmd, runCmd, solveCmd, serveCmd, sweepCmd,
		runsCmd, analyzeCmd, exportCmd, presetsCmd, configCmd)
	return rootCmd
}

// loadConfig layers the config file, the preset and explicit flags in that
// order. Out-of-range values are logged and clamped.
func loadConfig(cmd *cobra.Command, log logging.Logger) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if preset != "" {
		demo, err := config.GetPreset(preset)
		if err != nil {
			return nil, err
		}
		demo.EnableTracing = cfg.Demonstration.EnableTracing
		cfg.Demonstration = demo
	}

	flags := cmd.Flags()
	d := &cfg.Demonstration
	if flags.Changed("m1") {
		d.M1 = m1
	}
	if flags.Changed("m2") {
		d.M2 = m2
	}
	if flags.Changed("mc") {
		d.MC = mc
	}
	if flags.Changed("l") {
		d.L = span
	}
	if flags.Changed("x0") {
		d.X0 = offset
	}
	if flags.Changed("trace") {
		d.EnableTracing = trace
	}

	if err := cfg.Validate(); err != nil {
		log.Warn(cmd.Context(), "configuration clamped", logging.Err(err))
	}
	cfg.Clamp()
	return cfg, nil
}

// newLogger builds the command logger. Interactive front ends own the
// terminal, so they log only when a log file is given.
func newLogger(interactive bool) (logging.Logger, func(), error) {
	level, format := logLevel, logFormat
	if level == "" {
		level = "info"
	}
	if format == "" {
		format = "text"
	}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		return logging.New(logging.Config{Level: level, Format: format, Output: f}), func() { f.Close() }, nil
	}
	if interactive {
		return logging.Noop(), func() {}, nil
	}
	return logging.NewFromEnv(level, format), func() {}, nil
}

type session struct {
	cfg   *config.Config
	log   logging.Logger
	loop  *sim.Loop
	close func()
}

func newSession(cmd *cobra.Command, interactive bool) (*session, error) {
	log, closeLog, err := newLogger(interactive)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(cmd, log)
	if err != nil {
		closeLog()
		return nil, err
	}
	params := scene.NewParameterStore(cfg.Demonstration, cfg.Solver)
	return &session{
		cfg:   cfg,
		log:   log,
		loop:  sim.NewLoop(params, physics.NewWorld(), present.NewWorld(), log),
		close: closeLog,
	}, nil
}
