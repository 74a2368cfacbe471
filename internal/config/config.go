package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMass   = 10.0
	DefaultSpan   = 10.0
	DefaultOffset = -5.0
	DefaultDt     = 1.0 / 64.0
	DefaultFPS    = 60

	MinMass = 5.0
	MaxMass = 100.0
	MinSpan = 5.0
	MaxSpan = 20.0

	MinSubsteps      = 1
	MaxSubsteps      = 32
	StartupSubsteps  = 32
	MinBaumgarte     = 0.0
	MaxBaumgarte     = 0.1
	DefaultBaumgarte = 0.02
	MinSlowMotion    = 1.0
	MaxSlowMotion    = 16.0
)

var (
	ErrParameterBounds = errors.New("config: parameter out of valid bounds")
	ErrUnknownPreset   = errors.New("config: unknown preset")
)

type Config struct {
	Demonstration Demonstration `yaml:"demonstration"`
	Solver        Solver        `yaml:"solver"`
	Loop          Loop          `yaml:"loop"`
	Log           Log           `yaml:"log"`
}

// Demonstration holds the user-adjustable scene parameters.
type Demonstration struct {
	M1            float64 `yaml:"m1"`
	M2            float64 `yaml:"m2"`
	MC            float64 `yaml:"mc"`
	L             float64 `yaml:"l"`
	X0            float64 `yaml:"x0"`
	EnableTracing bool    `yaml:"enable_tracing"`
}

// Solver holds the simulation tuning knobs. They are forwarded to the
// simulation service on every step and never read by scene construction.
type Solver struct {
	IntegrationSubsteps int     `yaml:"integration_substeps"`
	ConstraintSubsteps  int     `yaml:"constraint_substeps"`
	Baumgarte           float64 `yaml:"baumgarte"`
	SlowMotion          float64 `yaml:"slow_motion"`
}

type Loop struct {
	Dt  float64 `yaml:"dt"`
	FPS int     `yaml:"fps"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultDemonstration() Demonstration {
	return Demonstration{
		M1: DefaultMass,
		M2: DefaultMass,
		MC: DefaultMass,
		L:  DefaultSpan,
		X0: DefaultOffset,
	}
}

func DefaultSolver() Solver {
	return Solver{
		IntegrationSubsteps: StartupSubsteps,
		ConstraintSubsteps:  StartupSubsteps,
		Baumgarte:           DefaultBaumgarte,
		SlowMotion:          MinSlowMotion,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Demonstration: DefaultDemonstration(),
		Solver:        DefaultSolver(),
		Loop:          Loop{Dt: DefaultDt, FPS: DefaultFPS},
		Log:           Log{Level: "info", Format: "text"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clamp forces every field into its declared range. NaN falls back to the
// field default. The offset range depends on the span, so it is clamped last.
func (d *Demonstration) Clamp() {
	d.M1 = clamp(orDefault(d.M1, DefaultMass), MinMass, MaxMass)
	d.M2 = clamp(orDefault(d.M2, DefaultMass), MinMass, MaxMass)
	d.MC = clamp(orDefault(d.MC, DefaultMass), MinMass, MaxMass)
	d.L = clamp(orDefault(d.L, DefaultSpan), MinSpan, MaxSpan)
	d.X0 = clamp(orDefault(d.X0, DefaultOffset), -d.L, d.L)
}

func (d Demonstration) Validate() error {
	checks := []struct {
		name     string
		v        float64
		min, max float64
	}{
		{"m1", d.M1, MinMass, MaxMass},
		{"m2", d.M2, MinMass, MaxMass},
		{"mc", d.MC, MinMass, MaxMass},
		{"l", d.L, MinSpan, MaxSpan},
		{"x0", d.X0, -d.L, d.L},
	}
	for _, c := range checks {
		if math.IsNaN(c.v) || c.v < c.min || c.v > c.max {
			return fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrParameterBounds, c.name, c.v, c.min, c.max)
		}
	}
	return nil
}

func (s *Solver) Clamp() {
	s.IntegrationSubsteps = clampInt(s.IntegrationSubsteps, MinSubsteps, MaxSubsteps)
	s.ConstraintSubsteps = clampInt(s.ConstraintSubsteps, MinSubsteps, MaxSubsteps)
	s.Baumgarte = clamp(orDefault(s.Baumgarte, DefaultBaumgarte), MinBaumgarte, MaxBaumgarte)
	s.SlowMotion = clamp(orDefault(s.SlowMotion, MinSlowMotion), MinSlowMotion, MaxSlowMotion)
}

func (c *Config) Clamp() {
	c.Demonstration.Clamp()
	c.Solver.Clamp()
	if !(c.Loop.Dt > 0) || math.IsInf(c.Loop.Dt, 1) {
		c.Loop.Dt = DefaultDt
	}
	if c.Loop.FPS <= 0 {
		c.Loop.FPS = DefaultFPS
	}
}

func (c *Config) Validate() error {
	if err := c.Demonstration.Validate(); err != nil {
		return err
	}
	if !(c.Loop.Dt > 0) || math.IsInf(c.Loop.Dt, 1) {
		return fmt.Errorf("%w: dt=%g must be positive", ErrParameterBounds, c.Loop.Dt)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func orDefault(v, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
