package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/pulleysim/internal/config"
	"github.com/san-kum/pulleysim/internal/scene"
)

var ErrUnknownField = errors.New("sim: unknown field")

type Field int

const (
	FieldM1 Field = iota
	FieldM2
	FieldMC
	FieldL
	FieldX0
	FieldIntegrationSubsteps
	FieldConstraintSubsteps
	FieldBaumgarte
	FieldSlowMotion
	numFields
)

type FieldInfo struct {
	Key   string
	Label string
	Step  float64
	// Solver fields tune the running simulation and are not read by restart.
	Solver bool
}

var fieldInfo = [numFields]FieldInfo{
	FieldM1:                  {Key: "m1", Label: "mass 1", Step: 1},
	FieldM2:                  {Key: "m2", Label: "mass 2", Step: 1},
	FieldMC:                  {Key: "mc", Label: "mass c", Step: 1},
	FieldL:                   {Key: "l", Label: "L", Step: 0.5},
	FieldX0:                  {Key: "x0", Label: "x_0", Step: 0.25},
	FieldIntegrationSubsteps: {Key: "integration_substeps", Label: "substeps", Step: 1, Solver: true},
	FieldConstraintSubsteps:  {Key: "constraint_substeps", Label: "constraint substeps", Step: 1, Solver: true},
	FieldBaumgarte:           {Key: "baumgarte", Label: "baumgarte", Step: 0.005, Solver: true},
	FieldSlowMotion:          {Key: "slow_motion", Label: "slow motion", Step: 1, Solver: true},
}

func (f Field) Info() FieldInfo {
	if f < 0 || f >= numFields {
		return FieldInfo{Key: "unknown"}
	}
	return fieldInfo[f]
}

func (f Field) String() string { return f.Info().Key }

// Fields lists every editable field in display order.
func Fields() []Field {
	out := make([]Field, numFields)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

func ParseField(key string) (Field, error) {
	for i, info := range fieldInfo {
		if info.Key == key {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, key)
}

// Surface translates interaction into parameter writes and commands. Writes
// are clamped and last writer wins.
type Surface struct {
	params   *scene.ParameterStore
	queue    *Queue
	selected Field
}

func NewSurface(params *scene.ParameterStore, queue *Queue) *Surface {
	return &Surface{params: params, queue: queue}
}

func (s *Surface) Selected() Field { return s.selected }

func (s *Surface) Select(f Field) {
	if f >= 0 && f < numFields {
		s.selected = f
	}
}

func (s *Surface) Next() { s.selected = (s.selected + 1) % numFields }
func (s *Surface) Prev() { s.selected = (s.selected + numFields - 1) % numFields }

// Range returns the current bounds of f. The offset range follows the span.
func (s *Surface) Range(f Field) (lo, hi float64) {
	switch f {
	case FieldM1, FieldM2, FieldMC:
		return config.MinMass, config.MaxMass
	case FieldL:
		return config.MinSpan, config.MaxSpan
	case FieldX0:
		l := s.params.Demonstration().L
		return -l, l
	case FieldIntegrationSubsteps, FieldConstraintSubsteps:
		return config.MinSubsteps, config.MaxSubsteps
	case FieldBaumgarte:
		return config.MinBaumgarte, config.MaxBaumgarte
	case FieldSlowMotion:
		return config.MinSlowMotion, config.MaxSlowMotion
	}
	return 0, 0
}

func (s *Surface) Value(f Field) float64 {
	d, sv := s.params.Demonstration(), s.params.Solver()
	switch f {
	case FieldM1:
		return d.M1
	case FieldM2:
		return d.M2
	case FieldMC:
		return d.MC
	case FieldL:
		return d.L
	case FieldX0:
		return d.X0
	case FieldIntegrationSubsteps:
		return float64(sv.IntegrationSubsteps)
	case FieldConstraintSubsteps:
		return float64(sv.ConstraintSubsteps)
	case FieldBaumgarte:
		return sv.Baumgarte
	case FieldSlowMotion:
		return sv.SlowMotion
	}
	return 0
}

// Set writes v into f and returns the stored, clamped value. NaN is ignored.
func (s *Surface) Set(f Field, v float64) float64 {
	if math.IsNaN(v) {
		return s.Value(f)
	}
	switch f {
	case FieldM1, FieldM2, FieldMC, FieldL, FieldX0:
		s.params.UpdateDemonstration(func(d *config.Demonstration) {
			switch f {
			case FieldM1:
				d.M1 = v
			case FieldM2:
				d.M2 = v
			case FieldMC:
				d.MC = v
			case FieldL:
				d.L = v
			case FieldX0:
				d.X0 = v
			}
		})
	case FieldIntegrationSubsteps, FieldConstraintSubsteps, FieldBaumgarte, FieldSlowMotion:
		s.params.UpdateSolver(func(sv *config.Solver) {
			switch f {
			case FieldIntegrationSubsteps:
				sv.IntegrationSubsteps = int(math.Round(v))
			case FieldConstraintSubsteps:
				sv.ConstraintSubsteps = int(math.Round(v))
			case FieldBaumgarte:
				sv.Baumgarte = v
			case FieldSlowMotion:
				sv.SlowMotion = v
			}
		})
	}
	return s.Value(f)
}

// Adjust moves the selected field by steps increments.
func (s *Surface) Adjust(steps int) float64 {
	f := s.selected
	return s.Set(f, s.Value(f)+float64(steps)*f.Info().Step)
}

func (s *Surface) Tracing() bool { return s.params.TracingEnabled() }

// SetTracing writes the tracing flag and queues a toggle when it changes.
func (s *Surface) SetTracing(enabled bool) {
	if s.params.TracingEnabled() == enabled {
		return
	}
	s.params.SetTracing(enabled)
	s.queue.Push(CmdToggleTrace)
}

func (s *Surface) ToggleTracing() bool {
	s.SetTracing(!s.params.TracingEnabled())
	return s.params.TracingEnabled()
}

func (s *Surface) Restart()    { s.queue.Push(CmdRestart) }
func (s *Surface) ClearTrace() { s.queue.Push(CmdClearTrace) }

// Demonstration returns the parameters a restart would build from.
func (s *Surface) Demonstration() config.Demonstration { return s.params.Demonstration() }
func (s *Surface) Solver() config.Solver               { return s.params.Solver() }
