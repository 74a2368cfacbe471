package storage

import (
	"github.com/san-kum/pulleysim/internal/sim"
)

// Recorder is a loop observer that keeps the first traceable body's
// position on every frame.
type Recorder struct {
	samples []Sample
	last    sim.Frame
	// Limit caps the number of samples kept. Zero keeps everything.
	Limit int
}

func NewRecorder(limit int) *Recorder {
	return &Recorder{Limit: limit}
}

func (r *Recorder) OnFrame(f sim.Frame) {
	r.last = f
	if len(f.Traceable) == 0 {
		return
	}
	if r.Limit > 0 && len(r.samples) >= r.Limit {
		return
	}
	p := f.Traceable[0]
	r.samples = append(r.samples, Sample{
		Tick:       f.Tick,
		Generation: f.Generation,
		Time:       f.Time,
		X:          p.X(),
		Y:          p.Y(),
		Z:          p.Z(),
	})
}

func (r *Recorder) Samples() []Sample { return r.samples }
func (r *Recorder) Last() sim.Frame   { return r.last }

// Metadata describes the recorded run from its last frame.
func (r *Recorder) Metadata(name string, dt float64) RunMetadata {
	return RunMetadata{
		Name:          name,
		Dt:            dt,
		Ticks:         r.last.Tick,
		Duration:      r.last.Time,
		Demonstration: r.last.Demonstration,
		Solver:        r.last.Solver,
	}
}

// Heights returns the vertical coordinate of every sample.
func Heights(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Y
	}
	return out
}
