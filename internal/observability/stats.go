package observability

import (
	"math"

	"github.com/san-kum/pulleysim/internal/sim"
)

// Metric accumulates one figure over a run of frames.
type Metric interface {
	Name() string
	Observe(f sim.Frame)
	Value() float64
	Reset()
}

// CableDrift is the largest cable error seen.
type CableDrift struct {
	max float64
}

func NewCableDrift() *CableDrift { return &CableDrift{} }

func (c *CableDrift) Name() string { return "cable_drift" }

func (c *CableDrift) Observe(f sim.Frame) {
	c.max = math.Max(c.max, f.CableError)
}

func (c *CableDrift) Value() float64 { return c.max }
func (c *CableDrift) Reset()         { c.max = 0 }

// Stability is the fraction of frames whose cable error stays within
// threshold. An empty run counts as stable.
type Stability struct {
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(f sim.Frame) {
	s.samples++
	if f.CableError > s.threshold || math.IsNaN(f.CableError) {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Travel is the vertical extent covered by the first traceable body.
type Travel struct {
	lo, hi float64
	seen   bool
}

func NewTravel() *Travel { return &Travel{} }

func (t *Travel) Name() string { return "travel" }

func (t *Travel) Observe(f sim.Frame) {
	if len(f.Traceable) == 0 {
		return
	}
	y := f.Traceable[0].Y()
	if !t.seen {
		t.lo, t.hi, t.seen = y, y, true
		return
	}
	t.lo = math.Min(t.lo, y)
	t.hi = math.Max(t.hi, y)
}

func (t *Travel) Value() float64 { return t.hi - t.lo }
func (t *Travel) Reset()         { *t = Travel{} }

// Set fans frames out to several metrics and resets them on restart.
type Set []Metric

func DefaultSet() Set {
	return Set{NewCableDrift(), NewStability(1e-2), NewTravel()}
}

func (s Set) OnFrame(f sim.Frame) {
	for _, m := range s {
		if f.Restarted {
			m.Reset()
		}
		m.Observe(f)
	}
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}
