package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var (
	ErrTooShort   = errors.New("analysis: series too short")
	ErrInvalidDt  = errors.New("analysis: sample interval must be positive")
	minSeriesSize = 4
)

// Bin is one frequency of a spectrum.
type Bin struct {
	Frequency float64
	Magnitude float64
}

// Spectrum returns the one-sided magnitude spectrum of series sampled every
// dt seconds. The mean is removed first, so bin 0 is near zero for any
// signal.
func Spectrum(series []float64, dt float64) ([]Bin, error) {
	if !(dt > 0) {
		return nil, fmt.Errorf("%w, got %g", ErrInvalidDt, dt)
	}
	n := len(series)
	if n < minSeriesSize {
		return nil, fmt.Errorf("%w: %d samples", ErrTooShort, n)
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)
	centred := make([]float64, n)
	for i, v := range series {
		centred[i] = v - mean
	}

	coeffs := fft.FFTReal(centred)
	bins := make([]Bin, n/2+1)
	for k := range bins {
		bins[k] = Bin{
			Frequency: float64(k) / (float64(n) * dt),
			Magnitude: cmplx.Abs(coeffs[k]) / float64(n),
		}
	}
	return bins, nil
}

// DominantFrequency returns the frequency in hertz of the strongest non-DC
// bin. A flat series reports zero.
func DominantFrequency(series []float64, dt float64) (float64, error) {
	bins, err := Spectrum(series, dt)
	if err != nil {
		return 0, err
	}
	best := 0
	for k := 1; k < len(bins); k++ {
		if bins[k].Magnitude > bins[best].Magnitude || best == 0 {
			best = k
		}
	}
	if bins[best].Magnitude < 1e-12 {
		return 0, nil
	}
	return bins[best].Frequency, nil
}

// Period is the reciprocal of the dominant frequency, or +Inf for a flat
// series.
func Period(series []float64, dt float64) (float64, error) {
	f, err := DominantFrequency(series, dt)
	if err != nil {
		return 0, err
	}
	if f == 0 {
		return math.Inf(1), nil
	}
	return 1 / f, nil
}

// Magnitudes extracts the magnitude column of bins.
func Magnitudes(bins []Bin) []float64 {
	out := make([]float64, len(bins))
	for i, b := range bins {
		out[i] = b.Magnitude
	}
	return out
}
