// Package analysis characterises the oscillation of the traced body.
//
//   - [Spectrum]: magnitude spectrum of a uniformly sampled series
//   - [DominantFrequency]: strongest non-DC frequency of a series
//   - [NewPhasePortrait]: height against vertical velocity
//
// A recorded run is analysed from its height column:
//
//	f, err := analysis.DominantFrequency(storage.Heights(samples), dt)
package analysis
