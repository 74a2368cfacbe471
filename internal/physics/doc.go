// Package physics is the reference simulation service behind the scene.
//
// [World] implements [scene.Simulation] for translating rigid bodies joined
// by pulley constraints. A pulley keeps the path length
//
//	|pA - anchor| + |pB - anchor|
//
// equal to its cable length. Each call to [World.Step] splits dt into
// integration substeps; every substep applies gravity, runs the requested
// number of Gauss-Seidel passes over the pulleys and then integrates
// positions:
//
//	lambda = -(Cdot + beta/h * C) / (invMassA + invMassB)
//
// [World.CableError] and [World.Energy] report drift for diagnostics.
package physics
