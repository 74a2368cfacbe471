// Package scene turns demonstration parameters into a live double-pulley
// scene and manages its lifetime.
//
// The scene is built on two services it does not implement: a [Simulation]
// that owns rigid bodies and pulley constraints, and a [Presentation] that
// owns visual entities. Every entity spawned through them is recorded in a
// [Registry] with its [Role] and the generation that created it.
//
// [Lifecycle.Restart] replaces the whole generation. [Tracer] adds trace
// markers on top of it while tracing is enabled. Both are driven from a
// single tick loop and are not safe for concurrent use.
//
// Unknown handles are tolerated everywhere: destroying or querying a handle
// that is already gone is a no-op.
package scene
