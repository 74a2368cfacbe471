// Package viz is the terminal front end of the double-pulley demonstration.
//
// The scene is drawn on a braille [Canvas] through an orbiting [Camera]; the
// side panel doubles as the settings surface.
//
// # Key Bindings
//
//	tab/j/k   - select a parameter
//	h/l, ←/→  - adjust it
//	space     - restart with the current parameters
//	t         - toggle tracing
//	c         - clear the trace
//	p, s      - pause, single step while paused
//	x/y, +/-  - orbit and zoom the camera, 0 resets it
//	v         - cycle colour themes
package viz
