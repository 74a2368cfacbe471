package gui

import rl "github.com/gen2brain/raylib-go/raylib"

type Action int

const (
	ActNone Action = iota
	ActQuit
	ActNextField
	ActPrevField
	ActDecrease
	ActIncrease
	ActRestart
	ActToggleTrace
	ActClearTrace
	ActPause
	ActStep
	ActOrbitLeft
	ActOrbitRight
	ActOrbitUp
	ActOrbitDown
	ActZoomIn
	ActZoomOut
	ActResetCamera
)

type binding struct {
	key    int32
	action Action
	// held repeats the action every frame while the key is down.
	held bool
}

var bindings = []binding{
	{rl.KeyEscape, ActQuit, false},
	{rl.KeyQ, ActQuit, false},
	{rl.KeyTab, ActNextField, false},
	{rl.KeyDown, ActNextField, false},
	{rl.KeyJ, ActNextField, false},
	{rl.KeyUp, ActPrevField, false},
	{rl.KeyK, ActPrevField, false},
	{rl.KeyLeft, ActDecrease, false},
	{rl.KeyH, ActDecrease, false},
	{rl.KeyRight, ActIncrease, false},
	{rl.KeyL, ActIncrease, false},
	{rl.KeySpace, ActRestart, false},
	{rl.KeyEnter, ActRestart, false},
	{rl.KeyT, ActToggleTrace, false},
	{rl.KeyC, ActClearTrace, false},
	{rl.KeyP, ActPause, false},
	{rl.KeyS, ActStep, false},
	{rl.KeyA, ActOrbitLeft, true},
	{rl.KeyD, ActOrbitRight, true},
	{rl.KeyW, ActOrbitUp, true},
	{rl.KeyX, ActOrbitDown, true},
	{rl.KeyEqual, ActZoomIn, true},
	{rl.KeyMinus, ActZoomOut, true},
	{rl.KeyZero, ActResetCamera, false},
}

// ActionFor returns the action bound to key, or ActNone.
func ActionFor(key int32) Action {
	for _, b := range bindings {
		if b.key == key {
			return b.action
		}
	}
	return ActNone
}

func pressedActions() []Action {
	var out []Action
	for _, b := range bindings {
		if (b.held && rl.IsKeyDown(b.key)) || (!b.held && rl.IsKeyPressed(b.key)) {
			out = append(out, b.action)
		}
	}
	return out
}
