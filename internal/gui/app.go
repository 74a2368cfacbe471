package gui

import (
	"context"
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pulleysim/internal/config"
	"github.com/san-kum/pulleysim/internal/logging"
	"github.com/san-kum/pulleysim/internal/sim"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColGrid    = rl.NewColor(30, 30, 30, 255)
)

const (
	screenWidth  = 1280
	screenHeight = 720
	fontPath     = "/usr/share/fonts/liberation/LiberationMono-Regular.ttf"
)

type Options struct {
	Dt  float64
	FPS int
}

// App is the windowed front end. Key presses become surface edits applied
// in the input phase of the next tick.
type App struct {
	ctx     context.Context
	loop    *sim.Loop
	log     logging.Logger
	dt      float64
	fps     int
	orbit   Orbit
	pending []sim.Input
	paused  bool
	quit    bool
	frame   sim.Frame
	err     error
	font    rl.Font
}

func NewApp(ctx context.Context, loop *sim.Loop, opts Options, log logging.Logger) *App {
	if opts.Dt <= 0 {
		opts.Dt = config.DefaultDt
	}
	if opts.FPS <= 0 {
		opts.FPS = config.DefaultFPS
	}
	if log == nil {
		log = logging.Noop()
	}
	return &App{
		ctx:   ctx,
		loop:  loop,
		log:   log,
		dt:    opts.Dt,
		fps:   opts.FPS,
		orbit: NewOrbit(),
	}
}

func (a *App) Frame() sim.Frame { return a.frame }
func (a *App) Paused() bool     { return a.paused }
func (a *App) Done() bool       { return a.quit || a.err != nil }

// initWindow opens the window and disables the default exit key so ESC is
// handled as a regular binding.
func initWindow(fps int) {
	rl.InitWindow(screenWidth, screenHeight, "pulleysim")
	rl.SetTargetFPS(int32(fps))
	rl.SetExitKey(0)
}

func loadFont() rl.Font {
	font := rl.LoadFontEx(fontPath, 32, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

// Run opens a window and drives loop until the window closes, ESC or Q is
// pressed or ctx is cancelled.
func Run(ctx context.Context, loop *sim.Loop, opts Options, log logging.Logger) error {
	app := NewApp(ctx, loop, opts, log)
	initWindow(app.fps)
	defer rl.CloseWindow()
	app.font = loadFont()
	defer rl.UnloadFont(app.font)

	for !rl.WindowShouldClose() && !app.Done() {
		if ctx.Err() != nil {
			break
		}
		for _, act := range pressedActions() {
			app.Handle(act)
		}
		app.Update()
		app.Draw()
	}
	return app.err
}

// Handle applies one user action. Surface edits are queued for the next tick.
func (a *App) Handle(act Action) {
	surface := a.loop.Surface()
	switch act {
	case ActQuit:
		a.quit = true
	case ActNextField:
		surface.Next()
	case ActPrevField:
		surface.Prev()
	case ActDecrease:
		a.queue(func(s *sim.Surface) { s.Adjust(-1) })
	case ActIncrease:
		a.queue(func(s *sim.Surface) { s.Adjust(1) })
	case ActRestart:
		a.queue((*sim.Surface).Restart)
	case ActToggleTrace:
		a.queue(func(s *sim.Surface) { s.ToggleTracing() })
	case ActClearTrace:
		a.queue((*sim.Surface).ClearTrace)
	case ActPause:
		a.paused = !a.paused
	case ActStep:
		if a.paused {
			a.step()
		}
	case ActOrbitLeft:
		a.orbit.Rotate(-0.05, 0)
	case ActOrbitRight:
		a.orbit.Rotate(0.05, 0)
	case ActOrbitUp:
		a.orbit.Rotate(0, 0.05)
	case ActOrbitDown:
		a.orbit.Rotate(0, -0.05)
	case ActZoomIn:
		a.orbit.Zoom(1 / 1.1)
	case ActZoomOut:
		a.orbit.Zoom(1.1)
	case ActResetCamera:
		a.orbit = NewOrbit()
	}
}

// queue defers in to the next tick, or applies it at once while paused.
func (a *App) queue(in sim.Input) {
	a.pending = append(a.pending, in)
	if a.paused {
		a.frame = a.loop.Apply(a.ctx, a.drain())
	}
}

func (a *App) drain() sim.Input {
	pending := a.pending
	a.pending = nil
	return func(s *sim.Surface) {
		for _, in := range pending {
			in(s)
		}
	}
}

// Update advances the loop by one tick unless paused.
func (a *App) Update() {
	if !a.paused {
		a.step()
	}
}

func (a *App) step() {
	f, err := a.loop.Tick(a.ctx, a.dt, a.drain())
	if err != nil {
		a.err = err
		a.log.Error(a.ctx, "tick failed", logging.Err(err))
		return
	}
	a.frame = f
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	cam := a.orbit.Camera()
	rl.BeginMode3D(cam)
	drawGrid(40, 2)
	drawScene(a.frame)
	rl.EndMode3D()

	a.drawHUD()
	rl.EndDrawing()
}

func (a *App) drawText(text string, x, y, size int, col rl.Color) {
	rl.DrawTextEx(a.font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, col)
}

func (a *App) drawHUD() {
	f := a.frame
	surface := a.loop.Surface()

	a.drawText("pulleysim", 30, 30, 24, ColSelect)
	a.drawText(":: double pulley", 170, 34, 16, ColText)

	y := 80
	for _, field := range sim.Fields() {
		col := ColText
		marker := "  "
		if field == surface.Selected() {
			col = ColSelect
			marker = "> "
		}
		lo, hi := surface.Range(field)
		line := fmt.Sprintf("%s%-12s %8.3f  [%g, %g]", marker, field.Info().Label, surface.Value(field), lo, hi)
		a.drawText(line, 30, y, 16, col)
		y += 22
	}
	trace := "off"
	if surface.Tracing() {
		trace = "on"
	}
	a.drawText(fmt.Sprintf("  %-12s %8s", "trace", trace), 30, y, 16, ColText)

	status, col := "RUNNING", ColSelect
	if a.paused {
		status, col = "PAUSED", ColTextDim
	}
	a.drawText(status, 1150, 30, 16, col)

	stats := fmt.Sprintf("gen %d  t %.2fs  markers %d  cable err %.2e", f.Generation, f.Time, f.Markers, f.CableError)
	a.drawText(stats, 30, 650, 14, ColAccent)
	a.drawText("[TAB] FIELD  [H/L] ADJUST  [SPACE] START  [T] TRACE  [C] CLEAR  [P] PAUSE  [ESC] QUIT", 460, 680, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, 680, 14, ColTextDim)
}

func drawGrid(slices int, spacing float32) {
	half := float32(slices) * spacing / 2
	floor := float32(-24)
	for i := -slices / 2; i <= slices/2; i++ {
		pos := float32(i) * spacing
		rl.DrawLine3D(rl.NewVector3(pos, floor, -half), rl.NewVector3(pos, floor, half), ColGrid)
		rl.DrawLine3D(rl.NewVector3(-half, floor, pos), rl.NewVector3(half, floor, pos), ColGrid)
	}
}

// Orbit is a camera circling a fixed target.
type Orbit struct {
	Target     mgl64.Vec3
	Yaw, Pitch float64
	Distance   float64
}

const maxPitch = 1.4

func NewOrbit() Orbit {
	return Orbit{Target: mgl64.Vec3{0, -6, 0}, Distance: 40}
}

func (o *Orbit) Rotate(yaw, pitch float64) {
	o.Yaw += yaw
	o.Pitch = math.Max(-maxPitch, math.Min(maxPitch, o.Pitch+pitch))
}

func (o *Orbit) Zoom(factor float64) {
	o.Distance = math.Max(5, math.Min(200, o.Distance*factor))
}

// Position returns the eye position. Yaw 0 and pitch 0 look down -Z.
func (o Orbit) Position() mgl64.Vec3 {
	cp := math.Cos(o.Pitch)
	off := mgl64.Vec3{math.Sin(o.Yaw) * cp, math.Sin(o.Pitch), math.Cos(o.Yaw) * cp}
	return o.Target.Add(off.Mul(o.Distance))
}

func (o Orbit) Camera() rl.Camera3D {
	return rl.NewCamera3D(vec(o.Position()), vec(o.Target), rl.NewVector3(0, 1, 0), 45, rl.CameraPerspective)
}
