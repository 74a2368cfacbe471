package viz

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pulleysim/internal/present"
	"github.com/san-kum/pulleysim/internal/scene"
	"github.com/san-kum/pulleysim/internal/sim"
)

var boxSigns = [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

var boxEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

func hexOf(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

// DrawFrame renders cables and every visual of f onto the canvas. Visuals
// are painted far to near.
func DrawFrame(c *Canvas, cam *Camera, f sim.Frame) {
	c.Clear()
	w, h := c.Dots()

	cable := hexOf(scene.CableColor())
	for _, cb := range f.Cables {
		drawSegment(c, cam, cb.From, cb.Via, cable)
		drawSegment(c, cam, cb.Via, cb.To, cable)
	}

	type placed struct {
		v     present.Visual
		depth float64
	}
	order := make([]placed, 0, len(f.Entities))
	for _, v := range f.Entities {
		_, _, d, _, _ := cam.Project(v.Transform.Translation, w, h)
		order = append(order, placed{v, d})
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].depth < order[j].depth })

	for _, p := range order {
		drawVisual(c, cam, p.v)
	}
}

func drawSegment(c *Canvas, cam *Camera, a, b mgl64.Vec3, col lipgloss.Color) {
	w, h := c.Dots()
	x0, y0, _, _, ok0 := cam.Project(a, w, h)
	x1, y1, _, _, ok1 := cam.Project(b, w, h)
	if ok0 || ok1 {
		c.Line(x0, y0, x1, y1, col)
	}
}

func drawVisual(c *Canvas, cam *Camera, v present.Visual) {
	col := hexOf(v.Material.Color)
	pos := v.Transform.Translation
	switch v.Mesh.Shape {
	case scene.ShapeBox:
		half := v.Mesh.Size.Mul(0.5)
		corners := [8]mgl64.Vec3{}
		for i := range corners {
			off := mgl64.Vec3{
				boxSigns[i%4][0] * half.X(),
				boxSigns[i%4][1] * half.Y(),
				-half.Z(),
			}
			if i >= 4 {
				off[2] = half.Z()
			}
			corners[i] = pos.Add(v.Transform.Rotation.Rotate(off))
		}
		for _, e := range boxEdges {
			drawSegment(c, cam, corners[e[0]], corners[e[1]], col)
		}
	default:
		w, h := c.Dots()
		x, y, _, scale, ok := cam.Project(pos, w, h)
		if !ok {
			return
		}
		c.Circle(x, y, v.Mesh.Size.X()*scale, col)
	}
}
