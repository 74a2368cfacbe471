package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille cells are 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
const brailleBlank = 0x2800

var dotBits = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille dot canvas with one colour per cell. Coordinates are in
// dots: the canvas is Width*2 by Height*4 dots.
type Canvas struct {
	Width, Height int
	cells         [][]rune
	colors        [][]lipgloss.Color
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h}
	c.cells = make([][]rune, h)
	c.colors = make([][]lipgloss.Color, h)
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
		c.colors[i] = make([]lipgloss.Color, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (w, h int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) Clear() {
	for i := range c.cells {
		for j := range c.cells[i] {
			c.cells[i][j] = brailleBlank
			c.colors[i][j] = ""
		}
	}
}

// Set lights the dot at (x, y) and paints its cell with col. Dots outside
// the canvas are ignored.
func (c *Canvas) Set(x, y int, col lipgloss.Color) {
	if x < 0 || y < 0 {
		return
	}
	row, column := y/4, x/2
	if row >= c.Height || column >= c.Width {
		return
	}
	c.cells[row][column] |= dotBits[y%4][x%2]
	if col != "" {
		c.colors[row][column] = col
	}
}

// Lit reports whether the dot at (x, y) is set.
func (c *Canvas) Lit(x, y int) bool {
	if x < 0 || y < 0 || y/4 >= c.Height || x/2 >= c.Width {
		return false
	}
	return c.cells[y/4][x/2]&dotBits[y%4][x%2] != 0
}

// Line draws from (x0, y0) to (x1, y1) with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int, col lipgloss.Color) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy
	for {
		c.Set(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Circle draws an outline of radius r dots around (cx, cy). Radii under one
// dot collapse to a single dot.
func (c *Canvas) Circle(cx, cy int, r float64, col lipgloss.Color) {
	if r < 1 {
		c.Set(cx, cy, col)
		return
	}
	segments := max(12, int(r*4))
	px, py := cx+int(math.Round(r)), cy
	for i := 1; i <= segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		x := cx + int(math.Round(r*math.Cos(a)))
		y := cy + int(math.Round(r*math.Sin(a)))
		c.Line(px, py, x, y, col)
		px, py = x, y
	}
}

// String returns the canvas without colour.
func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.cells {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Render returns the canvas with each run of same-coloured cells styled.
func (c *Canvas) Render() string {
	var b strings.Builder
	for i, row := range c.cells {
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && c.colors[i][j] == c.colors[i][start] {
				continue
			}
			run := string(row[start:j])
			if col := c.colors[i][start]; col != "" {
				run = lipgloss.NewStyle().Foreground(col).Render(run)
			}
			b.WriteString(run)
			start = j
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
