package analysis

import (
	"strings"
)

type Point struct {
	X, Y float64
}

// PhasePortrait holds height (X) against vertical velocity (Y).
type PhasePortrait struct {
	Points []Point
}

// NewPhasePortrait differentiates heights sampled at times. Pairs with a
// non-increasing time are skipped, which also drops the jump at a restart.
func NewPhasePortrait(times, heights []float64) *PhasePortrait {
	n := min(len(times), len(heights))
	p := &PhasePortrait{Points: make([]Point, 0, n)}
	for i := 1; i < n; i++ {
		dt := times[i] - times[i-1]
		if dt <= 0 {
			continue
		}
		p.Points = append(p.Points, Point{X: heights[i], Y: (heights[i] - heights[i-1]) / dt})
	}
	return p
}

// ASCII plots the portrait on a width by height character grid with axes
// drawn where they cross the visible range.
func (portrait *PhasePortrait) ASCII(width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	minX, maxX = pad(minX, maxX)
	minY, maxY = pad(minY, maxY)
	rangeX, rangeY := maxX-minX, maxY-minY

	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}
	toCol := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	toRow := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }
	put := func(r, c int, ch rune, over bool) {
		if r < 0 || r >= height || c < 0 || c >= width {
			return
		}
		if over || grid[r][c] == ' ' {
			grid[r][c] = ch
		}
	}

	for _, p := range portrait.Points {
		put(toRow(p.Y), toCol(p.X), '•', true)
	}
	if minX <= 0 && maxX >= 0 {
		c := toCol(0)
		for r := range grid {
			put(r, c, '│', false)
		}
	}
	if minY <= 0 && maxY >= 0 {
		r := toRow(0)
		for c := 0; c < width; c++ {
			put(r, c, '─', false)
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// pad widens [lo, hi] by a tenth on each side. A degenerate range becomes
// one unit wide.
func pad(lo, hi float64) (float64, float64) {
	r := hi - lo
	if r == 0 {
		r = 1
	}
	return lo - r*0.1, hi + r*0.1
}
