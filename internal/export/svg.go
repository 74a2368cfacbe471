// Package export renders traces and canvas snapshots as SVG documents.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/pulleysim/internal/storage"
	"github.com/san-kum/pulleysim/internal/viz"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// CanvasSVG draws every lit dot of c as a circle, scale pixels apart.
func CanvasSVG(c *viz.Canvas, scale float64, fill string) string {
	if c == nil {
		return ""
	}
	w, h := c.Dots()

	var sb strings.Builder
	header(&sb, float64(w)*scale, float64(h)*scale)
	fmt.Fprintf(&sb, "<g fill=%q>\n", fill)
	r := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if c.Lit(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// TraceSVG draws the path of the traced body in the x-y plane. The path is
// broken wherever the generation changes. Fewer than two samples give "".
func TraceSVG(samples []storage.Sample, width, height int, stroke string) string {
	if len(samples) < 2 {
		return ""
	}

	minX, maxX := samples[0].X, samples[0].X
	minY, maxY := samples[0].Y, samples[0].Y
	for _, s := range samples {
		minX, maxX = min(minX, s.X), max(maxX, s.X)
		minY, maxY = min(minY, s.Y), max(maxY, s.Y)
	}
	minX, maxX = pad(minX, maxX)
	minY, maxY = pad(minY, maxY)
	rangeX, rangeY := maxX-minX, maxY-minY

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, `<path fill="none" stroke=%q stroke-width="1.5" d="`, stroke)
	for i, s := range samples {
		x := (s.X - minX) / rangeX * float64(width)
		y := float64(height) - (s.Y-minY)/rangeY*float64(height)
		cmd := "L"
		if i == 0 || s.Generation != samples[i-1].Generation {
			cmd = "M"
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s%.1f,%.1f", cmd, x, y)
	}
	sb.WriteString("\"/>\n</svg>\n")
	return sb.String()
}

func pad(lo, hi float64) (float64, float64) {
	r := hi - lo
	if r == 0 {
		r = 1
	}
	return lo - r*0.1, hi + r*0.1
}
