package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/leptrans/internal/metrics"
)

// TrackView draws the x-z projection of a trajectory on a character canvas,
// with horizontal lines at the given boundary altitudes.
type TrackView struct {
	Width      int
	Height     int
	Boundaries []float64
	canvas     [][]rune
}

func NewTrackView(width, height int, boundaries ...float64) *TrackView {
	v := &TrackView{Width: max(width, 10), Height: max(height, 5), Boundaries: boundaries}
	v.canvas = make([][]rune, v.Height)
	for i := range v.canvas {
		v.canvas[i] = make([]rune, v.Width)
	}
	return v
}

func (v *TrackView) clear() {
	for y := range v.canvas {
		for x := range v.canvas[y] {
			v.canvas[y][x] = ' '
		}
	}
}

func (v *TrackView) set(x, y int, c rune) {
	if x >= 0 && x < v.Width && y >= 0 && y < v.Height {
		v.canvas[y][x] = c
	}
}

func (v *TrackView) line(x1, y1, x2, y2 int, c rune) {
	dx := intAbs(x2 - x1)
	dy := intAbs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		v.set(x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

type frame struct {
	x0, x1, z0, z1 float64
}

func (f frame) span() (float64, float64) {
	return math.Max(f.x1-f.x0, 1e-9), math.Max(f.z1-f.z0, 1e-9)
}

func (v *TrackView) frame(points []metrics.Point) frame {
	f := frame{x0: math.Inf(1), x1: math.Inf(-1), z0: math.Inf(1), z1: math.Inf(-1)}
	for _, p := range points {
		f.x0, f.x1 = math.Min(f.x0, p.X), math.Max(f.x1, p.X)
		f.z0, f.z1 = math.Min(f.z0, p.Z), math.Max(f.z1, p.Z)
	}
	for _, z := range v.Boundaries {
		f.z0, f.z1 = math.Min(f.z0, z), math.Max(f.z1, z)
	}
	if f.x1-f.x0 < 1e-9 {
		f.x0, f.x1 = f.x0-1, f.x1+1
	}
	return f
}

func (v *TrackView) cell(f frame, x, z float64) (int, int) {
	wx, wz := f.span()
	cx := int((x - f.x0) / wx * float64(v.Width-1))
	cy := v.Height - 1 - int((z-f.z0)/wz*float64(v.Height-1))
	return cx, cy
}

// Render returns the drawn canvas followed by a one line summary of the
// final point.
func (v *TrackView) Render(points []metrics.Point) string {
	v.clear()
	if len(points) == 0 {
		return ""
	}
	f := v.frame(points)
	for _, z := range v.Boundaries {
		_, cy := v.cell(f, f.x0, z)
		for x := 0; x < v.Width; x++ {
			v.set(x, cy, '─')
		}
	}
	sx, sy := v.cell(f, points[0].X, points[0].Z)
	px, py := sx, sy
	for _, p := range points[1:] {
		cx, cy := v.cell(f, p.X, p.Z)
		v.line(px, py, cx, cy, '·')
		v.set(cx, cy, '•')
		px, py = cx, cy
	}
	v.set(sx, sy, 'o')
	v.set(px, py, 'X')

	var b strings.Builder
	b.WriteString(dimmer.Render("  "+strings.Repeat("─", v.Width)) + "\n")
	for _, row := range v.canvas {
		b.WriteString("  " + string(row) + "\n")
	}
	b.WriteString(dimmer.Render("  "+strings.Repeat("─", v.Width)) + "\n")
	last := points[len(points)-1]
	b.WriteString(fmt.Sprintf("  %s %s  %s %s  %s %s\n",
		dim.Render("z="), white.Render(fmt.Sprintf("%.3g m", last.Z)),
		dim.Render("K="), white.Render(fmt.Sprintf("%.4g GeV", last.Kinetic)),
		dim.Render("steps="), white.Render(fmt.Sprint(len(points)-1))))
	return b.String()
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
