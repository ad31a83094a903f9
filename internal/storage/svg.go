package storage

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/leptrans/internal/metrics"
)

// TrackSVG draws the x-z projection of a track, with dashed lines at the
// given boundary altitudes.
func TrackSVG(points []metrics.Point, width, height int, boundaries []float64) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minZ, maxZ := points[0].Z, points[0].Z
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minZ, maxZ = math.Min(minZ, p.Z), math.Max(maxZ, p.Z)
	}
	for _, z := range boundaries {
		minZ, maxZ = math.Min(minZ, z), math.Max(maxZ, z)
	}

	rangeX := maxX - minX
	rangeZ := maxZ - minZ
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeZ == 0 {
		rangeZ = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minZ -= rangeZ * 0.1
	maxZ += rangeZ * 0.1
	rangeX = maxX - minX
	rangeZ = maxZ - minZ

	px := func(x float64) float64 { return (x - minX) / rangeX * float64(width) }
	pz := func(z float64) float64 { return float64(height) - (z-minZ)/rangeZ*float64(height) }

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for _, z := range boundaries {
		sb.WriteString(fmt.Sprintf(`<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#444444" stroke-dasharray="4 4"/>
`, pz(z), width, pz(z)))
	}

	sb.WriteString(`<path fill="none" stroke="#5fd7d7" stroke-width="1.5" d="M`)
	for i, p := range points {
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", px(p.X), pz(p.Z)))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px(p.X), pz(p.Z)))
		}
	}
	sb.WriteString("\"/>\n")

	last := points[len(points)-1]
	sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="#ff5f87"/>
</svg>`, px(last.X), pz(last.Z)))
	return sb.String()
}
