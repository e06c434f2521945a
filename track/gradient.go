package track

import (
	"image/color"
	"math"
	"sort"
)

const (
	minGradientStops = 2
	maxGradientStops = 50
	pointsPerStop    = 10
)

// Stop is one (progress, color) pair along a line, progress in [0, 1].
type Stop struct {
	Progress float64
	Color    string
}

// Gradient is an ordered list of stops with strictly increasing progress
// from 0 to 1 inclusive.
type Gradient []Stop

// BuildGradient samples the elevation colour of pts at evenly spaced
// progress values. One stop per ten points, between 2 and 50 stops. ok is
// false for fewer than two points.
func BuildGradient(pts []Point) (g Gradient, ok bool) {
	n := len(pts)
	if n < 2 {
		return nil, false
	}
	lo, hi := ElevationRange(pts)
	steps := n / pointsPerStop
	if steps < minGradientStops {
		steps = minGradientStops
	}
	if steps > maxGradientStops {
		steps = maxGradientStops
	}

	g = make(Gradient, steps)
	for i := range g {
		progress := float64(i) / float64(steps-1)
		idx := int(math.Floor(progress * float64(n-1)))
		g[i] = Stop{Progress: progress, Color: ElevationColor(pts[idx].Ele, lo, hi)}
	}
	return g, true
}

// Expression renders g in the flat line-gradient form understood by
// Mapbox/MapLibre style expressions.
func (g Gradient) Expression() []any {
	expr := make([]any, 0, 3+2*len(g))
	expr = append(expr, "interpolate", []any{"linear"}, []any{"line-progress"})
	for _, s := range g {
		expr = append(expr, s.Progress, s.Color)
	}
	return expr
}

// ColorAt linearly blends the two stops around progress in RGB, the way
// line-gradient renderers paint between stops.
func (g Gradient) ColorAt(progress float64) color.RGBA {
	if len(g) == 0 {
		c, _ := ParseHexColor(NeutralColor)
		return c
	}
	progress = math.Max(0, math.Min(1, progress))
	j := sort.Search(len(g), func(i int) bool { return g[i].Progress >= progress })
	if j == 0 {
		return mustHex(g[0].Color)
	}
	if j >= len(g) {
		return mustHex(g[len(g)-1].Color)
	}
	a, b := g[j-1], g[j]
	u := (progress - a.Progress) / (b.Progress - a.Progress)
	ca, cb := mustHex(a.Color), mustHex(b.Color)
	mix := func(x, y uint8) uint8 { return uint8(math.Round(float64(x) + (float64(y)-float64(x))*u)) }
	return color.RGBA{R: mix(ca.R, cb.R), G: mix(ca.G, cb.G), B: mix(ca.B, cb.B), A: 0xFF}
}

func mustHex(s string) color.RGBA {
	c, err := ParseHexColor(s)
	if err != nil {
		c, _ = ParseHexColor(NeutralColor)
	}
	return c
}
