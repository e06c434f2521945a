package track

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// NeutralColor is used for elevations that are not finite numbers.
const NeutralColor = "#888888"

const (
	hueLow  = 210.0 // blue
	hueMid  = 160.0 // green
	hueHigh = 0.0   // red

	saturation = 80.0
	lightness  = 50.0
)

// ElevationColor maps ele within [min, max] onto a blue, green, red hue
// ramp. The range is floored at 1m, so a flat track maps to the low end.
func ElevationColor(ele, min, max float64) string {
	if !finite(ele) {
		return NeutralColor
	}
	t := (ele - min) / math.Max(1, max-min)
	t = math.Max(0, math.Min(1, t))

	var h float64
	if t < 0.5 {
		h = hueLow + (hueMid-hueLow)*(t/0.5)
	} else {
		h = hueMid + (hueHigh-hueMid)*((t-0.5)/0.5)
	}
	return hslToHex(h, saturation, lightness)
}

// hslToHex takes h in degrees and s, l in percent.
func hslToHex(h, s, l float64) string {
	s /= 100
	l /= 100
	a := s * math.Min(l, 1-l)
	f := func(n float64) int {
		k := math.Mod(n+h/30, 12)
		c := l - a*math.Max(-1, math.Min(k-3, math.Min(9-k, 1)))
		return int(math.Round(255 * c))
	}
	return fmt.Sprintf("#%02x%02x%02x", f(0), f(8), f(4))
}

// ParseHexColor accepts #RRGGBB and #AARRGGBB.
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, errors.New("hex color must start with #")
	}
	h := s[1:]
	byteAt := func(i int) (uint8, error) {
		v, err := strconv.ParseUint(h[i:i+2], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("hex color %q: %w", s, err)
		}
		return uint8(v), nil
	}
	var idx [4]int
	switch len(h) {
	case 6:
		idx = [4]int{-1, 0, 2, 4}
	case 8:
		idx = [4]int{0, 2, 4, 6}
	default:
		return color.RGBA{}, fmt.Errorf("hex color %q: want #RRGGBB or #AARRGGBB", s)
	}
	var ch [4]uint8
	ch[0] = 0xFF
	for i, at := range idx {
		if at < 0 {
			continue
		}
		v, err := byteAt(at)
		if err != nil {
			return color.RGBA{}, err
		}
		ch[i] = v
	}
	return color.RGBA{R: ch[1], G: ch[2], B: ch[3], A: ch[0]}, nil
}
