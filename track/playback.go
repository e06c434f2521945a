package track

import "math"

// Advance moves a playback cursor forward by round(speed) points, at least
// one. When the end is reached it returns n-1 and done. A step that
// cannot fit in the track (NaN, Inf or at least n) jumps to the end.
func Advance(i int, speed float64, n int) (next int, done bool) {
	if n <= 0 {
		return 0, true
	}
	if math.IsNaN(speed) || math.IsInf(speed, 0) || speed >= float64(n) {
		return n - 1, true
	}
	step := int(math.Max(1, math.Round(speed)))
	next = i + step
	if next >= n {
		return n - 1, true
	}
	return next, false
}

// IndexAtFraction maps a scrub position in [0, 1] to a point index.
func IndexAtFraction(t float64, n int) int {
	if n <= 0 {
		return 0
	}
	t = math.Max(0, math.Min(1, t))
	return int(math.Round(t * float64(n-1)))
}

func ClampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
