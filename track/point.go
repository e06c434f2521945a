// Package track parses GPX and IGC flight/track logs into an ordered
// sequence of geodetic points and derives the artifacts a map renderer
// needs to draw and scrub through them: bounds, a line geometry, a cursor
// and an elevation colour gradient.
package track

import (
	"math"
	"time"

	"github.com/paulmach/orb"
)

// Point is one recorded sample. Time is nil when the source has none.
type Point struct {
	Lat  float64
	Lon  float64
	Ele  float64 // meters, 0 when the source omits it
	Time *time.Time
}

// Coord returns the point as [lon, lat].
func (p Point) Coord() orb.Point { return orb.Point{p.Lon, p.Lat} }

func (p Point) HasTime() bool { return p.Time != nil }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func utcPtr(t time.Time) *time.Time {
	t = t.UTC()
	return &t
}
