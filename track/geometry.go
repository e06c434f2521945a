package track

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ComputeBounds returns the [minLon, minLat]-[maxLon, maxLat] box around
// pts. ok is false for an empty slice.
func ComputeBounds(pts []Point) (b orb.Bound, ok bool) {
	if len(pts) == 0 {
		return orb.Bound{}, false
	}
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLon, maxLon := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		if p.Lat < minLat {
			minLat = p.Lat
		}
		if p.Lat > maxLat {
			maxLat = p.Lat
		}
		if p.Lon < minLon {
			minLon = p.Lon
		}
		if p.Lon > maxLon {
			maxLon = p.Lon
		}
	}
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}, true
}

// BuildLineString maps pts to a LineString feature with empty properties.
func BuildLineString(pts []Point) *geojson.Feature {
	ls := make(orb.LineString, len(pts))
	for i, p := range pts {
		ls[i] = p.Coord()
	}
	return geojson.NewFeature(ls)
}

// Cursor is the [lon, lat] of the point at index i.
func Cursor(pts []Point, i int) (orb.Point, bool) {
	if i < 0 || i >= len(pts) {
		return orb.Point{}, false
	}
	return pts[i].Coord(), true
}

// ElevationRange returns the lowest and highest elevation in pts, or 0, 0
// for an empty slice.
func ElevationRange(pts []Point) (lo, hi float64) {
	if len(pts) == 0 {
		return 0, 0
	}
	lo, hi = pts[0].Ele, pts[0].Ele
	for _, p := range pts[1:] {
		lo = math.Min(lo, p.Ele)
		hi = math.Max(hi, p.Ele)
	}
	return lo, hi
}
