package tiles

import (
	"math"

	"github.com/paulmach/orb"
)

const TileSize = 256

const maxMercatorLat = 85.05112878

// Project maps lon/lat (deg) to normalized Web Mercator [0..1], y down.
func Project(p orb.Point) (x, y float64) {
	x = (p.Lon() + 180.0) / 360.0
	lat := math.Min(maxMercatorLat, math.Max(-maxMercatorLat, p.Lat()))
	s := math.Sin(lat * math.Pi / 180.0)
	y = 0.5 - math.Log((1+s)/(1-s))/(4*math.Pi)
	return x, y
}

// At zoom z, world size in pixels:
func worldSize(z int) float64 { return float64(TileSize) * math.Exp2(float64(z)) }

// LonLatToPixel returns pixel coords in "world pixels" at zoom z.
func LonLatToPixel(p orb.Point, z int) (px, py float64) {
	x, y := Project(p)
	ws := worldSize(z)
	return x * ws, y * ws
}

// BoundPixels returns top-left & bottom-right world-pixel coords of b.
func BoundPixels(b orb.Bound, z int) (tlx, tly, brx, bry float64) {
	// top-left uses maxLat; bottom-right uses minLat
	tlx, tly = LonLatToPixel(orb.Point{b.Min.Lon(), b.Max.Lat()}, z)
	brx, bry = LonLatToPixel(orb.Point{b.Max.Lon(), b.Min.Lat()}, z)
	return
}

// CoveringTiles returns the inclusive tile range covering b at zoom z.
func CoveringTiles(b orb.Bound, z int) (minTX, minTY, maxTX, maxTY int) {
	tlx, tly, brx, bry := BoundPixels(b, z)
	minTX = int(math.Floor(tlx / TileSize))
	minTY = int(math.Floor(tly / TileSize))
	maxTX = int(math.Floor((brx - 1) / TileSize))
	maxTY = int(math.Floor((bry - 1) / TileSize))
	if maxTX < minTX {
		maxTX = minTX
	}
	if maxTY < minTY {
		maxTY = minTY
	}
	return
}

// FitZoom picks the highest zoom at which b fits into targetW x targetH.
func FitZoom(b orb.Bound, targetW, targetH int, preset Preset) int {
	for z := preset.MaxZoom; z >= preset.MinZoom; z-- {
		tlx, tly, brx, bry := BoundPixels(b, z)
		if int(math.Ceil(brx-tlx)) <= targetW && int(math.Ceil(bry-tly)) <= targetH {
			return z
		}
	}
	return preset.MinZoom
}
