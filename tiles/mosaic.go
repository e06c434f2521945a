package tiles

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/paulmach/orb"
)

// BuildMosaic fetches all tiles covering b and assembles them into an image
// whose edges are exactly b's Web Mercator extent. It returns the mosaic
// and the zoom used. onTile, when set, is called after every tile.
func BuildMosaic(
	ctx context.Context,
	f *Fetcher,
	preset Preset,
	b orb.Bound,
	targetW, targetH int,
	onTile func(),
) (*image.RGBA, int, error) {

	z := ClampZoom(FitZoom(b, targetW, targetH, preset), preset)

	tlx, tly, brx, bry := BoundPixels(b, z)
	w := int(math.Ceil(brx - tlx))
	h := int(math.Ceil(bry - tly))
	if w <= 0 || h <= 0 {
		return nil, z, fmt.Errorf("invalid mosaic size %dx%d", w, h)
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	minTX, minTY, maxTX, maxTY := CoveringTiles(b, z)
	for ty := minTY; ty <= maxTY; ty++ {
		for tx := minTX; tx <= maxTX; tx++ {
			if err := ctx.Err(); err != nil {
				return nil, z, err
			}
			img, err := f.Tile(ctx, preset, z, tx, ty)
			if err != nil {
				return nil, z, err
			}
			// tile top-left relative to the mosaic
			offX := int(math.Floor(float64(tx*TileSize) - tlx))
			offY := int(math.Floor(float64(ty*TileSize) - tly))
			r := image.Rect(offX, offY, offX+TileSize, offY+TileSize)
			draw.Draw(out, r, img, img.Bounds().Min, draw.Src)
			if onTile != nil {
				onTile()
			}
		}
	}
	return out, z, nil
}
