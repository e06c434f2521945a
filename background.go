package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	xdraw "golang.org/x/image/draw" // качественный ресайз

	"github.com/s0ultr4d3r/trackplayer/tiles"
)

// loadBackground returns the map image for view scaled to the frame size,
// or nil when neither a static map nor tiles were requested.
func loadBackground(ctx context.Context, o options, view orb.Bound) (image.Image, error) {
	var (
		img image.Image
		err error
	)
	switch {
	case o.StaticURL != "":
		img, err = fetchStaticMap(ctx, expandStaticURL(o.StaticURL, view, o.Size, o.Size))
		if err != nil {
			return nil, fmt.Errorf("fetch map: %w", err)
		}
	case o.Tiles != "":
		img, err = fetchTilesBackground(ctx, o, view)
		if err != nil {
			return nil, fmt.Errorf("fetch tiles: %w", err)
		}
	default:
		return nil, nil
	}
	return scaleTo(img, o.Size, o.Size), nil
}

func fetchTilesBackground(ctx context.Context, o options, view orb.Bound) (image.Image, error) {
	preset, err := tiles.Lookup(o.Tiles)
	if err != nil {
		return nil, err
	}
	f, err := tiles.NewFetcher(tiles.Options{
		CacheDir: o.Env.TileCache,
		RPS:      o.Env.TileRPS,
		Burst:    o.Env.TileBurst,
		Timeout:  o.Env.TileTimeout,
		Keys:     o.Env.tileKeys(),
	})
	if err != nil {
		return nil, err
	}
	bars := &Bars{}
	bars.StartTiles()
	defer bars.Done()

	mosaic, z, err := tiles.BuildMosaic(ctx, f, preset, view, o.Size, o.Size, bars.IncTile)
	if err != nil {
		return nil, err
	}
	log.Printf("map: %s at zoom %d (%s)", preset.Name, z, preset.Attribution)
	return mosaic, nil
}

// подгоняем фон под размер кадра
func scaleTo(src image.Image, w, h int) image.Image {
	if src.Bounds().Dx() == w && src.Bounds().Dy() == h {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func expandStaticURL(tpl string, bb orb.Bound, w, h int) string {
	r := strings.NewReplacer(
		"{minLon}", strconv.FormatFloat(bb.Min.Lon(), 'f', 6, 64),
		"{minLat}", strconv.FormatFloat(bb.Min.Lat(), 'f', 6, 64),
		"{maxLon}", strconv.FormatFloat(bb.Max.Lon(), 'f', 6, 64),
		"{maxLat}", strconv.FormatFloat(bb.Max.Lat(), 'f', 6, 64),
		"{w}", strconv.Itoa(w),
		"{h}", strconv.Itoa(h),
	)
	return strings.TrimSpace(r.Replace(tpl))
}

func fetchStaticMap(ctx context.Context, url string) (image.Image, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("map HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if img, err := png.Decode(bytes.NewReader(buf)); err == nil {
		return img, nil
	}
	return jpeg.Decode(bytes.NewReader(buf))
}
