package tiles

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
)

func TestProject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		p    orb.Point
		x, y float64
	}{
		{p: orb.Point{0, 0}, x: 0.5, y: 0.5},
		{p: orb.Point{-180, 0}, x: 0, y: 0.5},
		{p: orb.Point{180, 89}, x: 1, y: 0},
		{p: orb.Point{90, -89}, x: 0.75, y: 1},
	}
	for _, tc := range tests {
		x, y := Project(tc.p)
		if math.Abs(x-tc.x) > 1e-6 || math.Abs(y-tc.y) > 1e-6 {
			t.Fatalf("Project(%v)=%v,%v want %v,%v", tc.p, x, y, tc.x, tc.y)
		}
	}
}

func TestCoveringTiles(t *testing.T) {
	t.Parallel()

	// A box around the origin at zoom 1 touches all four tiles.
	b := orb.Bound{Min: orb.Point{-10, -10}, Max: orb.Point{10, 10}}
	minTX, minTY, maxTX, maxTY := CoveringTiles(b, 1)
	if minTX != 0 || minTY != 0 || maxTX != 1 || maxTY != 1 {
		t.Fatalf("CoveringTiles=%d,%d,%d,%d want 0,0,1,1", minTX, minTY, maxTX, maxTY)
	}
}

func TestFitZoom(t *testing.T) {
	t.Parallel()

	p := Preset{MinZoom: 0, MaxZoom: 18}
	world := orb.Bound{Min: orb.Point{-180, -85}, Max: orb.Point{180, 85}}
	if z := FitZoom(world, 256, 256, p); z != 0 {
		t.Fatalf("FitZoom(world)=%d want 0", z)
	}
	small := orb.Bound{Min: orb.Point{8, 46.5}, Max: orb.Point{8.01, 46.51}}
	z := FitZoom(small, 512, 512, p)
	tlx, tly, brx, bry := BoundPixels(small, z)
	if brx-tlx > 512 || bry-tly > 512 {
		t.Fatalf("FitZoom=%d gives %vx%v px, larger than target", z, brx-tlx, bry-tly)
	}
	if z < 10 {
		t.Fatalf("FitZoom=%d want a street-level zoom for a 1km box", z)
	}
}

func TestLookupAndFillURL(t *testing.T) {
	t.Setenv("TRACKPLAYER_TEST_KEY", "from-env")

	p, err := Lookup("maptiler-satellite")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	u, err := p.FillURL(3, 4, 5, map[string]string{"MAPTILER_KEY": "abc"})
	if err != nil {
		t.Fatalf("FillURL: %v", err)
	}
	if u != "https://api.maptiler.com/tiles/satellite/3/4/5.jpg?key=abc" {
		t.Fatalf("FillURL=%q", u)
	}

	custom, err := Lookup("https://example.test/{z}/{x}/{y}.png?k=${TRACKPLAYER_TEST_KEY}")
	if err != nil {
		t.Fatalf("Lookup(custom): %v", err)
	}
	u, _ = custom.FillURL(1, 2, 3, nil)
	if u != "https://example.test/1/2/3.png?k=from-env" {
		t.Fatalf("FillURL(custom)=%q", u)
	}

	if _, err := Lookup("nope"); err == nil || !strings.Contains(err.Error(), "osm") {
		t.Fatalf("Lookup(nope) err=%v want list of presets", err)
	}
}

func pngTile(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	for y := 0; y < TileSize; y++ {
		for x := 0; x < TileSize; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	f, err := NewFetcher(Options{CacheDir: t.TempDir(), RPS: 1000, Burst: 100, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	f.backoff = time.Millisecond
	return f
}

func TestFetcherCachesAndRetries(t *testing.T) {
	t.Parallel()

	tile := pngTile(t, color.RGBA{R: 200, A: 255})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		if r.Header.Get("User-Agent") == "" {
			http.Error(w, "no agent", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(tile)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	p := Preset{Name: "test", URLTmpl: srv.URL + "/{z}/{x}/{y}.png", MaxZoom: 5}
	ctx := context.Background()

	img, err := f.Tile(ctx, p, 1, 0, 0)
	if err != nil {
		t.Fatalf("Tile: %v", err)
	}
	if r, _, _, _ := img.At(10, 10).RGBA(); r>>8 != 200 {
		t.Fatalf("pixel red=%d want 200", r>>8)
	}
	if _, err := f.Tile(ctx, p, 1, 0, 0); err != nil {
		t.Fatalf("Tile (cached): %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("server hits=%d want 2 (one retry, then cache)", got)
	}
}

func TestFetcherGivesUp(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	_, err := f.GetTile(context.Background(), srv.URL+"/0/0/0.png", nil)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("GetTile err=%v want HTTP 404", err)
	}
}

func TestBuildMosaic(t *testing.T) {
	t.Parallel()

	tile := pngTile(t, color.RGBA{G: 180, A: 255})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(tile)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	p := Preset{Name: "test", URLTmpl: srv.URL + "/{z}/{x}/{y}.png", MinZoom: 0, MaxZoom: 12}
	b := orb.Bound{Min: orb.Point{8, 46.5}, Max: orb.Point{8.05, 46.53}}

	var tiles int
	img, z, err := BuildMosaic(context.Background(), f, p, b, 300, 300, func() { tiles++ })
	if err != nil {
		t.Fatalf("BuildMosaic: %v", err)
	}
	if z < 0 || z > 12 {
		t.Fatalf("zoom=%d out of preset range", z)
	}
	if img.Bounds().Dx() > 300 || img.Bounds().Dy() > 300 || img.Bounds().Empty() {
		t.Fatalf("mosaic bounds=%v want non-empty within 300x300", img.Bounds())
	}
	if tiles == 0 || int(hits.Load()) != tiles {
		t.Fatalf("tiles=%d hits=%d want equal and non-zero", tiles, hits.Load())
	}
	if _, g, _, _ := img.At(img.Bounds().Dx()/2, img.Bounds().Dy()/2).RGBA(); g>>8 != 180 {
		t.Fatalf("center green=%d want 180", g>>8)
	}
}
