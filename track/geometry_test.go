package track

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/paulmach/orb"
)

func samplePoints() []Point {
	return []Point{
		{Lat: 46.50, Lon: 8.00, Ele: 100},
		{Lat: 46.51, Lon: 8.01, Ele: 200},
		{Lat: 46.52, Lon: 7.99, Ele: 300},
	}
}

func TestComputeBounds(t *testing.T) {
	t.Parallel()

	pts := samplePoints()
	b, ok := ComputeBounds(pts)
	if !ok {
		t.Fatal("ComputeBounds ok=false for non-empty track")
	}
	want := orb.Bound{Min: orb.Point{7.99, 46.50}, Max: orb.Point{8.01, 46.52}}
	if !b.Equal(want) {
		t.Fatalf("ComputeBounds=%v want %v", b, want)
	}
	for i, p := range pts {
		if p.Lat < b.Min.Lat() || p.Lat > b.Max.Lat() || p.Lon < b.Min.Lon() || p.Lon > b.Max.Lon() {
			t.Fatalf("pts[%d] outside %v", i, b)
		}
	}
	if _, ok := ComputeBounds(nil); ok {
		t.Fatal("ComputeBounds(nil) ok=true want false")
	}
}

func TestBuildLineString(t *testing.T) {
	t.Parallel()

	pts := samplePoints()
	f := BuildLineString(pts)
	ls, ok := f.Geometry.(orb.LineString)
	if !ok {
		t.Fatalf("geometry %T want orb.LineString", f.Geometry)
	}
	if len(ls) != len(pts) {
		t.Fatalf("len=%d want %d", len(ls), len(pts))
	}
	for i, p := range pts {
		if ls[i] != (orb.Point{p.Lon, p.Lat}) {
			t.Fatalf("coord[%d]=%v want [%v %v]", i, ls[i], p.Lon, p.Lat)
		}
	}

	b, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	js := string(b)
	for _, want := range []string{`"type":"Feature"`, `"type":"LineString"`, `"properties":{}`, `[8,46.5]`} {
		if !strings.Contains(js, want) {
			t.Fatalf("feature json %s missing %s", js, want)
		}
	}
}

func TestCursor(t *testing.T) {
	t.Parallel()

	pts := samplePoints()
	c, ok := Cursor(pts, 1)
	if !ok || c != (orb.Point{8.01, 46.51}) {
		t.Fatalf("Cursor(1)=%v,%t want [8.01 46.51],true", c, ok)
	}
	for _, i := range []int{-1, 3} {
		if _, ok := Cursor(pts, i); ok {
			t.Fatalf("Cursor(%d) ok=true want false", i)
		}
	}
}

func TestElevationRange(t *testing.T) {
	t.Parallel()

	lo, hi := ElevationRange([]Point{{Ele: 5}, {Ele: -3}, {Ele: 12}})
	if lo != -3 || hi != 12 {
		t.Fatalf("ElevationRange=%v,%v want -3,12", lo, hi)
	}
	if lo, hi := ElevationRange(nil); lo != 0 || hi != 0 {
		t.Fatalf("ElevationRange(nil)=%v,%v want 0,0", lo, hi)
	}
}
