package track

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const threePointGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk><name>ridge</name><trkseg>
    <trkpt lat="46.5000" lon="8.0000"><ele>100</ele><time>2020-01-01T10:00:00Z</time></trkpt>
    <trkpt lat="46.5100" lon="8.0100"><ele>200</ele><time>2020-01-01T10:01:00Z</time></trkpt>
    <trkpt lat="46.5200" lon="7.9900"><ele>300</ele><time>2020-01-01T10:02:00Z</time></trkpt>
  </trkseg></trk>
</gpx>`

func TestParseGPX(t *testing.T) {
	t.Parallel()

	pts, err := ParseGPX(strings.NewReader(threePointGPX))
	if err != nil {
		t.Fatalf("ParseGPX: %v", err)
	}
	if len(pts) != 3 {
		t.Fatalf("len=%d want 3", len(pts))
	}
	wantEle := []float64{100, 200, 300}
	for i, p := range pts {
		if p.Ele != wantEle[i] {
			t.Fatalf("pts[%d].Ele=%v want %v", i, p.Ele, wantEle[i])
		}
		if p.Time == nil {
			t.Fatalf("pts[%d].Time is nil", i)
		}
	}
	if pts[2].Lat != 46.52 || pts[2].Lon != 7.99 {
		t.Fatalf("pts[2]=%v,%v want 46.52,7.99", pts[2].Lat, pts[2].Lon)
	}
	want := time.Date(2020, 1, 1, 10, 1, 0, 0, time.UTC)
	if !pts[1].Time.Equal(want) || pts[1].Time.Location() != time.UTC {
		t.Fatalf("pts[1].Time=%v want %v", pts[1].Time, want)
	}
}

func TestParseGPXDefaultsAndDrops(t *testing.T) {
	t.Parallel()

	doc := `<gpx>
  <trkpt lat="1" lon="2"/>
  <trkpt lat="abc" lon="2"><ele>5</ele></trkpt>
  <trkpt lon="2"/>
  <wrapper><deeper><trkpt lat="3" lon="4"><ele>not-a-number</ele><time>yesterday</time></trkpt></deeper></wrapper>
  <trkpt lat="NaN" lon="1"/>
  <trkpt lat="5" lon="+Inf"/>
  <trkpt lat=" 6.5 " lon="7"><ele> 12.5 </ele></trkpt>
</gpx>`
	pts, err := ParseGPX(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseGPX: %v", err)
	}
	if len(pts) != 3 {
		t.Fatalf("len=%d want 3: %+v", len(pts), pts)
	}
	if pts[0].Ele != 0 || pts[0].Time != nil {
		t.Fatalf("pts[0]=%+v want zero ele and no time", pts[0])
	}
	if pts[1].Lat != 3 || pts[1].Ele != 0 || pts[1].Time != nil {
		t.Fatalf("pts[1]=%+v want nested point with defaults", pts[1])
	}
	if pts[2].Lat != 6.5 || pts[2].Ele != 12.5 {
		t.Fatalf("pts[2]=%+v want lat 6.5 ele 12.5", pts[2])
	}
}

func TestParseGPXTimeForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{in: "2020-01-01T10:00:00Z", want: time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC)},
		{in: "2020-01-01T12:00:00+02:00", want: time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC)},
		{in: "2020-01-01T10:00:00", want: time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC)},
		{in: " 2020-01-01T10:00:00.250 ", want: time.Date(2020, 1, 1, 10, 0, 0, 250e6, time.UTC)},
	}
	for _, tc := range tests {
		doc := `<gpx><trkpt lat="1" lon="2"><time>` + tc.in + `</time></trkpt></gpx>`
		pts, err := ParseGPX(strings.NewReader(doc))
		if err != nil || len(pts) != 1 {
			t.Fatalf("ParseGPX(%q)=%v,%v", tc.in, pts, err)
		}
		if pts[0].Time == nil || !pts[0].Time.Equal(tc.want) || pts[0].Time.Location() != time.UTC {
			t.Fatalf("time(%q)=%v want %v", tc.in, pts[0].Time, tc.want)
		}
	}
}

func TestParseGPXFirstChildWins(t *testing.T) {
	t.Parallel()

	doc := `<gpx><trkpt lat="1" lon="2">
<ele>1</ele><ele>2</ele>
<time>2020-01-01T10:00:00Z</time><time>2021-06-01T00:00:00Z</time>
</trkpt></gpx>`
	pts, err := ParseGPX(strings.NewReader(doc))
	if err != nil || len(pts) != 1 {
		t.Fatalf("ParseGPX=%v,%v", pts, err)
	}
	if pts[0].Ele != 1 {
		t.Fatalf("ele=%v want 1", pts[0].Ele)
	}
	if want := time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC); pts[0].Time == nil || !pts[0].Time.Equal(want) {
		t.Fatalf("time=%v want %v", pts[0].Time, want)
	}
}

func TestParseGPXNoTrackPoints(t *testing.T) {
	t.Parallel()

	pts, err := ParseGPX(strings.NewReader(`<gpx><wpt lat="1" lon="2"/></gpx>`))
	if err != nil {
		t.Fatalf("ParseGPX: %v", err)
	}
	if len(pts) != 0 {
		t.Fatalf("len=%d want 0", len(pts))
	}
}

func TestParseGPXMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "unclosed", doc: `<gpx><trk><trkpt lat="1" lon="2"></trk></gpx>`},
		{name: "empty", doc: ``},
		{name: "not xml", doc: `hello world`},
		{name: "truncated", doc: `<gpx><trkpt lat="1" lon="2"><ele>1`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseGPX(strings.NewReader(tc.doc))
			if !errors.Is(err, ErrMalformedDocument) {
				t.Fatalf("ParseGPX(%q) err=%v want ErrMalformedDocument", tc.doc, err)
			}
		})
	}
}
