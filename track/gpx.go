package track

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedDocument is returned when GPX text is not well-formed XML.
var ErrMalformedDocument = errors.New("malformed document")

// trkpt mirrors the subset of a GPX track point we read. Coordinates stay
// strings so a bad value drops the point instead of failing the decode.
// Repeated ele/time children are all collected and the first one wins.
type trkpt struct {
	Lat  string   `xml:"lat,attr"`
	Lon  string   `xml:"lon,attr"`
	Ele  []string `xml:"ele"`
	Time []string `xml:"time"`
}

// localDateTime is an xsd:dateTime without a zone offset.
const localDateTime = "2006-01-02T15:04:05.999999999"

// ParseGPX returns every trkpt in document order, at any depth and in any
// namespace. Points with a missing or non-finite lat/lon are skipped.
func ParseGPX(r io.Reader) ([]Point, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true

	out := make([]Point, 0, 1024)
	sawRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode: %w: %v", ErrMalformedDocument, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true
		if se.Name.Local != "trkpt" {
			continue
		}
		var tp trkpt
		if err := dec.DecodeElement(&tp, &se); err != nil {
			return nil, fmt.Errorf("decode trkpt: %w: %v", ErrMalformedDocument, err)
		}
		if p, ok := tp.point(); ok {
			out = append(out, p)
		}
	}
	if !sawRoot {
		return nil, fmt.Errorf("decode: %w: no root element", ErrMalformedDocument)
	}
	return out, nil
}

// ParseGPXFile opens path and parses it as GPX.
func ParseGPXFile(path string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	return ParseGPX(f)
}

func (tp trkpt) point() (Point, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(tp.Lat), 64)
	if err != nil || !finite(lat) {
		return Point{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(tp.Lon), 64)
	if err != nil || !finite(lon) {
		return Point{}, false
	}
	p := Point{Lat: lat, Lon: lon}
	if len(tp.Ele) > 0 {
		if ele, err := strconv.ParseFloat(strings.TrimSpace(tp.Ele[0]), 64); err == nil && finite(ele) {
			p.Ele = ele
		}
	}
	if len(tp.Time) > 0 {
		if t, ok := parseGPXTime(tp.Time[0]); ok {
			p.Time = utcPtr(t)
		}
	}
	return p, true
}

// parseGPXTime accepts RFC 3339 and, failing that, a date-time with no
// offset, which is taken as UTC.
func parseGPXTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(localDateTime, s, time.UTC); err == nil {
		return t, true
	}
	return time.Time{}, false
}
