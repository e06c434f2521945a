package track

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoPoints means the file parsed but held no usable track point.
	ErrNoPoints      = errors.New("no track points found")
	ErrUnknownFormat = errors.New("unknown track format")
)

type Format int

const (
	FormatUnknown Format = iota
	FormatGPX
	FormatIGC
)

func (f Format) String() string {
	switch f {
	case FormatGPX:
		return "gpx"
	case FormatIGC:
		return "igc"
	default:
		return "unknown"
	}
}

// DetectFormat picks a format from the file extension, falling back to
// sniffing the first bytes of the content.
func DetectFormat(name string, head []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gpx":
		return FormatGPX
	case ".igc":
		return FormatIGC
	}
	head = bytes.TrimLeft(head, " \t\r\n\ufeff")
	if len(head) == 0 {
		return FormatUnknown
	}
	switch head[0] {
	case '<':
		return FormatGPX
	case 'A', 'H', 'B':
		return FormatIGC
	}
	return FormatUnknown
}

// Parse dispatches r to the parser for f.
func Parse(f Format, r io.Reader) ([]Point, error) {
	switch f {
	case FormatGPX:
		return ParseGPX(r)
	case FormatIGC:
		return ParseIGC(r)
	default:
		return nil, ErrUnknownFormat
	}
}

// Load reads path, detects its format and parses it. An empty result is
// reported as ErrNoPoints so callers have one failure path for files that
// cannot be shown.
func Load(path string) ([]Point, Format, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, FormatUnknown, fmt.Errorf("read %s: %w", path, err)
	}
	head := b
	if len(head) > 512 {
		head = head[:512]
	}
	f := DetectFormat(path, head)
	pts, err := Parse(f, bytes.NewReader(b))
	if err != nil {
		return nil, f, fmt.Errorf("parse %s %s: %w", f, path, err)
	}
	if len(pts) == 0 {
		return nil, f, fmt.Errorf("%s: %w", path, ErrNoPoints)
	}
	return pts, f, nil
}
