package main

import (
	"image/color"
	"strings"

	"github.com/s0ultr4d3r/trackplayer/track"
)

// ParseHexColors: список цветов через запятую.
func ParseHexColors(csv string) ([]color.Color, error) {
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	out := make([]color.Color, 0, len(parts))
	for _, p := range parts {
		c, err := track.ParseHexColor(p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
