package tiles

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
)

type Preset struct {
	Name        string
	URLTmpl     string // .../{z}/{x}/{y}.png, ${KEY} placeholders filled from Keys
	Attribution string
	MinZoom     int
	MaxZoom     int
	Headers     map[string]string // optional
}

var Presets = map[string]Preset{
	"osm": {
		Name:        "OpenStreetMap",
		URLTmpl:     "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "© OpenStreetMap contributors",
		MinZoom:     0, MaxZoom: 19,
	},
	"opentopomap": {
		Name:        "OpenTopoMap",
		URLTmpl:     "https://tile.opentopomap.org/{z}/{x}/{y}.png",
		Attribution: "© OpenTopoMap (CC-BY-SA), © OpenStreetMap contributors",
		MinZoom:     0, MaxZoom: 17,
	},
	"mapbox-outdoors": {
		Name:        "Mapbox Outdoors",
		URLTmpl:     "https://api.mapbox.com/styles/v1/mapbox/outdoors-v12/tiles/256/{z}/{x}/{y}?access_token=${MAPBOX_TOKEN}",
		Attribution: "© Mapbox, © OpenStreetMap contributors",
		MinZoom:     0, MaxZoom: 22,
	},
	"esri-satellite": {
		Name:        "ESRI World Imagery",
		URLTmpl:     "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "© Esri, Maxar, Earthstar Geographics",
		MinZoom:     0, MaxZoom: 20,
	},
	"maptiler-satellite": {
		Name:        "MapTiler Satellite",
		URLTmpl:     "https://api.maptiler.com/tiles/satellite/{z}/{x}/{y}.jpg?key=${MAPTILER_KEY}",
		Attribution: "© MapTiler, © OpenStreetMap contributors, © NASA",
		MinZoom:     0, MaxZoom: 20,
	},
	"stamen-terrain-bg": {
		Name:        "Stadia Stamen Terrain BG",
		URLTmpl:     "https://tiles.stadiamaps.com/tiles/stamen_terrain_background/{z}/{x}/{y}.png?api_key=${STADIA_KEY}",
		Attribution: "© Stadia Maps, © Stamen Design, © OpenStreetMap contributors",
		MinZoom:     0, MaxZoom: 18,
	},
}

// Lookup returns a named preset, or a custom one when name is itself an
// {z}/{x}/{y} URL template.
func Lookup(name string) (Preset, error) {
	if p, ok := Presets[name]; ok {
		return p, nil
	}
	if strings.Contains(name, "{z}") && strings.Contains(name, "{x}") && strings.Contains(name, "{y}") {
		return Preset{Name: "custom", URLTmpl: strings.TrimSpace(name), MinZoom: 0, MaxZoom: 20}, nil
	}
	names := make([]string, 0, len(Presets))
	for k := range Presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return Preset{}, fmt.Errorf("unknown tile preset %q (have %s)", name, strings.Join(names, ", "))
}

// FillURL substitutes the tile coordinates and ${KEY} placeholders. Keys
// missing from keys fall back to the process environment.
func (p Preset) FillURL(z, x, y int, keys map[string]string) (string, error) {
	r := strings.NewReplacer("{z}", strconv.Itoa(z), "{x}", strconv.Itoa(x), "{y}", strconv.Itoa(y))
	u := os.Expand(r.Replace(p.URLTmpl), func(k string) string {
		if v, ok := keys[k]; ok {
			return v
		}
		return os.Getenv(k)
	})
	if _, err := url.Parse(u); err != nil {
		return "", fmt.Errorf("tile url: %w", err)
	}
	return u, nil
}
