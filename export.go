package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/tkrajina/gpxgo/gpx"
)

// buildFeatureCollection bundles every track line with its bounds and
// gradient so a web map can draw it without re-parsing the source file.
func buildFeatureCollection(tracks []loadedTrack) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	bb := tracks[0].Bounds
	for _, lt := range tracks {
		bb = bb.Union(lt.Bounds)
		fc.Append(trackFeature(lt))
	}
	fc.BBox = geojson.NewBBox(bb)
	return fc
}

func trackFeature(lt loadedTrack) *geojson.Feature {
	f := geojson.NewFeature(lt.Line.Geometry)
	f.BBox = geojson.NewBBox(lt.Bounds)
	f.Properties["name"] = lt.Name
	f.Properties["format"] = lt.Format.String()
	f.Properties["pointCount"] = len(lt.Points)
	f.Properties["minEle"] = lt.MinEle
	f.Properties["maxEle"] = lt.MaxEle
	if lt.Gradient != nil {
		f.Properties["lineGradient"] = lt.Gradient.Expression()
	}
	return f
}

func writeGeoJSON(path string, tracks []loadedTrack) error {
	b, err := buildFeatureCollection(tracks).MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// buildGPX re-emits tracks as GPX 1.1, one <trk> per input.
func buildGPX(tracks []loadedTrack) *gpx.GPX {
	g := &gpx.GPX{Creator: "trackplayer"}
	for _, lt := range tracks {
		seg := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, 0, len(lt.Points))}
		for _, p := range lt.Points {
			var gp gpx.GPXPoint
			gp.Latitude = p.Lat
			gp.Longitude = p.Lon
			gp.Elevation = *gpx.NewNullableFloat64(p.Ele)
			if p.Time != nil {
				gp.Timestamp = *p.Time
			}
			seg.Points = append(seg.Points, gp)
		}
		name := strings.TrimSuffix(lt.Name, filepath.Ext(lt.Name))
		g.Tracks = append(g.Tracks, gpx.GPXTrack{Name: name, Segments: []gpx.GPXTrackSegment{seg}})
	}
	return g
}

func writeGPX(path string, tracks []loadedTrack) error {
	b, err := buildGPX(tracks).ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
