package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/s0ultr4d3r/trackplayer/track"
)

type multiIn []string

func (m *multiIn) String() string     { return strings.Join(*m, ",") }
func (m *multiIn) Set(s string) error { *m = append(*m, s); return nil }

var (
	inMany        multiIn
	outGIF        = flag.String("out", "track.gif", "where to write the playback GIF (empty = no GIF)")
	size          = flag.Int("size", 512, "frame size in pixels (square)")
	speed         = flag.Float64("speed", 1, "playback speed in points per tick (0.5, 1, 2, 4 ...)")
	tick          = flag.Duration("tick", 200*time.Millisecond, "delay between playback frames")
	maxFrames     = flag.Int("maxFrames", 600, "upper bound on frames; speed is raised to fit")
	margin        = flag.Float64("margin", 0.05, "padding around the track bounds (0..0.25)")
	bgHex         = flag.String("bg", "#1f2937", "background colour when no map is used")
	lineColorsStr = flag.String("lineColors", "#3b82f6,#ff3b30,#34c759,#ffcc00,#af52de", "flat line colours for tracks without an elevation gradient")
	cursorHex     = flag.String("cursor", "#22d3ee", "cursor colour")
	lineWidth     = flag.Float64("lineWidth", 4, "track line width in pixels")
	profile       = flag.Bool("profile", true, "draw an elevation profile strip for the first track")
	pprofAddr     = flag.String("pprof", "", "enable pprof on this address (e.g. 127.0.0.1:6060), empty = off")

	// статичная картинка, плейсхолдеры {minLon},{minLat},{maxLon},{maxLat},{w},{h}
	staticURL = flag.String("staticURL", "", "static map URL template")
	// тайловая схема: имя пресета или шаблон {z}/{x}/{y}
	tilesURL = flag.String("tiles", "", "tile preset (osm, opentopomap, mapbox-outdoors, ...) or {z}/{x}/{y} URL template")

	geojsonOut = flag.String("geojson", "", "also write tracks, bounds and gradients as GeoJSON")
	gpxOut     = flag.String("gpx", "", "also write all loaded tracks as GPX 1.1")

	timeout = flag.Duration("timeout", 10*time.Minute, "hard timeout for the whole run")
)

func main() {
	flag.Var(&inMany, "in", "path to a GPX or IGC file (repeatable)")
	flag.Parse()
	inMany = append(inMany, flag.Args()...)

	if len(inMany) == 0 {
		log.Fatalf("no input: pass -in track.gpx or -in flight.igc")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *pprofAddr != "" {
		enablePPROF(ctx, *pprofAddr)
	}

	env, err := loadEnv()
	if err != nil {
		log.Fatalf("error: %v", err)
	}

	opts := options{
		Inputs:     inMany,
		OutGIF:     *outGIF,
		Size:       *size,
		Speed:      *speed,
		Tick:       *tick,
		MaxFrames:  *maxFrames,
		Margin:     *margin,
		BGHex:      *bgHex,
		LineColors: *lineColorsStr,
		CursorHex:  *cursorHex,
		LineWidth:  *lineWidth,
		Profile:    *profile,
		StaticURL:  *staticURL,
		Tiles:      *tilesURL,
		GeoJSONOut: *geojsonOut,
		GPXOut:     *gpxOut,
		Env:        env,
	}
	if err := run(ctx, opts); err != nil {
		log.Fatalf("error: %v", err)
	}
}

type options struct {
	Inputs     []string
	OutGIF     string
	Size       int
	Speed      float64
	Tick       time.Duration
	MaxFrames  int
	Margin     float64
	BGHex      string
	LineColors string
	CursorHex  string
	LineWidth  float64
	Profile    bool
	StaticURL  string
	Tiles      string
	GeoJSONOut string
	GPXOut     string
	Env        envConfig
}

// loadedTrack holds one parsed file and everything derived from it. It is
// rebuilt from scratch for every file and never mutated afterwards.
type loadedTrack struct {
	Name     string
	Format   track.Format
	Points   []track.Point
	Bounds   orb.Bound
	Line     *geojson.Feature
	Gradient track.Gradient // nil when the track has fewer than two points
	MinEle   float64
	MaxEle   float64
}

func newLoadedTrack(name string, f track.Format, pts []track.Point) loadedTrack {
	lt := loadedTrack{Name: name, Format: f, Points: pts}
	lt.Bounds, _ = track.ComputeBounds(pts)
	lt.Line = track.BuildLineString(pts)
	lt.Gradient, _ = track.BuildGradient(pts)
	lt.MinEle, lt.MaxEle = track.ElevationRange(pts)
	return lt
}

// hasTime reports whether every point is timestamped and the clock never
// runs backwards. IGC logs crossing midnight UTC fail the second check.
func (lt loadedTrack) hasTime() bool {
	if len(lt.Points) == 0 {
		return false
	}
	var prev *time.Time
	for _, p := range lt.Points {
		if !p.HasTime() {
			return false
		}
		if prev != nil && p.Time.Before(*prev) {
			return false
		}
		prev = p.Time
	}
	return true
}

func (o options) validate() error {
	if o.Tick <= 0 {
		return errors.New("tick must be > 0")
	}
	if !(o.Speed > 0) || math.IsInf(o.Speed, 0) {
		return fmt.Errorf("speed must be a finite number > 0, got %v", o.Speed)
	}
	if o.Size < 64 || o.Size > 4096 {
		return fmt.Errorf("bad size: %d (want 64..4096)", o.Size)
	}
	if o.Margin < 0 || o.Margin >= 0.25 {
		return fmt.Errorf("margin must be in [0..0.25), got %.3f", o.Margin)
	}
	if o.MaxFrames < 2 {
		return fmt.Errorf("maxFrames must be >= 2, got %d", o.MaxFrames)
	}
	if o.OutGIF == "" && o.GeoJSONOut == "" && o.GPXOut == "" {
		return errors.New("nothing to do: -out, -geojson and -gpx are all empty")
	}
	return nil
}

func run(ctx context.Context, o options) error {
	if err := o.validate(); err != nil {
		return err
	}

	bars := NewBars(len(o.Inputs))
	defer bars.Done()

	// грузим все треки
	var tracks []loadedTrack
	for _, p := range o.Inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		pts, f, err := track.Load(p)
		bars.IncLoad()
		if err != nil {
			// a file that cannot be shown is reported and skipped, the
			// remaining tracks still play
			log.Printf("skip %s: %v", p, err)
			continue
		}
		tracks = append(tracks, newLoadedTrack(filepath.Base(p), f, pts))
	}
	if len(tracks) == 0 {
		return fmt.Errorf("no input could be loaded: %w", track.ErrNoPoints)
	}
	for _, lt := range tracks {
		log.Printf("loaded %s (%s): %d points, elevation %.0f..%.0f m", lt.Name, lt.Format, len(lt.Points), lt.MinEle, lt.MaxEle)
	}

	// общий bbox
	view := viewBounds(tracks, o.Margin)

	if o.GeoJSONOut != "" {
		if err := writeGeoJSON(o.GeoJSONOut, tracks); err != nil {
			return fmt.Errorf("geojson: %w", err)
		}
		log.Printf("wrote %s", o.GeoJSONOut)
	}
	if o.GPXOut != "" {
		if err := writeGPX(o.GPXOut, tracks); err != nil {
			return fmt.Errorf("gpx: %w", err)
		}
		log.Printf("wrote %s", o.GPXOut)
	}
	if o.OutGIF == "" {
		return nil
	}

	// фон: карта или однотон
	ro, err := o.renderOptions()
	if err != nil {
		return err
	}
	ro.Base, err = loadBackground(ctx, o, view)
	if err != nil {
		return err
	}

	sched := newSchedule(tracks, o.Speed, o.MaxFrames)
	bars.StartFrames(sched.Len())
	frames, err := BuildFrames(ctx, tracks, view, sched, ro, bars.IncFrame)
	if err != nil {
		return fmt.Errorf("build frames: %w", err)
	}

	delay := int(o.Tick / (10 * time.Millisecond))
	if delay < 1 {
		delay = 1
	}
	// запись через временный файл
	tmpOut := o.OutGIF + ".part"
	if err := writeGIFFile(tmpOut, frames, delay); err != nil {
		_ = os.Remove(tmpOut)
		return fmt.Errorf("encode gif: %w", err)
	}
	if err := os.Rename(tmpOut, o.OutGIF); err != nil {
		if err := copyFile(tmpOut, o.OutGIF); err != nil {
			return fmt.Errorf("rename/copy gif: %w", err)
		}
		_ = os.Remove(tmpOut)
	}
	log.Printf("wrote %s: %d frames", o.OutGIF, len(frames))
	return nil
}

func (o options) renderOptions() (renderOptions, error) {
	bg, err := track.ParseHexColor(o.BGHex)
	if err != nil {
		return renderOptions{}, fmt.Errorf("bg color: %w", err)
	}
	cursor, err := track.ParseHexColor(o.CursorHex)
	if err != nil {
		return renderOptions{}, fmt.Errorf("cursor color: %w", err)
	}
	lineColors, err := ParseHexColors(o.LineColors)
	if err != nil {
		return renderOptions{}, fmt.Errorf("lineColors: %w", err)
	}
	if len(lineColors) == 0 {
		return renderOptions{}, errors.New("lineColors is empty, give at least one colour")
	}
	return renderOptions{
		Size:       o.Size,
		BG:         bg,
		Cursor:     cursor,
		LineColors: lineColors,
		LineWidth:  o.LineWidth,
		Profile:    o.Profile,
	}, nil
}

// viewBounds is the union of all track bounds, padded by margin and never
// narrower than minViewSpan degrees.
func viewBounds(tracks []loadedTrack, margin float64) orb.Bound {
	const minViewSpan = 0.002
	bb := tracks[0].Bounds
	for _, lt := range tracks[1:] {
		bb = bb.Union(lt.Bounds)
	}
	padLon := math.Max((bb.Max.Lon()-bb.Min.Lon())*margin, (minViewSpan-(bb.Max.Lon()-bb.Min.Lon()))/2)
	padLat := math.Max((bb.Max.Lat()-bb.Min.Lat())*margin, (minViewSpan-(bb.Max.Lat()-bb.Min.Lat()))/2)
	return orb.Bound{
		Min: orb.Point{bb.Min.Lon() - padLon, math.Max(-85, bb.Min.Lat()-padLat)},
		Max: orb.Point{bb.Max.Lon() + padLon, math.Min(85, bb.Max.Lat()+padLat)},
	}
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()
	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
