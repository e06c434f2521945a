package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"math"
	"time"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"

	"github.com/s0ultr4d3r/trackplayer/tiles"
	"github.com/s0ultr4d3r/trackplayer/track"
)

type renderOptions struct {
	Size       int
	BG         color.Color
	Cursor     color.Color
	LineColors []color.Color
	LineWidth  float64
	Profile    bool
	Base       image.Image // map background scaled to Size, or nil
}

// schedule holds, for every frame, the cursor index of every track.
type schedule struct {
	frames [][]int
}

func (s schedule) Len() int { return len(s.frames) }

// newSchedule plays the longest track by index, round(speed) points per
// frame, and moves the other tracks to the same fraction of their length.
// With several tracks that are fully timestamped in non-decreasing order
// the cursors follow a shared clock instead, so tracks recorded together
// stay in sync.
func newSchedule(tracks []loadedTrack, speed float64, maxFrames int) schedule {
	// самый длинный трек задаёт темп
	longest := 0
	for _, lt := range tracks {
		if len(lt.Points) > longest {
			longest = len(lt.Points)
		}
	}
	if need := float64(longest-1) / float64(maxFrames-1); need > speed {
		speed = math.Ceil(need)
	}

	lead := []int{0}
	for i, done := 0, longest <= 1; !done; {
		i, done = track.Advance(i, speed, longest)
		if i != lead[len(lead)-1] {
			lead = append(lead, i)
		}
	}

	timed := len(tracks) > 1
	for _, lt := range tracks {
		timed = timed && lt.hasTime()
	}
	if timed {
		return timeSchedule(tracks, len(lead))
	}

	s := schedule{frames: make([][]int, len(lead))}
	for fi, i := range lead {
		frac := 0.0
		if longest > 1 {
			frac = float64(i) / float64(longest-1)
		}
		idx := make([]int, len(tracks))
		for k, lt := range tracks {
			idx[k] = track.IndexAtFraction(frac, len(lt.Points))
		}
		s.frames[fi] = idx
	}
	return s
}

// timeSchedule spreads total frames evenly over [minT..maxT]; each cursor
// sits on the last point recorded at or before the frame time.
func timeSchedule(tracks []loadedTrack, total int) schedule {
	if total < 2 {
		total = 2
	}
	minT, maxT := *tracks[0].Points[0].Time, *tracks[0].Points[len(tracks[0].Points)-1].Time
	for _, lt := range tracks[1:] {
		if t := *lt.Points[0].Time; t.Before(minT) {
			minT = t
		}
		if t := *lt.Points[len(lt.Points)-1].Time; t.After(maxT) {
			maxT = t
		}
	}
	totalDur := maxT.Sub(minT)

	s := schedule{frames: make([][]int, total)}
	cursor := make([]int, len(tracks))
	for fi := 0; fi < total; fi++ {
		// момент времени кадра
		frameT := maxT
		if fi < total-1 {
			frameT = minT.Add(time.Duration(float64(totalDur) * float64(fi) / float64(total-1)))
		}
		idx := make([]int, len(tracks))
		for k, lt := range tracks {
			i := cursor[k]
			// продвигаем курсор, пока следующая точка не позже frameT
			for i+1 < len(lt.Points) {
				tNext := lt.Points[i+1].Time
				if tNext == nil || tNext.After(frameT) {
					break
				}
				i++
			}
			cursor[k] = i
			idx[k] = i
		}
		s.frames[fi] = idx
	}
	return s
}

// projector maps lon/lat into frame pixels through Web Mercator, so the
// track lines up with a tile or static map background of the same view.
type projector struct {
	minX, minY   float64
	spanX, spanY float64
	size         float64
}

func newProjector(view orb.Bound, size int) projector {
	x0, y0 := tiles.Project(orb.Point{view.Min.Lon(), view.Max.Lat()})
	x1, y1 := tiles.Project(orb.Point{view.Max.Lon(), view.Min.Lat()})
	return projector{minX: x0, minY: y0, spanX: x1 - x0, spanY: y1 - y0, size: float64(size - 1)}
}

func (p projector) xy(pt orb.Point) (x, y float64) {
	mx, my := tiles.Project(pt)
	xf, yf := 0.5, 0.5
	if p.spanX > 0 {
		xf = (mx - p.minX) / p.spanX
	}
	if p.spanY > 0 {
		yf = (my - p.minY) / p.spanY
	}
	return xf * p.size, yf * p.size
}

// BuildFrames draws the background and every track line once, then one
// frame per schedule entry with the cursors (and profile marker) on top.
func BuildFrames(
	ctx context.Context,
	tracks []loadedTrack,
	view orb.Bound,
	sched schedule,
	o renderOptions,
	onFrame func(),
) ([]*image.Paletted, error) {
	if sched.Len() == 0 {
		return nil, fmt.Errorf("empty schedule")
	}
	pr := newProjector(view, o.Size)

	// статичный слой: фон, линии, профиль
	base := gg.NewContext(o.Size, o.Size)
	if o.Base != nil {
		base.DrawImage(o.Base, 0, 0)
	} else {
		base.SetColor(o.BG)
		base.Clear()
	}
	for k, lt := range tracks {
		drawTrackLine(base, pr, lt, o.LineColors[k%len(o.LineColors)], o.LineWidth)
	}
	var prof *profileStrip
	if o.Profile && len(tracks[0].Points) > 1 {
		prof = newProfileStrip(tracks[0], o.Size)
		prof.draw(base)
	}
	static := base.Image()

	frames := make([]*image.Paletted, 0, sched.Len())
	for _, idx := range sched.frames {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		dc := gg.NewContext(o.Size, o.Size)
		dc.DrawImage(static, 0, 0)
		for k, lt := range tracks {
			c, ok := track.Cursor(lt.Points, idx[k])
			if !ok {
				continue
			}
			x, y := pr.xy(c)
			dc.DrawCircle(x, y, 6)
			dc.SetColor(o.Cursor)
			dc.FillPreserve()
			dc.SetColor(o.LineColors[k%len(o.LineColors)])
			dc.SetLineWidth(2)
			dc.Stroke()
		}
		if prof != nil {
			prof.drawMarker(dc, idx[0], o.Cursor)
		}
		frames = append(frames, toPaletted(dc.Image()))
		if onFrame != nil {
			onFrame()
		}
	}
	return frames, nil
}

// drawTrackLine strokes lt segment by segment. Segment colours come from
// the gradient at the segment's share of the drawn line length, which is
// how line-progress is measured by map renderers. Tracks without a
// gradient are drawn flat.
func drawTrackLine(dc *gg.Context, pr projector, lt loadedTrack, flat color.Color, width float64) {
	n := len(lt.Points)
	if n == 0 {
		return
	}
	xs, ys := make([]float64, n), make([]float64, n)
	for i, p := range lt.Points {
		xs[i], ys[i] = pr.xy(p.Coord())
	}
	if n == 1 {
		dc.DrawCircle(xs[0], ys[0], width)
		dc.SetColor(flat)
		dc.Fill()
		return
	}

	cum := make([]float64, n)
	for i := 1; i < n; i++ {
		cum[i] = cum[i-1] + math.Hypot(xs[i]-xs[i-1], ys[i]-ys[i-1])
	}
	total := cum[n-1]

	dc.SetLineWidth(width)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	for i := 0; i < n-1; i++ {
		c := flat
		if lt.Gradient != nil {
			progress := float64(i) / float64(n-1)
			if total > 0 {
				progress = (cum[i] + cum[i+1]) / 2 / total
			}
			c = lt.Gradient.ColorAt(progress)
		}
		dc.SetColor(c)
		dc.DrawLine(xs[i], ys[i], xs[i+1], ys[i+1])
		dc.Stroke()
	}
}

// profileStrip is an elevation-over-index chart along the bottom edge.
type profileStrip struct {
	lt            loadedTrack
	left, top     float64
	width, height float64
}

func newProfileStrip(lt loadedTrack, size int) *profileStrip {
	s := float64(size)
	h := math.Max(24, s/6)
	return &profileStrip{lt: lt, left: 8, top: s - h - 8, width: s - 16, height: h}
}

func (p *profileStrip) xy(i int) (x, y float64) {
	n := len(p.lt.Points)
	x = p.left + float64(i)/float64(max(1, n-1))*p.width
	t := 0.5
	if span := p.lt.MaxEle - p.lt.MinEle; span > 0 {
		t = (p.lt.Points[i].Ele - p.lt.MinEle) / span
	}
	// 4px inset keeps the line off the strip border
	y = p.top + 4 + (1-t)*(p.height-8)
	return x, y
}

func (p *profileStrip) draw(dc *gg.Context) {
	dc.SetRGBA(0, 0, 0, 0.45)
	dc.DrawRoundedRectangle(p.left, p.top, p.width, p.height, 4)
	dc.Fill()

	dc.SetLineWidth(2)
	dc.SetLineCapRound()
	for i := 0; i+1 < len(p.lt.Points); i++ {
		x1, y1 := p.xy(i)
		x2, y2 := p.xy(i + 1)
		c, _ := track.ParseHexColor(track.ElevationColor(p.lt.Points[i].Ele, p.lt.MinEle, p.lt.MaxEle))
		dc.SetColor(c)
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	}

	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(fmt.Sprintf("%.0f m", p.lt.MaxEle), p.left+4, p.top+2, 0, 1)
	dc.DrawStringAnchored(fmt.Sprintf("%.0f m", p.lt.MinEle), p.left+4, p.top+p.height-2, 0, 0)
}

func (p *profileStrip) drawMarker(dc *gg.Context, i int, c color.Color) {
	i = track.ClampIndex(i, len(p.lt.Points))
	x, y := p.xy(i)
	dc.DrawCircle(x, y, 4)
	dc.SetColor(c)
	dc.Fill()
}

func toPaletted(img image.Image) *image.Paletted {
	pimg := image.NewPaletted(img.Bounds(), palette.Plan9)
	draw.FloydSteinberg.Draw(pimg, pimg.Bounds(), img, image.Point{})
	return pimg
}
