package main

import (
	"time"

	"github.com/schollz/progressbar/v3"
)

var barTheme = progressbar.Theme{
	Saucer:        "=",
	SaucerHead:    ">",
	SaucerPadding: " ",
	BarStart:      "[",
	BarEnd:        "]",
}

type Bars struct {
	Load   *progressbar.ProgressBar
	Frames *progressbar.ProgressBar
	Tiles  *progressbar.ProgressBar
}

func newBar(total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetTheme(barTheme),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

func NewBars(files int) *Bars {
	return &Bars{Load: newBar(files, "[load] tracks")}
}

// StartFrames opens the render bar once the frame count is known.
func (b *Bars) StartFrames(total int) { b.Frames = newBar(total, "[gif] frames") }

// StartTiles opens an open-ended spinner for tile downloads.
func (b *Bars) StartTiles() { b.Tiles = newBar(-1, "[map] tiles") }

func (b *Bars) IncLoad() { _ = b.Load.Add(1) }

func (b *Bars) IncFrame() {
	if b.Frames != nil {
		_ = b.Frames.Add(1)
	}
}

func (b *Bars) IncTile() {
	if b.Tiles != nil {
		_ = b.Tiles.Add(1)
	}
}

func (b *Bars) Done() {
	for _, bar := range []*progressbar.ProgressBar{b.Load, b.Tiles, b.Frames} {
		if bar != nil {
			_ = bar.Finish()
		}
	}
}
