package main

import (
	"errors"
	"image"
	"image/gif"
	"io"
	"os"
)

// writeGIF encodes frames as a looping animation, every frame shown for
// delay hundredths of a second.
func writeGIF(w io.Writer, frames []*image.Paletted, delay int) error {
	if len(frames) == 0 {
		return errors.New("no frames")
	}
	g := &gif.GIF{
		Image:     frames,
		Delay:     make([]int, len(frames)),
		LoopCount: 0,
	}
	for i := range g.Delay {
		g.Delay[i] = delay
	}
	// держим последний кадр подольше, чтобы был виден перезапуск
	g.Delay[len(g.Delay)-1] = delay * 5
	return gif.EncodeAll(w, g)
}

func writeGIFFile(path string, frames []*image.Paletted, delay int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeGIF(f, frames, delay); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
