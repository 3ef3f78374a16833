// Package display is the double-buffered surface the engine presents images on.
package display

import (
	"context"
	"image"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/screen/loop"
)

type Loader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

type Sink interface {
	// Show makes frame visible, cross-fading from the previous frame when fade is set.
	Show(frame image.Image, fade bool) error
	Blank() error
}

type slot struct {
	url   string
	frame image.Image
}

// Driver keeps two slots and which one is visible. Loads run off the loop; their results are
// applied only if no later Present superseded them. Call Present from the loop only.
type Driver struct {
	ctx    context.Context
	exec   loop.Executor
	loader Loader
	sink   Sink

	slots   [2]slot
	visible int
	shown   bool

	// seq increases with every Present. A load applies only if seq has not moved since.
	seq     uint64
	loading string
}

func NewDriver(ctx context.Context, exec loop.Executor, loader Loader, sink Sink) *Driver {
	return &Driver{ctx: ctx, exec: exec, loader: loader, sink: sink}
}

// Present shows url, or blanks the surface when url is empty.
func (d *Driver) Present(url string) {
	if url != "" && url == d.loading {
		return
	}
	d.seq++
	d.loading = ""

	if url == "" {
		if d.shown {
			d.shown = false
			if err := d.sink.Blank(); err != nil {
				log.Error().Err(err).Msg("failed to blank display")
			}
		}
		return
	}

	for i, s := range d.slots {
		if s.url != url || s.frame == nil {
			continue
		}
		if i == d.visible && d.shown {
			return
		}
		d.visible = i
		d.show(s.frame, false)
		return
	}

	d.load(url)
}

// URL returns the visible url, or "" when blank.
func (d *Driver) URL() string {
	if !d.shown {
		return ""
	}
	return d.slots[d.visible].url
}

func (d *Driver) load(url string) {
	hidden := 1 - d.visible
	d.slots[hidden] = slot{url: url}
	d.loading = url
	seq := d.seq

	var (
		frame image.Image
		err   error
	)
	d.exec.Go(func() {
		frame, err = d.loader.Load(d.ctx, url)
	}, func() {
		if seq != d.seq {
			return
		}
		d.loading = ""
		if err != nil {
			log.Error().Err(err).Str("url", url).Msg("failed to load image")
			d.slots[hidden] = slot{}
			return
		}
		d.slots[hidden].frame = frame
		d.visible = hidden
		d.show(frame, true)
	})
}

func (d *Driver) show(frame image.Image, fade bool) {
	d.shown = true
	if err := d.sink.Show(frame, fade); err != nil {
		log.Error().Err(err).Str("url", d.slots[d.visible].url).Msg("failed to show frame")
	}
}
