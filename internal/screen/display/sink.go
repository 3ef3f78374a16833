package display

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

const fadeSteps = 8

// FileSink renders the visible frame to a JPEG file that the device's viewer shows full screen.
// Every write goes through a temporary file and a rename so the viewer never reads a torn frame.
type FileSink struct {
	path   string
	width  int
	height int
	fade   time.Duration

	// wmu orders file writes; a write for an abandoned generation is skipped.
	wmu sync.Mutex

	mu      sync.Mutex
	gen     uint64
	current image.Image
	blank   bool
}

func NewFileSink(path string, width, height int, fade time.Duration) *FileSink {
	return &FileSink{path: path, width: width, height: height, fade: fade}
}

// Show replaces the frame. With fade set it blends from the current frame in the background;
// a later Show or Blank abandons the blend.
func (s *FileSink) Show(frame image.Image, fade bool) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	from := s.current
	if s.blank {
		from = nil
	}
	s.current = frame
	s.blank = false
	s.mu.Unlock()

	if !fade || from == nil || s.fade <= 0 {
		return s.writeIf(gen, frame)
	}

	go s.blend(gen, from, frame)
	return nil
}

// Blank shows a black frame.
func (s *FileSink) Blank() error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.blank = true
	s.mu.Unlock()
	return s.writeIf(gen, imaging.New(s.width, s.height, color.Black))
}

// IsBlank reports whether the surface is showing nothing.
func (s *FileSink) IsBlank() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blank || s.current == nil
}

func (s *FileSink) blend(gen uint64, from, to image.Image) {
	step := s.fade / fadeSteps
	for i := 1; i <= fadeSteps; i++ {
		time.Sleep(step)
		if !s.live(gen) {
			return
		}
		var frame image.Image = to
		if i < fadeSteps {
			frame = imaging.Overlay(from, to, image.Pt(0, 0), float64(i)/fadeSteps)
		}
		if err := s.writeIf(gen, frame); err != nil {
			log.Error().Err(err).Str("path", s.path).Msg("failed to write fade frame")
			return
		}
	}
}

func (s *FileSink) live(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

func (s *FileSink) writeIf(gen uint64, frame image.Image) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if !s.live(gen) {
		return nil
	}
	return s.write(frame)
}

func (s *FileSink) write(frame image.Image) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".frame-*.jpg")
	if err != nil {
		return fmt.Errorf("failed to create frame file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := imaging.Encode(tmp, frame, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to publish frame: %w", err)
	}
	return nil
}
