package display

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coocood/freecache"
	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

const (
	maxImageSize = 20 * 1024 * 1024 // 20 MB
	fetchTimeout = 20 * time.Second
	cacheTTL     = 24 * 60 * 60 // seconds
)

// HTTPLoader fetches images and fits them to the screen resolution on a black canvas.
// Fetched bytes are kept in a freecache so a playlist cycling through the same slides
// does not download them again.
type HTTPLoader struct {
	client *http.Client
	cache  *freecache.Cache
	width  int
	height int
}

// NewHTTPLoader returns a loader for a width x height surface. A cacheMB of zero disables the cache.
func NewHTTPLoader(client *http.Client, width, height, cacheMB int) *HTTPLoader {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	l := &HTTPLoader{client: client, width: width, height: height}
	if cacheMB > 0 {
		l.cache = freecache.NewCache(cacheMB * 1024 * 1024)
	}
	return l
}

func (l *HTTPLoader) Load(ctx context.Context, url string) (image.Image, error) {
	data, err := l.bytes(ctx, url)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", b.Dx(), b.Dy())
	}
	return Fit(img, l.width, l.height), nil
}

func (l *HTTPLoader) bytes(ctx context.Context, url string) ([]byte, error) {
	key := []byte(url)
	if l.cache != nil {
		if data, err := l.cache.Get(key); err == nil {
			return data, nil
		}
	}

	data, err := l.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if err := l.cache.Set(key, data, cacheTTL); err != nil && !errors.Is(err, freecache.ErrLargeEntry) {
			log.Warn().Err(err).Str("url", url).Msg("failed to cache image")
		}
	}
	return data, nil
}

func (l *HTTPLoader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "lumen-screen/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("url is not an image: %s", ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageSize)
	}

	log.Debug().Int("bytes", len(data)).Str("url", url).Msg("image fetched")
	return data, nil
}

// Fit scales img to fit inside width x height and centres it on a black frame.
func Fit(img image.Image, width, height int) image.Image {
	fitted := imaging.Fit(img, width, height, imaging.Lanczos)
	return imaging.PasteCenter(imaging.New(width, height, color.Black), fitted)
}
