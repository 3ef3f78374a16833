package display

import (
	"bytes"
	"context"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, color.White), imaging.PNG))
	return buf.Bytes()
}

func TestHTTPLoaderFitsAndCaches(t *testing.T) {
	body := pngBytes(t, 200, 100)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	l := NewHTTPLoader(srv.Client(), 160, 90, 16)

	img, err := l.Load(context.Background(), srv.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())
	assert.Equal(t, 90, img.Bounds().Dy())

	_, err = l.Load(context.Background(), srv.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPLoaderRejectsNonImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	_, err := NewHTTPLoader(srv.Client(), 160, 90, 0).Load(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "not an image")
}

func TestHTTPLoaderStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewHTTPLoader(srv.Client(), 160, 90, 0).Load(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "unexpected status code: 404")
}

func TestFitLetterboxes(t *testing.T) {
	img := Fit(imaging.New(100, 100, color.White), 200, 100)
	assert.Equal(t, 200, img.Bounds().Dx())

	r, g, b, _ := img.At(0, 50).RGBA()
	assert.Zero(t, r+g+b)
	r, _, _, _ = img.At(100, 50).RGBA()
	assert.NotZero(t, r)
}

func TestFileSinkWritesFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "frame.jpg")
	sink := NewFileSink(path, 32, 18, 0)

	require.NoError(t, sink.Show(imaging.New(32, 18, color.White), true))
	img, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.False(t, sink.IsBlank())

	require.NoError(t, sink.Blank())
	assert.True(t, sink.IsBlank())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
