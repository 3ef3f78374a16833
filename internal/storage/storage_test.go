package storage

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFilename(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	assert.Equal(t, "summer_sale_20240506_070809.000000.png", normalizeFilename("summer sale!.PNG", now))
	assert.Equal(t, "file_20240506_070809.000000.jpg", normalizeFilename("###.jpg", now))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentType("a.JPEG"))
	assert.True(t, IsImage("banner.webp"))
	assert.False(t, IsImage("clip.mp4"))
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestLocalStorageSaveFile(t *testing.T) {
	dir := t.TempDir()
	ls := NewLocalStorage(dir, "http://localhost:8080/uploads/")

	obj, err := ls.SaveFile(context.Background(), fileHeader(t, "logo.png", []byte("pixels")), "logo.png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(obj.URL, "http://localhost:8080/uploads/logo_"))
	data, err := os.ReadFile(obj.StoragePath)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
}
