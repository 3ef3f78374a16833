// Package storage saves uploaded media to local disk or an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/rs/zerolog/log"
)

// Object is a stored upload: URL is what screens fetch, StoragePath is the backend key.
type Object struct {
	URL         string `json:"url"`
	StoragePath string `json:"storagePath"`
}

type Storage interface {
	SaveFile(ctx context.Context, fileHeader *multipart.FileHeader, filename string) (Object, error)
}

type LocalStorage struct {
	uploadDir string
	publicURL string
}

type SpacesStorage struct {
	client *s3.S3
	bucket string
	cdnURL string
}

// NewLocalStorage stores files under uploadDir and serves them from publicURL.
func NewLocalStorage(uploadDir, publicURL string) *LocalStorage {
	return &LocalStorage{uploadDir: uploadDir, publicURL: strings.TrimSuffix(publicURL, "/")}
}

func NewSpacesStorage(endpoint, region, bucket, cdnURL, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SpacesStorage{
		client: s3.New(sess),
		bucket: bucket,
		cdnURL: strings.TrimSuffix(cdnURL, "/"),
	}, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// normalizeFilename creates a unique filename without spaces or special characters.
func normalizeFilename(originalFilename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	baseName := strings.TrimSuffix(originalFilename, filepath.Ext(originalFilename))

	baseName = strings.ReplaceAll(baseName, " ", "_")
	baseName = unsafeChars.ReplaceAllString(baseName, "")
	if baseName == "" {
		baseName = "file"
	}

	return fmt.Sprintf("%s_%s%s", baseName, now.Format("20060102_150405.000000"), ext)
}

func (ls *LocalStorage) SaveFile(_ context.Context, fileHeader *multipart.FileHeader, filename string) (Object, error) {
	normalizedFilename := normalizeFilename(filename, time.Now())
	log.Debug().Str("original", filename).Str("normalized", normalizedFilename).Msg("file upload normalized")

	if err := os.MkdirAll(ls.uploadDir, 0o755); err != nil {
		return Object{}, fmt.Errorf("failed to create upload directory: %w", err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return Object{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	uploadPath := filepath.Join(ls.uploadDir, normalizedFilename)
	dst, err := os.Create(uploadPath)
	if err != nil {
		return Object{}, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return Object{}, fmt.Errorf("failed to save file: %w", err)
	}

	return Object{
		URL:         fmt.Sprintf("%s/%s", ls.publicURL, normalizedFilename),
		StoragePath: uploadPath,
	}, nil
}

func (ss *SpacesStorage) SaveFile(ctx context.Context, fileHeader *multipart.FileHeader, filename string) (Object, error) {
	normalizedFilename := normalizeFilename(filename, time.Now())
	log.Debug().Str("original", filename).Str("normalized", normalizedFilename).Msg("file upload normalized")

	src, err := fileHeader.Open()
	if err != nil {
		return Object{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	key := "uploads/" + normalizedFilename

	_, err = ss.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        src,
		ContentType: aws.String(ContentType(normalizedFilename)),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to upload file to Spaces")
		return Object{}, fmt.Errorf("failed to upload to Spaces: %w", err)
	}

	return Object{URL: fmt.Sprintf("%s/%s", ss.cdnURL, key), StoragePath: key}, nil
}

// ContentType guesses the MIME type from the file extension.
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}

// IsImage reports whether filename has an image extension screens can display.
func IsImage(filename string) bool {
	return strings.HasPrefix(ContentType(filename), "image/")
}
