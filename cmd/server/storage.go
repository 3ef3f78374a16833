package main

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/config"
	"github.com/Nixie-Tech-LLC/lumen/internal/storage"
)

// uploadsRoute serves local uploads when Spaces is not configured.
const uploadsRoute = "/uploads"

// InitStorage selects the configured storage backend.
func InitStorage(cfg config.StorageConfig) (storage.Storage, error) {
	if cfg.UseSpaces {
		spacesStorage, err := storage.NewSpacesStorage(
			cfg.Endpoint,
			cfg.Region,
			cfg.Bucket,
			cfg.CDNURL,
			cfg.AccessKey,
			cfg.SecretKey,
		)
		if err != nil {
			return nil, err
		}
		log.Info().Str("cdn", cfg.CDNURL).Msg("using DigitalOcean Spaces storage")
		return spacesStorage, nil
	}

	log.Info().Str("dir", cfg.UploadDir).Msg("using local file storage")
	return storage.NewLocalStorage(cfg.UploadDir, strings.TrimSuffix(cfg.PublicURL, "/")+uploadsRoute), nil
}
