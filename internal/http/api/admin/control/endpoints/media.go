package endpoints

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/http/api"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/lumen/internal/model"
	"github.com/Nixie-Tech-LLC/lumen/internal/storage"
)

const maxUploadBytes = 32 << 20

type MediaController struct {
	storage storage.Storage
}

// MediaModule mounts POST /media.
func MediaModule(s storage.Storage) api.Module {
	ctl := &MediaController{storage: s}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/media", ctl.uploadMedia)
	})
}

// POST /api/admin/media (multipart: file, optional name)
// The response is the data of an image ContentRef.
func (m *MediaController) uploadMedia(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	file, err := ctx.FormFile("file")
	if err != nil {
		return nil, api.BadRequest(errors.New("file is required"))
	}
	if file.Size > maxUploadBytes {
		return nil, &api.APIError{Code: http.StatusRequestEntityTooLarge, Message: "file too large", Reason: "invalid-argument"}
	}
	if !storage.IsImage(file.Filename) {
		return nil, api.BadRequest(errors.New("only image uploads are supported"))
	}

	obj, err := m.storage.SaveFile(ctx, file, file.Filename)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("media upload failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not store file"}
	}

	name := strings.TrimSpace(ctx.PostForm("name"))
	if name == "" {
		name = strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
	}
	return packets.MediaResponse{Name: name, URL: obj.URL, StoragePath: obj.StoragePath}, nil
}
