package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/lumen/internal/db"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/api"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/lumen/internal/model"
	"github.com/Nixie-Tech-LLC/lumen/internal/mqtt"
)

type SettingsController struct {
	store    db.Store
	notifier Notifier
}

// SettingsModule mounts GET/PUT /settings.
func SettingsModule(store db.Store, notifier Notifier) api.Module {
	ctl := &SettingsController{store: store, notifier: notifier}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/settings", ctl.getSettings)
		c.PUT("/settings", ctl.putSettings)
	})
}

// GET /api/admin/settings
func (s *SettingsController) getSettings(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	settings, err := s.store.GetSettings(ctx, user.ID)
	if err != nil {
		return nil, api.Error(err)
	}
	return settings, nil
}

// PUT /api/admin/settings
func (s *SettingsController) putSettings(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.UpdateSettingsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	if apiErr := validateContent(ctx, s.store, user.ID, request.GlobalDefaultContent); apiErr != nil {
		return nil, apiErr
	}

	settings := model.Settings{AdminOwnerID: user.ID, GlobalDefaultContent: request.GlobalDefaultContent}
	if err := s.store.PutSettings(ctx, settings); err != nil {
		return nil, api.Error(err)
	}
	s.notifier.Notify(user.ID, mqtt.ChangeSettings, user.ID)
	return settings, nil
}
