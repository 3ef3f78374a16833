package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/lumen/internal/db"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/api"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/api/tv/packets"
	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

type ContentController struct {
	store db.Store
}

// ContentModule mounts the screen-scoped reads the screen client polls.
func ContentModule(store db.Store) api.Module {
	ctl := &ContentController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.SCREEN_GET("/screen", ctl.getScreen)
		c.SCREEN_GET("/schedules", ctl.getSchedules)
		c.SCREEN_GET("/settings", ctl.getSettings)
		c.SCREEN_GET("/playlists/:id", ctl.getPlaylist)
	})
}

func (t *ContentController) screen(ctx *gin.Context, screenID string) (model.Screen, *api.APIError) {
	screen, err := t.store.GetScreen(ctx, screenID)
	if err != nil {
		return model.Screen{}, lookupErr(err, "screen")
	}
	return screen, nil
}

// GET /api/tv/screen
// A 404 tells the client its screen was deleted.
func (t *ContentController) getScreen(ctx *gin.Context, screenID string) (any, *api.APIError) {
	screen, apiErr := t.screen(ctx, screenID)
	if apiErr != nil {
		return nil, apiErr
	}
	return screen, nil
}

// GET /api/tv/schedules
// Every entry targeting the screen, in ascending start order.
func (t *ContentController) getSchedules(ctx *gin.Context, screenID string) (any, *api.APIError) {
	entries, err := t.store.ListSchedulesForScreen(ctx, screenID)
	if err != nil {
		return nil, api.Error(err)
	}
	return entries, nil
}

// GET /api/tv/settings
func (t *ContentController) getSettings(ctx *gin.Context, screenID string) (any, *api.APIError) {
	screen, apiErr := t.screen(ctx, screenID)
	if apiErr != nil {
		return nil, apiErr
	}
	settings, err := t.store.GetSettings(ctx, screen.AdminOwnerID)
	if err != nil {
		return nil, api.Error(err)
	}
	return packets.SettingsResponse{GlobalDefaultContent: settings.GlobalDefaultContent}, nil
}

// GET /api/tv/playlists/:id
func (t *ContentController) getPlaylist(ctx *gin.Context, screenID string) (any, *api.APIError) {
	screen, apiErr := t.screen(ctx, screenID)
	if apiErr != nil {
		return nil, apiErr
	}
	playlist, err := t.store.GetPlaylist(ctx, ctx.Param("id"))
	if err != nil {
		return nil, lookupErr(err, "playlist")
	}
	if playlist.AdminOwnerID != screen.AdminOwnerID {
		// indistinguishable from a missing playlist
		return nil, lookupErr(db.ErrNotFound, "playlist")
	}
	return playlist, nil
}
