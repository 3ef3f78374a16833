package endpoints

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/lumen/internal/db"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/api"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/lumen/internal/model"
	"github.com/Nixie-Tech-LLC/lumen/internal/mqtt"
)

type PlaylistController struct {
	store    db.Store
	notifier Notifier
}

// PlaylistModule mounts the /playlists endpoints.
func PlaylistModule(store db.Store, notifier Notifier) api.Module {
	ctl := &PlaylistController{store: store, notifier: notifier}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/playlists", ctl.listPlaylists)
		c.POST("/playlists", ctl.createPlaylist)
		c.GET("/playlists/:id", ctl.getPlaylist)
		c.PUT("/playlists/:id", ctl.updatePlaylist)
		c.DELETE("/playlists/:id", ctl.deletePlaylist)
	})
}

func validateItems(items []model.PlaylistItem) error {
	for i, item := range items {
		if item.Media.URL == "" {
			return fmt.Errorf("item %d: media url is required", i)
		}
		if item.DurationSeconds < 0 {
			return fmt.Errorf("item %d: duration must not be negative", i)
		}
	}
	return nil
}

func (p *PlaylistController) owned(ctx *gin.Context, user *model.User) (model.Playlist, *api.APIError) {
	playlist, err := p.store.GetPlaylist(ctx, ctx.Param("id"))
	if err != nil {
		return model.Playlist{}, lookupErr(err, "playlist")
	}
	if playlist.AdminOwnerID != user.ID {
		return model.Playlist{}, errForbidden
	}
	return playlist, nil
}

// GET /api/admin/playlists
func (p *PlaylistController) listPlaylists(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	all, err := p.store.ListPlaylists(ctx, user.ID)
	if err != nil {
		return nil, api.Error(err)
	}
	return all, nil
}

// POST /api/admin/playlists
func (p *PlaylistController) createPlaylist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreatePlaylistRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	if err := validateItems(request.Items); err != nil {
		return nil, api.BadRequest(err)
	}

	playlist, err := p.store.CreatePlaylist(ctx, user.ID, request.Name, request.Items)
	if err != nil {
		return nil, api.Error(err)
	}
	return playlist, nil
}

// GET /api/admin/playlists/:id
func (p *PlaylistController) getPlaylist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	playlist, apiErr := p.owned(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	return playlist, nil
}

// PUT /api/admin/playlists/:id
func (p *PlaylistController) updatePlaylist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	playlist, apiErr := p.owned(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.UpdatePlaylistRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	if err := validateItems(request.Items); err != nil {
		return nil, api.BadRequest(err)
	}

	if err := p.store.UpdatePlaylist(ctx, playlist.ID, request.Name, request.Items); err != nil {
		return nil, lookupErr(err, "playlist")
	}
	p.notifier.Notify(user.ID, mqtt.ChangePlaylist, playlist.ID)

	updated, err := p.store.GetPlaylist(ctx, playlist.ID)
	if err != nil {
		return nil, lookupErr(err, "playlist")
	}
	return updated, nil
}

// DELETE /api/admin/playlists/:id
// Screens showing the playlist learn about it through the change notification and re-resolve.
func (p *PlaylistController) deletePlaylist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	playlist, apiErr := p.owned(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	if err := p.store.DeletePlaylist(ctx, playlist.ID); err != nil {
		return nil, lookupErr(err, "playlist")
	}
	p.notifier.Notify(user.ID, mqtt.ChangePlaylist, playlist.ID)
	return packets.SuccessResponse{Success: true}, nil
}
