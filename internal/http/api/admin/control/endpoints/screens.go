package endpoints

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/db"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/api"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/lumen/internal/model"
	"github.com/Nixie-Tech-LLC/lumen/internal/mqtt"
)

type ScreenController struct {
	store    db.Store
	presence PresenceReader
	pairer   Pairer
	notifier Notifier
}

// ScreenModule mounts all authenticated /screens endpoints.
func ScreenModule(store db.Store, presence PresenceReader, pairer Pairer, notifier Notifier) api.Module {
	ctl := &ScreenController{store: store, presence: presence, pairer: pairer, notifier: notifier}
	return api.ModuleFunc(func(c *api.Controller) {
		// CRUD
		c.GET("/screens", ctl.listScreens)
		c.POST("/screens", ctl.createScreen)
		c.GET("/screens/:id", ctl.getScreen)
		c.PUT("/screens/:id", ctl.updateScreen)
		c.DELETE("/screens/:id", ctl.deleteScreen)

		// pairing
		c.POST("/screens/pair", ctl.pairScreen)
	})
}

func (t *ScreenController) toResponse(ctx *gin.Context, s model.Screen) packets.ScreenResponse {
	online, err := t.presence.Online(ctx, s.AdminOwnerID, s.ID)
	if err != nil {
		log.Warn().Err(err).Str("screen_id", s.ID).Msg("could not read screen presence")
	}
	return packets.ScreenResponse{
		ID:             s.ID,
		Name:           s.Name,
		DefaultContent: s.DefaultContent,
		Online:         online,
		CreatedAt:      s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      s.UpdatedAt.Format(time.RFC3339),
	}
}

// ownedScreen loads the screen at :id and checks that user owns it.
func (t *ScreenController) ownedScreen(ctx *gin.Context, user *model.User) (model.Screen, *api.APIError) {
	screen, err := t.store.GetScreen(ctx, ctx.Param("id"))
	if err != nil {
		return model.Screen{}, lookupErr(err, "screen")
	}
	if screen.AdminOwnerID != user.ID {
		log.Error().
			Str("user_id", user.ID).
			Str("screen_owner", screen.AdminOwnerID).
			Msg("forbidden access to screen")
		return model.Screen{}, errForbidden
	}
	return screen, nil
}

// GET /api/admin/screens
func (t *ScreenController) listScreens(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	all, err := t.store.ListScreens(ctx, user.ID)
	if err != nil {
		return nil, api.Error(err)
	}

	out := make([]packets.ScreenResponse, 0, len(all))
	for _, s := range all {
		out = append(out, t.toResponse(ctx, s))
	}
	return out, nil
}

// POST /api/admin/screens
func (t *ScreenController) createScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateScreenRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	if apiErr := validateContent(ctx, t.store, user.ID, request.DefaultContent); apiErr != nil {
		return nil, apiErr
	}

	screen, err := t.store.CreateScreen(ctx, user.ID, request.Name, request.DefaultContent)
	if err != nil {
		return nil, api.Error(err)
	}
	return t.toResponse(ctx, screen), nil
}

// GET /api/admin/screens/:id
func (t *ScreenController) getScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	screen, apiErr := t.ownedScreen(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	return t.toResponse(ctx, screen), nil
}

// PUT /api/admin/screens/:id
func (t *ScreenController) updateScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	screen, apiErr := t.ownedScreen(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.UpdateScreenRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	if apiErr := validateContent(ctx, t.store, user.ID, request.DefaultContent); apiErr != nil {
		return nil, apiErr
	}

	patch := model.ScreenPatch{
		Name:           request.Name,
		DefaultContent: request.DefaultContent,
		ClearDefault:   request.ClearDefaultContent,
	}
	if err := t.store.UpdateScreen(ctx, screen.ID, patch); err != nil {
		return nil, lookupErr(err, "screen")
	}
	t.notifier.Notify(user.ID, mqtt.ChangeScreen, screen.ID)

	updated, err := t.store.GetScreen(ctx, screen.ID)
	if err != nil {
		return nil, lookupErr(err, "screen")
	}
	return t.toResponse(ctx, updated), nil
}

// DELETE /api/admin/screens/:id
// Schedules that target the screen are kept.
func (t *ScreenController) deleteScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	screen, apiErr := t.ownedScreen(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	if err := t.store.DeleteScreen(ctx, screen.ID); err != nil {
		return nil, lookupErr(err, "screen")
	}
	if err := t.presence.Forget(ctx, user.ID, screen.ID); err != nil {
		log.Warn().Err(err).Str("screen_id", screen.ID).Msg("could not clear presence of deleted screen")
	}
	t.notifier.Notify(user.ID, mqtt.ChangeScreen, screen.ID)

	return packets.SuccessResponse{Success: true}, nil
}

// POST /api/admin/screens/pair
func (t *ScreenController) pairScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.PairScreenRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}

	if err := t.pairer.CompletePairing(ctx, user.ID, request.PIN, request.ScreenID); err != nil {
		log.Warn().Err(err).Str("screen_id", request.ScreenID).Msg("pairing rejected")
		return nil, api.Error(err)
	}

	log.Info().Str("screen_id", request.ScreenID).Str("user_id", user.ID).Msg("screen paired")
	return packets.SuccessResponse{Success: true}, nil
}
