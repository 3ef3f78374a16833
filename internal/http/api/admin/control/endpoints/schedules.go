package endpoints

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/lumen/internal/db"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/api"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/lumen/internal/model"
	"github.com/Nixie-Tech-LLC/lumen/internal/mqtt"
)

type ScheduleController struct {
	store    db.Store
	notifier Notifier
}

// ScheduleModule mounts the /schedules endpoints.
func ScheduleModule(store db.Store, notifier Notifier) api.Module {
	ctl := &ScheduleController{store: store, notifier: notifier}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/schedules", ctl.listSchedules)
		c.POST("/schedules", ctl.createSchedule)
		c.DELETE("/schedules/:id", ctl.deleteSchedule)
	})
}

func (s *ScheduleController) notifyScreens(adminID string, screenIDs []string) {
	for _, id := range screenIDs {
		s.notifier.Notify(adminID, mqtt.ChangeSchedules, id)
	}
}

// GET /api/admin/schedules
func (s *ScheduleController) listSchedules(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	entries, err := s.store.ListSchedules(ctx, user.ID)
	if err != nil {
		return nil, api.Error(err)
	}
	return entries, nil
}

// POST /api/admin/schedules
func (s *ScheduleController) createSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateScheduleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	if request.Content.Ref == nil {
		return nil, api.BadRequest(errors.New("content is required"))
	}
	if !request.StartTime.Before(request.EndTime) {
		return nil, api.BadRequest(errors.New("start_time must be before end_time"))
	}
	if apiErr := validateContent(ctx, s.store, user.ID, &request.Content); apiErr != nil {
		return nil, apiErr
	}
	for _, id := range request.ScreenIDs {
		screen, err := s.store.GetScreen(ctx, id)
		if err != nil {
			return nil, lookupErr(err, "screen "+id)
		}
		if screen.AdminOwnerID != user.ID {
			return nil, errForbidden
		}
	}

	entry, err := s.store.CreateSchedule(ctx, model.ScheduleEntry{
		AdminOwnerID: user.ID,
		ScreenIDs:    request.ScreenIDs,
		Content:      request.Content,
		StartTime:    request.StartTime,
		EndTime:      request.EndTime,
	})
	if err != nil {
		return nil, api.Error(err)
	}
	s.notifyScreens(user.ID, entry.ScreenIDs)
	return entry, nil
}

// DELETE /api/admin/schedules/:id
func (s *ScheduleController) deleteSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	entry, err := s.store.GetSchedule(ctx, ctx.Param("id"))
	if err != nil {
		return nil, lookupErr(err, "schedule")
	}
	if entry.AdminOwnerID != user.ID {
		return nil, errForbidden
	}

	if err := s.store.DeleteSchedule(ctx, entry.ID); err != nil {
		return nil, lookupErr(err, "schedule")
	}
	s.notifyScreens(user.ID, entry.ScreenIDs)
	return packets.SuccessResponse{Success: true}, nil
}
