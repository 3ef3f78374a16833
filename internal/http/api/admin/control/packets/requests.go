package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

type CreateScreenRequest struct {
	Name           string         `json:"name" binding:"required"`
	DefaultContent *model.Content `json:"default_content"`
}

// UpdateScreenRequest leaves nil fields unchanged; ClearDefaultContent removes the default.
type UpdateScreenRequest struct {
	Name                *string        `json:"name"`
	DefaultContent      *model.Content `json:"default_content"`
	ClearDefaultContent bool           `json:"clear_default_content"`
}

// PairScreenRequest fields are checked by the pairing service so a missing field maps to invalid-argument.
type PairScreenRequest struct {
	PIN      string `json:"pin"`
	ScreenID string `json:"screen_id"`
}

type CreateScheduleRequest struct {
	ScreenIDs []string      `json:"screen_ids" binding:"required,min=1,dive,required"`
	Content   model.Content `json:"content"`
	StartTime time.Time     `json:"start_time" binding:"required"`
	EndTime   time.Time     `json:"end_time" binding:"required"`
}

type CreatePlaylistRequest struct {
	Name  string               `json:"name" binding:"required"`
	Items []model.PlaylistItem `json:"items"`
}

// UpdatePlaylistRequest replaces the whole item list when Items is present.
type UpdatePlaylistRequest struct {
	Name  *string              `json:"name"`
	Items []model.PlaylistItem `json:"items"`
}

type UpdateSettingsRequest struct {
	GlobalDefaultContent *model.Content `json:"global_default_content"`
}
