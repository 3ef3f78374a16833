package model

import "time"

// Screen represents a display device in the system.
type Screen struct {
	ID             string    `db:"id"              json:"id"`
	AdminOwnerID   string    `db:"admin_owner_id"  json:"adminOwnerId"`
	Name           string    `db:"name"            json:"name"`
	DefaultContent *Content  `db:"default_content" json:"defaultContent"`
	CreatedAt      time.Time `db:"created_at"      json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at"      json:"updatedAt"`
}

// ScreenPatch carries a partial screen update. ClearDefault wins over DefaultContent.
type ScreenPatch struct {
	Name           *string
	DefaultContent *Content
	ClearDefault   bool
}
