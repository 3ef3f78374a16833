package model

// Settings is the per-admin singleton.
type Settings struct {
	AdminOwnerID         string   `db:"admin_owner_id"         json:"adminOwnerId"`
	GlobalDefaultContent *Content `db:"global_default_content" json:"globalDefaultContent"`
}
