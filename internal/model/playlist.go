package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// DefaultSlideDuration applies to items without a positive duration.
const DefaultSlideDuration = 10 * time.Second

type Playlist struct {
	ID           string        `db:"id"             json:"id"`
	AdminOwnerID string        `db:"admin_owner_id" json:"adminOwnerId"`
	Name         string        `db:"name"           json:"name"`
	Items        PlaylistItems `db:"items"          json:"items"`
	CreatedAt    time.Time     `db:"created_at"     json:"createdAt"`
	UpdatedAt    time.Time     `db:"updated_at"     json:"updatedAt"`
}

type Media struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type PlaylistItem struct {
	Media           Media `json:"media"`
	DurationSeconds int   `json:"duration,omitempty"`
}

func (i PlaylistItem) Duration() time.Duration {
	if i.DurationSeconds <= 0 {
		return DefaultSlideDuration
	}
	return time.Duration(i.DurationSeconds) * time.Second
}

// PlaylistItems is stored as a jsonb array.
type PlaylistItems []PlaylistItem

func (p PlaylistItems) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]PlaylistItem(p))
}

func (p *PlaylistItems) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = PlaylistItems{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("playlist items: cannot scan %T", src)
	}
	var items []PlaylistItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("playlist items: %w", err)
	}
	*p = items
	return nil
}
