package packets

import "github.com/Nixie-Tech-LLC/lumen/internal/model"

// ScreenResponse mirrors model.Screen but flattens times to RFC3339 and adds presence.
type ScreenResponse struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	DefaultContent *model.Content `json:"default_content"`
	Online         bool           `json:"online"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at"`
}

type MediaResponse struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	StoragePath string `json:"storagePath"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
