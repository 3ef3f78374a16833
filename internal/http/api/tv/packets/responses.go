package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

// PairingStatusResponse is what a screen sees while it waits for an admin to redeem its PIN.
type PairingStatusResponse struct {
	Status         model.PairingStatus `json:"status"`
	ExpiresAt      time.Time           `json:"expiresAt"`
	CustomToken    string              `json:"customToken,omitempty"`
	PairedScreenID string              `json:"pairedScreenId,omitempty"`
}

type SettingsResponse struct {
	GlobalDefaultContent *model.Content `json:"globalDefaultContent"`
}
