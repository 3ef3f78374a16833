package model

// PresenceKey addresses one ephemeral connection record of a screen.
type PresenceKey struct {
	AdminOwnerID string
	ScreenID     string
	ConnectionID string
}
