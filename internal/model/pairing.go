package model

import "time"

type PairingStatus string

const (
	PairingPending   PairingStatus = "pending"
	PairingCompleted PairingStatus = "completed"
)

// PairingRequest is created when a screen asks for a PIN and completed once an admin redeems it.
type PairingRequest struct {
	SessionID      string        `json:"sessionId"`
	PIN            string        `json:"pin"`
	Status         PairingStatus `json:"status"`
	ExpiresAt      time.Time     `json:"expiresAt"`
	CustomToken    string        `json:"customToken,omitempty"`
	PairedScreenID string        `json:"pairedScreenId,omitempty"`
	PairedBy       string        `json:"pairedBy,omitempty"`
}

// PairingCode is what a screen receives when it requests a PIN.
type PairingCode struct {
	PIN       string `json:"pin"`
	SessionID string `json:"sessionId"`
}

// ScreenSession is what a screen receives in exchange for its one-time token.
type ScreenSession struct {
	ScreenID string `json:"screenId"`
	Token    string `json:"token"`
}
