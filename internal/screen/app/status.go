package app

import (
	"fmt"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
)

// Status is what the device shows around the content: the pairing box, errors and presence.
type Status struct {
	State     string     `json:"state"`
	PIN       string     `json:"pin,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Attempts  int        `json:"attempts"`
	Message   string     `json:"message,omitempty"`
	Error     string     `json:"error,omitempty"`
	ScreenID  string     `json:"screenId,omitempty"`
	Connected bool       `json:"connected"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type StatusSink interface {
	Write(Status) error
}

// StatusFile writes the status as JSON next to the frame for the device's overlay to render.
type StatusFile struct {
	path string
}

func NewStatusFile(stateDir string) *StatusFile {
	return &StatusFile{path: filepath.Join(stateDir, "status.json")}
}

func (f *StatusFile) Write(s Status) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	return writeAtomic(f.path, raw, 0o644)
}
