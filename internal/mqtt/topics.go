package mqtt

import (
	"fmt"
	"strings"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

const (
	presencePrefix = "lumen/presence"

	// PresenceFilter matches every connection record of every screen.
	PresenceFilter = presencePrefix + "/+/+/+"
)

// Change kinds published after admin writes.
const (
	ChangeScreen    = "screen"
	ChangeSchedules = "schedules"
	ChangeSettings  = "settings"
	ChangePlaylist  = "playlist"
)

func PresenceTopic(key model.PresenceKey) string {
	return fmt.Sprintf("%s/%s/%s/%s", presencePrefix, key.AdminOwnerID, key.ScreenID, key.ConnectionID)
}

// ParsePresenceTopic reverses PresenceTopic.
func ParsePresenceTopic(topic string) (model.PresenceKey, bool) {
	rest, ok := strings.CutPrefix(topic, presencePrefix+"/")
	if !ok {
		return model.PresenceKey{}, false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return model.PresenceKey{}, false
	}
	return model.PresenceKey{AdminOwnerID: parts[0], ScreenID: parts[1], ConnectionID: parts[2]}, true
}

func ChangeTopic(adminID, kind, id string) string {
	return fmt.Sprintf("lumen/%s/changed/%s/%s", adminID, kind, id)
}

// ChangeFilter matches every change notification of one admin.
func ChangeFilter(adminID string) string {
	return fmt.Sprintf("lumen/%s/changed/#", adminID)
}

// ParseChangeTopic returns the kind and document id of a change notification.
func ParseChangeTopic(topic string) (kind, id string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 5 || parts[0] != "lumen" || parts[2] != "changed" {
		return "", "", false
	}
	return parts[3], parts[4], true
}
