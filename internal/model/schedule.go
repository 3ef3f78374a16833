package model

import "time"

// ScheduleEntry assigns content to a set of screens for [StartTime, EndTime).
type ScheduleEntry struct {
	ID           string    `json:"id"`
	AdminOwnerID string    `json:"adminOwnerId"`
	ScreenIDs    []string  `json:"screenIds"`
	Content      Content   `json:"content"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ActiveAt reports whether t falls inside the entry's half-open window.
func (e ScheduleEntry) ActiveAt(t time.Time) bool {
	return !t.Before(e.StartTime) && t.Before(e.EndTime)
}

func (e ScheduleEntry) Targets(screenID string) bool {
	for _, id := range e.ScreenIDs {
		if id == screenID {
			return true
		}
	}
	return false
}
