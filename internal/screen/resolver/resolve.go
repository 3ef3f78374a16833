// Package resolver decides what a screen shows right now and when to decide again.
package resolver

import (
	"time"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

// GuardOffset delays re-evaluation past a boundary so an early timer never lands before it.
const GuardOffset = 500 * time.Millisecond

// Resolution is the content to show and the next boundary. A zero Deadline means none.
type Resolution struct {
	Content  model.ContentRef
	Deadline time.Time
}

// Resolve picks the first schedule entry active at now, in input order. Without one it falls back
// to screenDefault, then globalDefault, and the deadline is the earliest future start.
func Resolve(now time.Time, schedules []model.ScheduleEntry, screenDefault, globalDefault model.ContentRef) Resolution {
	for _, entry := range schedules {
		if entry.ActiveAt(now) {
			return Resolution{Content: entry.Content.Ref, Deadline: entry.EndTime}
		}
	}

	res := Resolution{Content: screenDefault}
	if res.Content == nil {
		res.Content = globalDefault
	}
	for _, entry := range schedules {
		if !entry.StartTime.After(now) {
			continue
		}
		if res.Deadline.IsZero() || entry.StartTime.Before(res.Deadline) {
			res.Deadline = entry.StartTime
		}
	}
	return res
}
