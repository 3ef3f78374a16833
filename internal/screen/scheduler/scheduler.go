// Package scheduler arms timers that belong to a resolution session.
//
// Starting a new session cancels every task of the older ones, and each task re-checks its
// session when it fires, so a callback that raced the cancellation still does nothing.
package scheduler

import (
	"time"

	"github.com/Nixie-Tech-LLC/lumen/internal/screen/clock"
)

// Session identifies one resolution pass. Zero is never a valid session.
type Session uint64

// Scheduler is not safe for concurrent use; call it from the loop only.
type Scheduler struct {
	clock   clock.Clock
	current Session
	tasks   map[*Task]struct{}
}

type Task struct {
	s       *Scheduler
	session Session
	timer   clock.Timer
}

func New(c clock.Clock) *Scheduler {
	return &Scheduler{clock: c, tasks: map[*Task]struct{}{}}
}

func (s *Scheduler) Clock() clock.Clock { return s.clock }

// NewSession invalidates the current session and cancels all of its tasks.
func (s *Scheduler) NewSession() Session {
	s.current++
	for t := range s.tasks {
		if t.session < s.current {
			t.timer.Stop()
			delete(s.tasks, t)
		}
	}
	return s.current
}

func (s *Scheduler) Current() Session { return s.current }

func (s *Scheduler) Valid(session Session) bool {
	return session != 0 && session == s.current
}

// After runs fn after d unless session has been superseded by then.
// It returns nil when session is already stale.
func (s *Scheduler) After(session Session, d time.Duration, fn func()) *Task {
	if !s.Valid(session) {
		return nil
	}
	t := &Task{s: s, session: session}
	t.timer = s.clock.AfterFunc(d, func() {
		if _, live := s.tasks[t]; !live {
			return
		}
		delete(s.tasks, t)
		if !s.Valid(t.session) {
			return
		}
		fn()
	})
	s.tasks[t] = struct{}{}
	return t
}

// Cancel is safe on a nil or already fired task.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	if _, live := t.s.tasks[t]; live {
		t.timer.Stop()
		delete(t.s.tasks, t)
	}
}

// Pending returns the number of armed tasks.
func (s *Scheduler) Pending() int { return len(s.tasks) }
