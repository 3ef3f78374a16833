// Package dbtest provides an in-memory db.Store for handler and service tests.
package dbtest

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Nixie-Tech-LLC/lumen/internal/db"
	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

type Store struct {
	mu        sync.Mutex
	seq       int
	now       time.Time
	users     map[string]model.User
	screens   map[string]model.Screen
	schedules map[string]model.ScheduleEntry
	playlists map[string]model.Playlist
	settings  map[string]model.Settings
}

var _ db.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:     map[string]model.User{},
		screens:   map[string]model.Screen{},
		schedules: map[string]model.ScheduleEntry{},
		playlists: map[string]model.Playlist{},
		settings:  map[string]model.Settings{},
	}
}

// nextID returns sequential ids with a prefix, e.g. "screen-1".
func (s *Store) nextID(prefix string) string {
	s.seq++
	s.now = s.now.Add(time.Second)
	return prefix + "-" + strconv.Itoa(s.seq)
}

func (s *Store) CreateUser(_ context.Context, email, hashedPassword string, name *string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := model.User{ID: s.nextID("user"), Email: email, HashedPassword: hashedPassword, Name: name, CreatedAt: s.now, UpdatedAt: s.now}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, db.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, db.ErrNotFound
	}
	return u, nil
}

func (s *Store) CreateScreen(_ context.Context, adminID, name string, defaultContent *model.Content) (model.Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	screen := model.Screen{ID: s.nextID("screen"), AdminOwnerID: adminID, Name: name, DefaultContent: defaultContent, CreatedAt: s.now, UpdatedAt: s.now}
	s.screens[screen.ID] = screen
	return screen, nil
}

func (s *Store) GetScreen(_ context.Context, id string) (model.Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	screen, ok := s.screens[id]
	if !ok {
		return model.Screen{}, db.ErrNotFound
	}
	return screen, nil
}

func (s *Store) ListScreens(_ context.Context, adminID string) ([]model.Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Screen{}
	for _, screen := range s.screens {
		if screen.AdminOwnerID == adminID {
			out = append(out, screen)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateScreen(_ context.Context, id string, patch model.ScreenPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	screen, ok := s.screens[id]
	if !ok {
		return db.ErrNotFound
	}
	if patch.Name != nil {
		screen.Name = *patch.Name
	}
	switch {
	case patch.ClearDefault:
		screen.DefaultContent = nil
	case patch.DefaultContent != nil:
		screen.DefaultContent = patch.DefaultContent
	}
	s.now = s.now.Add(time.Second)
	screen.UpdatedAt = s.now
	s.screens[id] = screen
	return nil
}

func (s *Store) DeleteScreen(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.screens[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.screens, id)
	return nil
}

func (s *Store) CreateSchedule(_ context.Context, entry model.ScheduleEntry) (model.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextID("schedule")
	entry.CreatedAt = s.now
	entry.ScreenIDs = append([]string(nil), entry.ScreenIDs...)
	s.schedules[entry.ID] = entry
	return entry, nil
}

func (s *Store) GetSchedule(_ context.Context, id string) (model.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.schedules[id]
	if !ok {
		return model.ScheduleEntry{}, db.ErrNotFound
	}
	return e, nil
}

func (s *Store) sortedSchedules(keep func(model.ScheduleEntry) bool) []model.ScheduleEntry {
	out := []model.ScheduleEntry{}
	for _, e := range s.schedules {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

func (s *Store) ListSchedules(_ context.Context, adminID string) ([]model.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedSchedules(func(e model.ScheduleEntry) bool { return e.AdminOwnerID == adminID }), nil
}

func (s *Store) ListSchedulesForScreen(_ context.Context, screenID string) ([]model.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedSchedules(func(e model.ScheduleEntry) bool { return e.Targets(screenID) }), nil
}

func (s *Store) DeleteSchedule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.schedules, id)
	return nil
}

func (s *Store) CreatePlaylist(_ context.Context, adminID, name string, items []model.PlaylistItem) (model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if items == nil {
		items = []model.PlaylistItem{}
	}
	p := model.Playlist{ID: s.nextID("playlist"), AdminOwnerID: adminID, Name: name, Items: items, CreatedAt: s.now, UpdatedAt: s.now}
	s.playlists[p.ID] = p
	return p, nil
}

func (s *Store) GetPlaylist(_ context.Context, id string) (model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[id]
	if !ok {
		return model.Playlist{}, db.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListPlaylists(_ context.Context, adminID string) ([]model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Playlist{}
	for _, p := range s.playlists {
		if p.AdminOwnerID == adminID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdatePlaylist(_ context.Context, id string, name *string, items []model.PlaylistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[id]
	if !ok {
		return db.ErrNotFound
	}
	if name != nil {
		p.Name = *name
	}
	if items != nil {
		p.Items = items
	}
	s.now = s.now.Add(time.Second)
	p.UpdatedAt = s.now
	s.playlists[id] = p
	return nil
}

func (s *Store) DeletePlaylist(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.playlists[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.playlists, id)
	return nil
}

func (s *Store) GetSettings(_ context.Context, adminID string) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[adminID]
	if !ok {
		return model.Settings{AdminOwnerID: adminID}, nil
	}
	return st, nil
}

func (s *Store) PutSettings(_ context.Context, settings model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.AdminOwnerID] = settings
	return nil
}
