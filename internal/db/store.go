// Package db is the Postgres-backed content store: users, screens, schedules, playlists and settings.
package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type Store interface {
	// users
	CreateUser(ctx context.Context, email, hashedPassword string, name *string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, id string) (model.User, error)

	// screens
	CreateScreen(ctx context.Context, adminID, name string, defaultContent *model.Content) (model.Screen, error)
	GetScreen(ctx context.Context, id string) (model.Screen, error)
	ListScreens(ctx context.Context, adminID string) ([]model.Screen, error)
	UpdateScreen(ctx context.Context, id string, patch model.ScreenPatch) error
	DeleteScreen(ctx context.Context, id string) error

	// schedules
	CreateSchedule(ctx context.Context, entry model.ScheduleEntry) (model.ScheduleEntry, error)
	GetSchedule(ctx context.Context, id string) (model.ScheduleEntry, error)
	ListSchedules(ctx context.Context, adminID string) ([]model.ScheduleEntry, error)
	ListSchedulesForScreen(ctx context.Context, screenID string) ([]model.ScheduleEntry, error)
	DeleteSchedule(ctx context.Context, id string) error

	// playlists
	CreatePlaylist(ctx context.Context, adminID, name string, items []model.PlaylistItem) (model.Playlist, error)
	GetPlaylist(ctx context.Context, id string) (model.Playlist, error)
	ListPlaylists(ctx context.Context, adminID string) ([]model.Playlist, error)
	UpdatePlaylist(ctx context.Context, id string, name *string, items []model.PlaylistItem) error
	DeletePlaylist(ctx context.Context, id string) error

	// settings
	GetSettings(ctx context.Context, adminID string) (model.Settings, error)
	PutSettings(ctx context.Context, settings model.Settings) error
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(db *sqlx.DB) Store {
	return &pgStore{db: db}
}

// notFound maps sql.ErrNoRows to ErrNotFound and leaves other errors untouched.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// affected turns a zero-row update or delete into ErrNotFound.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
