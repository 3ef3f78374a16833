package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

const playlistColumns = `id, admin_owner_id, name, items, created_at, updated_at`

func (s *pgStore) CreatePlaylist(ctx context.Context, adminID, name string, items []model.PlaylistItem) (model.Playlist, error) {
	var p model.Playlist
	const q = `
	INSERT INTO playlists (id, admin_owner_id, name, items, created_at, updated_at)
	VALUES ($1, $2, $3, $4, now(), now())
	RETURNING ` + playlistColumns + `;`
	if err := s.db.GetContext(ctx, &p, q, uuid.NewString(), adminID, name, model.PlaylistItems(items)); err != nil {
		log.Error().Err(err).Msg("[db] CreatePlaylist: failed to insert playlist")
		return model.Playlist{}, err
	}
	return p, nil
}

func (s *pgStore) GetPlaylist(ctx context.Context, id string) (model.Playlist, error) {
	var p model.Playlist
	err := s.db.GetContext(ctx, &p, `SELECT `+playlistColumns+` FROM playlists WHERE id = $1;`, id)
	return p, notFound(err)
}

func (s *pgStore) ListPlaylists(ctx context.Context, adminID string) ([]model.Playlist, error) {
	out := []model.Playlist{}
	const q = `SELECT ` + playlistColumns + ` FROM playlists WHERE admin_owner_id = $1 ORDER BY name, id;`
	if err := s.db.SelectContext(ctx, &out, q, adminID); err != nil {
		log.Error().Err(err).Msg("[db] ListPlaylists: failed to select playlists")
		return nil, err
	}
	return out, nil
}

// UpdatePlaylist replaces the name and/or the whole item list; nil leaves a field unchanged.
func (s *pgStore) UpdatePlaylist(ctx context.Context, id string, name *string, items []model.PlaylistItem) error {
	var itemsArg any
	if items != nil {
		itemsArg = model.PlaylistItems(items)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE playlists
		SET
		name       = COALESCE($2, name),
		items      = COALESCE($3, items),
		updated_at = now()
		WHERE id = $1;`,
		id, name, itemsArg,
	)
	if err != nil {
		log.Error().Err(err).Str("playlist_id", id).Msg("Failed to update playlist")
		return err
	}
	return affected(res)
}

func (s *pgStore) DeletePlaylist(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Str("playlist_id", id).Msg("Failed to delete playlist")
		return err
	}
	return affected(res)
}
