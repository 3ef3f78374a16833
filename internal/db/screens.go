package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

const screenColumns = `id, admin_owner_id, name, default_content, created_at, updated_at`

func (s *pgStore) CreateScreen(ctx context.Context, adminID, name string, defaultContent *model.Content) (model.Screen, error) {
	var screen model.Screen
	const q = `
	INSERT INTO screens (id, admin_owner_id, name, default_content, created_at, updated_at)
	VALUES ($1, $2, $3, $4, now(), now())
	RETURNING ` + screenColumns + `;`
	if err := s.db.GetContext(ctx, &screen, q, uuid.NewString(), adminID, name, defaultContent); err != nil {
		log.Error().Err(err).Str("admin_id", adminID).Msg("failed to create screen")
		return model.Screen{}, err
	}
	return screen, nil
}

func (s *pgStore) GetScreen(ctx context.Context, id string) (model.Screen, error) {
	var screen model.Screen
	err := s.db.GetContext(ctx, &screen, `SELECT `+screenColumns+` FROM screens WHERE id = $1;`, id)
	return screen, notFound(err)
}

func (s *pgStore) ListScreens(ctx context.Context, adminID string) ([]model.Screen, error) {
	screens := []model.Screen{}
	const q = `SELECT ` + screenColumns + ` FROM screens WHERE admin_owner_id = $1 ORDER BY created_at, id;`
	if err := s.db.SelectContext(ctx, &screens, q, adminID); err != nil {
		log.Error().Err(err).Str("admin_id", adminID).Msg("failed to list screens")
		return nil, err
	}
	return screens, nil
}

func (s *pgStore) UpdateScreen(ctx context.Context, id string, patch model.ScreenPatch) error {
	var (
		q    string
		args []any
	)
	if patch.ClearDefault {
		q = `
		UPDATE screens
		SET name = COALESCE($2, name),
		default_content = NULL,
		updated_at = now()
		WHERE id = $1;`
		args = []any{id, patch.Name}
	} else {
		q = `
		UPDATE screens
		SET name = COALESCE($2, name),
		default_content = COALESCE($3, default_content),
		updated_at = now()
		WHERE id = $1;`
		args = []any{id, patch.Name, patch.DefaultContent}
	}

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		log.Error().Err(err).Str("screen_id", id).Msg("failed to update screen")
		return err
	}
	return affected(res)
}

// DeleteScreen removes the screen only; schedules that reference it are left in place.
func (s *pgStore) DeleteScreen(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM screens WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Str("screen_id", id).Msg("failed to delete screen")
		return err
	}
	return affected(res)
}
