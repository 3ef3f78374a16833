package db

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

// GetSettings returns the admin's settings, or empty settings when none were saved yet.
func (s *pgStore) GetSettings(ctx context.Context, adminID string) (model.Settings, error) {
	var st model.Settings
	err := s.db.GetContext(ctx, &st, `
		SELECT admin_owner_id, global_default_content
		FROM settings
		WHERE admin_owner_id = $1;`, adminID)
	if err = notFound(err); errors.Is(err, ErrNotFound) {
		return model.Settings{AdminOwnerID: adminID}, nil
	}
	return st, err
}

func (s *pgStore) PutSettings(ctx context.Context, st model.Settings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (admin_owner_id, global_default_content)
		VALUES ($1, $2)
		ON CONFLICT (admin_owner_id) DO UPDATE
		SET global_default_content = EXCLUDED.global_default_content;`,
		st.AdminOwnerID, st.GlobalDefaultContent)
	if err != nil {
		log.Error().Err(err).Str("admin_id", st.AdminOwnerID).Msg("failed to save settings")
	}
	return err
}
