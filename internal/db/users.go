package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

const userColumns = `id, email, hashed_password, name, created_at, updated_at`

func (s *pgStore) CreateUser(ctx context.Context, email, hashedPassword string, name *string) (model.User, error) {
	var u model.User
	const q = `
	INSERT INTO users (id, email, hashed_password, name, created_at, updated_at)
	VALUES ($1, $2, $3, $4, now(), now())
	RETURNING ` + userColumns + `;`
	if err := s.db.GetContext(ctx, &u, q, uuid.NewString(), email, hashedPassword, name); err != nil {
		log.Error().Err(err).Str("email", email).Msg("failed to create user")
		return model.User{}, err
	}
	return u, nil
}

func (s *pgStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = $1;`, email)
	return u, notFound(err)
}

func (s *pgStore) GetUserByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1;`, id)
	return u, notFound(err)
}
