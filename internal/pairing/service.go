// Package pairing issues PINs to unpaired screens and redeems them on behalf of admins.
package pairing

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/apierr"
	"github.com/Nixie-Tech-LLC/lumen/internal/auth"
	"github.com/Nixie-Tech-LLC/lumen/internal/db"
	"github.com/Nixie-Tech-LLC/lumen/internal/metrics"
	"github.com/Nixie-Tech-LLC/lumen/internal/model"
	"github.com/Nixie-Tech-LLC/lumen/internal/redis"
)

const (
	PINLifetime   = 5 * time.Minute
	TokenLifetime = 5 * time.Minute

	maxPINAttempts = 5
)

type Store interface {
	Create(ctx context.Context, req model.PairingRequest, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (model.PairingRequest, error)
	TakePIN(ctx context.Context, pin string) (string, error)
	Complete(ctx context.Context, req model.PairingRequest) error
	PutToken(ctx context.Context, token, screenID string, ttl time.Duration) error
	TakeToken(ctx context.Context, token string) (string, error)
}

type Screens interface {
	GetScreen(ctx context.Context, id string) (model.Screen, error)
}

type Service struct {
	store   Store
	screens Screens
	metrics metrics.Metrics
	secret  string

	now    func() time.Time
	newPIN func() string
}

func NewService(store Store, screens Screens, m metrics.Metrics, secret string) *Service {
	return &Service{
		store:   store,
		screens: screens,
		metrics: m,
		secret:  secret,
		now:     time.Now,
		newPIN:  randomPIN,
	}
}

// randomPIN returns a 6-digit PIN without a leading zero.
func randomPIN() string {
	return fmt.Sprintf("%06d", 100000+rand.IntN(900000))
}

// GeneratePairingCode creates a pending request that expires after PINLifetime.
func (s *Service) GeneratePairingCode(ctx context.Context) (model.PairingCode, error) {
	sessionID := uuid.NewString()

	for attempt := 0; attempt < maxPINAttempts; attempt++ {
		req := model.PairingRequest{
			SessionID: sessionID,
			PIN:       s.newPIN(),
			Status:    model.PairingPending,
			ExpiresAt: s.now().Add(PINLifetime),
		}
		err := s.store.Create(ctx, req, PINLifetime)
		if errors.Is(err, redis.ErrPINTaken) {
			continue
		}
		if err != nil {
			log.Error().Err(err).Msg("failed to store pairing request")
			return model.PairingCode{}, apierr.Wrap(err, apierr.ErrInternal.Code, apierr.ErrInternal.Status, "could not create pairing request")
		}

		s.metrics.IncPairingCodes()
		log.Info().Str("session_id", sessionID).Msg("pairing code issued")
		return model.PairingCode{PIN: req.PIN, SessionID: sessionID}, nil
	}
	return model.PairingCode{}, apierr.Clone(apierr.ErrConflict, "could not allocate a unique pin")
}

// CompletePairing binds the pending request holding pin to screenID and issues a one-time token for it.
// An expired PIN and an unknown PIN are both reported as not-found.
func (s *Service) CompletePairing(ctx context.Context, adminID, pin, screenID string) error {
	err := s.completePairing(ctx, adminID, pin, screenID)
	if err != nil {
		s.metrics.IncPairingFailures(apierr.FromError(err).Code)
		return err
	}
	s.metrics.IncPairingsCompleted()
	return nil
}

func (s *Service) completePairing(ctx context.Context, adminID, pin, screenID string) error {
	if adminID == "" {
		return apierr.Clone(apierr.ErrUnauthenticated, "admin identity required")
	}
	if pin == "" || screenID == "" {
		return apierr.Clone(apierr.ErrInvalidArgument, "pin and screen_id are required")
	}

	screen, err := s.screens.GetScreen(ctx, screenID)
	if errors.Is(err, db.ErrNotFound) {
		return apierr.Clone(apierr.ErrNotFound, "screen not found")
	}
	if err != nil {
		return apierr.Wrap(err, apierr.ErrInternal.Code, apierr.ErrInternal.Status, "could not load screen")
	}
	if screen.AdminOwnerID != adminID {
		return apierr.Clone(apierr.ErrPermissionDenied, "screen belongs to another admin")
	}

	req, err := s.pendingRequest(ctx, pin)
	if err != nil {
		return err
	}

	token := uuid.NewString()
	if err := s.store.PutToken(ctx, token, screenID, TokenLifetime); err != nil {
		return apierr.Wrap(err, apierr.ErrInternal.Code, apierr.ErrInternal.Status, "could not issue token")
	}

	req.Status = model.PairingCompleted
	req.CustomToken = token
	req.PairedScreenID = screenID
	req.PairedBy = adminID
	if err := s.store.Complete(ctx, req); err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return apierr.Clone(apierr.ErrNotFound, "no pending pairing request for this pin")
		}
		return apierr.Wrap(err, apierr.ErrInternal.Code, apierr.ErrInternal.Status, "could not complete pairing")
	}

	log.Info().Str("session_id", req.SessionID).Str("screen_id", screenID).Msg("pairing completed")
	return nil
}

func (s *Service) pendingRequest(ctx context.Context, pin string) (model.PairingRequest, error) {
	notFound := apierr.Clone(apierr.ErrNotFound, "no pending pairing request for this pin")

	// taking the PIN is the redemption gate: of concurrent redemptions only one gets the session
	sessionID, err := s.store.TakePIN(ctx, pin)
	if errors.Is(err, redis.ErrNotFound) {
		return model.PairingRequest{}, notFound
	}
	if err != nil {
		return model.PairingRequest{}, apierr.Wrap(err, apierr.ErrInternal.Code, apierr.ErrInternal.Status, "could not look up pin")
	}

	req, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, redis.ErrNotFound) {
		return model.PairingRequest{}, notFound
	}
	if err != nil {
		return model.PairingRequest{}, apierr.Wrap(err, apierr.ErrInternal.Code, apierr.ErrInternal.Status, "could not load pairing request")
	}
	if req.Status != model.PairingPending || !s.now().Before(req.ExpiresAt) {
		return model.PairingRequest{}, notFound
	}
	return req, nil
}

// Status returns the current state of a pairing session.
func (s *Service) Status(ctx context.Context, sessionID string) (model.PairingRequest, error) {
	req, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, redis.ErrNotFound) {
		return model.PairingRequest{}, apierr.Clone(apierr.ErrNotFound, "pairing session not found")
	}
	if err != nil {
		return model.PairingRequest{}, apierr.Wrap(err, apierr.ErrInternal.Code, apierr.ErrInternal.Status, "could not load pairing session")
	}
	return req, nil
}

// ExchangeToken consumes a one-time token and returns a long-lived screen session.
func (s *Service) ExchangeToken(ctx context.Context, token string) (model.ScreenSession, error) {
	if token == "" {
		return model.ScreenSession{}, apierr.Clone(apierr.ErrInvalidArgument, "token is required")
	}

	screenID, err := s.store.TakeToken(ctx, token)
	if errors.Is(err, redis.ErrNotFound) {
		return model.ScreenSession{}, apierr.Clone(apierr.ErrUnauthenticated, "token is invalid or already used")
	}
	if err != nil {
		return model.ScreenSession{}, apierr.Wrap(err, apierr.ErrInternal.Code, apierr.ErrInternal.Status, "could not redeem token")
	}

	if _, err := s.screens.GetScreen(ctx, screenID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return model.ScreenSession{}, apierr.Clone(apierr.ErrNotFound, "screen not found")
		}
		return model.ScreenSession{}, apierr.Wrap(err, apierr.ErrInternal.Code, apierr.ErrInternal.Status, "could not load screen")
	}

	jwt, err := auth.GenerateJWT(screenID, auth.KindScreen, s.secret, auth.ScreenTokenTTL)
	if err != nil {
		return model.ScreenSession{}, apierr.Wrap(err, apierr.ErrInternal.Code, apierr.ErrInternal.Status, "could not sign session")
	}
	return model.ScreenSession{ScreenID: screenID, Token: jwt}, nil
}
