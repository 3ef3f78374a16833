package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

func sessionKey(sessionID string) string { return "pairing:session:" + sessionID }
func pinKey(pin string) string           { return "pairing:pin:" + pin }
func tokenKey(token string) string       { return "pairing:token:" + token }

// PairingStore keeps pairing requests until they expire.
type PairingStore struct {
	rdb *goredis.Client
}

func NewPairingStore(rdb *goredis.Client) *PairingStore {
	return &PairingStore{rdb: rdb}
}

// Create reserves req.PIN and stores the request, both for ttl.
// It returns ErrPINTaken when another live request holds the PIN.
func (s *PairingStore) Create(ctx context.Context, req model.PairingRequest, ttl time.Duration) error {
	ok, err := s.rdb.SetNX(ctx, pinKey(req.PIN), req.SessionID, ttl).Result()
	if err != nil {
		return fmt.Errorf("reserve pin: %w", err)
	}
	if !ok {
		return ErrPINTaken
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal pairing request: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(req.SessionID), payload, ttl).Err(); err != nil {
		s.rdb.Del(ctx, pinKey(req.PIN))
		return fmt.Errorf("store pairing request: %w", err)
	}
	return nil
}

func (s *PairingStore) Get(ctx context.Context, sessionID string) (model.PairingRequest, error) {
	var req model.PairingRequest
	raw, err := s.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return req, ErrNotFound
	}
	if err != nil {
		return req, fmt.Errorf("redis get %s: %w", sessionID, err)
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("unmarshal pairing request: %w", err)
	}
	return req, nil
}

// TakePIN consumes a live PIN and returns its session ID. Only one caller gets it.
func (s *PairingStore) TakePIN(ctx context.Context, pin string) (string, error) {
	id, err := s.rdb.GetDel(ctx, pinKey(pin)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrNotFound
	}
	return id, err
}

// Complete overwrites the request keeping its remaining TTL.
func (s *PairingStore) Complete(ctx context.Context, req model.PairingRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal pairing request: %w", err)
	}
	err = s.rdb.SetArgs(ctx, sessionKey(req.SessionID), payload, goredis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, goredis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("complete pairing request: %w", err)
	}
	return nil
}

func (s *PairingStore) PutToken(ctx context.Context, token, screenID string, ttl time.Duration) error {
	return s.rdb.Set(ctx, tokenKey(token), screenID, ttl).Err()
}

// TakeToken consumes a one-time token.
func (s *PairingStore) TakeToken(ctx context.Context, token string) (string, error) {
	screenID, err := s.rdb.GetDel(ctx, tokenKey(token)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrNotFound
	}
	return screenID, err
}
