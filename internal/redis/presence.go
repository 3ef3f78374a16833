package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

func presenceKey(adminID, screenID string) string {
	return fmt.Sprintf("presence:%s:%s", adminID, screenID)
}

// PresenceStore mirrors the live connection records of each screen as a set of connection IDs.
type PresenceStore struct {
	rdb *goredis.Client
}

func NewPresenceStore(rdb *goredis.Client) *PresenceStore {
	return &PresenceStore{rdb: rdb}
}

func (s *PresenceStore) Add(ctx context.Context, adminID, screenID, connectionID string) error {
	return s.rdb.SAdd(ctx, presenceKey(adminID, screenID), connectionID).Err()
}

func (s *PresenceStore) Remove(ctx context.Context, adminID, screenID, connectionID string) error {
	return s.rdb.SRem(ctx, presenceKey(adminID, screenID), connectionID).Err()
}

// Count returns how many connection records the screen currently has.
func (s *PresenceStore) Count(ctx context.Context, adminID, screenID string) (int64, error) {
	return s.rdb.SCard(ctx, presenceKey(adminID, screenID)).Result()
}

// Clear drops every record of a screen, used when the screen is deleted.
func (s *PresenceStore) Clear(ctx context.Context, adminID, screenID string) error {
	return s.rdb.Del(ctx, presenceKey(adminID, screenID)).Err()
}

// Reset drops the records of every screen. The registry calls it before replaying retained records.
func (s *PresenceStore) Reset(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, "presence:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
