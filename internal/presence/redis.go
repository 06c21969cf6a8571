// Package presence mirrors the hub's online state into Redis so external
// tooling can read who is online. It is a mirror only: the hub's
// in-memory set stays the source of truth and nothing is reconciled back
// on restart.
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceTTL = 24 * time.Hour

type Store struct {
	client *redis.Client
	prefix string
}

func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(userID string) string {
	return fmt.Sprintf("%s:presence:%s", s.prefix, userID)
}

func (s *Store) SetOnline(ctx context.Context, userID string) error {
	return s.set(ctx, userID, "online")
}

func (s *Store) SetOffline(ctx context.Context, userID string) error {
	return s.set(ctx, userID, "offline")
}

func (s *Store) set(ctx context.Context, userID, status string) error {
	payload, _ := json.Marshal(map[string]any{
		"status":    status,
		"last_seen": time.Now().Unix(),
	})
	return s.client.Set(ctx, s.key(userID), payload, presenceTTL).Err()
}

// Get returns the mirrored presence record, nil when none exists.
func (s *Store) Get(ctx context.Context, userID string) (map[string]any, error) {
	b, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
