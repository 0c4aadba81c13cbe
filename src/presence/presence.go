// Package presence tracks which mechanics are currently on shift. The marker
// lives in Redis with a TTL so a mechanic who disappears without clocking out
// stops receiving work once the shift window lapses.
package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "mechanic:onshift:"
	shiftTTL  = 8 * time.Hour
)

// Store is a Redis-backed on-shift marker.
type Store struct {
	client *redis.Client
}

// NewStore creates a presence store on top of an existing Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func key(mechanicID string) string {
	return keyPrefix + mechanicID
}

// MarkOnShift records the mechanic as available for the shift window.
func (s *Store) MarkOnShift(ctx context.Context, mechanicID string) error {
	return s.client.Set(ctx, key(mechanicID), "1", shiftTTL).Err()
}

// MarkOffShift clears the mechanic's availability marker.
func (s *Store) MarkOffShift(ctx context.Context, mechanicID string) error {
	return s.client.Del(ctx, key(mechanicID)).Err()
}

// OnShift reports whether the mechanic currently has an availability marker.
func (s *Store) OnShift(ctx context.Context, mechanicID string) (bool, error) {
	n, err := s.client.Exists(ctx, key(mechanicID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
