package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/verdantfoods/storefront/internal/domain"
)

// RedisStorage implements CartStorage on Redis. Meant for shared-terminal
// deployments (kiosks) where carts must outlive a single machine.
type RedisStorage struct {
	client *redis.Client
	key    string
}

// NewRedisStorage creates a Redis-backed storage keyed by storeName.
func NewRedisStorage(client *redis.Client, storeName string) *RedisStorage {
	return &RedisStorage{
		client: client,
		key:    cartKey(storeName),
	}
}

// Load reads the snapshot from Redis.
func (s *RedisStorage) Load(ctx context.Context) (*domain.CartSnapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, errRead(err)
	}

	var snap domain.CartSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errRead(err)
	}

	return &snap, nil
}

// Save writes the snapshot to Redis. Snapshots do not expire; a cart stays
// around until cleared, matching local file behavior.
func (s *RedisStorage) Save(ctx context.Context, snap *domain.CartSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errWrite(err)
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return errWrite(err)
	}

	return nil
}

func cartKey(storeName string) string {
	return fmt.Sprintf("storefront:cart:%s", storeName)
}
