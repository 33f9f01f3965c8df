package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/verdantfoods/storefront/internal"
	"github.com/verdantfoods/storefront/internal/domain"
)

// CartStorage defines the interface for durable client-local persistence of
// the cart snapshot. Implementations can use the local filesystem, Redis, or
// any other key-value backend.
//
// The snapshot keyed by the configured store name survives restarts of the
// client; there is no cross-device sync. Save is last-writer-wins with no
// transactional grouping.
type CartStorage interface {
	// Load reads the persisted snapshot.
	// Returns ErrSnapshotNotFound when nothing has been saved yet.
	Load(ctx context.Context) (*domain.CartSnapshot, error)

	// Save writes the snapshot, replacing any previous one.
	Save(ctx context.Context, snap *domain.CartSnapshot) error
}

// NewStorage creates a CartStorage implementation based on configuration.
// Returns LocalStorage for the "local" provider, RedisStorage for "redis".
func NewStorage(cfg internal.StorageConfig) (CartStorage, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocalStorage(cfg.LocalPath, cfg.StoreName)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		return NewRedisStorage(client, cfg.StoreName), nil
	default:
		return nil, ErrUnknownProvider(cfg.Provider)
	}
}
