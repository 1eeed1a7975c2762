package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fjod/go_storefront/internal/domain"
)

const (
	defaultTTL = 15 * time.Minute
	maxJitter  = 5 // minutes
)

// NewRedisStore stores the catalog of one API path under "catalog:<apiPath>".
func NewRedisStore(client *redis.Client, apiPath string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{
		client:  client,
		key:     storeKey(apiPath),
		baseTTL: ttl,
	}
}

type RedisStore struct {
	client  *redis.Client
	key     string
	baseTTL time.Duration
}

func (r *RedisStore) Load(ctx context.Context) ([]domain.Product, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStoreMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("unmarshal products failed: %w", err)
	}
	return products, nil
}

func (r *RedisStore) Save(ctx context.Context, products []domain.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal products failed: %w", err)
	}

	// base TTL plus up to maxJitter minutes
	jitter := time.Duration(rand.Intn(maxJitter)) * time.Minute
	if err := r.client.Set(ctx, r.key, data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func storeKey(apiPath string) string {
	return fmt.Sprintf("catalog:%s", apiPath)
}
