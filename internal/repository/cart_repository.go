package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shopmi-api/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrCartNotFound = errors.New("cart not found")
)

// cartKeyPrefix is the fixed key namespace carts are serialized under.
const cartKeyPrefix = "cart:"

// cartTTL bounds how long an abandoned cart survives.
const cartTTL = 30 * 24 * time.Hour

// CartRepository persists the full line-item list of a session cart.
type CartRepository interface {
	Save(ctx context.Context, sessionID string, items []domain.CartItem) error
	Load(ctx context.Context, sessionID string) ([]domain.CartItem, error)
	Delete(ctx context.Context, sessionID string) error
}

type redisCartRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCartRepository creates a redis-backed CartRepository.
func NewCartRepository(client *redis.Client, logger *zap.Logger) CartRepository {
	return &redisCartRepository{client: client, logger: logger}
}

func cartKey(sessionID string) string {
	return cartKeyPrefix + sessionID
}

// Save serializes the whole cart under the session key. Called synchronously
// on every mutation.
func (r *redisCartRepository) Save(ctx context.Context, sessionID string, items []domain.CartItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to serialize cart: %w", err)
	}
	if err := r.client.Set(ctx, cartKey(sessionID), payload, cartTTL).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Load deserializes a previously saved cart. A malformed stored value is
// discarded and reported as ErrCartNotFound so the caller starts empty.
func (r *redisCartRepository) Load(ctx context.Context, sessionID string) ([]domain.CartItem, error) {
	payload, err := r.client.Get(ctx, cartKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var items []domain.CartItem
	if err := json.Unmarshal(payload, &items); err != nil {
		r.logger.Warn("Discarding malformed stored cart",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, ErrCartNotFound
	}
	return items, nil
}

func (r *redisCartRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
