package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"msgboard/internal/common"
	"msgboard/internal/domain/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// Store holds the transient association between a session ID and the
// sanitized current user.
type Store interface {
	Create(ctx context.Context, user model.CurrentUser) (string, error)
	Get(ctx context.Context, id string) (*model.CurrentUser, error)
	Destroy(ctx context.Context, id string) error
}

type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	return &redisStore{rdb: rdb, ttl: ttl}
}

func (s *redisStore) Create(ctx context.Context, user model.CurrentUser) (string, error) {
	payload, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("redisStore.Create marshal: %w", err)
	}
	id := uuid.NewString()
	if err := s.rdb.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("redisStore.Create: %w", err)
	}
	return id, nil
}

// Get returns common.ErrNotFound for unknown or expired sessions.
func (s *redisStore) Get(ctx context.Context, id string) (*model.CurrentUser, error) {
	payload, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("redisStore.Get: %w", err)
	}
	user := &model.CurrentUser{}
	if err := json.Unmarshal(payload, user); err != nil {
		return nil, fmt.Errorf("redisStore.Get unmarshal: %w", err)
	}
	return user, nil
}

func (s *redisStore) Destroy(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redisStore.Destroy: %w", err)
	}
	return nil
}
