package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ananyabshetty/SQL-Detective-Game/internal/models"
)

// DefaultProgressTTL keeps idle player state around for a month before Redis
// reclaims it.
const DefaultProgressTTL = 30 * 24 * time.Hour

// RedisStore persists progress as one JSON blob per player.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies connectivity.
func NewRedisStore(address, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultProgressTTL
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func progressKey(playerID string) string {
	return "player:" + playerID + ":progress"
}

func (s *RedisStore) Get(ctx context.Context, playerID string) (*models.Progress, error) {
	data, err := s.client.Get(ctx, progressKey(playerID)).Bytes()
	if err == redis.Nil {
		return models.NewProgress(playerID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load progress for %s: %w", playerID, err)
	}

	var progress models.Progress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("failed to decode progress for %s: %w", playerID, err)
	}
	if progress.Attempts == nil {
		progress.Attempts = make(map[int]int)
	}
	if progress.LevelStartTimes == nil {
		progress.LevelStartTimes = make(map[int]time.Time)
	}
	return &progress, nil
}

func (s *RedisStore) Save(ctx context.Context, progress *models.Progress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to encode progress for %s: %w", progress.PlayerID, err)
	}
	if err := s.client.Set(ctx, progressKey(progress.PlayerID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save progress for %s: %w", progress.PlayerID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, playerID string) error {
	if err := s.client.Del(ctx, progressKey(playerID)).Err(); err != nil {
		return fmt.Errorf("failed to delete progress for %s: %w", playerID, err)
	}
	return nil
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
