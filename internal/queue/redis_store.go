package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisMetaStore persists queue metadata under a single namespace: one hash
// for the metadata map and one key for the day marker.
type RedisMetaStore struct {
	client  *redis.Client
	hashKey string
	dayKey  string
}

func NewRedisMetaStore(client *redis.Client, namespace string) *RedisMetaStore {
	return &RedisMetaStore{
		client:  client,
		hashKey: fmt.Sprintf("%s:queue:meta", namespace),
		dayKey:  fmt.Sprintf("%s:queue:day", namespace),
	}
}

func (s *RedisMetaStore) Get(ctx context.Context, id string) (*Metadata, error) {
	raw, err := s.client.HGet(ctx, s.hashKey, id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get queue metadata %s: %w", id, err)
	}

	var md Metadata
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return nil, fmt.Errorf("decode queue metadata %s: %w", id, err)
	}
	return &md, nil
}

func (s *RedisMetaStore) Put(ctx context.Context, md *Metadata) error {
	raw, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("encode queue metadata %s: %w", md.ID, err)
	}
	if err := s.client.HSet(ctx, s.hashKey, md.ID, raw).Err(); err != nil {
		return fmt.Errorf("put queue metadata %s: %w", md.ID, err)
	}
	return nil
}

func (s *RedisMetaStore) Delete(ctx context.Context, id string) error {
	if err := s.client.HDel(ctx, s.hashKey, id).Err(); err != nil {
		return fmt.Errorf("delete queue metadata %s: %w", id, err)
	}
	return nil
}

func (s *RedisMetaStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.hashKey, s.dayKey).Err(); err != nil {
		return fmt.Errorf("clear queue metadata: %w", err)
	}
	return nil
}

func (s *RedisMetaStore) All(ctx context.Context) ([]Metadata, error) {
	raw, err := s.client.HGetAll(ctx, s.hashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list queue metadata: %w", err)
	}

	result := make([]Metadata, 0, len(raw))
	for id, v := range raw {
		var md Metadata
		if err := json.Unmarshal([]byte(v), &md); err != nil {
			return nil, fmt.Errorf("decode queue metadata %s: %w", id, err)
		}
		result = append(result, md)
	}
	return result, nil
}

func (s *RedisMetaStore) Day(ctx context.Context) (string, error) {
	day, err := s.client.Get(ctx, s.dayKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("get day marker: %w", err)
	}
	return day, nil
}

func (s *RedisMetaStore) SetDay(ctx context.Context, day string) error {
	if err := s.client.Set(ctx, s.dayKey, day, 0).Err(); err != nil {
		return fmt.Errorf("set day marker: %w", err)
	}
	return nil
}
