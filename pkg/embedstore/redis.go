package embedstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisHashKey = "voicegate:embeddings"

// redisRecord 哈希字段中存储的JSON结构
type redisRecord struct {
	Vector    []float32 `json:"vector"`
	CreatedAt time.Time `json:"created_at"`
}

// redisStore keeps embeddings in a single redis hash keyed by speaker name
type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a redis-backed embedding store
func NewRedisStore(addr, password string, db int) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &redisStore{client: client}, nil
}

func (s *redisStore) Put(ctx context.Context, name string, vector []float32) error {
	payload, err := json.Marshal(redisRecord{Vector: vector, CreatedAt: time.Now()})
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, redisHashKey, name, payload).Err()
}

func (s *redisStore) Get(ctx context.Context, name string) (*Record, error) {
	raw, err := s.client.HGet(ctx, redisHashKey, name).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var stored redisRecord
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("decode embedding for %s failed: %w", name, err)
	}
	return &Record{SpeakerName: name, Vector: stored.Vector, CreatedAt: stored.CreatedAt}, nil
}

func (s *redisStore) List(ctx context.Context) ([]string, error) {
	names, err := s.client.HKeys(ctx, redisHashKey).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *redisStore) Records(ctx context.Context) ([]Record, error) {
	entries, err := s.client.HGetAll(ctx, redisHashKey).Result()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	records := make([]Record, 0, len(names))
	for _, name := range names {
		var stored redisRecord
		if err := json.Unmarshal([]byte(entries[name]), &stored); err != nil {
			return nil, fmt.Errorf("decode embedding for %s failed: %w", name, err)
		}
		records = append(records, Record{SpeakerName: name, Vector: stored.Vector, CreatedAt: stored.CreatedAt})
	}
	return records, nil
}

func (s *redisStore) Delete(ctx context.Context, name string) error {
	removed, err := s.client.HDel(ctx, redisHashKey, name).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}
