package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "huddle:snapshot:"
	redisIndexKey  = "huddle:snapshots"
)

// RedisStorage implements Storage on a Redis instance. Snapshots are
// plain string values plus a set indexing their names.
type RedisStorage struct {
	client *redis.Client
}

// NewRedisStorage connects to Redis and verifies the connection.
func NewRedisStorage(address, password string, db, poolSize int) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         address,
		Password:     password,
		DB:           db,
		PoolSize:     poolSize,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStorage{client: client}, nil
}

// Save stores the snapshot payload under its name.
func (rs *RedisStorage) Save(ctx context.Context, name string, data io.Reader) error {
	payload, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read snapshot payload: %w", err)
	}

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+name, payload, 0)
	pipe.SAdd(ctx, redisIndexKey, name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save snapshot to Redis: %w", err)
	}
	return nil
}

// Load fetches the snapshot payload by name.
func (rs *RedisStorage) Load(ctx context.Context, name string) (io.ReadCloser, error) {
	data, err := rs.client.Get(ctx, redisKeyPrefix+name).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot from Redis: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// List returns snapshot names matching the prefix.
func (rs *RedisStorage) List(ctx context.Context, prefix string) ([]string, error) {
	members, err := rs.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots in Redis: %w", err)
	}

	var names []string
	for _, name := range members {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names, nil
}

// Delete removes a snapshot and its index entry.
func (rs *RedisStorage) Delete(ctx context.Context, name string) error {
	pipe := rs.client.TxPipeline()
	pipe.Del(ctx, redisKeyPrefix+name)
	pipe.SRem(ctx, redisIndexKey, name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete snapshot from Redis: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (rs *RedisStorage) Close() error {
	return rs.client.Close()
}
