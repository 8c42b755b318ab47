package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on top of plain Redis string keys.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to Redis. url may be a redis:// URL or a bare host:port.
func NewRedis(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opt.Addr, err)
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

func (r *RedisStore) key(namespace string) string {
	return r.prefix + namespace
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Get(ctx context.Context, namespace string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(namespace)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", namespace, err)
	}
	return val, nil
}

func (r *RedisStore) Put(ctx context.Context, namespace string, value []byte) error {
	if err := r.client.Set(ctx, r.key(namespace), value, 0).Err(); err != nil {
		return fmt.Errorf("put blob %s: %w", namespace, err)
	}
	return nil
}
