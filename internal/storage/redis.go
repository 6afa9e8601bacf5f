package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const lockExpiry = 30 * time.Second

// RedisStore keeps records under "<namespace>:<key>"
type RedisStore struct {
	client    redis.UniversalClient
	rs        *redsync.Redsync
	namespace string
}

// NewRedisStore connects with a redis:// URL and pings the server
func NewRedisStore(ctx context.Context, url, namespace string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client, namespace), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client redis.UniversalClient, namespace string) *RedisStore {
	return &RedisStore{
		client:    client,
		rs:        redsync.New(goredis.NewPool(client)),
		namespace: namespace,
	}
}

func (s *RedisStore) key(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Put stores value without expiry
func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Lock takes a redis mutex for key, shared by every process using the namespace
func (s *RedisStore) Lock(ctx context.Context, key string) (func() error, error) {
	mutex := s.rs.NewMutex(s.key("lock:"+key), redsync.WithExpiry(lockExpiry))
	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("redis lock %s: %w", key, err)
	}
	return func() error {
		_, err := mutex.Unlock()
		return err
	}, nil
}

// Client exposes the connection for other redis-backed components
func (s *RedisStore) Client() redis.UniversalClient {
	return s.client
}

// Namespace is the key prefix of this store
func (s *RedisStore) Namespace() string {
	return s.namespace
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
