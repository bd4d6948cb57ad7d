package persistence

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/medical-portal/internal/config"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// RedisKV stores each document as a string value under prefix+key.
type RedisKV struct {
	redis  *Redis
	prefix string
}

// NewRedisKV builds a KVStore over a connected client.
func NewRedisKV(r *Redis, prefix string) *RedisKV {
	return &RedisKV{redis: r, prefix: prefix}
}

func (s *RedisKV) client() (*redis.Client, error) {
	if s.redis == nil || s.redis.Client == nil {
		return nil, ErrStoreUnavailable
	}
	return s.redis.Client, nil
}

func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}
	val, err := client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	client, err := s.client()
	if err != nil {
		return err
	}
	return client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *RedisKV) Delete(ctx context.Context, keys ...string) error {
	client, err := s.client()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return client.Del(ctx, s.prefixed(keys)...).Err()
}

// Apply runs the batch inside MULTI/EXEC.
func (s *RedisKV) Apply(ctx context.Context, batch Batch) error {
	client, err := s.client()
	if err != nil {
		return err
	}
	if batch.Empty() {
		return nil
	}
	_, err = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(batch.Deletes) > 0 {
			pipe.Del(ctx, s.prefixed(batch.Deletes)...)
		}
		for key, value := range batch.Sets {
			pipe.Set(ctx, s.prefix+key, value, 0)
		}
		return nil
	})
	return err
}

func (s *RedisKV) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx)
}

func (s *RedisKV) Close() error {
	s.redis.Close()
	return nil
}

func (s *RedisKV) prefixed(keys []string) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = s.prefix + key
	}
	return out
}
