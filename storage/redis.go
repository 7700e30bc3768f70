package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const opTimeout = 5 * time.Second

// Redis stores each namespace as one hash: storage:<namespace>.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// OpenRedis initializes a Redis connection pool and pings it.
func OpenRedis(ctx context.Context, dsn string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opt.PoolSize = 100
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedis(client, ttl), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Scope(namespace string) Storage {
	return &redisScope{r: r, key: "storage:" + namespace}
}

func (r *Redis) Close() error { return r.client.Close() }

type redisScope struct {
	r   *Redis
	key string
}

func (s *redisScope) Get(ctx context.Context, field string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var v string
	var err error
	if s.r.ttl > 0 {
		// a read counts as activity and renews the namespace
		var get *redis.StringCmd
		_, err = s.r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			get = pipe.HGet(ctx, s.key, field)
			pipe.Expire(ctx, s.key, s.r.ttl)
			return nil
		})
		if get != nil {
			v, err = get.Result()
		}
	} else {
		v, err = s.r.client.HGet(ctx, s.key, field).Result()
	}
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis hget %s: %w", field, err)
	}
	return v, nil
}

func (s *redisScope) Set(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	values := make(map[string]any, len(entries))
	for k, v := range entries {
		values[k] = v
	}

	_, err := s.r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key, values)
		if s.r.ttl > 0 {
			pipe.Expire(ctx, s.key, s.r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (s *redisScope) Remove(ctx context.Context, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := s.r.client.HDel(ctx, s.key, fields...).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}

func (s *redisScope) SetIfAbsent(ctx context.Context, field, value string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var get *redis.StringCmd
	_, err := s.r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, s.key, field, value)
		get = pipe.HGet(ctx, s.key, field)
		if s.r.ttl > 0 {
			pipe.Expire(ctx, s.key, s.r.ttl)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("redis hsetnx %s: %w", field, err)
	}
	return get.Val(), nil
}
