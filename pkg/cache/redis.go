package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

var (
	// ErrMiss 表示 key 不存在
	ErrMiss = errors.New("cache: miss")
	// ErrStale 表示读取后版本号已变化，本次写入被放弃
	ErrStale = errors.New("cache: stale version")
)

type RedisClient struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
}

func NewRedisClient(addr, password string, db, poolSize, minIdleConns int, log *logrus.Logger) *RedisClient {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     poolSize,
		MinIdleConns: minIdleConns,
	})

	return NewFromClient(client, log)
}

// NewFromClient 包装已有连接，测试里配合 miniredis 使用
func NewFromClient(client *redis.Client, log *logrus.Logger) *RedisClient {
	st := gobreaker.Settings{
		Name:        "RedisCircuitBreaker",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("CircuitBreaker %s state changed from %s to %s", name, from, to)
		},
		// key 不存在、版本过期都不算失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMiss) || errors.Is(err, ErrStale)
		},
	}

	return &RedisClient{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(st),
	}
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	_, err = r.cb.Execute(func() (interface{}, error) {
		return nil, r.client.Set(ctx, key, data, expiration).Err()
	})
	return err
}

// GetJSON key 不存在时返回 ErrMiss
func (r *RedisClient) GetJSON(ctx context.Context, key string, dest interface{}) error {
	val, err := r.cb.Execute(func() (interface{}, error) {
		data, err := r.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return nil, ErrMiss
		}
		if err != nil {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(val.([]byte), dest)
}

func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, r.client.Del(ctx, keys...).Err()
	})
	return err
}

// Version 读取版本号，不存在时为 0
func (r *RedisClient) Version(ctx context.Context, versionKey string) (int64, error) {
	val, err := r.cb.Execute(func() (interface{}, error) {
		n, err := r.client.Get(ctx, versionKey).Int64()
		if err == redis.Nil {
			return int64(0), nil
		}
		return n, err
	})
	if err != nil {
		return 0, err
	}
	return val.(int64), nil
}

// SetJSONIfVersion 仅当 versionKey 仍等于 version 时写入，否则返回 ErrStale
func (r *RedisClient) SetJSONIfVersion(ctx context.Context, versionKey string, version int64, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	_, err = r.cb.Execute(func() (interface{}, error) {
		return nil, r.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, versionKey).Int64()
			if err != nil && err != redis.Nil {
				return err
			}
			if current != version {
				return ErrStale
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, expiration)
				return nil
			})
			if err == redis.TxFailedErr {
				return ErrStale
			}
			return err
		}, versionKey)
	})
	return err
}

// Invalidate 在一个事务里递增版本号并删除缓存，进行中的 SetJSONIfVersion 会放弃写入
func (r *RedisClient) Invalidate(ctx context.Context, versionTTL time.Duration, versionKeys []string, keys ...string) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, vk := range versionKeys {
				pipe.Incr(ctx, vk)
				pipe.Expire(ctx, vk, versionTTL)
			}
			if len(keys) > 0 {
				pipe.Del(ctx, keys...)
			}
			return nil
		})
		return nil, err
	})
	return err
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
