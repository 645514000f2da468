// Package idempotency remembers which order an Idempotency-Key produced.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	"bazaar/internal/repos"
)

const Header = "Idempotency-Key"

// ErrInFlight means another request holding the same key has not finished.
var ErrInFlight = errors.New("request with this idempotency key is in progress")

type Store interface {
	// Reserve claims key. It returns the stored order id on a replay and ""
	// when the caller now owns the key.
	Reserve(ctx context.Context, key string) (string, error)
	Complete(ctx context.Context, key, orderID string) error
	// Release drops an unfinished reservation so the client can retry.
	Release(ctx context.Context, key string) error
}

// Scope keeps keys from different users apart.
func Scope(userID, key string) string { return userID + ":" + key }

type SQLStore struct{ repo *repos.IdempotencyRepo }

func NewSQLStore(db *sqlx.DB) *SQLStore { return &SQLStore{repo: repos.NewIdempotencyRepo(db)} }

func (s *SQLStore) Reserve(ctx context.Context, key string) (string, error) {
	ok, err := s.repo.Claim(ctx, key)
	if err != nil || ok {
		return "", err
	}
	id, _, err := s.repo.OrderID(ctx, key)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", ErrInFlight
	}
	return id, nil
}

func (s *SQLStore) Complete(ctx context.Context, key, orderID string) error {
	return s.repo.Complete(ctx, key, orderID)
}

func (s *SQLStore) Release(ctx context.Context, key string) error {
	return s.repo.Release(ctx, key)
}

const pending = "pending"

type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, prefix: "bazaar:idem:", ttl: ttl}
}

// DialRedis parses a redis:// URL and pings the server.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (s *RedisStore) Reserve(ctx context.Context, key string) (string, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, pending, s.ttl).Result()
	if err != nil || ok {
		return "", err
	}
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between the two calls; try once more.
		return s.Reserve(ctx, key)
	}
	if err != nil {
		return "", err
	}
	if v == pending {
		return "", ErrInFlight
	}
	return v, nil
}

func (s *RedisStore) Complete(ctx context.Context, key, orderID string) error {
	return s.client.Set(ctx, s.prefix+key, orderID, s.ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if v != pending {
		return nil
	}
	return s.client.Del(ctx, s.prefix+key).Err()
}
