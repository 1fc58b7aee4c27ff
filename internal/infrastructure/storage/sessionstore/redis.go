package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"nedlog/internal/core/apperror"
	"nedlog/internal/domain/session"
)

const (
	defaultKeyPrefix  = "nedlog:session:"
	maxUpdateAttempts = 5
)

// RedisStore keeps encoded sessions in Redis under a TTL.
type RedisStore struct {
	client *redis.Client
	codec  *Codec
	ttl    time.Duration
	prefix string
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and pings it.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return client, nil
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, codec *Codec, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, codec: codec, ttl: ttl, prefix: defaultKeyPrefix}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

// Save stores s and resets its TTL.
func (r *RedisStore) Save(ctx context.Context, s *session.Session) error {
	data, err := r.codec.Encode(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get loads a session.
func (r *RedisStore) Get(ctx context.Context, id string) (*session.Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.NotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return r.codec.Decode(data)
}

// Update applies fn inside an optimistic WATCH/MULTI transaction. The TTL is kept.
func (r *RedisStore) Update(ctx context.Context, id string, fn func(*session.Session) error) (*session.Session, error) {
	key := r.key(id)
	var updated *session.Session

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return session.NotFound(id)
		}
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}

		s, err := r.codec.Decode(data)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		encoded, err := r.codec.Encode(s)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, redis.KeepTTL)
			return nil
		})
		if err == nil {
			updated = s
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, apperror.NewConflict("analysis session was modified concurrently")
}

// Delete removes a session.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

var _ session.Store = (*RedisStore)(nil)
