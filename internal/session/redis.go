package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisStore keeps JSON-encoded states under prefixed keys with a sliding
// TTL. Update uses WATCH/MULTI for optimistic locking across processes.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	now    func() time.Time
	logger *zap.Logger
}

func (s *redisStore) redisKey(key string) string {
	return s.prefix + key
}

func (s *redisStore) Get(ctx context.Context, key string) (*State, error) {
	rk := s.redisKey(key)
	val, err := s.client.Get(ctx, rk).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %q: %w", key, err)
	}

	var st State
	if err := json.Unmarshal(val, &st); err != nil {
		return nil, fmt.Errorf("decode session %q: %w", key, err)
	}

	// Refresh TTL on read. The state is still usable if this fails.
	if err := s.client.Expire(ctx, rk, s.ttl).Err(); err != nil {
		s.logger.Warn("refresh session ttl failed", zap.String("session", key), zap.Error(err))
	}
	return &st, nil
}

func (s *redisStore) Create(ctx context.Context, st *State) error {
	now := s.now()
	st.CreatedAt = now
	st.UpdatedAt = now
	st.Version = 1

	val, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session %q: %w", st.Key, err)
	}
	ok, err := s.client.SetNX(ctx, s.redisKey(st.Key), val, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create session %q: %w", st.Key, err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (s *redisStore) Update(ctx context.Context, st *State) error {
	rk := s.redisKey(st.Key)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, rk).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var stored State
		if err := json.Unmarshal(val, &stored); err != nil {
			return fmt.Errorf("decode session %q: %w", st.Key, err)
		}
		if stored.Version != st.Version {
			return ErrVersionConflict
		}

		next := st.Clone()
		next.Version++
		next.UpdatedAt = s.now()
		newVal, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode session %q: %w", st.Key, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, newVal, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		st.Version = next.Version
		st.UpdatedAt = next.UpdatedAt
		return nil
	}, rk)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	return err
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("delete session %q: %w", key, err)
	}
	return nil
}

func (s *redisStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
