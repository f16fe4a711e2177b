package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/policyqa/internal/db"
)

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.b().Get().Key(key).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Set stores a value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value that expires after ttl. A non-positive ttl stores it without expiry.
// TTLs under a second are sent as PX so they are not truncated to zero.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	set := s.b().Set().Key(key).Value(string(value))
	var cmd rueidis.Completed
	switch {
	case ttl <= 0:
		cmd = set.Build()
	case ttl < time.Second:
		cmd = set.PxMilliseconds(ttl.Milliseconds()).Build()
	default:
		cmd = set.Ex(ttl).Build()
	}
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// IncrBy atomically increments a budget counter.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	cmd := s.b().Incrby().Key(key).Increment(val).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpIncrBy, Err: err}
	}
	return nil
}

// Expire sets TTL on a key, rounded up to whole seconds. With nx the TTL is only
// applied while the key has none, so a counter keeps the expiry of its first write.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	if ttl <= 0 {
		return &db.Error{Op: db.OpExpire, Err: fmt.Errorf("non-positive ttl %s for %s", ttl, key)}
	}
	secs := int64((ttl + time.Second - 1) / time.Second)
	exp := s.b().Expire().Key(key).Seconds(secs)
	var cmd rueidis.Completed
	if nx {
		cmd = exp.Nx().Build()
	} else {
		cmd = exp.Build()
	}
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpExpire, Err: err}
	}
	return nil
}
