// Package cache provides a small Redis read-through layer for directory
// reads. The expert directory changes rarely and is read on every search
// keystroke, so a short TTL (60s by default) absorbs the hot path without a
// cache-invalidation protocol.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultTTL is the expiry applied when the caller passes a zero TTL.
const DefaultTTL = 60 * time.Second

// Store wraps a Redis client with JSON (de)serialization. A nil *Store is
// valid and degrades to always-miss, so callers can run without Redis in
// local development and tests.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// New builds a Store over the given Redis client.
func New(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl, log: log}
}

// GetJSON loads key into dest. It returns false on a miss; Redis errors are
// logged and reported as misses so the caller falls through to the source of
// truth.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) bool {
	if s == nil || s.rdb == nil {
		return false
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache entry corrupt")
		return false
	}
	return true
}

// SetJSON stores value under key with the configured TTL. Failures are
// logged and swallowed; the cache is best-effort.
func (s *Store) SetJSON(ctx context.Context, key string, value any) {
	if s == nil || s.rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Invalidate drops keys, e.g. after an administrative expert update.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if s == nil || s.rdb == nil || len(keys) == 0 {
		return
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.log.Warn().Err(err).Strs("keys", keys).Msg("cache invalidate failed")
	}
}
