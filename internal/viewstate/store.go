// Package viewstate persists per-session view state records.
package viewstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrInvalidKey is returned for blank session or view names.
var ErrInvalidKey = errors.New("viewstate: session and view are required")

// Store loads and saves view state as JSON.
type Store interface {
	// Load decodes the saved state into dst; found is false when nothing is saved.
	Load(ctx context.Context, session, view string, dst any) (found bool, err error)
	Save(ctx context.Context, session, view string, v any) error
	// Delete drops every view of the session.
	Delete(ctx context.Context, session string) error
}

// RedisStore keeps each view under console:view:{session}:{view} and indexes
// the views of a session in a set so the session can be dropped at once.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed store. A zero ttl keeps keys forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: client, ttl: ttl}
}

func (s *RedisStore) key(session, view string) string {
	return fmt.Sprintf("console:view:%s:%s", session, view)
}

func (s *RedisStore) indexKey(session string) string {
	return fmt.Sprintf("console:session:%s", session)
}

func (s *RedisStore) Load(ctx context.Context, session, view string, dst any) (bool, error) {
	if session == "" || view == "" {
		return false, ErrInvalidKey
	}
	data, err := s.redis.Get(ctx, s.key(session, view)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("viewstate: get %s: %w", view, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("viewstate: unmarshal %s: %w", view, err)
	}
	return true, nil
}

func (s *RedisStore) Save(ctx context.Context, session, view string, v any) error {
	if session == "" || view == "" {
		return ErrInvalidKey
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("viewstate: marshal %s: %w", view, err)
	}
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(session, view), data, s.ttl)
		pipe.SAdd(ctx, s.indexKey(session), view)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.indexKey(session), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("viewstate: set %s: %w", view, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, session string) error {
	if session == "" {
		return ErrInvalidKey
	}
	views, err := s.redis.SMembers(ctx, s.indexKey(session)).Result()
	if err != nil {
		return fmt.Errorf("viewstate: list session views: %w", err)
	}
	keys := make([]string, 0, len(views)+1)
	for _, v := range views {
		keys = append(keys, s.key(session, v))
	}
	keys = append(keys, s.indexKey(session))
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("viewstate: delete session: %w", err)
	}
	return nil
}

// MemoryStore is the in-process fallback used when Redis is not configured.
// Entries expire lazily on read.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]map[string]memoryEntry
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]map[string]memoryEntry)}
}

func (s *MemoryStore) Load(_ context.Context, session, view string, dst any) (bool, error) {
	if session == "" || view == "" {
		return false, ErrInvalidKey
	}
	s.mu.Lock()
	e, ok := s.entries[session][view]
	if ok && !e.expires.IsZero() && s.now().After(e.expires) {
		delete(s.entries[session], view)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dst); err != nil {
		return false, fmt.Errorf("viewstate: unmarshal %s: %w", view, err)
	}
	return true, nil
}

func (s *MemoryStore) Save(_ context.Context, session, view string, v any) error {
	if session == "" || view == "" {
		return ErrInvalidKey
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("viewstate: marshal %s: %w", view, err)
	}
	e := memoryEntry{data: data}
	if s.ttl > 0 {
		e.expires = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[session] == nil {
		s.entries[session] = make(map[string]memoryEntry)
	}
	s.entries[session][view] = e
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, session string) error {
	if session == "" {
		return ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, session)
	return nil
}
