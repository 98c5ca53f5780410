package kv

import (
	"context"
	"sync"
	"time"
)

type MapStoreOptions struct {
	DefaultTTL time.Duration `cfg:"defaultTTL"`
}

type entry[V any] struct {
	value    V
	expireAt time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

// MapStore 进程内存储，过期的键在读取时清理
type MapStore[V any] struct {
	mu         sync.RWMutex
	m          map[string]entry[V]
	defaultTTL time.Duration
}

func NewMapStoreWithOptions[V any](options *MapStoreOptions) *MapStore[V] {
	s := &MapStore[V]{m: make(map[string]entry[V])}
	if options != nil {
		s.defaultTTL = options.DefaultTTL
	}
	return s
}

func (s *MapStore[V]) Set(ctx context.Context, key string, value V, opts ...SetOption) error {
	options := newSetOptions(opts)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if options.IfNotExist {
		if e, ok := s.m[key]; ok && !e.expired(now) {
			return ErrConditionFailed
		}
	}

	e := entry[V]{value: value}
	ttl := options.Expiration
	if ttl == 0 {
		ttl = s.defaultTTL
	}
	if ttl > 0 {
		e.expireAt = now.Add(ttl)
	}
	s.m[key] = e
	return nil
}

func (s *MapStore[V]) Get(ctx context.Context, key string) (V, error) {
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()

	if !ok {
		var zero V
		return zero, ErrKeyNotFound
	}
	if e.expired(time.Now()) {
		s.mu.Lock()
		if cur, ok := s.m[key]; ok && cur.expired(time.Now()) {
			delete(s.m, key)
		}
		s.mu.Unlock()
		var zero V
		return zero, ErrKeyNotFound
	}
	return e.value, nil
}

func (s *MapStore[V]) Del(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *MapStore[V]) BatchGet(ctx context.Context, keys []string) ([]V, []error, error) {
	values := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, key := range keys {
		values[i], errs[i] = s.Get(ctx, key)
	}
	return values, errs, nil
}

func (s *MapStore[V]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = make(map[string]entry[V])
	return nil
}
