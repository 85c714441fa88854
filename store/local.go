package store

import (
	"context"
	"sync"
	"time"
)

type LocalStore struct {
	entries map[string]localEntry
	mu      sync.RWMutex
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type localEntry struct {
	value  []byte
	expiry time.Time
}

func (e localEntry) expired(now time.Time) bool {
	return !e.expiry.IsZero() && now.After(e.expiry)
}

// NewLocalStore returns an in-memory cache swept every sweep interval.
func NewLocalStore(sweep time.Duration) *LocalStore {
	s := &LocalStore{
		entries: make(map[string]localEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if sweep <= 0 {
		sweep = 5 * time.Minute
	}
	go s.cleanupLoop(sweep)
	return s
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || e.expired(s.now()) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *LocalStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry := time.Time{}
	if ttl > 0 {
		expiry = s.now().Add(ttl)
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	s.entries[key] = localEntry{value: buf, expiry: expiry}
	return nil
}

func (s *LocalStore) Purge(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.entries = make(map[string]localEntry)
	return n, nil
}

// Len counts live entries only.
func (s *LocalStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	n := 0
	for _, e := range s.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n, nil
}

func (s *LocalStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *LocalStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
		}
	}
}

func (s *LocalStore) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}
