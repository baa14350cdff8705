package handler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type closer interface {
	Close()
}

type entry[T closer] struct {
	value    T
	lastSeen time.Time
}

// store keeps one flow per modal instance, keyed by a random session id.
// Sessions idle for longer than ttl are closed, which scrubs their secrets.
type store[T closer] struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]*entry[T]
}

func newStore[T closer](ttl time.Duration) *store[T] {
	return &store[T]{ttl: ttl, items: make(map[string]*entry[T])}
}

func (s *store[T]) add(v T) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.items[id] = &entry[T]{value: v, lastSeen: time.Now()}
	s.mu.Unlock()
	return id
}

// get returns the session and marks it as used
func (s *store[T]) get(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	e.lastSeen = time.Now()
	return e.value, true
}

// remove closes the session before it returns
func (s *store[T]) remove(id string) bool {
	s.mu.Lock()
	e, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()
	if ok {
		e.value.Close()
	}
	return ok
}

// evict closes every session idle since before now-ttl
func (s *store[T]) evict(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	var expired []T
	s.mu.Lock()
	for id, e := range s.items {
		if now.Sub(e.lastSeen) > s.ttl {
			expired = append(expired, e.value)
			delete(s.items, id)
		}
	}
	s.mu.Unlock()
	for _, v := range expired {
		v.Close()
	}
	return len(expired)
}

func (s *store[T]) closeAll() {
	s.mu.Lock()
	items := s.items
	s.items = make(map[string]*entry[T])
	s.mu.Unlock()
	for _, e := range items {
		e.value.Close()
	}
}

func (s *store[T]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// janitor runs evict until ctx is done
func janitor(ctx context.Context, every time.Duration, evict func(time.Time)) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			evict(now)
		}
	}
}
