package workspace

import (
	"container/list"
	"sync"
	"time"
)

// Store keeps values by id, evicting the least recently used entry once
// capacity is reached and any entry idle for longer than ttl.
type Store[T any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	order    *list.List // front = most recently used
	items    map[string]*list.Element
	onEvict  func(id string, v T)
}

type storeEntry[T any] struct {
	id   string
	val  T
	seen time.Time
}

// NewStore creates a Store. A capacity or ttl of zero disables that bound.
func NewStore[T any](capacity int, ttl time.Duration) *Store[T] {
	return &Store[T]{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// OnEvict registers fn to run (under the store lock) whenever an entry is
// dropped by capacity or expiry. Explicit Delete does not call it.
func (s *Store[T]) OnEvict(fn func(id string, v T)) {
	s.mu.Lock()
	s.onEvict = fn
	s.mu.Unlock()
}

// Get returns the value for id and marks it used.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.items[id]
	if !ok || s.expired(el) {
		if ok {
			s.evict(el)
		}
		var zero T
		return zero, false
	}
	s.touch(el)
	return el.Value.(*storeEntry[T]).val, true
}

// Put stores v under id, replacing any previous value.
func (s *Store[T]) Put(id string, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(id, v)
}

// GetOrCreate returns the value for id, calling create to build it when it
// is missing. create runs under the store lock and must not call back in.
func (s *Store[T]) GetOrCreate(id string, create func() (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.items[id]; ok {
		if !s.expired(el) {
			s.touch(el)
			return el.Value.(*storeEntry[T]).val, nil
		}
		s.evict(el)
	}
	v, err := create()
	if err != nil {
		var zero T
		return zero, err
	}
	s.put(id, v)
	return v, nil
}

// Delete removes id. It reports whether the id was present.
func (s *Store[T]) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.items[id]
	if ok {
		s.order.Remove(el)
		delete(s.items, id)
	}
	return ok
}

// Len is the number of stored entries, expired ones included until swept.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// Sweep drops every expired entry and returns how many were removed.
func (s *Store[T]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for el := s.order.Back(); el != nil; {
		prev := el.Prev()
		if s.expired(el) {
			s.evict(el)
			n++
		}
		el = prev
	}
	return n
}

func (s *Store[T]) put(id string, v T) {
	if el, ok := s.items[id]; ok {
		e := el.Value.(*storeEntry[T])
		e.val = v
		s.touch(el)
		return
	}
	s.items[id] = s.order.PushFront(&storeEntry[T]{id: id, val: v, seen: s.now()})
	for s.capacity > 0 && s.order.Len() > s.capacity {
		s.evict(s.order.Back())
	}
}

func (s *Store[T]) touch(el *list.Element) {
	el.Value.(*storeEntry[T]).seen = s.now()
	s.order.MoveToFront(el)
}

func (s *Store[T]) expired(el *list.Element) bool {
	return s.ttl > 0 && s.now().Sub(el.Value.(*storeEntry[T]).seen) > s.ttl
}

func (s *Store[T]) evict(el *list.Element) {
	e := el.Value.(*storeEntry[T])
	s.order.Remove(el)
	delete(s.items, e.id)
	if s.onEvict != nil {
		s.onEvict(e.id, e.val)
	}
}
