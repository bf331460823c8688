package ecs

import "sync"

// Store holds every component of type T, keyed by entity. Components are
// kept behind pointers so callers may mutate them in place.
type Store[T any] struct {
	mu         sync.RWMutex
	components map[Entity]*T
	entities   []Entity
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		components: make(map[Entity]*T),
		entities:   make([]Entity, 0, 64),
	}
}

// Set inserts or replaces the component for an entity and returns the stored pointer.
func (s *Store[T]) Set(e Entity, val T) *T {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.components[e]; !exists {
		s.entities = append(s.entities, e)
	}
	p := &val
	s.components[e] = p
	return p
}

func (s *Store[T]) Get(e Entity) (*T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.components[e]
	return val, ok
}

func (s *Store[T]) Has(e Entity) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.components[e]
	return ok
}

// Remove deletes the component from an entity. Reports whether one existed.
func (s *Store[T]) Remove(e Entity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.components[e]; !exists {
		return false
	}
	delete(s.components, e)
	for i, entity := range s.entities {
		if entity == e {
			s.entities[i] = s.entities[len(s.entities)-1]
			s.entities = s.entities[:len(s.entities)-1]
			break
		}
	}
	return true
}

// Entities returns a copy of every entity holding this component.
func (s *Store[T]) Entities() []Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Entity, len(s.entities))
	copy(result, s.entities)
	return result
}

func (s *Store[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

func (s *Store[T]) removeAny(e Entity) {
	s.Remove(e)
}
