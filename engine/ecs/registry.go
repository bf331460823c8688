package ecs

import (
	"reflect"
	"sync"
)

// Entity is an opaque handle. Zero is never handed out.
type Entity uint64

const NullEntity Entity = 0

type anyStore interface {
	removeAny(e Entity)
}

// DestroyFunc is called with an entity about to be destroyed, while its
// components are still attached.
type DestroyFunc func(e Entity)

// ListenerID identifies a registered DestroyFunc.
type ListenerID uint64

type destroyListener struct {
	id ListenerID
	fn DestroyFunc
}

// Registry owns entities and one Store per component type.
type Registry struct {
	mu        sync.RWMutex
	nextID    Entity
	alive     map[Entity]struct{}
	stores    map[reflect.Type]anyStore
	listeners []destroyListener
	nextLID   ListenerID
}

func NewRegistry() *Registry {
	return &Registry{
		nextID: 1,
		alive:  make(map[Entity]struct{}),
		stores: make(map[reflect.Type]anyStore),
	}
}

func (r *Registry) CreateEntity() Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.nextID
	r.nextID++
	r.alive[e] = struct{}{}
	return e
}

// OnDestroy registers fn to run for every entity passed to DestroyEntity.
func (r *Registry) OnDestroy(fn DestroyFunc) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextLID++
	r.listeners = append(r.listeners, destroyListener{id: r.nextLID, fn: fn})
	return r.nextLID
}

func (r *Registry) RemoveDestroyListener(id ListenerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.listeners {
		if l.id == id {
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// DestroyEntity notifies the destroy listeners, then drops the entity and every
// component attached to it.
func (r *Registry) DestroyEntity(e Entity) {
	r.mu.Lock()
	if _, ok := r.alive[e]; !ok {
		r.mu.Unlock()
		return
	}
	listeners := append([]destroyListener(nil), r.listeners...)
	r.mu.Unlock()

	for _, l := range listeners {
		l.fn(e)
	}

	r.mu.Lock()
	if _, ok := r.alive[e]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.alive, e)
	stores := make([]anyStore, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.mu.Unlock()

	for _, s := range stores {
		s.removeAny(e)
	}
}

func (r *Registry) EntityExists(e Entity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.alive[e]
	return ok
}

// StoreFor returns the store for component type T, creating it on first use.
func StoreFor[T any](r *Registry) *Store[T] {
	t := reflect.TypeOf((*T)(nil)).Elem()

	r.mu.RLock()
	s, ok := r.stores[t]
	r.mu.RUnlock()
	if ok {
		return s.(*Store[T])
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[t]; ok {
		return s.(*Store[T])
	}
	store := NewStore[T]()
	r.stores[t] = store
	return store
}

// Emplace attaches val to e, replacing any existing component of the same type.
func Emplace[T any](r *Registry, e Entity, val T) *T {
	return StoreFor[T](r).Set(e, val)
}

// Get returns the component of type T attached to e, or nil.
func Get[T any](r *Registry, e Entity) *T {
	v, ok := StoreFor[T](r).Get(e)
	if !ok {
		return nil
	}
	return v
}

func Has[T any](r *Registry, e Entity) bool {
	return StoreFor[T](r).Has(e)
}

func Remove[T any](r *Registry, e Entity) bool {
	return StoreFor[T](r).Remove(e)
}
