package scene

import (
	"github.com/spaghettifunk/anima-render/engine/containers"
	"github.com/spaghettifunk/anima-render/engine/ecs"
	"github.com/spaghettifunk/anima-render/engine/renderer/descriptors"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

// AllocateResult describes a new object slot.
type AllocateResult struct {
	Object *SceneObject
	// Grew is set when the backing array of the update speed was reallocated.
	Grew     bool
	Capacity int
}

type objectArena struct {
	ids     *containers.IDAllocator[uint32]
	objects []SceneObject
	live    []bool
}

/**
 * @brief Arena of scene objects, one per update speed. Objects are addressed by SceneKey,
 * which stays valid when the arena grows. Pointers returned by Get are only valid until
 * the next Allocate.
 */
type ObjectStorage struct {
	arenas [metadata.UpdateSpeedCount]objectArena
}

func NewObjectStorage(capacity int) *ObjectStorage {
	s := &ObjectStorage{}
	for i := range s.arenas {
		s.arenas[i] = objectArena{
			ids:     containers.NewIDAllocator[uint32](),
			objects: make([]SceneObject, 0, capacity),
			live:    make([]bool, 0, capacity),
		}
	}
	return s
}

func (s *ObjectStorage) Allocate(speed metadata.UpdateSpeed, entity ecs.Entity) AllocateResult {
	a := &s.arenas[speed]
	id := a.ids.Acquire()
	grew := false
	if int(id) >= len(a.objects) {
		before := cap(a.objects)
		a.objects = append(a.objects, SceneObject{})
		a.live = append(a.live, false)
		grew = cap(a.objects) != before
	}
	key := metadata.SceneKey{SceneID: id, UpdateFreq: speed}
	a.objects[id] = SceneObject{Entity: entity, Key: key}
	a.live[id] = true
	return AllocateResult{Object: &a.objects[id], Grew: grew, Capacity: cap(a.objects)}
}

// Get returns the live object for key, or nil.
func (s *ObjectStorage) Get(key metadata.SceneKey) *SceneObject {
	if key.UpdateFreq >= metadata.UpdateSpeedCount {
		return nil
	}
	a := &s.arenas[key.UpdateFreq]
	if int(key.SceneID) >= len(a.objects) || !a.live[key.SceneID] {
		return nil
	}
	return &a.objects[key.SceneID]
}

// Entity returns the entity stored at key, or the null entity.
func (s *ObjectStorage) Entity(key metadata.SceneKey) ecs.Entity {
	if o := s.Get(key); o != nil {
		return o.Entity
	}
	return ecs.NullEntity
}

func (s *ObjectStorage) Release(key metadata.SceneKey) bool {
	if s.Get(key) == nil {
		return false
	}
	a := &s.arenas[key.UpdateFreq]
	a.objects[key.SceneID] = SceneObject{}
	a.live[key.SceneID] = false
	a.ids.Release(key.SceneID)
	return true
}

// Len returns the number of live objects of every update speed.
func (s *ObjectStorage) Len() int {
	n := 0
	for i := range s.arenas {
		n += s.arenas[i].ids.InUse()
	}
	return n
}

// Capacity returns the size of the slot array for a speed.
func (s *ObjectStorage) Capacity(speed metadata.UpdateSpeed) int {
	return len(s.arenas[speed].objects)
}

// Each calls fn for every live object.
func (s *ObjectStorage) Each(fn func(o *SceneObject)) {
	for i := range s.arenas {
		a := &s.arenas[i]
		for id := range a.objects {
			if a.live[id] {
				fn(&a.objects[id])
			}
		}
	}
}

// UnlinkAll releases every object from the given instances and empties the storage.
func (s *ObjectStorage) UnlinkAll(instances []descriptors.SetInstance) {
	s.Each(func(o *SceneObject) {
		for _, inst := range instances {
			inst.ReleaseObject(o.Entity, o.Key)
		}
		if o.Drawable != nil {
			o.Drawable.unlink()
		}
	})
	for i := range s.arenas {
		s.arenas[i] = objectArena{ids: containers.NewIDAllocator[uint32]()}
	}
}
