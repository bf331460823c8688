package scene

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-render/engine/containers"
	"github.com/spaghettifunk/anima-render/engine/core"
	"github.com/spaghettifunk/anima-render/engine/ecs"
	"github.com/spaghettifunk/anima-render/engine/renderer/descriptors"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph"
	"github.com/spaghettifunk/anima-render/engine/renderer/materials"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

const (
	DefaultSceneObjectCapacity = 128
	DefaultMaxObservers        = 16
	queueSize                  = 32
)

type objectAdd struct {
	entity   ecs.Entity
	drawable *Drawable
	speed    metadata.UpdateSpeed
}

type batchChange struct {
	key            metadata.SceneKey
	entity         ecs.Entity
	pipeline       *materials.MaterialPipeline
	transparent    bool
	specialization uint32
}

// sceneImpl is implemented by concrete scenes to do the actual bucketing.
type sceneImpl interface {
	object(key metadata.SceneKey) *SceneObject
	doAdd(entity ecs.Entity, drawable *Drawable, speed metadata.UpdateSpeed) (*SceneObject, error)
	doObjectRemoval(obj *SceneObject, pipeline *materials.MaterialPipeline)
	doBatchChange(change batchChange, prev *materials.MaterialPipeline) error
	doRegisterObserver(index uint32)
	doUnregisterObserver(index uint32)
}

type Config struct {
	Registry *ecs.Registry
	Events   *core.EventSystem
	Strategy graph.Strategy
	// Initial object capacity per update speed.
	Capacity     uint32
	MaxObservers uint32
}

/**
 * @brief State shared by every scene kind: identity, render strategy, observers and the
 * queues deferring object changes to SyncObjects.
 */
type Scene struct {
	id        string
	registry  *ecs.Registry
	events    *core.EventSystem
	strategy  graph.Strategy
	instances *descriptors.InstanceCache
	impl      sceneImpl

	maxObservers uint32
	observerIDs  *containers.IDAllocator[uint32]
	observers    []uint32

	objectMu  sync.Mutex
	pipelines [metadata.UpdateSpeedCount][]*materials.MaterialPipeline

	destroyListener ecs.ListenerID

	queueMu       sync.Mutex
	queuedAdds    *containers.RingQueue[objectAdd]
	queuedRemoves *containers.RingQueue[metadata.SceneKey]
	queuedChanges *containers.RingQueue[batchChange]
}

func newScene(cfg Config, impl sceneImpl) *Scene {
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultSceneObjectCapacity
	}
	if cfg.MaxObservers == 0 {
		cfg.MaxObservers = DefaultMaxObservers
	}
	s := &Scene{
		id:            uuid.NewString(),
		registry:      cfg.Registry,
		events:        cfg.Events,
		strategy:      cfg.Strategy,
		instances:     descriptors.NewInstanceCache(),
		impl:          impl,
		maxObservers:  cfg.MaxObservers,
		observerIDs:   containers.NewIDAllocator[uint32](),
		queuedAdds:    containers.NewGrowableRingQueue[objectAdd](queueSize),
		queuedRemoves: containers.NewGrowableRingQueue[metadata.SceneKey](queueSize),
		queuedChanges: containers.NewGrowableRingQueue[batchChange](queueSize),
	}
	for i := range s.pipelines {
		s.pipelines[i] = make([]*materials.MaterialPipeline, cfg.Capacity)
	}
	if s.registry != nil {
		s.destroyListener = s.registry.OnDestroy(s.onEntityDestroyed)
	}
	return s
}

// onEntityDestroyed queues the removal of the object of a destroyed entity and of
// its children, whose link to it is gone once the entity is.
func (s *Scene) onEntityDestroyed(entity ecs.Entity) {
	d := ecs.Get[Drawable](s.registry, entity)
	if d == nil || d.scene != s {
		return
	}
	link := ecs.Get[BatchSceneLink](s.registry, entity)
	if link == nil {
		return
	}
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	s.queuedRemoves.Enqueue(link.Key)
	for _, child := range link.Children {
		if cl := ecs.Get[BatchSceneLink](s.registry, child); cl != nil && cl.Parent == entity {
			s.queuedRemoves.Enqueue(cl.Key)
		}
	}
}

// detach stops following entity destruction.
func (s *Scene) detach() {
	if s.registry != nil {
		s.registry.RemoveDestroyListener(s.destroyListener)
	}
}

func (s *Scene) ID() string {
	return s.id
}

func (s *Scene) Registry() *ecs.Registry {
	return s.registry
}

func (s *Scene) RenderStrategy() graph.Strategy {
	return s.strategy
}

// SetRenderStrategy replaces the strategy. Graphs rendering the scene repopulate.
func (s *Scene) SetRenderStrategy(strategy graph.Strategy) {
	s.strategy = strategy
}

// Instances returns the descriptor set instances of the scene.
func (s *Scene) Instances() *descriptors.InstanceCache {
	return s.instances
}

// Observers returns the registered observer indices.
func (s *Scene) Observers() []uint32 {
	return append([]uint32(nil), s.observers...)
}

// RegisterObserver returns the index of a new observer of the scene.
func (s *Scene) RegisterObserver() (uint32, error) {
	s.objectMu.Lock()
	defer s.objectMu.Unlock()
	if uint32(s.observerIDs.InUse()) >= s.maxObservers {
		return 0, fmt.Errorf("scene %s: %w", s.id, ErrMaxObservers)
	}
	index := s.observerIDs.Acquire()
	s.observers = append(s.observers, index)
	s.impl.doRegisterObserver(index)
	core.LogDebug("scene %s registered observer %d", s.id, index)
	return index, nil
}

func (s *Scene) UnregisterObserver(index uint32) error {
	s.objectMu.Lock()
	defer s.objectMu.Unlock()
	pos := -1
	for i, o := range s.observers {
		if o == index {
			pos = i
			break
		}
	}
	if pos < 0 {
		return fmt.Errorf("scene %s observer %d: %w", s.id, index, ErrUnknownObserver)
	}
	s.observers = append(s.observers[:pos], s.observers[pos+1:]...)
	s.impl.doUnregisterObserver(index)
	s.observerIDs.Release(index)
	return nil
}

// CreateAndAddObject queues the entity to be added on the next SyncObjects.
func (s *Scene) CreateAndAddObject(entity ecs.Entity, drawable *Drawable, speed metadata.UpdateSpeed) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	s.queuedAdds.Enqueue(objectAdd{entity: entity, drawable: drawable, speed: speed})
}

// RemoveObject queues the object for removal on the next SyncObjects.
func (s *Scene) RemoveObject(key metadata.SceneKey) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	s.queuedRemoves.Enqueue(key)
}

// RemoveEntity queues the removal of the object of a drawable entity.
func (s *Scene) RemoveEntity(entity ecs.Entity) error {
	d := ecs.Get[Drawable](s.registry, entity)
	if d == nil {
		return fmt.Errorf("entity %d: %w", entity, ErrMissingComponent)
	}
	key, ok := d.SceneKey()
	if !ok || d.scene != s {
		return fmt.Errorf("entity %d: %w", entity, ErrUnknownObject)
	}
	s.RemoveObject(key)
	return nil
}

// RebucketObject queues a rebatch of the object with the current drawable settings.
func (s *Scene) RebucketObject(d *Drawable) {
	if d.scene != s {
		return
	}
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	s.queuedChanges.Enqueue(batchChange{
		key:            d.key,
		entity:         d.entity,
		pipeline:       d.Pipeline,
		transparent:    d.Transparent,
		specialization: d.Specialization,
	})
}

func (s *Scene) pipelineOf(key metadata.SceneKey) *materials.MaterialPipeline {
	list := s.pipelines[key.UpdateFreq]
	if int(key.SceneID) >= len(list) {
		return nil
	}
	return list[key.SceneID]
}

func (s *Scene) setPipeline(key metadata.SceneKey, p *materials.MaterialPipeline) {
	list := s.pipelines[key.UpdateFreq]
	if int(key.SceneID) >= len(list) {
		grown := make([]*materials.MaterialPipeline, 2*int(key.SceneID)+1)
		copy(grown, list)
		list = grown
		s.pipelines[key.UpdateFreq] = list
	}
	list[key.SceneID] = p
}

/**
 * @brief Applies the queued changes: batch changes first, then removals, then additions.
 * Additions of entities destroyed since they were queued are skipped.
 */
func (s *Scene) SyncObjects() {
	s.objectMu.Lock()
	defer s.objectMu.Unlock()

	s.queueMu.Lock()
	changes := s.queuedChanges.Drain()
	removes := s.queuedRemoves.Drain()
	adds := s.queuedAdds.Drain()
	s.queueMu.Unlock()

	for _, change := range changes {
		prev := s.pipelineOf(change.key)
		if obj := s.impl.object(change.key); prev == nil || obj == nil || obj.Entity != change.entity {
			core.LogWarn("skipping batch change of removed object %d", change.entity)
			continue
		}
		if change.pipeline == nil {
			core.LogWarn("skipping batch change of entity %d: %s", change.entity, ErrUnknownPipeline)
			continue
		}
		if err := s.impl.doBatchChange(change, prev); err != nil {
			core.LogError("failed to rebatch entity %d: %s", change.entity, err)
			continue
		}
		s.setPipeline(change.key, change.pipeline)
	}

	for _, key := range removes {
		s.removeQueuedObject(key)
	}

	for _, add := range adds {
		s.addQueuedObject(add)
	}
}

func (s *Scene) removeQueuedObject(key metadata.SceneKey) {
	pipeline := s.pipelineOf(key)
	if pipeline == nil {
		return
	}
	obj := s.impl.object(key)
	if obj == nil {
		return
	}
	s.setPipeline(key, nil)
	s.impl.doObjectRemoval(obj, pipeline)
}

func (s *Scene) addQueuedObject(add objectAdd) {
	if !s.registry.EntityExists(add.entity) {
		core.LogWarn("skipping add of destroyed entity %d", add.entity)
		return
	}
	if add.drawable == nil || ecs.Get[Drawable](s.registry, add.entity) != add.drawable {
		core.LogWarn("skipping add of entity %d: %s", add.entity, ErrMissingComponent)
		return
	}
	if add.drawable.Pipeline == nil {
		core.LogWarn("skipping add of entity %d: %s", add.entity, ErrUnknownPipeline)
		return
	}
	if _, ok := add.drawable.SceneKey(); ok {
		core.LogWarn("skipping add of entity %d: already in a scene", add.entity)
		return
	}
	obj, err := s.impl.doAdd(add.entity, add.drawable, add.speed)
	if err != nil {
		core.LogError("failed to add entity %d to scene %s: %s", add.entity, s.id, err)
		return
	}
	obj.Drawable = add.drawable
	add.drawable.link(s, add.entity, obj.Key)
	s.setPipeline(obj.Key, add.drawable.Pipeline)
}

// HandleFrameStart advances the descriptor set instances of the scene to the next frame.
func (s *Scene) HandleFrameStart() {
	s.objectMu.Lock()
	defer s.objectMu.Unlock()
	s.instances.HandleFrameStart()
}
