package scene

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-render/engine/core"
	"github.com/spaghettifunk/anima-render/engine/ecs"
	"github.com/spaghettifunk/anima-render/engine/renderer/materials"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

// speedRenderOrder is the order object lists are drawn in.
var speedRenderOrder = [metadata.UpdateSpeedCount]metadata.UpdateSpeed{
	metadata.UpdateSpeedDynamic,
	metadata.UpdateSpeedStatic,
}

// Bucket describes one specialization batch list. Used for diagnostics.
type Bucket struct {
	Transparent    bool
	Pipeline       *materials.MaterialPipeline
	Specialization uint32
	Speed          metadata.UpdateSpeed
	Keys           []metadata.SceneKey
}

/**
 * @brief A scene grouping its objects by transparency, material pipeline and specialization
 * so every group is drawn with one pipeline bind and as few descriptor binds as possible.
 */
type BatchedScene struct {
	*Scene
	objects     *ObjectStorage
	settings    *settingsCache
	opaque      objectBatch
	transparent objectBatch
}

func NewBatchedScene(cfg Config) *BatchedScene {
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultSceneObjectCapacity
	}
	bs := &BatchedScene{
		objects:  NewObjectStorage(int(cfg.Capacity)),
		settings: newSettingsCache(int(cfg.Capacity)),
	}
	bs.Scene = newScene(cfg, bs)
	return bs
}

// Object returns the object stored at key, or nil.
func (bs *BatchedScene) Object(key metadata.SceneKey) *SceneObject {
	bs.objectMu.Lock()
	defer bs.objectMu.Unlock()
	return bs.objects.Get(key)
}

// ObjectCount returns the number of objects in the scene.
func (bs *BatchedScene) ObjectCount() int {
	bs.objectMu.Lock()
	defer bs.objectMu.Unlock()
	return bs.objects.Len()
}

// Buckets returns every non empty object list of the scene.
func (bs *BatchedScene) Buckets() []Bucket {
	bs.objectMu.Lock()
	defer bs.objectMu.Unlock()
	var out []Bucket
	for _, ob := range []*objectBatch{&bs.opaque, &bs.transparent} {
		for _, pb := range ob.batches {
			for _, sb := range pb.specs {
				for speed, keys := range sb.objects {
					if len(keys) == 0 {
						continue
					}
					out = append(out, Bucket{
						Transparent:    ob == &bs.transparent,
						Pipeline:       pb.pipeline,
						Specialization: sb.id,
						Speed:          metadata.UpdateSpeed(speed),
						Keys:           append([]metadata.SceneKey(nil), keys...),
					})
				}
			}
		}
	}
	return out
}

func (bs *BatchedScene) object(key metadata.SceneKey) *SceneObject {
	return bs.objects.Get(key)
}

func (bs *BatchedScene) batchFor(transparent bool) *objectBatch {
	if transparent {
		return &bs.transparent
	}
	return &bs.opaque
}

func (bs *BatchedScene) doAdd(entity ecs.Entity, d *Drawable, speed metadata.UpdateSpeed) (*SceneObject, error) {
	alloc := bs.objects.Allocate(speed, entity)
	key := alloc.Object.Key
	if alloc.Grew {
		bs.settings.ensure(speed, alloc.Capacity)
		core.LogDebug("scene %s %s object storage grew to %d", bs.id, speed, alloc.Capacity)
	}
	bs.settings.set(key, objectSettings{transparent: d.Transparent, specialization: d.Specialization})

	pb := bs.batchFor(d.Transparent).getOrCreate(d.Pipeline)
	pb.initObserversMaybe(bs.observers, bs.instances)
	if err := pb.addObject(entity, key, d.Specialization); err != nil {
		bs.settings.clear(key)
		bs.objects.Release(key)
		return nil, err
	}

	ecs.Emplace(bs.registry, entity, BatchSceneLink{Key: key})
	return alloc.Object, nil
}

func (bs *BatchedScene) doObjectRemoval(obj *SceneObject, pipeline *materials.MaterialPipeline) {
	entity := obj.Entity
	key := obj.Key

	if link := ecs.Get[BatchSceneLink](bs.registry, entity); link != nil {
		for _, child := range append([]ecs.Entity(nil), link.Children...) {
			cl := ecs.Get[BatchSceneLink](bs.registry, child)
			if cl == nil || cl.Parent != entity {
				continue
			}
			bs.removeQueuedObject(cl.Key)
		}
		if link.Parent != ecs.NullEntity {
			if pl := ecs.Get[BatchSceneLink](bs.registry, link.Parent); pl != nil {
				pl.removeChild(entity)
			}
		}
	} else if bs.registry.EntityExists(entity) {
		core.LogWarn("failed to find BatchSceneLink for entity %d", entity)
	}

	bs.releaseObject(bs.objects.Get(key), pipeline)

	bs.events.Fire(core.EVENT_CODE_SCENE_OBJECT_REMOVED, bs, core.SceneObjectRemoved{
		SceneID: bs.id,
		Entity:  uint64(entity),
	})
}

func (bs *BatchedScene) releaseObject(obj *SceneObject, pipeline *materials.MaterialPipeline) {
	if obj == nil {
		return
	}
	entity := obj.Entity
	key := obj.Key
	st := bs.settings.get(key)
	if pb := bs.batchFor(st.transparent).find(pipeline); pb == nil || !pb.removeObject(entity, key, st.specialization) {
		core.LogWarn("entity %d was not batched in scene %s", entity, bs.id)
	}
	if obj.Drawable != nil {
		obj.Drawable.unlink()
	}
	bs.settings.clear(key)
	ecs.Remove[BatchSceneLink](bs.registry, entity)
	bs.objects.Release(key)
}

/**
 * @brief Moves an object to the bucket matching its new settings. Descriptors are only
 * touched for instances that differ between the old and the new pipeline batch, and the
 * object stays where it was if allocating on the new instances fails.
 */
func (bs *BatchedScene) doBatchChange(change batchChange, prev *materials.MaterialPipeline) error {
	key := change.key
	st := bs.settings.get(key)
	transChanged := st.transparent != change.transparent
	pipelineChanged := prev != change.pipeline
	specChanged := st.specialization != change.specialization
	if !transChanged && !pipelineChanged && !specChanged {
		return nil
	}

	oldPB := bs.batchFor(st.transparent).find(prev)
	if oldPB == nil {
		return fmt.Errorf("entity %d: %w", change.entity, ErrUnknownObject)
	}
	next := objectSettings{transparent: change.transparent, specialization: change.specialization}

	if !transChanged && !pipelineChanged {
		if sb := oldPB.spec(st.specialization, false); sb != nil {
			sb.remove(key, prev.PreserveObjectOrder())
		}
		oldPB.spec(change.specialization, true).add(key)
		bs.settings.set(key, next)
		return nil
	}

	newPB := bs.batchFor(change.transparent).getOrCreate(change.pipeline)
	newPB.initObserversMaybe(bs.observers, bs.instances)
	added, removed := descriptorDiff(oldPB.allDescriptors, newPB.allDescriptors)
	if err := allocate(added, change.entity, key); err != nil {
		return err
	}
	if sb := oldPB.spec(st.specialization, false); sb != nil {
		sb.remove(key, prev.PreserveObjectOrder())
	}
	release(removed, change.entity, key)
	for _, obs := range oldPB.forgetUnallocated(key) {
		newPB.markUnallocated(obs, key)
	}
	newPB.spec(change.specialization, true).add(key)
	bs.settings.set(key, next)
	return nil
}

func (bs *BatchedScene) doRegisterObserver(index uint32) {
	for _, ob := range []*objectBatch{&bs.opaque, &bs.transparent} {
		for _, pb := range ob.batches {
			if pb.needsObserverInit {
				pb.initObserversMaybe(bs.observers, bs.instances)
				continue
			}
			if failed := pb.addObserver(index, bs.instances, bs.objects.Entity); failed > 0 {
				core.LogWarn("observer %d: %d objects of pipeline %s did not fit their descriptors", index, failed, pb.pipeline.Name())
			}
		}
	}
}

func (bs *BatchedScene) doUnregisterObserver(index uint32) {
	removed := bs.instances.RemoveObserver(index)
	bs.objects.Each(func(o *SceneObject) {
		release(removed, o.Entity, o.Key)
	})
	for _, ob := range []*objectBatch{&bs.opaque, &bs.transparent} {
		for _, pb := range ob.batches {
			pb.removeObserver(index)
		}
	}
}

func (bs *BatchedScene) RenderOpaqueObjects(rc *RenderContext) {
	bs.objectMu.Lock()
	defer bs.objectMu.Unlock()
	bs.renderBatch(rc, &bs.opaque)
}

func (bs *BatchedScene) RenderTransparentObjects(rc *RenderContext) {
	bs.objectMu.Lock()
	defer bs.objectMu.Unlock()
	bs.renderBatch(rc, &bs.transparent)
}

// RenderScene draws the opaque objects, then the transparent ones.
func (bs *BatchedScene) RenderScene(rc *RenderContext) {
	bs.objectMu.Lock()
	defer bs.objectMu.Unlock()
	bs.renderBatch(rc, &bs.opaque)
	bs.renderBatch(rc, &bs.transparent)
}

func (bs *BatchedScene) renderBatch(rc *RenderContext, ob *objectBatch) {
	for _, pb := range ob.batches {
		variant, ok := pb.pipeline.Variant(rc.Phase, rc.Pass)
		if !ok {
			continue
		}
		table := &pb.perPhase[rc.Phase]
		sets := table.Get(rc.ObserverIndex)
		if uint32(len(sets)) != table.DescriptorSetCount() {
			core.LogWarn("observer %d has no descriptors for pipeline %s", rc.ObserverIndex, pb.pipeline.Name())
			continue
		}
		var layout vk.PipelineLayout
		if variant.Layout != nil {
			layout = variant.Layout.Handle
		}
		perObjStart := table.PerObjectStart()
		bindless := table.Bindless()
		unallocated := pb.unallocated[rc.ObserverIndex]

		for _, sb := range pb.specs {
			pipeline, ok := variant.Specialized(sb.id)
			if !ok {
				core.LogWarn("pipeline %s has no specialization %d", pb.pipeline.Name(), sb.id)
				continue
			}
			bound := false
			for _, speed := range speedRenderOrder {
				keys := sb.objects[speed]
				if len(keys) == 0 {
					continue
				}
				if !bound {
					rc.bindPipeline(pipeline)
					bound = true
				}
				for i := uint32(0); i < perObjStart; i++ {
					sets[i].BindForPipeline(rc.Recorder, layout, i, speed)
				}
				for _, key := range keys {
					obj := bs.objects.Get(key)
					if obj == nil || obj.Hidden() {
						continue
					}
					if _, skip := unallocated[key]; skip {
						continue
					}
					if !bindless {
						for i := perObjStart; i < uint32(len(sets)); i++ {
							sets[i].BindForObject(rc.Recorder, layout, i, key)
						}
					}
					rc.renderObject(obj)
				}
			}
		}
	}
}

// Destroy releases every object from every descriptor set instance of the scene.
func (bs *BatchedScene) Destroy() {
	bs.detach()
	bs.objectMu.Lock()
	defer bs.objectMu.Unlock()
	bs.objects.Each(func(o *SceneObject) {
		ecs.Remove[BatchSceneLink](bs.registry, o.Entity)
	})
	bs.objects.UnlinkAll(bs.instances.All())
	bs.opaque = objectBatch{}
	bs.transparent = objectBatch{}
	for i := range bs.pipelines {
		bs.pipelines[i] = nil
	}
}
