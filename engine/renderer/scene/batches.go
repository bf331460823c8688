package scene

import (
	"fmt"

	"github.com/spaghettifunk/anima-render/engine/ecs"
	"github.com/spaghettifunk/anima-render/engine/renderer/descriptors"
	"github.com/spaghettifunk/anima-render/engine/renderer/materials"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

// specBatch holds the objects of one pipeline specialization, split by update speed.
type specBatch struct {
	id      uint32
	objects [metadata.UpdateSpeedCount][]metadata.SceneKey
}

func (sb *specBatch) add(key metadata.SceneKey) {
	sb.objects[key.UpdateFreq] = append(sb.objects[key.UpdateFreq], key)
}

func (sb *specBatch) remove(key metadata.SceneKey, preserveOrder bool) bool {
	list := sb.objects[key.UpdateFreq]
	for i, k := range list {
		if k != key {
			continue
		}
		if preserveOrder {
			list = append(list[:i], list[i+1:]...)
		} else {
			last := len(list) - 1
			list[i] = list[last]
			list = list[:last]
		}
		sb.objects[key.UpdateFreq] = list
		return true
	}
	return false
}

func (sb *specBatch) len() int {
	n := 0
	for _, l := range sb.objects {
		n += len(l)
	}
	return n
}

/**
 * @brief All objects drawn with one material pipeline. Owns the descriptor set instances of
 * every render phase layout the pipeline uses, per observer.
 */
type pipelineBatch struct {
	pipeline          *materials.MaterialPipeline
	needsObserverInit bool
	perPhase          [metadata.RenderPhaseCount]descriptors.InstanceTable
	// every distinct instance of perPhase. Replaced, never mutated in place.
	allDescriptors []descriptors.SetInstance
	specs          []*specBatch
	// objects a late observer could not allocate, skipped when rendering for it
	unallocated map[uint32]map[metadata.SceneKey]struct{}
}

func newPipelineBatch(pipeline *materials.MaterialPipeline) *pipelineBatch {
	pb := &pipelineBatch{pipeline: pipeline, needsObserverInit: true}
	for phase := range pb.perPhase {
		pb.perPhase[phase].Init(pipeline.Factories(metadata.RenderPhase(phase)))
	}
	return pb
}

func (pb *pipelineBatch) spec(id uint32, create bool) *specBatch {
	for _, sb := range pb.specs {
		if sb.id == id {
			return sb
		}
	}
	if !create {
		return nil
	}
	sb := &specBatch{id: id}
	pb.specs = append(pb.specs, sb)
	return sb
}

func (pb *pipelineBatch) rebuildDescriptors() {
	var all []descriptors.SetInstance
	seen := make(map[descriptors.SetInstance]bool)
	for phase := range pb.perPhase {
		table := &pb.perPhase[phase]
		for _, obs := range table.Observers() {
			for _, inst := range table.Get(obs) {
				if !seen[inst] {
					seen[inst] = true
					all = append(all, inst)
				}
			}
		}
	}
	pb.allDescriptors = all
}

// eachObject calls fn for every object of the batch.
func (pb *pipelineBatch) eachObject(fn func(key metadata.SceneKey)) {
	for _, sb := range pb.specs {
		for _, list := range sb.objects {
			for _, key := range list {
				fn(key)
			}
		}
	}
}

// initObserversMaybe registers the observers known to the scene on a new batch.
func (pb *pipelineBatch) initObserversMaybe(observers []uint32, cache *descriptors.InstanceCache) {
	if !pb.needsObserverInit {
		return
	}
	pb.needsObserverInit = false
	for _, obs := range observers {
		for phase := range pb.perPhase {
			pb.perPhase[phase].AddObserver(obs, cache)
		}
	}
	pb.rebuildDescriptors()
}

/**
 * @brief Attaches the instances of a new observer and allocates every existing object on the
 * instances the batch did not use yet. An object that does not fit is rolled back and left
 * undrawn for that observer. Returns the number of such objects.
 */
func (pb *pipelineBatch) addObserver(index uint32, cache *descriptors.InstanceCache, entityOf func(metadata.SceneKey) ecs.Entity) int {
	before := pb.allDescriptors
	for phase := range pb.perPhase {
		pb.perPhase[phase].AddObserver(index, cache)
	}
	pb.rebuildDescriptors()
	fresh, _ := descriptorDiff(before, pb.allDescriptors)

	failed := 0
	pb.eachObject(func(key metadata.SceneKey) {
		if err := allocate(fresh, entityOf(key), key); err != nil {
			pb.markUnallocated(index, key)
			failed++
		}
	})
	return failed
}

func (pb *pipelineBatch) removeObserver(index uint32) {
	for phase := range pb.perPhase {
		pb.perPhase[phase].RemoveObserver(index)
	}
	delete(pb.unallocated, index)
	pb.rebuildDescriptors()
}

func (pb *pipelineBatch) markUnallocated(observer uint32, key metadata.SceneKey) {
	if pb.unallocated == nil {
		pb.unallocated = make(map[uint32]map[metadata.SceneKey]struct{})
	}
	keys, ok := pb.unallocated[observer]
	if !ok {
		keys = make(map[metadata.SceneKey]struct{})
		pb.unallocated[observer] = keys
	}
	keys[key] = struct{}{}
}

// forgetUnallocated drops key from every observer and returns the observers it was missing on.
func (pb *pipelineBatch) forgetUnallocated(key metadata.SceneKey) []uint32 {
	var observers []uint32
	for obs, keys := range pb.unallocated {
		if _, ok := keys[key]; ok {
			delete(keys, key)
			observers = append(observers, obs)
		}
	}
	return observers
}

// allocate allocates the object on the given instances, releasing the partial
// allocation in reverse order on failure.
func allocate(instances []descriptors.SetInstance, entity ecs.Entity, key metadata.SceneKey) error {
	for i, inst := range instances {
		if !inst.AllocateObject(entity, key) {
			for j := i - 1; j >= 0; j-- {
				instances[j].ReleaseObject(entity, key)
			}
			return fmt.Errorf("entity %d instance %d: %w", entity, i, ErrDescriptorAllocation)
		}
	}
	return nil
}

func release(instances []descriptors.SetInstance, entity ecs.Entity, key metadata.SceneKey) {
	for _, inst := range instances {
		inst.ReleaseObject(entity, key)
	}
}

// addObject allocates the descriptors of the object and inserts it in its specialization batch.
func (pb *pipelineBatch) addObject(entity ecs.Entity, key metadata.SceneKey, specialization uint32) error {
	if err := allocate(pb.allDescriptors, entity, key); err != nil {
		return err
	}
	pb.spec(specialization, true).add(key)
	return nil
}

// removeObject takes the object out of its specialization batch and releases its descriptors.
func (pb *pipelineBatch) removeObject(entity ecs.Entity, key metadata.SceneKey, specialization uint32) bool {
	sb := pb.spec(specialization, false)
	if sb == nil || !sb.remove(key, pb.pipeline.PreserveObjectOrder()) {
		return false
	}
	pb.forgetUnallocated(key)
	release(pb.allDescriptors, entity, key)
	return true
}

func (pb *pipelineBatch) objectCount() int {
	n := 0
	for _, sb := range pb.specs {
		n += sb.len()
	}
	return n
}

// descriptorDiff returns the instances only in next and the ones only in prev.
func descriptorDiff(prev, next []descriptors.SetInstance) (added, removed []descriptors.SetInstance) {
	in := func(list []descriptors.SetInstance, inst descriptors.SetInstance) bool {
		for _, l := range list {
			if l == inst {
				return true
			}
		}
		return false
	}
	for _, n := range next {
		if !in(prev, n) {
			added = append(added, n)
		}
	}
	for _, p := range prev {
		if !in(next, p) {
			removed = append(removed, p)
		}
	}
	return added, removed
}

// objectBatch is the set of pipeline batches of either opaque or transparent objects.
type objectBatch struct {
	batches []*pipelineBatch
}

func (ob *objectBatch) find(pipeline *materials.MaterialPipeline) *pipelineBatch {
	for _, pb := range ob.batches {
		if pb.pipeline == pipeline {
			return pb
		}
	}
	return nil
}

func (ob *objectBatch) getOrCreate(pipeline *materials.MaterialPipeline) *pipelineBatch {
	if pb := ob.find(pipeline); pb != nil {
		return pb
	}
	pb := newPipelineBatch(pipeline)
	ob.batches = append(ob.batches, pb)
	return pb
}
