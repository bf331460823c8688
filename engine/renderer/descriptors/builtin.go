package descriptors

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-render/engine/ecs"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

// MaxFramesInFlight is the number of frames whose descriptor sets are kept alive.
const MaxFramesInFlight = 3

/**
 * @brief Configuration for the builtin descriptor set factories.
 */
type BuiltinConfig struct {
	/** @brief Diagnostic name of the set. */
	Name string
	/** @brief Maximum number of objects per update speed. Zero means unlimited. */
	Capacity uint32
	/** @brief Whether shaders index objects from a shader visible array. */
	Bindless bool
	/** @brief Whether all observers share one instance. */
	Scope Scope
	/** @brief The descriptor sets, one per frame in flight and update speed. */
	Sets [MaxFramesInFlight][metadata.UpdateSpeedCount]vk.DescriptorSet
}

/**
 * @brief Factory for BuiltinInstance. Used both for scene wide data (camera, lights)
 * and per object data (transforms, material indices).
 */
type BuiltinFactory struct {
	config BuiltinConfig
}

func NewBuiltinFactory(config BuiltinConfig) *BuiltinFactory {
	return &BuiltinFactory{config: config}
}

// NewObjectFactory returns a bindful, per observer factory for per object data.
func NewObjectFactory(name string, capacity uint32) *BuiltinFactory {
	return NewBuiltinFactory(BuiltinConfig{
		Name:     name,
		Capacity: capacity,
		Bindless: false,
		Scope:    ScopeObserver,
	})
}

// NewSceneFactory returns a bindless, scene wide factory.
func NewSceneFactory(name string) *BuiltinFactory {
	return NewBuiltinFactory(BuiltinConfig{
		Name:     name,
		Bindless: true,
		Scope:    ScopeScene,
	})
}

func (f *BuiltinFactory) Name() string   { return f.config.Name }
func (f *BuiltinFactory) Scope() Scope   { return f.config.Scope }
func (f *BuiltinFactory) Bindless() bool { return f.config.Bindless }

func (f *BuiltinFactory) CreateInstance(observerIndex uint32) SetInstance {
	return &BuiltinInstance{
		config:   f.config,
		observer: observerIndex,
		objects:  make(map[metadata.SceneKey]ecs.Entity),
	}
}

/**
 * @brief Tracks which objects have a slot in the descriptor set and issues the bind
 * commands. Slots freed during a frame stay dirty until the next frame start.
 */
type BuiltinInstance struct {
	config   BuiltinConfig
	observer uint32
	objects  map[metadata.SceneKey]ecs.Entity
	perSpeed [metadata.UpdateSpeedCount]uint32
	frame    uint32
	dirty    []metadata.SceneKey
}

func (bi *BuiltinInstance) Bindless() bool { return bi.config.Bindless }

func (bi *BuiltinInstance) Observer() uint32 { return bi.observer }

func (bi *BuiltinInstance) AllocateObject(entity ecs.Entity, key metadata.SceneKey) bool {
	if _, ok := bi.objects[key]; ok {
		return true
	}
	if bi.config.Capacity > 0 && bi.perSpeed[key.UpdateFreq] >= bi.config.Capacity {
		return false
	}
	bi.objects[key] = entity
	bi.perSpeed[key.UpdateFreq]++
	bi.dirty = append(bi.dirty, key)
	return true
}

func (bi *BuiltinInstance) ReleaseObject(entity ecs.Entity, key metadata.SceneKey) {
	owner, ok := bi.objects[key]
	if !ok || owner != entity {
		return
	}
	delete(bi.objects, key)
	bi.perSpeed[key.UpdateFreq]--
}

func (bi *BuiltinInstance) BindForPipeline(cmd metadata.CommandRecorder, layout vk.PipelineLayout, setIndex uint32, speed metadata.UpdateSpeed) {
	cmd.BindDescriptorSets(layout, setIndex, []vk.DescriptorSet{bi.config.Sets[bi.frame][speed]})
}

func (bi *BuiltinInstance) BindForObject(cmd metadata.CommandRecorder, layout vk.PipelineLayout, setIndex uint32, key metadata.SceneKey) {
	cmd.BindDescriptorSets(layout, setIndex, []vk.DescriptorSet{bi.config.Sets[bi.frame][key.UpdateFreq]})
}

func (bi *BuiltinInstance) HandleFrameStart() {
	bi.frame = (bi.frame + 1) % MaxFramesInFlight
	bi.dirty = bi.dirty[:0]
}

func (bi *BuiltinInstance) AllocatedCount() int {
	return len(bi.objects)
}

// Dirty returns the objects allocated since the last frame start.
func (bi *BuiltinInstance) Dirty() []metadata.SceneKey {
	return bi.dirty
}
