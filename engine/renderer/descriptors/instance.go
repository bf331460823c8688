package descriptors

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-render/engine/ecs"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

/**
 * @brief A descriptor set instance is the per-observer (or per-scene) binding table
 * a pipeline layout slot reads from. Every object drawn through an instance must be
 * allocated on it first and released before the object or instance goes away.
 */
type SetInstance interface {
	/** @brief True if shaders index objects from a shader visible array, so no per-draw bind is needed. */
	Bindless() bool
	/**
	 * @brief Reserves descriptor space for the object. Allocating an already allocated object is a no-op.
	 * @returns false if the instance ran out of space.
	 */
	AllocateObject(entity ecs.Entity, key metadata.SceneKey) bool
	/** @brief Frees the space held by the object. Unknown objects are ignored. */
	ReleaseObject(entity ecs.Entity, key metadata.SceneKey)
	/** @brief Binds the set once for every object of the given update speed. */
	BindForPipeline(cmd metadata.CommandRecorder, layout vk.PipelineLayout, setIndex uint32, speed metadata.UpdateSpeed)
	/** @brief Binds the set for a single object. Never called for bindless instances. */
	BindForObject(cmd metadata.CommandRecorder, layout vk.PipelineLayout, setIndex uint32, key metadata.SceneKey)
	/** @brief Called once per frame before rendering starts. */
	HandleFrameStart()
	/** @brief Number of objects currently allocated. */
	AllocatedCount() int
}

// Scope decides how many instances a factory produces within one scene.
type Scope uint8

const (
	// One instance per observer of the scene.
	ScopeObserver Scope = iota
	// One instance shared by every observer of the scene.
	ScopeScene
)

// Factory creates the instances for one descriptor set layout.
type Factory interface {
	Name() string
	Scope() Scope
	Bindless() bool
	CreateInstance(observerIndex uint32) SetInstance
}
