package descriptors

import (
	"golang.org/x/exp/slices"
)

type cacheKey struct {
	factory  Factory
	observer uint32
}

// InstanceCache owns the descriptor set instances of one scene. Pipeline batches
// sharing a layout slot share the instance.
type InstanceCache struct {
	instances map[cacheKey]SetInstance
	order     []cacheKey
}

func NewInstanceCache() *InstanceCache {
	return &InstanceCache{
		instances: make(map[cacheKey]SetInstance),
	}
}

func (c *InstanceCache) key(f Factory, observer uint32) cacheKey {
	if f.Scope() == ScopeScene {
		observer = 0
	}
	return cacheKey{factory: f, observer: observer}
}

// GetOrCreate returns the instance of f serving observer, creating it on first use.
func (c *InstanceCache) GetOrCreate(f Factory, observer uint32) SetInstance {
	k := c.key(f, observer)
	if inst, ok := c.instances[k]; ok {
		return inst
	}
	inst := f.CreateInstance(k.observer)
	c.instances[k] = inst
	c.order = append(c.order, k)
	return inst
}

// Find returns the instance of f serving observer, or nil.
func (c *InstanceCache) Find(f Factory, observer uint32) SetInstance {
	return c.instances[c.key(f, observer)]
}

// RemoveObserver drops every observer scoped instance serving observer and
// returns them so the caller can release what they hold.
func (c *InstanceCache) RemoveObserver(observer uint32) []SetInstance {
	var removed []SetInstance
	c.order = slices.DeleteFunc(c.order, func(k cacheKey) bool {
		if k.factory.Scope() != ScopeObserver || k.observer != observer {
			return false
		}
		removed = append(removed, c.instances[k])
		delete(c.instances, k)
		return true
	})
	return removed
}

// All returns every live instance in creation order.
func (c *InstanceCache) All() []SetInstance {
	out := make([]SetInstance, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.instances[k])
	}
	return out
}

func (c *InstanceCache) HandleFrameStart() {
	for _, k := range c.order {
		c.instances[k].HandleFrameStart()
	}
}

func (c *InstanceCache) Len() int {
	return len(c.order)
}
