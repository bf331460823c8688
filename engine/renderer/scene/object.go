package scene

import (
	"github.com/spaghettifunk/anima-render/engine/ecs"
	"github.com/spaghettifunk/anima-render/engine/renderer/materials"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

// SceneObject is the slot of one drawable entity in a scene.
type SceneObject struct {
	Entity   ecs.Entity
	Key      metadata.SceneKey
	Drawable *Drawable
}

func (o *SceneObject) Hidden() bool {
	return o.Drawable == nil || o.Drawable.Hidden
}

/**
 * @brief The ECS component making an entity drawable. Changing the pipeline, transparency or
 * specialization of an object already in a scene queues a rebatch on that scene.
 */
type Drawable struct {
	Pipeline       *materials.MaterialPipeline
	Transparent    bool
	Specialization uint32
	Hidden         bool
	// Draw parameters. Indexed draws are used when IndexCount is set.
	VertexCount uint32
	IndexCount  uint32

	scene  *Scene
	entity ecs.Entity
	key    metadata.SceneKey
}

// SceneKey returns the key of the object in its scene, if it is in one.
func (d *Drawable) SceneKey() (metadata.SceneKey, bool) {
	return d.key, d.scene != nil
}

func (d *Drawable) SetPipeline(p *materials.MaterialPipeline) {
	d.Pipeline = p
	d.rebucket()
}

func (d *Drawable) SetTransparent(transparent bool) {
	d.Transparent = transparent
	d.rebucket()
}

func (d *Drawable) SetSpecialization(id uint32) {
	d.Specialization = id
	d.rebucket()
}

func (d *Drawable) rebucket() {
	if d.scene != nil {
		d.scene.RebucketObject(d)
	}
}

func (d *Drawable) link(s *Scene, entity ecs.Entity, key metadata.SceneKey) {
	d.scene = s
	d.entity = entity
	d.key = key
}

func (d *Drawable) unlink() {
	d.scene = nil
	d.key = metadata.SceneKey{}
}
