package scene

import (
	"github.com/spaghettifunk/anima-render/engine/ecs"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

// BatchSceneLink is attached to every entity added to a batched scene. Children
// are removed together with their parent.
type BatchSceneLink struct {
	Key      metadata.SceneKey
	Parent   ecs.Entity
	Children []ecs.Entity
}

func (l *BatchSceneLink) removeChild(child ecs.Entity) {
	for i, c := range l.Children {
		if c == child {
			l.Children = append(l.Children[:i], l.Children[i+1:]...)
			return
		}
	}
}

// LinkChild makes child part of parent so it leaves the scene with it. Both
// entities must already be in the scene.
func LinkChild(registry *ecs.Registry, parent, child ecs.Entity) error {
	pl := ecs.Get[BatchSceneLink](registry, parent)
	cl := ecs.Get[BatchSceneLink](registry, child)
	if pl == nil || cl == nil {
		return ErrMissingComponent
	}
	if cl.Parent != ecs.NullEntity {
		if old := ecs.Get[BatchSceneLink](registry, cl.Parent); old != nil {
			old.removeChild(child)
		}
	}
	cl.Parent = parent
	pl.Children = append(pl.Children, child)
	return nil
}
