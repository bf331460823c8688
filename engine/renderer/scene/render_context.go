package scene

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

// RenderContext is handed to a scene when a task renders it.
type RenderContext struct {
	Recorder      metadata.CommandRecorder
	ObserverIndex uint32
	Phase         metadata.RenderPhase
	Pass          metadata.RenderPassID

	boundPipeline vk.Pipeline
	draws         int
}

func NewRenderContext(recorder metadata.CommandRecorder, observer uint32, phase metadata.RenderPhase, pass metadata.RenderPassID) *RenderContext {
	return &RenderContext{
		Recorder:      recorder,
		ObserverIndex: observer,
		Phase:         phase,
		Pass:          pass,
	}
}

// Draws returns the number of objects drawn through the context.
func (rc *RenderContext) Draws() int {
	return rc.draws
}

func (rc *RenderContext) bindPipeline(p vk.Pipeline) {
	if p != nil && p == rc.boundPipeline {
		return
	}
	rc.boundPipeline = p
	rc.Recorder.BindPipeline(p)
}

func (rc *RenderContext) renderObject(o *SceneObject) {
	d := o.Drawable
	if d.IndexCount > 0 {
		rc.Recorder.DrawIndexed(d.IndexCount, 1, 0, 0, 0)
	} else {
		rc.Recorder.Draw(d.VertexCount, 1, 0, 0)
	}
	rc.draws++
}
