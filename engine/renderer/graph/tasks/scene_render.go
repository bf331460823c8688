package tasks

import (
	"github.com/spaghettifunk/anima-render/engine/core"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-render/engine/renderer/scene"
)

/**
 * @brief Draws the objects of the scene, opaque first. Renders into the rendered scene
 * output when another task reads it and straight into the final output otherwise.
 */
type SceneRenderTask struct {
	graph.BaseTask
	draws int
}

func NewSceneRenderTask(sceneID string) *SceneRenderTask {
	t := &SceneRenderTask{BaseTask: graph.NewBaseTask(graph.TaskIDSceneRender)}
	t.AssetTags.Outputs = append(t.AssetTags.Outputs,
		graph.NewTaskOutput(graph.TagRenderedSceneOutput, graph.CreatedByTask, graph.Shared).
			AddOption(graph.TagFinalFrameOutput, graph.Shared, graph.CreatedExternally).
			WithOrder(graph.OrderFirst))
	t.AssetTags.RequiredInputs = append(t.AssetTags.RequiredInputs, sceneInput(sceneID))
	t.AssetTags.OptionalInputs = append(t.AssetTags.OptionalInputs, graph.NewTaskInput(graph.TagShadowMap))
	return t
}

func (t *SceneRenderTask) OnGraphInit() {
	shadows := t.Assets.OptionalInput(0) != nil
	core.LogDebug("scene render task %s writes %s (shadows=%t)", t.InstanceID(), t.Assets.Output(0).Tag(), shadows)
}

func (t *SceneRenderTask) Execute(ctx *graph.ExecutionContext, output graph.Asset) error {
	s, err := sceneFrom(t.Assets.RequiredInput(0))
	if err != nil {
		return err
	}
	rc := scene.NewRenderContext(ctx.Recorder, ctx.ObserverIndex, metadata.RenderPhaseDefault, passFor(output, metadata.RenderPassStandard))
	s.RenderScene(rc)
	t.draws = rc.Draws()
	return nil
}

// Draws returns the number of objects drawn by the last execution.
func (t *SceneRenderTask) Draws() int {
	return t.draws
}
