package tasks

import (
	"fmt"

	"github.com/spaghettifunk/anima-render/engine/renderer/graph"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph/assets"
	"github.com/spaghettifunk/anima-render/engine/renderer/materials"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-render/engine/renderer/scene"
)

// SceneRenderer is the part of a scene the tasks draw through.
type SceneRenderer interface {
	graph.Scene
	RenderScene(rc *scene.RenderContext)
	RenderOpaqueObjects(rc *scene.RenderContext)
	RenderTransparentObjects(rc *scene.RenderContext)
}

// sceneInput is the input slot reading the scene with the given id.
func sceneInput(sceneID string) graph.TaskInput {
	return graph.NewSharedTaskInput(graph.TagSceneInput).WithPurpose(sceneID)
}

func sceneFrom(a graph.Asset) (SceneRenderer, error) {
	in, ok := a.(*assets.SceneInputAsset)
	if !ok {
		return nil, ErrNoSceneInput
	}
	r, ok := in.Scene().(SceneRenderer)
	if !ok {
		return nil, fmt.Errorf("scene %s: %w", in.Scene().ID(), ErrSceneNotRenderable)
	}
	return r, nil
}

// passFor returns the render pass to draw into output with.
func passFor(output graph.Asset, offscreen metadata.RenderPassID) metadata.RenderPassID {
	if output.Tag() == graph.TagFinalFrameOutput {
		return metadata.RenderPassSwapframe
	}
	return offscreen
}

// drawFullscreen draws one triangle covering the target with the post fx variant of pipeline.
func drawFullscreen(ctx *graph.ExecutionContext, pipeline *materials.MaterialPipeline, pass metadata.RenderPassID) {
	if pipeline != nil {
		if v, ok := pipeline.Variant(metadata.RenderPhasePostFX, pass); ok {
			ctx.Recorder.BindPipeline(v.Handle)
		}
	}
	ctx.Recorder.Draw(3, 1, 0, 0)
}
