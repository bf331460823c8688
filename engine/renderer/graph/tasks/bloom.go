package tasks

import (
	"github.com/spaghettifunk/anima-render/engine/core"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph/assets"
	"github.com/spaghettifunk/anima-render/engine/renderer/materials"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

// DefaultBloomPasses is the number of blur passes when none is configured.
const DefaultBloomPasses = 2

/**
 * @brief Blurs the bright parts of the rendered scene back and forth between a pair of
 * attachments. Reads the scene output shared, next to the post fx pass.
 */
type BloomTask struct {
	graph.BaseTask
	pipeline *materials.MaterialPipeline
	passes   int
}

func NewBloomTask(pipeline *materials.MaterialPipeline, passes int) *BloomTask {
	if passes <= 0 {
		passes = DefaultBloomPasses
	}
	t := &BloomTask{BaseTask: graph.NewBaseTask(graph.TaskIDBloom), pipeline: pipeline, passes: passes}
	t.AssetTags.Outputs = append(t.AssetTags.Outputs,
		graph.NewTaskOutput(graph.TagBloomColorAttachmentPair, graph.CreatedByTask, graph.Exclusive))
	t.AssetTags.RequiredInputs = append(t.AssetTags.RequiredInputs,
		graph.NewSharedTaskInput(graph.TagRenderedSceneOutput))
	return t
}

func (t *BloomTask) Execute(ctx *graph.ExecutionContext, output graph.Asset) error {
	pair, ok := output.(*assets.RenderTargetAsset)
	for i := 0; i < t.passes; i++ {
		drawFullscreen(ctx, t.pipeline, metadata.RenderPassPostFX)
		if i == t.passes-1 {
			break
		}
		if !ok {
			core.LogWarn("bloom output %s is not a render target, skipping ping-pong", output.Tag())
			return nil
		}
		if err := pair.Swap(ctx); err != nil {
			return err
		}
	}
	return nil
}
