package tasks

import (
	"github.com/spaghettifunk/anima-render/engine/renderer/graph"
	"github.com/spaghettifunk/anima-render/engine/renderer/materials"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

type PostFXConfig struct {
	// Pipeline drawn in the post fx phase. May be nil when recording headless.
	Pipeline *materials.MaterialPipeline
	// InputShare must be Shared when another task, like bloom, reads the same scene output.
	InputShare graph.ShareMode
	// UseBloom reads the bloom attachments when a bloom task provides them.
	UseBloom bool
}

/**
 * @brief A fullscreen pass reading the rendered scene or the output of the previous post fx
 * pass. The last pass of a chain writes the final output.
 */
type PostFXTask struct {
	graph.BaseTask
	cfg        PostFXConfig
	executions int
}

func NewPostFXTask(cfg PostFXConfig) *PostFXTask {
	t := &PostFXTask{BaseTask: graph.NewBaseTask(graph.TaskIDPostFX), cfg: cfg}
	t.AssetTags.Outputs = append(t.AssetTags.Outputs,
		graph.NewTaskOutput(graph.TagPostFXOutput, graph.CreatedByTask, graph.Exclusive).
			AddOption(graph.TagFinalFrameOutput, graph.Shared, graph.CreatedExternally))
	in := graph.NewTaskInput(graph.TagRenderedSceneOutput, graph.TagPostFXOutput)
	in.ShareMode = cfg.InputShare
	t.AssetTags.RequiredInputs = append(t.AssetTags.RequiredInputs, in)
	if cfg.UseBloom {
		t.AssetTags.OptionalInputs = append(t.AssetTags.OptionalInputs, graph.NewTaskInput(graph.TagBloomColorAttachmentPair))
	}
	return t
}

// Bloom returns the bloom attachments read by the pass, or nil.
func (t *PostFXTask) Bloom() graph.Asset {
	return t.Assets.OptionalInput(0)
}

func (t *PostFXTask) Execute(ctx *graph.ExecutionContext, output graph.Asset) error {
	drawFullscreen(ctx, t.cfg.Pipeline, passFor(output, metadata.RenderPassPostFX))
	t.executions++
	return nil
}

// Executions returns how many times the pass ran.
func (t *PostFXTask) Executions() int {
	return t.executions
}
