package tasks

import (
	"github.com/spaghettifunk/anima-render/engine/renderer/graph"
	"github.com/spaghettifunk/anima-render/engine/renderer/materials"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

// FadeEffectTask fades the frame in from black over a duration. It draws on
// top of whatever else writes the final output.
type FadeEffectTask struct {
	graph.BaseTask
	pipeline *materials.MaterialPipeline
	duration float32
	elapsed  float32
}

func NewFadeEffectTask(pipeline *materials.MaterialPipeline, seconds float32) *FadeEffectTask {
	t := &FadeEffectTask{BaseTask: graph.NewBaseTask(graph.TaskIDFadeEffect), pipeline: pipeline, duration: seconds}
	t.AssetTags.Outputs = append(t.AssetTags.Outputs,
		graph.NewTaskOutput(graph.TagFinalFrameOutput, graph.CreatedExternally, graph.Shared).
			WithOrder(graph.OrderLast))
	return t
}

func (t *FadeEffectTask) Update(dt float32) {
	t.elapsed += dt
	if t.elapsed > t.duration {
		t.elapsed = t.duration
	}
}

// Alpha returns the opacity of the black overlay, 1 at the start and 0 once done.
func (t *FadeEffectTask) Alpha() float32 {
	if t.duration <= 0 {
		return 0
	}
	return 1 - t.elapsed/t.duration
}

func (t *FadeEffectTask) Done() bool {
	return t.Alpha() <= 0
}

func (t *FadeEffectTask) Execute(ctx *graph.ExecutionContext, output graph.Asset) error {
	if t.Done() {
		return nil
	}
	drawFullscreen(ctx, t.pipeline, metadata.RenderPassSwapframe)
	return nil
}
