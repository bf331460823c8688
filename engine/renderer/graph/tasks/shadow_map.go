package tasks

import (
	"github.com/spaghettifunk/anima-render/engine/renderer/graph"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-render/engine/renderer/scene"
)

// ShadowMapTask renders the depth of the opaque objects into the shadow map.
type ShadowMapTask struct {
	graph.BaseTask
	draws int
}

func NewShadowMapTask(sceneID string) *ShadowMapTask {
	t := &ShadowMapTask{BaseTask: graph.NewBaseTask(graph.TaskIDShadowMap)}
	t.AssetTags.Outputs = append(t.AssetTags.Outputs,
		graph.NewTaskOutput(graph.TagShadowMap, graph.CreatedByTask, graph.Exclusive))
	t.AssetTags.RequiredInputs = append(t.AssetTags.RequiredInputs, sceneInput(sceneID))
	return t
}

func (t *ShadowMapTask) Execute(ctx *graph.ExecutionContext, output graph.Asset) error {
	s, err := sceneFrom(t.Assets.RequiredInput(0))
	if err != nil {
		return err
	}
	rc := scene.NewRenderContext(ctx.Recorder, ctx.ObserverIndex, metadata.RenderPhaseShadowMap, metadata.RenderPassShadowMap)
	s.RenderOpaqueObjects(rc)
	t.draws = rc.Draws()
	return nil
}

func (t *ShadowMapTask) Draws() int {
	return t.draws
}
