package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tagShadowLights = "shadow-lights"
)

type testAsset struct {
	AssetBase
	created          bool
	preparedForInput bool
	outputStarted    bool
	rendered         bool
	resets           int
	width, height    uint32
}

func newTestAsset(tag string) *testAsset {
	return &testAsset{AssetBase: NewAssetBase(tag, false)}
}

func (a *testAsset) DoCreate(ctx InitContext) error {
	a.created = true
	return nil
}

func (a *testAsset) DoPrepareForInput(ctx *ExecutionContext) error {
	a.preparedForInput = true
	return nil
}

func (a *testAsset) DoStartOutput(ctx *ExecutionContext) error {
	a.outputStarted = true
	return nil
}

func (a *testAsset) DoEndOutput(ctx *ExecutionContext) error {
	return nil
}

func (a *testAsset) OnResize(width, height uint32) {
	a.width = width
	a.height = height
}

func (a *testAsset) OnReset() {
	a.resets++
	a.created = false
}

func newTestFactory() *AssetFactory {
	f := NewAssetFactory()
	provider := ProviderFunc(func(tag string) Asset { return newTestAsset(tag) })
	for _, tag := range []string{
		TagSceneInput, tagShadowLights, TagShadowMap, TagRenderedSceneOutput,
		TagPostFXOutput, TagFinalFrameOutput, TagBloomColorAttachmentPair,
		"a", "p", "q", "x", "y",
	} {
		f.AddProvider(tag, provider)
	}
	return f
}

type testPool struct {
	pool      *AssetPool
	scene     *testAsset
	swapframe *testAsset
	lights    *testAsset
}

func newTestPool(withLights bool) *testPool {
	tp := &testPool{
		pool:      NewAssetPool(newTestFactory(), "target"),
		scene:     newTestAsset(TagSceneInput),
		swapframe: newTestAsset(TagFinalFrameOutput),
	}
	tp.pool.PutAsset(tp.scene)
	tp.pool.PutAsset(tp.swapframe)
	if withLights {
		tp.lights = newTestAsset(tagShadowLights)
		tp.pool.PutAsset(tp.lights)
	}
	return tp
}

type testScene struct {
	id       string
	strategy Strategy
}

func (s *testScene) ID() string               { return s.id }
func (s *testScene) RenderStrategy() Strategy { return s.strategy }

type testTask struct {
	BaseTask
	t         *testing.T
	graphInit int
	executed  int
	onExecute func(output Asset)
}

func newTestTask(t *testing.T, id string) *testTask {
	return &testTask{BaseTask: NewBaseTask(id), t: t}
}

func (tt *testTask) OnGraphInit() {
	tt.graphInit++
	for i := range tt.AssetTags.Outputs {
		require.NotNil(tt.t, tt.Assets.Outputs[i], "task %s output %d", tt.ID(), i)
	}
	for i := range tt.AssetTags.RequiredInputs {
		require.NotNil(tt.t, tt.Assets.RequiredInputs[i], "task %s input %d", tt.ID(), i)
	}
}

func (tt *testTask) Execute(ctx *ExecutionContext, output Asset) error {
	out := output.(*testAsset)
	assert.True(tt.t, out.created)
	assert.True(tt.t, out.outputStarted)
	for _, in := range tt.Assets.RequiredInputs {
		assert.True(tt.t, in.Asset.(*testAsset).preparedForInput)
	}
	for _, in := range tt.Assets.OptionalInputs {
		if in != nil {
			assert.True(tt.t, in.Asset.(*testAsset).preparedForInput)
		}
	}
	tt.executed++
	out.rendered = true
	if tt.onExecute != nil {
		tt.onExecute(output)
	}
	return nil
}

type sceneRenderTask struct{ *testTask }

func newSceneRenderTask(t *testing.T) sceneRenderTask {
	task := sceneRenderTask{newTestTask(t, TaskIDSceneRender)}
	task.AssetTags.Outputs = append(task.AssetTags.Outputs,
		NewTaskOutput(TagRenderedSceneOutput, CreatedByTask, Shared).
			AddOption(TagFinalFrameOutput, Shared, CreatedExternally))
	task.AssetTags.RequiredInputs = append(task.AssetTags.RequiredInputs, NewTaskInput(TagSceneInput))
	task.AssetTags.OptionalInputs = append(task.AssetTags.OptionalInputs, NewTaskInput(TagShadowMap))
	task.onExecute = func(output Asset) {
		if sm := task.Assets.OptionalInput(0); sm != nil {
			assert.True(t, sm.(*testAsset).rendered, "shadow map rendered before scene")
		}
	}
	return task
}

type postFXTask struct{ *testTask }

func newPostFXTask(t *testing.T, share ShareMode) postFXTask {
	task := postFXTask{newTestTask(t, TaskIDPostFX)}
	task.AssetTags.Outputs = append(task.AssetTags.Outputs,
		NewTaskOutput(TagPostFXOutput, CreatedByTask, Exclusive).
			AddOption(TagFinalFrameOutput, Shared, CreatedExternally))
	in := NewTaskInput(TagRenderedSceneOutput, TagPostFXOutput)
	in.ShareMode = share
	task.AssetTags.RequiredInputs = append(task.AssetTags.RequiredInputs, in)
	task.onExecute = func(output Asset) {
		assert.True(t, task.Assets.RequiredInput(0).(*testAsset).rendered, "post fx input rendered")
	}
	return task
}

type shadowMapTask struct{ *testTask }

func newShadowMapTask(t *testing.T) shadowMapTask {
	task := shadowMapTask{newTestTask(t, TaskIDShadowMap)}
	task.AssetTags.Outputs = append(task.AssetTags.Outputs, NewTaskOutput(TagShadowMap, CreatedByTask, Exclusive))
	task.AssetTags.RequiredInputs = append(task.AssetTags.RequiredInputs,
		NewTaskInput(TagSceneInput), NewTaskInput(tagShadowLights))
	return task
}

type bloomTask struct{ *testTask }

func newBloomTask(t *testing.T) bloomTask {
	task := bloomTask{newTestTask(t, TaskIDBloom)}
	task.AssetTags.Outputs = append(task.AssetTags.Outputs,
		NewTaskOutput(TagBloomColorAttachmentPair, CreatedByTask, Exclusive))
	task.AssetTags.RequiredInputs = append(task.AssetTags.RequiredInputs, NewSharedTaskInput(TagRenderedSceneOutput))
	return task
}

type postFXBloomTask struct{ *testTask }

func newPostFXBloomTask(t *testing.T) postFXBloomTask {
	task := postFXBloomTask{newTestTask(t, "postfx-bloom")}
	task.AssetTags.Outputs = append(task.AssetTags.Outputs,
		NewTaskOutput(TagPostFXOutput, CreatedByTask, Exclusive).
			AddOption(TagFinalFrameOutput, Shared, CreatedExternally))
	task.AssetTags.RequiredInputs = append(task.AssetTags.RequiredInputs,
		NewSharedTaskInput(TagRenderedSceneOutput), NewTaskInput(TagBloomColorAttachmentPair))
	return task
}

// externalSharingTask writes the final output and records when it ran.
type externalSharingTask struct {
	*testTask
	ranAt int
}

func newExternalSharingTask(t *testing.T, id string, order Order, counter *int) *externalSharingTask {
	task := &externalSharingTask{testTask: newTestTask(t, id), ranAt: -1}
	task.AssetTags.Outputs = append(task.AssetTags.Outputs,
		NewTaskOutput(TagFinalFrameOutput, CreatedExternally, Shared).WithOrder(order))
	task.onExecute = func(Asset) {
		task.ranAt = *counter
		*counter++
	}
	return task
}

func mustPut(t *testing.T, g *RenderGraph, tasks ...Task) {
	for _, task := range tasks {
		_, err := g.PutTask(task)
		require.NoError(t, err)
	}
}

func runFrame(t *testing.T, g *RenderGraph) {
	g.AssetPool().StartFrame()
	ctx := NewExecutionContext(nil, 0, false)
	require.NoError(t, g.Execute(ctx))
	require.NoError(t, g.ExecuteFinal(ctx))
}
