package renderer

import (
	"testing"

	"github.com/spaghettifunk/anima-render/engine/config"
	"github.com/spaghettifunk/anima-render/engine/ecs"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph/assets"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-render/engine/renderer/scene"
	"github.com/spaghettifunk/anima-render/engine/renderer/strategy"
	"github.com/spaghettifunk/anima-render/engine/renderer/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type targetFixture struct {
	t     *testing.T
	gfx   *config.GraphicsSettings
	alloc *assets.HeadlessAllocator
	rt    *RenderTarget
	rec   *vulkan.HeadlessRecorder
}

func newTargetFixture(t *testing.T) *targetFixture {
	gfx := config.NewGraphicsSettings(config.Default().Graphics)
	alloc := assets.NewHeadlessAllocator()
	return &targetFixture{
		t:     t,
		gfx:   gfx,
		alloc: alloc,
		rt:    NewRenderTarget(TargetConfig{Allocator: alloc, Graphics: gfx, Width: 800, Height: 600}),
		rec:   vulkan.NewHeadlessRecorder(false),
	}
}

func (f *targetFixture) newScene() *scene.BatchedScene {
	return scene.NewBatchedScene(scene.Config{
		Registry: ecs.NewRegistry(),
		Strategy: strategy.NewForwardStrategy(f.gfx, strategy.Pipelines{}),
	})
}

func (f *targetFixture) render() {
	f.rec.Reset()
	require.NoError(f.t, f.rt.Render(f.rec, metadata.RenderPassTarget{Width: 800, Height: 600}, nil))
	assert.True(f.t, f.rec.Balanced())
}

func (f *targetFixture) renderTarget(tag string) *assets.RenderTargetAsset {
	a, ok := f.rt.AssetPool().GetAsset(tag).(*assets.RenderTargetAsset)
	require.True(f.t, ok, tag)
	return a
}

func TestPushSceneRegistersObserver(t *testing.T) {
	f := newTargetFixture(t)
	s := f.newScene()

	require.NoError(t, f.rt.PushScene(s))
	assert.ErrorIs(t, f.rt.PushScene(s), ErrSceneAlreadyPushed)

	observer, ok := f.rt.Observer(s.ID())
	require.True(t, ok)
	assert.Equal(t, []uint32{observer}, s.Observers())
	assert.Equal(t, []string{s.ID()}, f.rt.Scenes())
	assert.NotNil(t, f.rt.Graph(s.ID()))
	assert.Equal(t, 1, f.rt.AssetPool().Count(graph.TagSceneInput))
}

func TestRenderPopulatesAndExecutes(t *testing.T) {
	f := newTargetFixture(t)
	s := f.newScene()
	require.NoError(t, f.rt.PushScene(s))

	f.render()
	g := f.rt.Graph(s.ID())
	assert.Len(t, g.Tasks(), 3)
	assert.False(t, g.NeedsRepopulation())
	// shadow map, scene and the post fx pass writing the frame
	assert.Equal(t, 3, f.rec.Count(vulkan.OpBeginRenderPass))
	assert.Equal(t, 1, f.rt.Swapframe().Passes())

	w, h := f.renderTarget(graph.TagRenderedSceneOutput).Size()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)

	f.render()
	assert.Equal(t, 3, f.rec.Count(vulkan.OpBeginRenderPass))
}

func TestRenderFollowsSettings(t *testing.T) {
	f := newTargetFixture(t)
	s := f.newScene()
	require.NoError(t, f.rt.PushScene(s))
	f.render()

	f.gfx.SetShadowsEnabled(false)
	g := f.rt.Graph(s.ID())
	assert.True(t, g.NeedsRepopulation())

	f.render()
	require.NotEmpty(t, g.Tasks())
	for _, task := range g.Tasks() {
		assert.NotEqual(t, graph.TaskIDShadowMap, task.ID())
	}
	assert.Equal(t, 2, f.rec.Count(vulkan.OpBeginRenderPass))
}

func TestRenderWithoutStrategyFails(t *testing.T) {
	f := newTargetFixture(t)
	s := scene.NewBatchedScene(scene.Config{Registry: ecs.NewRegistry()})
	require.NoError(t, f.rt.PushScene(s))

	err := f.rt.Render(f.rec, metadata.RenderPassTarget{}, nil)
	assert.ErrorIs(t, err, graph.ErrNoStrategy)
}

func TestScenesRenderInPushOrder(t *testing.T) {
	f := newTargetFixture(t)
	world, overlay := f.newScene(), f.newScene()
	require.NoError(t, f.rt.PushScene(world))
	require.NoError(t, f.rt.PushScene(overlay))

	f.render()
	assert.Equal(t, []string{world.ID(), overlay.ID()}, f.rt.Scenes())
	assert.Equal(t, 2, f.rt.Swapframe().Passes())
	assert.Equal(t, 6, f.rec.Count(vulkan.OpBeginRenderPass))
	// assets are shared between the graphs of one target
	assert.Equal(t, 1, f.rt.AssetPool().Count(graph.TagShadowMap))
}

func TestRemoveSceneReleasesAssets(t *testing.T) {
	f := newTargetFixture(t)
	s := f.newScene()
	require.NoError(t, f.rt.PushScene(s))
	f.render()
	require.Greater(t, f.alloc.Live(), 0)

	require.NoError(t, f.rt.RemoveScene(s.ID()))
	assert.ErrorIs(t, f.rt.RemoveScene(s.ID()), ErrSceneNotPushed)
	assert.Empty(t, s.Observers())
	assert.Empty(t, f.rt.Scenes())
	assert.Nil(t, f.rt.Graph(s.ID()))
	assert.Zero(t, f.alloc.Live())
	assert.Zero(t, f.rt.AssetPool().Count(graph.TagSceneInput))
	assert.Zero(t, f.rt.AssetPool().Count(graph.TagRenderedSceneOutput))
	assert.Equal(t, 1, f.rt.AssetPool().Count(graph.TagFinalFrameOutput))
}

func TestInvalidateShadowsRecreatesShadowMap(t *testing.T) {
	f := newTargetFixture(t)
	s := f.newScene()
	require.NoError(t, f.rt.PushScene(s))
	f.render()

	values := f.gfx.Values()
	values.ShadowMapResolution = 512
	f.gfx.Apply(values)
	assert.Equal(t, 1, f.rt.InvalidateShadows())

	shadow := f.renderTarget(graph.TagShadowMap)
	assert.False(t, shadow.IsCreated())
	f.render()

	shadow = f.renderTarget(graph.TagShadowMap)
	assert.True(t, shadow.IsCreated())
	w, h := shadow.Size()
	assert.Equal(t, uint32(512), w)
	assert.Equal(t, uint32(512), h)
}

func TestResizeReachesCreatedAssets(t *testing.T) {
	f := newTargetFixture(t)
	s := f.newScene()
	require.NoError(t, f.rt.PushScene(s))
	f.render()

	f.rt.Resize(1024, 768)
	w, h := f.renderTarget(graph.TagRenderedSceneOutput).Size()
	assert.Equal(t, uint32(1024), w)
	assert.Equal(t, uint32(768), h)
}

func TestDestroyUnregistersEverywhere(t *testing.T) {
	f := newTargetFixture(t)
	a, b := f.newScene(), f.newScene()
	require.NoError(t, f.rt.PushScene(a))
	require.NoError(t, f.rt.PushScene(b))
	f.render()

	f.rt.Destroy()
	assert.Empty(t, a.Observers())
	assert.Empty(t, b.Observers())
	assert.Zero(t, f.alloc.Live())
	assert.Zero(t, f.rt.AssetPool().Count(graph.TagFinalFrameOutput))
}
