package assets

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-render/engine/config"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-render/engine/renderer/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScene struct{ id string }

func (s *fakeScene) ID() string                     { return s.id }
func (s *fakeScene) RenderStrategy() graph.Strategy { return nil }

func newContext(renderTexture bool) (*vulkan.HeadlessRecorder, *graph.ExecutionContext) {
	rec := vulkan.NewHeadlessRecorder(false)
	return rec, graph.NewExecutionContext(rec, 0, renderTexture)
}

func TestRenderTargetLifecycle(t *testing.T) {
	alloc := NewHeadlessAllocator()
	rt := NewRenderTargetAsset(graph.TagRenderedSceneOutput, alloc, RenderTargetConfig{})
	require.NoError(t, rt.DoCreate(graph.InitContext{Width: 800, Height: 600}))
	assert.Equal(t, 1, alloc.Live())
	w, h := rt.Size()
	assert.Equal(t, [2]uint32{800, 600}, [2]uint32{w, h})

	rec, ctx := newContext(false)
	// nothing written yet, nothing to transition
	require.NoError(t, rt.DoPrepareForInput(ctx))
	require.NoError(t, rt.DoStartOutput(ctx))
	require.NoError(t, rt.DoEndOutput(ctx))
	require.NoError(t, rt.DoPrepareForInput(ctx))

	assert.Equal(t, []vulkan.Op{
		vulkan.OpImageBarrier, vulkan.OpBeginRenderPass, vulkan.OpEndRenderPass, vulkan.OpImageBarrier,
	}, rec.Ops())
	assert.Equal(t, vk.ImageLayoutUndefined, rec.Commands[0].From)
	assert.Equal(t, vk.ImageLayoutColorAttachmentOptimal, rec.Commands[0].To)
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, rec.Commands[3].To)
	assert.Equal(t, uint32(800), rec.Commands[1].Target.Width)
	assert.True(t, rec.Balanced())

	rt.OnResize(400, 300)
	w, h = rt.Size()
	assert.Equal(t, [2]uint32{400, 300}, [2]uint32{w, h})
	assert.Equal(t, 1, alloc.Live())

	rt.OnReset()
	assert.Equal(t, 0, alloc.Live())
	assert.Nil(t, rt.Current())
}

func TestRenderTargetScaleAndFixedResolution(t *testing.T) {
	alloc := NewHeadlessAllocator()
	bloom := NewRenderTargetAsset(graph.TagBloomColorAttachmentPair, alloc, RenderTargetConfig{Count: 2, Scale: BloomScale})
	require.NoError(t, bloom.DoCreate(graph.InitContext{Width: 800, Height: 600}))
	w, h := bloom.Size()
	assert.Equal(t, [2]uint32{400, 300}, [2]uint32{w, h})
	assert.NotSame(t, bloom.Attachment(0), bloom.Attachment(1))

	shadow := NewRenderTargetAsset(graph.TagShadowMap, alloc, RenderTargetConfig{
		Depth:      true,
		Resolution: func() uint32 { return 1024 },
	})
	require.NoError(t, shadow.DoCreate(graph.InitContext{Width: 800, Height: 600}))
	shadow.OnResize(10, 10)
	w, h = shadow.Size()
	assert.Equal(t, [2]uint32{1024, 1024}, [2]uint32{w, h})
	assert.True(t, shadow.Current().Desc.Depth)
	assert.Equal(t, 3, alloc.Live())

	rec, ctx := newContext(false)
	require.NoError(t, shadow.DoStartOutput(ctx))
	assert.Equal(t, vk.ImageLayoutDepthStencilAttachmentOptimal, rec.Commands[0].To)
}

func TestRenderTargetSwap(t *testing.T) {
	alloc := NewHeadlessAllocator()
	pair := NewRenderTargetAsset(graph.TagBloomColorAttachmentPair, alloc, RenderTargetConfig{Count: 2})
	rec, ctx := newContext(false)
	assert.ErrorIs(t, pair.DoStartOutput(ctx), ErrNoAttachments)

	require.NoError(t, pair.DoCreate(graph.InitContext{Width: 64, Height: 64}))
	require.NoError(t, pair.DoStartOutput(ctx))
	require.NoError(t, pair.Swap(ctx))
	assert.Same(t, pair.Attachment(1), pair.Current())
	require.NoError(t, pair.DoEndOutput(ctx))

	assert.Equal(t, []vulkan.Op{
		vulkan.OpImageBarrier, vulkan.OpBeginRenderPass,
		vulkan.OpEndRenderPass, vulkan.OpImageBarrier, vulkan.OpImageBarrier, vulkan.OpBeginRenderPass,
		vulkan.OpEndRenderPass,
	}, rec.Ops())
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, rec.Commands[3].To)
	assert.True(t, rec.Balanced())

	single := NewRenderTargetAsset(graph.TagPostFXOutput, alloc, RenderTargetConfig{})
	require.NoError(t, single.DoCreate(graph.InitContext{Width: 64, Height: 64}))
	assert.ErrorIs(t, single.Swap(ctx), ErrNotPingPong)
}

func TestSwapframe(t *testing.T) {
	sf := NewSwapframeAsset()
	assert.True(t, sf.IsTerminal())
	rec, ctx := newContext(false)

	assert.ErrorIs(t, sf.DoStartOutput(ctx), ErrNoFrameTarget)
	assert.ErrorIs(t, sf.DoPrepareForInput(ctx), ErrTerminalInput)

	sf.SetFrame(metadata.RenderPassTarget{Width: 1280, Height: 720}, nil)
	require.NoError(t, sf.DoStartOutput(ctx))
	require.NoError(t, sf.DoEndOutput(ctx))
	require.NoError(t, sf.DoStartOutput(ctx))
	require.NoError(t, sf.DoEndOutput(ctx))
	assert.Equal(t, 2, sf.Passes())
	// only the first pass of a frame transitions the image
	assert.Equal(t, 1, rec.Count(vulkan.OpImageBarrier))
	assert.Equal(t, 2, rec.Count(vulkan.OpBeginRenderPass))

	rec, ctx = newContext(true)
	sf.SetFrame(metadata.RenderPassTarget{}, nil)
	require.NoError(t, sf.DoStartOutput(ctx))
	assert.Equal(t, 0, rec.Count(vulkan.OpImageBarrier))

	sf.OnResize(1, 1)
	assert.ErrorIs(t, sf.DoStartOutput(ctx), ErrNoFrameTarget)
}

func TestSceneInputPurpose(t *testing.T) {
	in := NewSceneInputAsset(&fakeScene{id: "scene-a"})
	assert.Equal(t, graph.TagSceneInput, in.Tag())
	assert.Equal(t, "scene-a", in.Purpose())
	assert.Equal(t, "scene-a", in.Scene().ID())
}

func TestRegisterProviders(t *testing.T) {
	alloc := NewHeadlessAllocator()
	gfx := config.NewGraphicsSettings(config.Default().Graphics)
	f := graph.NewAssetFactory()
	RegisterProviders(f, alloc, gfx)

	for _, tag := range []string{
		graph.TagRenderedSceneOutput, graph.TagPostFXOutput,
		graph.TagBloomColorAttachmentPair, graph.TagShadowMap,
	} {
		assert.True(t, f.HasProvider(tag), tag)
	}
	assert.False(t, f.HasProvider(graph.TagFinalFrameOutput))

	a, err := f.CreateAsset(graph.TagShadowMap)
	require.NoError(t, err)
	shadow := a.(*RenderTargetAsset)
	require.NoError(t, shadow.DoCreate(graph.InitContext{Width: 8, Height: 8}))
	w, _ := shadow.Size()
	assert.Equal(t, uint32(2048), w)

	v := gfx.Values()
	v.ShadowMapResolution = 512
	gfx.Apply(v)
	shadow.OnReset()
	require.NoError(t, shadow.DoCreate(graph.InitContext{Width: 8, Height: 8}))
	w, _ = shadow.Size()
	assert.Equal(t, uint32(512), w)

	a, err = f.CreateAsset(graph.TagBloomColorAttachmentPair)
	require.NoError(t, err)
	require.NoError(t, a.DoCreate(graph.InitContext{Width: 8, Height: 8}))
	assert.NotNil(t, a.(*RenderTargetAsset).Attachment(1))
}
