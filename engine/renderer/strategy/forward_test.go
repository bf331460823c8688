package strategy

import (
	"testing"

	"github.com/spaghettifunk/anima-render/engine/config"
	"github.com/spaghettifunk/anima-render/engine/ecs"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph/assets"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-render/engine/renderer/scene"
	"github.com/spaghettifunk/anima-render/engine/renderer/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGraph(t *testing.T, gfx *config.GraphicsSettings) (*graph.RenderGraph, *assets.SwapframeAsset) {
	s := scene.NewBatchedScene(scene.Config{
		Registry: ecs.NewRegistry(),
		Strategy: NewForwardStrategy(gfx, Pipelines{}),
	})
	_, err := s.RegisterObserver()
	require.NoError(t, err)

	f := graph.NewAssetFactory()
	assets.RegisterProviders(f, assets.NewHeadlessAllocator(), gfx)
	pool := graph.NewAssetPool(f, "target")
	pool.NotifyResize(320, 200)
	swap := assets.NewSwapframeAsset()
	pool.PutAsset(swap)
	pool.PutAsset(assets.NewSceneInputAsset(s))
	return graph.NewRenderGraph(pool, s, nil), swap
}

func taskIDs(g *graph.RenderGraph) []string {
	var ids []string
	for _, t := range g.Tasks() {
		ids = append(ids, t.ID())
	}
	return ids
}

func TestForwardStrategyPopulate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(v *config.GraphicsValues)
		want   []string
	}{
		{
			name:   "defaults",
			modify: func(v *config.GraphicsValues) {},
			want:   []string{graph.TaskIDShadowMap, graph.TaskIDSceneRender, graph.TaskIDPostFX},
		},
		{
			name: "scene only",
			modify: func(v *config.GraphicsValues) {
				v.ShadowsEnabled = false
				v.PostFXEnabled = false
			},
			want: []string{graph.TaskIDSceneRender},
		},
		{
			name: "bloom without post fx is dropped",
			modify: func(v *config.GraphicsValues) {
				v.PostFXEnabled = false
				v.BloomEnabled = true
			},
			want: []string{graph.TaskIDShadowMap, graph.TaskIDSceneRender},
		},
		{
			name: "everything",
			modify: func(v *config.GraphicsValues) {
				v.BloomEnabled = true
				v.PostFXPasses = 3
				v.FadeInSeconds = 0.5
			},
			want: []string{
				graph.TaskIDShadowMap, graph.TaskIDSceneRender, graph.TaskIDBloom,
				graph.TaskIDPostFX, graph.TaskIDPostFX, graph.TaskIDPostFX, graph.TaskIDFadeEffect,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := config.Default().Graphics
			tt.modify(&v)
			g, swap := newGraph(t, config.NewGraphicsSettings(v))

			require.True(t, g.NeedsRepopulation())
			require.NoError(t, g.Populate())
			assert.Equal(t, tt.want, taskIDs(g))
			assert.False(t, g.NeedsRepopulation())

			rec := vulkan.NewHeadlessRecorder(false)
			swap.SetFrame(metadata.RenderPassTarget{}, nil)
			ctx := graph.NewExecutionContext(rec, 0, false)
			require.NoError(t, g.Execute(ctx))
			require.NoError(t, g.ExecuteFinal(ctx))
			assert.True(t, rec.Balanced())
			assert.Len(t, g.Timeline().Order(), len(tt.want))
		})
	}
}

func TestForwardStrategyFollowsSettingsVersion(t *testing.T) {
	gfx := config.NewGraphicsSettings(config.Default().Graphics)
	g, _ := newGraph(t, gfx)
	require.NoError(t, g.Populate())
	assert.False(t, g.NeedsRepopulation())

	gfx.SetShadowsEnabled(false)
	require.True(t, g.NeedsRepopulation())
	require.NoError(t, g.Populate())
	assert.Equal(t, []string{graph.TaskIDSceneRender, graph.TaskIDPostFX}, taskIDs(g))
}
