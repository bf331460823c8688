package assets

import (
	"github.com/spaghettifunk/anima-render/engine/config"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph"
)

// BloomScale is the size of the bloom attachments relative to the observer.
const BloomScale = 0.5

// RegisterProviders adds a provider for every asset tasks create.
func RegisterProviders(f *graph.AssetFactory, alloc Allocator, gfx *config.GraphicsSettings) {
	colour := func(tag string) graph.Asset {
		return NewRenderTargetAsset(tag, alloc, RenderTargetConfig{})
	}
	f.AddProvider(graph.TagRenderedSceneOutput, graph.ProviderFunc(colour))
	f.AddProvider(graph.TagPostFXOutput, graph.ProviderFunc(colour))

	f.AddProvider(graph.TagBloomColorAttachmentPair, graph.ProviderFunc(func(tag string) graph.Asset {
		return NewRenderTargetAsset(tag, alloc, RenderTargetConfig{Count: 2, Scale: BloomScale})
	}))

	f.AddProvider(graph.TagShadowMap, graph.ProviderFunc(func(tag string) graph.Asset {
		return NewRenderTargetAsset(tag, alloc, RenderTargetConfig{
			Depth: true,
			Resolution: func() uint32 {
				return gfx.Values().ShadowMapResolution
			},
		})
	}))
}
