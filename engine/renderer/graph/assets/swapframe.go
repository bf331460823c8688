package assets

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

/**
 * @brief The image presented for an observer. The owner of the observer sets the frame
 * target every frame; every graph writing the final output records one render pass into it.
 */
type SwapframeAsset struct {
	graph.AssetBase
	target    metadata.RenderPassTarget
	image     vk.Image
	hasTarget bool
	passes    int
}

func NewSwapframeAsset() *SwapframeAsset {
	return &SwapframeAsset{AssetBase: graph.NewAssetBase(graph.TagFinalFrameOutput, true)}
}

// SetFrame sets the swapchain image and pass of the frame being recorded.
func (s *SwapframeAsset) SetFrame(target metadata.RenderPassTarget, image vk.Image) {
	s.target = target
	s.image = image
	s.hasTarget = true
	s.passes = 0
}

// Passes returns the number of render passes recorded since the last SetFrame.
func (s *SwapframeAsset) Passes() int {
	return s.passes
}

func (s *SwapframeAsset) DoCreate(ctx graph.InitContext) error {
	return nil
}

func (s *SwapframeAsset) DoPrepareForInput(ctx *graph.ExecutionContext) error {
	return ErrTerminalInput
}

func (s *SwapframeAsset) DoStartOutput(ctx *graph.ExecutionContext) error {
	if !s.hasTarget {
		return fmt.Errorf("%s: %w", s.Tag(), ErrNoFrameTarget)
	}
	if s.passes == 0 && !ctx.RenderingToRenderTexture {
		ctx.Recorder.ImageBarrier(s.image, vk.ImageLayoutUndefined, vk.ImageLayoutColorAttachmentOptimal)
	}
	ctx.Recorder.BeginRenderPass(s.target)
	s.passes++
	return nil
}

func (s *SwapframeAsset) DoEndOutput(ctx *graph.ExecutionContext) error {
	ctx.Recorder.EndRenderPass()
	return nil
}

func (s *SwapframeAsset) OnResize(width, height uint32) {
	s.hasTarget = false
}
