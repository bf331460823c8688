package metadata

import vk "github.com/goki/vulkan"

// RenderPassTarget describes the render pass instance to begin.
type RenderPassTarget struct {
	RenderPass  vk.RenderPass
	Framebuffer vk.Framebuffer
	Width       uint32
	Height      uint32
	ClearColour [4]float32
	Depth       float32
	Stencil     uint32
}

// CommandRecorder is the slice of command buffer recording the render graph
// and batched scenes rely on. The recorder is always in the recording state
// when handed out.
type CommandRecorder interface {
	BeginRenderPass(target RenderPassTarget)
	EndRenderPass()
	ImageBarrier(image vk.Image, from, to vk.ImageLayout)
	BindPipeline(pipeline vk.Pipeline)
	BindDescriptorSets(layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
}
