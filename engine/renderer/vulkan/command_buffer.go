package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-render/engine/core"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

type CommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY CommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

/**
 * @brief Records render graph and scene commands into a Vulkan command buffer allocated
 * by the device layer. Implements metadata.CommandRecorder.
 */
type CommandBuffer struct {
	Handle vk.CommandBuffer
	// Command buffer state.
	State CommandBufferState
}

var _ metadata.CommandRecorder = (*CommandBuffer)(nil)

func NewCommandBuffer(handle vk.CommandBuffer) *CommandBuffer {
	state := COMMAND_BUFFER_STATE_READY
	if handle == nil {
		state = COMMAND_BUFFER_STATE_NOT_ALLOCATED
	}
	return &CommandBuffer{Handle: handle, State: state}
}

func (v *CommandBuffer) Begin(isSingleUse, isRenderpassContinue, isSimultaneousUse bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: 0,
	}
	if isSingleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if isRenderpassContinue {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if isSimultaneousUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}

	if err := checkResult("begin command buffer", vk.BeginCommandBuffer(v.Handle, &beginInfo)); err != nil {
		core.LogError(err.Error())
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *CommandBuffer) End() error {
	if err := checkResult("end command buffer", vk.EndCommandBuffer(v.Handle)); err != nil {
		core.LogError(err.Error())
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (v *CommandBuffer) UpdateSubmitted() {
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
}

func (v *CommandBuffer) Reset() {
	v.State = COMMAND_BUFFER_STATE_READY
}

func (v *CommandBuffer) BeginRenderPass(target metadata.RenderPassTarget) {
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  target.RenderPass,
		Framebuffer: target.Framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: target.Width, Height: target.Height},
		},
	}
	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor(target.ClearColour[:])
	clearValues[1].SetDepthStencil(target.Depth, target.Stencil)
	beginInfo.ClearValueCount = 2
	beginInfo.PClearValues = clearValues

	vk.CmdBeginRenderPass(v.Handle, &beginInfo, vk.SubpassContentsInline)
	v.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (v *CommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(v.Handle)
	v.State = COMMAND_BUFFER_STATE_RECORDING
}

func (v *CommandBuffer) ImageBarrier(image vk.Image, from, to vk.ImageLayout) {
	src := layoutUsage(from)
	dst := layoutUsage(to)
	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if from == vk.ImageLayoutDepthStencilAttachmentOptimal || to == vk.ImageLayoutDepthStencilAttachmentOptimal {
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           from,
		NewLayout:           to,
		SrcAccessMask:       src.access,
		DstAccessMask:       dst.access,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	vk.CmdPipelineBarrier(v.Handle, src.stage, dst.stage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

func (v *CommandBuffer) BindPipeline(pipeline vk.Pipeline) {
	vk.CmdBindPipeline(v.Handle, vk.PipelineBindPointGraphics, pipeline)
}

func (v *CommandBuffer) BindDescriptorSets(layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet) {
	vk.CmdBindDescriptorSets(v.Handle, vk.PipelineBindPointGraphics, layout, firstSet, uint32(len(sets)), sets, 0, nil)
}

func (v *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(v.Handle, vertexCount, instanceCount, firstVertex, firstInstance)
}

func (v *CommandBuffer) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(v.Handle, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}
