package vulkan

import vk "github.com/goki/vulkan"

type usage struct {
	access vk.AccessFlags
	stage  vk.PipelineStageFlags
}

// layoutUsage returns how an image in the given layout is accessed and in which stage.
func layoutUsage(layout vk.ImageLayout) usage {
	switch layout {
	case vk.ImageLayoutColorAttachmentOptimal:
		return usage{
			access: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
			stage:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		}
	case vk.ImageLayoutDepthStencilAttachmentOptimal:
		return usage{
			access: vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
			stage:  vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit),
		}
	case vk.ImageLayoutShaderReadOnlyOptimal:
		return usage{
			access: vk.AccessFlags(vk.AccessShaderReadBit),
			stage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		}
	case vk.ImageLayoutTransferDstOptimal:
		return usage{
			access: vk.AccessFlags(vk.AccessTransferWriteBit),
			stage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		}
	case vk.ImageLayoutPresentSrc:
		return usage{
			access: 0,
			stage:  vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		}
	default:
		return usage{
			access: 0,
			stage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		}
	}
}
