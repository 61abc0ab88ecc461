package record

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/resource"
)

// ImageMemoryBarrier emits (or elides) a VkImageMemoryBarrier transitioning
// view from its currently recorded layout state to wanted.
// When force is false and the current state already equals wanted, no
// barrier is recorded at all. force=true always re-emits the barrier;
// no caller in this module passes true.
func (c *Context) ImageMemoryBarrier(cb vk.CommandBuffer, view resource.ImageViewId, wanted resource.LayoutState, force bool) {
	current := c.GetLayoutState(view)
	if !force && current.Equal(wanted) {
		return
	}

	data, ok := c.handler.ViewData(view)
	if !ok {
		return
	}
	image, ok := c.handler.ImageHandle(data.Image)
	if !ok {
		return
	}

	srcStage := current.Stage
	if srcStage == 0 {
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	}

	separateDepthStencil := c.backend == nil || c.backend.SeparateDepthStencilLayouts
	if imageData, ok := c.handler.ImageData(data.Image); ok {
		switch imageData.Format {
		case vk.FormatD16UnormS8Uint, vk.FormatD24UnormS8Uint, vk.FormatD32SfloatS8Uint:
		default:
			// Only combined depth-stencil formats are widened.
			separateDepthStencil = true
		}
	}
	aspect := normaliseAspect(data.SubresourceRange.AspectMask, separateDepthStencil)

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       current.Access,
		DstAccessMask:       wanted.Access,
		OldLayout:           current.Layout,
		NewLayout:           wanted.Layout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   data.SubresourceRange.BaseMipLevel,
			LevelCount:     data.SubresourceRange.LevelCount,
			BaseArrayLayer: data.SubresourceRange.BaseArrayLayer,
			LayerCount:     data.SubresourceRange.LayerCount,
		},
	}

	vk.CmdPipelineBarrier(cb, srcStage, wanted.Stage, vk.DependencyFlags(0),
		0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})

	c.SetLayoutState(view, wanted)
}

// BufferMemoryBarrier emits (or elides) a VkBufferMemoryBarrier
// transitioning buffer to wanted, with the same elision rule as
// ImageMemoryBarrier.
func (c *Context) BufferMemoryBarrier(cb vk.CommandBuffer, buffer vk.Buffer, size uint64, wanted resource.AccessState, force bool) {
	current := c.GetAccessState(buffer)
	if !force && current.Equal(wanted) {
		return
	}

	srcStage := current.Stage
	if srcStage == 0 {
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	}

	barrier := vk.BufferMemoryBarrier{
		SType:               vk.StructureTypeBufferMemoryBarrier,
		SrcAccessMask:       current.Access,
		DstAccessMask:       wanted.Access,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Buffer:              buffer,
		Offset:              0,
		Size:                vk.DeviceSize(size),
	}

	vk.CmdPipelineBarrier(cb, srcStage, wanted.Stage, vk.DependencyFlags(0),
		0, nil, 1, []vk.BufferMemoryBarrier{barrier}, 0, nil)

	c.SetAccessState(buffer, wanted)
}

// normaliseAspect widens a depth-only or stencil-only aspect mask to
// depth|stencil on devices that don't support
// VK_KHR_separate_depth_stencil_layouts: such devices must transition
// depth and stencil together rather than splitting the barrier per aspect.
func normaliseAspect(aspect vk.ImageAspectFlags, separateDepthStencil bool) vk.ImageAspectFlags {
	if separateDepthStencil {
		return aspect
	}
	depthStencil := vk.ImageAspectFlags(vk.ImageAspectDepthBit) | vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	if aspect&depthStencil != 0 {
		return depthStencil
	}
	return aspect
}
