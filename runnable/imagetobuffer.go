package runnable

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/graph"
	"github.com/spaghettifunk/crg/record"
	"github.com/spaghettifunk/crg/resource"
)

// ImageToBufferCopy issues vkCmdCopyImageToBuffer from the pass's
// transfer-input image attachment to its storage-output buffer
// attachment, with an explicit pre-barrier on both sides, per §4.7.
type ImageToBufferCopy struct {
	*Base

	extent resource.Extent3D
}

// NewImageToBufferCopy builds an ImageToBufferCopy runnable.
func NewImageToBufferCopy(ctx *backend.Context, pass *graph.FramePass, rc *record.Context, cfg Config, extent resource.Extent3D) *ImageToBufferCopy {
	ic := &ImageToBufferCopy{extent: extent}
	ic.Base = NewBase(pass, ctx, rc, Callbacks{Record: ic.record}, cfg)
	return ic
}

func (ic *ImageToBufferCopy) record(cb vk.CommandBuffer, passIndex uint32) error {
	var input *graph.Attachment
	var output *graph.Attachment
	for _, a := range ic.Pass.Attachments {
		if a.IsTransferInput() && input == nil {
			input = a
		} else if a.IsStorageOutput() && a.BufferView != 0 && output == nil {
			output = a
		}
	}
	if input == nil || output == nil {
		return nil
	}

	handler := ic.RecordContext().Handler()
	ctx := ic.Context()

	imgData, ok := handler.ViewData(input.ResolveView(passIndex))
	if !ok {
		return nil
	}
	bufData, ok := handler.BufferViewData(output.ResolveBufferView(passIndex))
	if !ok {
		return nil
	}
	image, err := handler.CreateImage(ctx, imgData.Image)
	if err != nil {
		return err
	}
	buffer, err := handler.CreateBuffer(ctx, bufData.Buffer)
	if err != nil {
		return err
	}

	ic.RecordContext().ImageMemoryBarrier(cb, input.ResolveView(passIndex), resource.LayoutState{
		Layout: vk.ImageLayoutTransferSrcOptimal, Access: vk.AccessFlags(vk.AccessTransferReadBit), Stage: vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	}, false)
	ic.RecordContext().BufferMemoryBarrier(cb, buffer, bufData.Range.Size, resource.AccessState{
		Access: vk.AccessFlags(vk.AccessTransferWriteBit), Stage: vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	}, false)

	region := vk.BufferImageCopy{
		BufferOffset: vk.DeviceSize(bufData.Range.Offset),
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     imgData.SubresourceRange.AspectMask,
			MipLevel:       imgData.SubresourceRange.BaseMipLevel,
			BaseArrayLayer: imgData.SubresourceRange.BaseArrayLayer,
			LayerCount:     imgData.SubresourceRange.LayerCount,
		},
		ImageExtent: vk.Extent3D{Width: ic.extent.Width, Height: ic.extent.Height, Depth: ic.extent.Depth},
	}
	vk.CmdCopyImageToBuffer(cb, image, vk.ImageLayoutTransferSrcOptimal, buffer, 1, []vk.BufferImageCopy{region})
	return nil
}
