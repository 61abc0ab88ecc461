package runnable

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/graph"
	"github.com/spaghettifunk/crg/record"
	"github.com/spaghettifunk/crg/resource"
)

// BufferToImageCopy issues vkCmdCopyBufferToImage from the pass's
// storage-input buffer attachment to its transfer-output image
// attachment, with an explicit pre-barrier on both sides, per §4.7.
type BufferToImageCopy struct {
	*Base

	extent resource.Extent3D
}

// NewBufferToImageCopy builds a BufferToImageCopy runnable.
func NewBufferToImageCopy(ctx *backend.Context, pass *graph.FramePass, rc *record.Context, cfg Config, extent resource.Extent3D) *BufferToImageCopy {
	bc := &BufferToImageCopy{extent: extent}
	bc.Base = NewBase(pass, ctx, rc, Callbacks{Record: bc.record}, cfg)
	return bc
}

func (bc *BufferToImageCopy) record(cb vk.CommandBuffer, passIndex uint32) error {
	var input *graph.Attachment
	var output *graph.Attachment
	for _, a := range bc.Pass.Attachments {
		if a.IsStorageInput() && a.BufferView != 0 && input == nil {
			input = a
		} else if a.IsTransferOutput() && output == nil {
			output = a
		}
	}
	if input == nil || output == nil {
		return nil
	}

	handler := bc.RecordContext().Handler()
	ctx := bc.Context()

	bufData, ok := handler.BufferViewData(input.ResolveBufferView(passIndex))
	if !ok {
		return nil
	}
	imgData, ok := handler.ViewData(output.ResolveView(passIndex))
	if !ok {
		return nil
	}
	buffer, err := handler.CreateBuffer(ctx, bufData.Buffer)
	if err != nil {
		return err
	}
	image, err := handler.CreateImage(ctx, imgData.Image)
	if err != nil {
		return err
	}

	bc.RecordContext().BufferMemoryBarrier(cb, buffer, bufData.Range.Size, resource.AccessState{
		Access: vk.AccessFlags(vk.AccessTransferReadBit), Stage: vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	}, false)
	bc.RecordContext().ImageMemoryBarrier(cb, output.ResolveView(passIndex), resource.LayoutState{
		Layout: vk.ImageLayoutTransferDstOptimal, Access: vk.AccessFlags(vk.AccessTransferWriteBit), Stage: vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	}, false)

	region := vk.BufferImageCopy{
		BufferOffset: vk.DeviceSize(bufData.Range.Offset),
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     imgData.SubresourceRange.AspectMask,
			MipLevel:       imgData.SubresourceRange.BaseMipLevel,
			BaseArrayLayer: imgData.SubresourceRange.BaseArrayLayer,
			LayerCount:     imgData.SubresourceRange.LayerCount,
		},
		ImageExtent: vk.Extent3D{Width: bc.extent.Width, Height: bc.extent.Height, Depth: bc.extent.Depth},
	}
	vk.CmdCopyBufferToImage(cb, buffer, image, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
	return nil
}
