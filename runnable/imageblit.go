package runnable

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/graph"
	"github.com/spaghettifunk/crg/record"
)

// Rect2D is an integer 2-D rectangle used to describe a blit source or
// destination region.
type Rect2D struct {
	X, Y, Width, Height int32
}

// ImageBlit issues vkCmdBlitImage between the pass's single transfer
// input and transfer output, per §4.7's ImageBlit row.
type ImageBlit struct {
	*Base

	srcRect Rect2D
	dstRect Rect2D
	filter  vk.Filter
}

// NewImageBlit builds an ImageBlit runnable blitting srcRect of the
// input view into dstRect of the output view using filter.
func NewImageBlit(ctx *backend.Context, pass *graph.FramePass, rc *record.Context, cfg Config, srcRect, dstRect Rect2D, filter vk.Filter) *ImageBlit {
	ib := &ImageBlit{srcRect: srcRect, dstRect: dstRect, filter: filter}
	ib.Base = NewBase(pass, ctx, rc, Callbacks{Record: ib.record}, cfg)
	return ib
}

func (ib *ImageBlit) record(cb vk.CommandBuffer, passIndex uint32) error {
	var input, output *graph.Attachment
	for _, a := range ib.Pass.Attachments {
		if a.IsTransferInput() && input == nil {
			input = a
		} else if a.IsTransferOutput() && output == nil {
			output = a
		}
	}
	if input == nil || output == nil {
		return nil
	}

	handler := ib.RecordContext().Handler()
	ctx := ib.Context()

	srcData, ok := handler.ViewData(input.ResolveView(passIndex))
	if !ok {
		return nil
	}
	dstData, ok := handler.ViewData(output.ResolveView(passIndex))
	if !ok {
		return nil
	}
	srcImage, err := handler.CreateImage(ctx, srcData.Image)
	if err != nil {
		return err
	}
	dstImage, err := handler.CreateImage(ctx, dstData.Image)
	if err != nil {
		return err
	}

	region := vk.ImageBlit{
		SrcSubresource: vk.ImageSubresourceLayers{
			AspectMask:     srcData.SubresourceRange.AspectMask,
			MipLevel:       srcData.SubresourceRange.BaseMipLevel,
			BaseArrayLayer: srcData.SubresourceRange.BaseArrayLayer,
			LayerCount:     srcData.SubresourceRange.LayerCount,
		},
		DstSubresource: vk.ImageSubresourceLayers{
			AspectMask:     dstData.SubresourceRange.AspectMask,
			MipLevel:       dstData.SubresourceRange.BaseMipLevel,
			BaseArrayLayer: dstData.SubresourceRange.BaseArrayLayer,
			LayerCount:     dstData.SubresourceRange.LayerCount,
		},
	}
	region.SrcOffsets[0] = vk.Offset3D{X: ib.srcRect.X, Y: ib.srcRect.Y, Z: 0}
	region.SrcOffsets[1] = vk.Offset3D{X: ib.srcRect.X + ib.srcRect.Width, Y: ib.srcRect.Y + ib.srcRect.Height, Z: 1}
	region.DstOffsets[0] = vk.Offset3D{X: ib.dstRect.X, Y: ib.dstRect.Y, Z: 0}
	region.DstOffsets[1] = vk.Offset3D{X: ib.dstRect.X + ib.dstRect.Width, Y: ib.dstRect.Y + ib.dstRect.Height, Z: 1}

	vk.CmdBlitImage(cb, srcImage, vk.ImageLayoutTransferSrcOptimal, dstImage, vk.ImageLayoutTransferDstOptimal, 1, []vk.ImageBlit{region}, ib.filter)
	return nil
}
