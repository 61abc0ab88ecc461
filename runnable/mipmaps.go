package runnable

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/graph"
	"github.com/spaghettifunk/crg/record"
	"github.com/spaghettifunk/crg/resource"
)

// GenerateMipmaps iteratively blits level N into level N+1 for every
// inout image view attached to the pass, transitioning level N to
// TransferSrc and level N+1 to TransferDst before each blit, finishing
// with every level in the graph's desired next layout, per §4.7.
type GenerateMipmaps struct {
	*Base

	finalLayout resource.LayoutState
}

// NewGenerateMipmaps builds a GenerateMipmaps runnable leaving every
// level of its inout views in finalLayout once done.
func NewGenerateMipmaps(ctx *backend.Context, pass *graph.FramePass, rc *record.Context, cfg Config, finalLayout resource.LayoutState) *GenerateMipmaps {
	gm := &GenerateMipmaps{finalLayout: finalLayout}
	gm.Base = NewBase(pass, ctx, rc, Callbacks{Record: gm.record}, cfg)
	return gm
}

func (gm *GenerateMipmaps) record(cb vk.CommandBuffer, passIndex uint32) error {
	handler := gm.RecordContext().Handler()
	ctx := gm.Context()
	rc := gm.RecordContext()

	for _, a := range gm.Pass.Attachments {
		if !a.IsTransferInput() || !a.IsTransferOutput() {
			continue
		}

		viewData, ok := handler.ViewData(a.ResolveView(passIndex))
		if !ok {
			continue
		}
		imageData, ok := handler.ImageData(viewData.Image)
		if !ok {
			continue
		}
		image, err := handler.CreateImage(ctx, viewData.Image)
		if err != nil {
			return err
		}

		width, height := int32(imageData.Extent.Width), int32(imageData.Extent.Height)
		levels := imageData.MipLevels
		aspect := viewData.SubresourceRange.AspectMask
		layer := viewData.SubresourceRange.BaseArrayLayer
		layerCount := viewData.SubresourceRange.LayerCount

		for level := uint32(0); level+1 < levels; level++ {
			srcView := mipLevelView(handler, viewData.Image, aspect, level, layer, layerCount)
			dstView := mipLevelView(handler, viewData.Image, aspect, level+1, layer, layerCount)

			rc.ImageMemoryBarrier(cb, srcView, resource.LayoutState{
				Layout: vk.ImageLayoutTransferSrcOptimal, Access: vk.AccessFlags(vk.AccessTransferReadBit), Stage: vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			}, false)
			rc.ImageMemoryBarrier(cb, dstView, resource.LayoutState{
				Layout: vk.ImageLayoutTransferDstOptimal, Access: vk.AccessFlags(vk.AccessTransferWriteBit), Stage: vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			}, false)

			nextWidth, nextHeight := width, height
			if nextWidth > 1 {
				nextWidth /= 2
			}
			if nextHeight > 1 {
				nextHeight /= 2
			}

			region := vk.ImageBlit{
				SrcSubresource: vk.ImageSubresourceLayers{AspectMask: aspect, MipLevel: level, BaseArrayLayer: layer, LayerCount: layerCount},
				DstSubresource: vk.ImageSubresourceLayers{AspectMask: aspect, MipLevel: level + 1, BaseArrayLayer: layer, LayerCount: layerCount},
			}
			region.SrcOffsets[1] = vk.Offset3D{X: width, Y: height, Z: 1}
			region.DstOffsets[1] = vk.Offset3D{X: nextWidth, Y: nextHeight, Z: 1}

			vk.CmdBlitImage(cb, image, vk.ImageLayoutTransferSrcOptimal, image, vk.ImageLayoutTransferDstOptimal, 1, []vk.ImageBlit{region}, vk.FilterLinear)

			width, height = nextWidth, nextHeight
		}

		for level := uint32(0); level < levels; level++ {
			view := mipLevelView(handler, viewData.Image, aspect, level, layer, layerCount)
			rc.ImageMemoryBarrier(cb, view, gm.finalLayout, false)
		}
	}
	return nil
}

func mipLevelView(handler *resource.Handler, image resource.ImageId, aspect vk.ImageAspectFlags, level, layer, layerCount uint32) resource.ImageViewId {
	imageData, _ := handler.ImageData(image)
	return handler.CreateViewId(resource.ImageViewData{
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   imageData.Format,
		SubresourceRange: resource.ImageSubresourceRange{
			AspectMask: aspect, BaseMipLevel: level, LevelCount: 1, BaseArrayLayer: layer, LayerCount: layerCount,
		},
	})
}
