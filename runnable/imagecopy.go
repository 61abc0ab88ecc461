package runnable

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/graph"
	"github.com/spaghettifunk/crg/record"
	"github.com/spaghettifunk/crg/resource"
)

// ImageCopy issues vkCmdCopyImage between the pass's transfer-input and
// transfer-output attachments, pairing them positionally. When there are
// fewer outputs than inputs, each extra input is copied into the last
// output (many-to-one, one vkCmdCopyImage per input); when there are more
// outputs than inputs, the
// last input supplies every remaining output (one-to-many), per §4.7's
// ImageCopy row.
type ImageCopy struct {
	*Base

	extent      resource.Extent3D
	finalLayout *resource.LayoutState
}

// NewImageCopy builds an ImageCopy runnable copying at extent. finalLayout,
// when non-nil, overrides the graph-computed post-copy layout for the
// destination views.
func NewImageCopy(ctx *backend.Context, pass *graph.FramePass, rc *record.Context, cfg Config, extent resource.Extent3D, finalLayout *resource.LayoutState) *ImageCopy {
	ic := &ImageCopy{extent: extent, finalLayout: finalLayout}
	ic.Base = NewBase(pass, ctx, rc, Callbacks{Record: ic.record}, cfg)
	return ic
}

func (ic *ImageCopy) record(cb vk.CommandBuffer, passIndex uint32) error {
	var inputs, outputs []*graph.Attachment
	for _, a := range ic.Pass.Attachments {
		if a.IsTransferInput() {
			inputs = append(inputs, a)
		} else if a.IsTransferOutput() {
			outputs = append(outputs, a)
		}
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil
	}

	handler := ic.RecordContext().Handler()
	ctx := ic.Context()
	n := len(inputs)
	if len(outputs) > n {
		n = len(outputs)
	}

	for i := 0; i < n; i++ {
		srcIdx, dstIdx := i, i
		if srcIdx >= len(inputs) {
			srcIdx = len(inputs) - 1
		}
		if dstIdx >= len(outputs) {
			dstIdx = len(outputs) - 1
		}
		src := inputs[srcIdx]
		dst := outputs[dstIdx]

		srcData, ok := handler.ViewData(src.ResolveView(passIndex))
		if !ok {
			continue
		}
		dstData, ok := handler.ViewData(dst.ResolveView(passIndex))
		if !ok {
			continue
		}
		srcImage, err := handler.CreateImage(ctx, srcData.Image)
		if err != nil {
			return err
		}
		dstImage, err := handler.CreateImage(ctx, dstData.Image)
		if err != nil {
			return err
		}

		region := vk.ImageCopy{
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
			Extent: vk.Extent3D{Width: ic.extent.Width, Height: ic.extent.Height, Depth: ic.extent.Depth},
		}

		vk.CmdCopyImage(cb, srcImage, vk.ImageLayoutTransferSrcOptimal, dstImage, vk.ImageLayoutTransferDstOptimal, 1, []vk.ImageCopy{region})
	}

	if ic.finalLayout != nil {
		for _, dst := range outputs {
			ic.RecordContext().SetLayoutState(dst.ResolveView(passIndex), *ic.finalLayout)
		}
	}

	return nil
}
