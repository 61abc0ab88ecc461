package runnable

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/graph"
	"github.com/spaghettifunk/crg/record"
	"github.com/spaghettifunk/crg/resource"
)

// BufferCopy issues vkCmdCopyBuffer from the pass's storage-input buffer
// attachment to its storage-output buffer attachment, inserting an
// explicit pre-barrier transitioning each side to TransferSrc/Dst before
// the copy, per §4.7's BufferCopy row.
type BufferCopy struct {
	*Base
}

// NewBufferCopy builds a BufferCopy runnable.
func NewBufferCopy(ctx *backend.Context, pass *graph.FramePass, rc *record.Context, cfg Config) *BufferCopy {
	bc := &BufferCopy{}
	bc.Base = NewBase(pass, ctx, rc, Callbacks{Record: bc.record}, cfg)
	return bc
}

func (bc *BufferCopy) record(cb vk.CommandBuffer, passIndex uint32) error {
	var input, output *graph.Attachment
	for _, a := range bc.Pass.Attachments {
		if a.IsStorageInput() && input == nil {
			input = a
		} else if a.IsStorageOutput() && output == nil {
			output = a
		}
	}
	if input == nil || output == nil {
		return nil
	}

	handler := bc.RecordContext().Handler()
	ctx := bc.Context()

	srcData, ok := handler.BufferViewData(input.ResolveBufferView(passIndex))
	if !ok {
		return nil
	}
	dstData, ok := handler.BufferViewData(output.ResolveBufferView(passIndex))
	if !ok {
		return nil
	}
	srcBuffer, err := handler.CreateBuffer(ctx, srcData.Buffer)
	if err != nil {
		return err
	}
	dstBuffer, err := handler.CreateBuffer(ctx, dstData.Buffer)
	if err != nil {
		return err
	}

	bc.RecordContext().BufferMemoryBarrier(cb, srcBuffer, srcData.Range.Size, resource.AccessState{
		Access: vk.AccessFlags(vk.AccessTransferReadBit), Stage: vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	}, false)
	bc.RecordContext().BufferMemoryBarrier(cb, dstBuffer, dstData.Range.Size, resource.AccessState{
		Access: vk.AccessFlags(vk.AccessTransferWriteBit), Stage: vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	}, false)

	region := vk.BufferCopy{
		SrcOffset: vk.DeviceSize(srcData.Range.Offset),
		DstOffset: vk.DeviceSize(dstData.Range.Offset),
		Size:      vk.DeviceSize(srcData.Range.Size),
	}
	vk.CmdCopyBuffer(cb, srcBuffer, dstBuffer, 1, []vk.BufferCopy{region})
	return nil
}
