package runnablegraph

import (
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/graph"
)

func TestDesiredLayoutStateSampledWantsShaderReadOnly(t *testing.T) {
	a := &graph.Attachment{Flags: graph.Sampled | graph.Input}
	got := desiredLayoutState(a)
	if got.Layout != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Errorf("Layout: got %v, want ShaderReadOnlyOptimal", got.Layout)
	}
}

func TestDesiredLayoutStateColourOutputWantsColourAttachmentOptimal(t *testing.T) {
	a := &graph.Attachment{Flags: graph.ColorAttachment | graph.Output}
	got := desiredLayoutState(a)
	if got.Layout != vk.ImageLayoutColorAttachmentOptimal {
		t.Errorf("Layout: got %v, want ColorAttachmentOptimal", got.Layout)
	}
}

func TestDesiredLayoutStateDepthInputWantsDepthStencilAttachmentOptimal(t *testing.T) {
	a := &graph.Attachment{Flags: graph.DepthAttachment | graph.Input}
	got := desiredLayoutState(a)
	if got.Layout != vk.ImageLayoutDepthStencilAttachmentOptimal {
		t.Errorf("Layout: got %v, want DepthStencilAttachmentOptimal", got.Layout)
	}
}

func TestDesiredLayoutStateTransferInputWantsTransferSrc(t *testing.T) {
	a := &graph.Attachment{Flags: graph.Transfer | graph.Input}
	got := desiredLayoutState(a)
	if got.Layout != vk.ImageLayoutTransferSrcOptimal {
		t.Errorf("Layout: got %v, want TransferSrcOptimal", got.Layout)
	}
}

func TestDesiredLayoutStateTransferOutputWantsTransferDst(t *testing.T) {
	a := &graph.Attachment{Flags: graph.Transfer | graph.Output}
	got := desiredLayoutState(a)
	if got.Layout != vk.ImageLayoutTransferDstOptimal {
		t.Errorf("Layout: got %v, want TransferDstOptimal", got.Layout)
	}
}

func TestDesiredLayoutStateStorageWantsGeneral(t *testing.T) {
	a := &graph.Attachment{Flags: graph.Storage | graph.InOut}
	got := desiredLayoutState(a)
	if got.Layout != vk.ImageLayoutGeneral {
		t.Errorf("Layout: got %v, want General", got.Layout)
	}
}
