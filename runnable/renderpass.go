package runnable

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/core"
	"github.com/spaghettifunk/crg/graph"
	"github.com/spaghettifunk/crg/record"
	"github.com/spaghettifunk/crg/resource"
)

// RenderPass wraps a VkRenderPass plus one VkFramebuffer per pass-index,
// built from the owning FramePass's colour and depth/stencil attachments,
// per §4.7. Each VkAttachmentDescription takes initialLayout from the
// attachment's own InitialLayout field and a fixed finalLayout
// (ColorAttachmentOptimal or DepthStencilAttachmentOptimal); the
// LayoutTransition computed for the view is not consulted.
type RenderPass struct {
	*Base

	renderPass   vk.RenderPass
	framebuffers map[uint32]vk.Framebuffer
	extent       resource.Extent3D
	userRecord   func(cb vk.CommandBuffer, passIndex uint32) error
}

// NewRenderPass builds a RenderPass runnable for pass, rendering at
// extent, invoking record inside vkCmdBeginRenderPass/End, per §4.7's
// RenderPass row.
func NewRenderPass(ctx *backend.Context, pass *graph.FramePass, rc *record.Context, extent resource.Extent3D, cfg Config, record_ func(cb vk.CommandBuffer, passIndex uint32) error) *RenderPass {
	rp := &RenderPass{
		framebuffers: map[uint32]vk.Framebuffer{},
		extent:       extent,
		userRecord:   record_,
	}
	rp.Base = NewBase(pass, ctx, rc, Callbacks{
		Initialise: rp.initialise,
		Record:     rp.record,
	}, cfg)
	return rp
}

func (rp *RenderPass) initialise() error {
	return rp.createRenderPass()
}

// createRenderPass builds the VkRenderPass from the pass's colour and
// depth/stencil attachments. It runs once, from initialise; nothing
// re-creates the render pass when current layouts drift from the ones
// baked in here.
func (rp *RenderPass) createRenderPass() error {
	var descriptions []vk.AttachmentDescription
	var colourRefs []vk.AttachmentReference
	var depthRef *vk.AttachmentReference

	for _, a := range rp.Pass.Attachments {
		switch {
		case a.IsColourInput() || a.IsColourOutput():
			idx := uint32(len(descriptions))
			descriptions = append(descriptions, vk.AttachmentDescription{
				Format:         vk.FormatUndefined,
				Samples:        vk.SampleCount1Bit,
				LoadOp:         a.LoadOp,
				StoreOp:        a.StoreOp,
				StencilLoadOp:  vk.AttachmentLoadOpDontCare,
				StencilStoreOp: vk.AttachmentStoreOpDontCare,
				InitialLayout:  a.InitialLayout,
				FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
			})
			colourRefs = append(colourRefs, vk.AttachmentReference{Attachment: idx, Layout: vk.ImageLayoutColorAttachmentOptimal})
		case a.IsDepthInput() || a.IsDepthOutput() || a.IsStencilInput() || a.IsStencilOutput():
			idx := uint32(len(descriptions))
			descriptions = append(descriptions, vk.AttachmentDescription{
				Format:         vk.FormatUndefined,
				Samples:        vk.SampleCount1Bit,
				LoadOp:         a.LoadOp,
				StoreOp:        a.StoreOp,
				StencilLoadOp:  a.StencilLoadOp,
				StencilStoreOp: a.StencilStoreOp,
				InitialLayout:  a.InitialLayout,
				FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
			})
			ref := vk.AttachmentReference{Attachment: idx, Layout: vk.ImageLayoutDepthStencilAttachmentOptimal}
			depthRef = &ref
		}
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colourRefs)),
		PColorAttachments:    colourRefs,
	}
	if depthRef != nil {
		subpass.PDepthStencilAttachment = depthRef
	}

	dependencies := []vk.SubpassDependency{
		{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		},
		{
			SrcSubpass:   0,
			DstSubpass:   vk.SubpassExternal,
			SrcStageMask: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstStageMask: vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		},
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(descriptions)),
		PAttachments:    descriptions,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}

	ctx := rp.Context()
	if rp.renderPass != nil {
		vk.DestroyRenderPass(ctx.Device, rp.renderPass, ctx.Allocator)
	}
	if res := vk.CreateRenderPass(ctx.Device, &createInfo, ctx.Allocator, &rp.renderPass); res != vk.Success {
		core.LogError("RenderPass %q: vkCreateRenderPass failed with result %d", rp.Pass.Name, res)
		return core.ErrUnknown
	}
	return nil
}

func (rp *RenderPass) record(cb vk.CommandBuffer, passIndex uint32) error {
	fb, err := rp.framebuffer(passIndex)
	if err != nil {
		return err
	}

	clearValues := rp.clearValues()
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.renderPass,
		Framebuffer: fb,
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{Width: rp.extent.Width, Height: rp.extent.Height},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(cb, &beginInfo, vk.SubpassContentsInline)

	var err2 error
	if rp.userRecord != nil {
		err2 = rp.userRecord(cb, passIndex)
	}

	vk.CmdEndRenderPass(cb)
	return err2
}

func (rp *RenderPass) clearValues() []vk.ClearValue {
	var values []vk.ClearValue
	for _, a := range rp.Pass.Attachments {
		if a.IsColourOutput() {
			values = append(values, vk.ClearValue{Color: a.ClearColour})
		} else if a.IsDepthOutput() || a.IsStencilOutput() {
			values = append(values, vk.ClearValue{DepthStencil: a.ClearDepth})
		}
	}
	return values
}

func (rp *RenderPass) framebuffer(passIndex uint32) (vk.Framebuffer, error) {
	if fb, ok := rp.framebuffers[passIndex]; ok {
		return fb, nil
	}

	var views []vk.ImageView
	handler := rp.RecordContext().Handler()
	ctx := rp.Context()
	for _, a := range rp.Pass.Attachments {
		if !a.IsColourInput() && !a.IsColourOutput() && !a.IsDepthInput() && !a.IsDepthOutput() && !a.IsStencilInput() && !a.IsStencilOutput() {
			continue
		}
		view, err := handler.CreateImageView(ctx, a.ResolveView(passIndex))
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp.renderPass,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           rp.extent.Width,
		Height:          rp.extent.Height,
		Layers:          1,
	}
	var fb vk.Framebuffer
	if res := vk.CreateFramebuffer(ctx.Device, &createInfo, ctx.Allocator, &fb); res != vk.Success {
		core.LogError("RenderPass %q: vkCreateFramebuffer failed with result %d", rp.Pass.Name, res)
		return nil, core.ErrUnknown
	}
	rp.framebuffers[passIndex] = fb
	return fb, nil
}

// Destroy releases the render pass, framebuffers, and the shared Base
// lifecycle.
func (rp *RenderPass) Destroy() {
	ctx := rp.Context()
	for _, fb := range rp.framebuffers {
		vk.DestroyFramebuffer(ctx.Device, fb, ctx.Allocator)
	}
	if rp.renderPass != nil {
		vk.DestroyRenderPass(ctx.Device, rp.renderPass, ctx.Allocator)
	}
	rp.Base.Destroy()
}
