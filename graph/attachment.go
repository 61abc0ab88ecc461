package graph

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/resource"
)

// Flag is the attachment flag bitset from §3: a usage kind (Sampled,
// Storage, Uniform, Transfer, Color/Depth/StencilAttachment, Implicit)
// combined with a direction (Input, Output, InOut).
type Flag uint32

const (
	Sampled Flag = 1 << iota
	Storage
	Uniform
	Transfer
	ColorAttachment
	DepthAttachment
	StencilAttachment
	Implicit

	Input
	Output
	InOut
)

func (f Flag) has(bit Flag) bool { return f&bit != 0 }

// Attachment is a typed edge between a FramePass and a view (image or
// buffer), per §3.
type Attachment struct {
	Pass    *FramePass
	Name    string
	Binding uint32
	Flags   Flag

	// Image-only fields.
	View           resource.ImageViewId
	ViewArray      []resource.ImageViewId
	LoadOp         vk.AttachmentLoadOp
	StoreOp        vk.AttachmentStoreOp
	StencilLoadOp  vk.AttachmentLoadOp
	StencilStoreOp vk.AttachmentStoreOp
	InitialLayout  vk.ImageLayout
	ClearColour    vk.ClearColorValue
	ClearDepth     vk.ClearDepthStencilValue
	Blend          vk.PipelineColorBlendAttachmentState
	Sampler        *SamplerDesc

	// Buffer-only fields.
	BufferView      resource.BufferViewId
	BufferViewArray []resource.BufferViewId
	Access          vk.AccessFlags
	Clearable       bool

	// Parent is the attachment this one was cloned from, forming the
	// in/out chain for inout attachments (§3).
	Parent *Attachment
}

// SamplerDesc mirrors the Vulkan sampler parameters attached to a Sampled
// attachment, per §3's "sampler description (when Sampled)".
type SamplerDesc struct {
	MinFilter  vk.Filter
	MagFilter  vk.Filter
	MipmapMode vk.SamplerMipmapMode
	AddressU   vk.SamplerAddressMode
	AddressV   vk.SamplerAddressMode
	AddressW   vk.SamplerAddressMode
	MinLod     float32
	MaxLod     float32
}

// Equal implements the Attachment equality rule of §3:
// (pass, name, view, flags).
func (a Attachment) Equal(o Attachment) bool {
	return a.Pass == o.Pass && a.Name == o.Name && a.Flags == o.Flags &&
		a.View == o.View && a.BufferView == o.BufferView
}

func (a Attachment) isImage() bool { return a.View != 0 || len(a.ViewArray) > 0 }
func (a Attachment) isBuffer() bool {
	return a.BufferView != 0 || len(a.BufferViewArray) > 0
}

// IsSampled reports whether this attachment binds a combined-image-sampler.
func (a Attachment) IsSampled() bool { return a.Flags.has(Sampled) }

// IsUniform reports whether this attachment binds a uniform buffer/texel
// buffer.
func (a Attachment) IsUniform() bool { return a.Flags.has(Uniform) }

// IsStorage reports whether this attachment binds a storage image/buffer.
func (a Attachment) IsStorage() bool { return a.Flags.has(Storage) }

// IsTransfer reports whether this attachment is a transfer source/
// destination.
func (a Attachment) IsTransfer() bool { return a.Flags.has(Transfer) }

// IsImplicit reports whether this attachment exists only to express an
// ordering constraint (no descriptor, §4.2's addImplicit).
func (a Attachment) IsImplicit() bool { return a.Flags.has(Implicit) }

// IsColourInput reports whether this is a colour-attachment read
// (input or inout).
func (a Attachment) IsColourInput() bool {
	return a.Flags.has(ColorAttachment) && (a.Flags.has(Input) || a.Flags.has(InOut))
}

// IsColourOutput reports whether this is a colour-attachment write
// (output or inout).
func (a Attachment) IsColourOutput() bool {
	return a.Flags.has(ColorAttachment) && (a.Flags.has(Output) || a.Flags.has(InOut))
}

// IsColourInOut reports whether this is a self-referencing colour
// in-out attachment.
func (a Attachment) IsColourInOut() bool {
	return a.Flags.has(ColorAttachment) && a.Flags.has(InOut)
}

// IsDepthInput / IsDepthOutput / IsStencilInput / IsStencilOutput mirror
// the colour predicates for the depth and stencil aspects.
func (a Attachment) IsDepthInput() bool {
	return a.Flags.has(DepthAttachment) && (a.Flags.has(Input) || a.Flags.has(InOut))
}
func (a Attachment) IsDepthOutput() bool {
	return a.Flags.has(DepthAttachment) && (a.Flags.has(Output) || a.Flags.has(InOut))
}
func (a Attachment) IsStencilInput() bool {
	return a.Flags.has(StencilAttachment) && (a.Flags.has(Input) || a.Flags.has(InOut))
}
func (a Attachment) IsStencilOutput() bool {
	return a.Flags.has(StencilAttachment) && (a.Flags.has(Output) || a.Flags.has(InOut))
}

// IsTransferInput / IsTransferOutput mirror the colour predicates for
// transfer attachments.
func (a Attachment) IsTransferInput() bool {
	return a.Flags.has(Transfer) && (a.Flags.has(Input) || a.Flags.has(InOut))
}
func (a Attachment) IsTransferOutput() bool {
	return a.Flags.has(Transfer) && (a.Flags.has(Output) || a.Flags.has(InOut))
}

// IsStorageInput / IsStorageOutput mirror the colour predicates for
// storage image/buffer attachments.
func (a Attachment) IsStorageInput() bool {
	return a.Flags.has(Storage) && (a.Flags.has(Input) || a.Flags.has(InOut))
}
func (a Attachment) IsStorageOutput() bool {
	return a.Flags.has(Storage) && (a.Flags.has(Output) || a.Flags.has(InOut))
}

// ResolveView resolves the attachment's view for the given pass-index,
// applying §4.2's view(i) = array[min(i, len(array)-1)] rule when the
// attachment carries a view array.
func (a Attachment) ResolveView(passIndex uint32) resource.ImageViewId {
	if len(a.ViewArray) == 0 {
		return a.View
	}
	if int(passIndex) >= len(a.ViewArray) {
		return a.ViewArray[len(a.ViewArray)-1]
	}
	return a.ViewArray[passIndex]
}

// ResolveBufferView mirrors ResolveView for buffer attachments.
func (a Attachment) ResolveBufferView(passIndex uint32) resource.BufferViewId {
	if len(a.BufferViewArray) == 0 {
		return a.BufferView
	}
	if int(passIndex) >= len(a.BufferViewArray) {
		return a.BufferViewArray[len(a.BufferViewArray)-1]
	}
	return a.BufferViewArray[passIndex]
}

// IsDescriptor reports whether the attachment binds a descriptor (as
// opposed to being an attachment/transfer/implicit-only declaration),
// per §4.8's "only those that are descriptors" filter.
func (a Attachment) IsDescriptor() bool {
	return a.Flags.has(Sampled) || a.Flags.has(Storage) || a.Flags.has(Uniform)
}
