// Package resource implements the frame-graph resource model: interned
// image/buffer descriptors, their per-pass-index view aliases, and the
// lazy Vulkan object lifetimes backing them.
package resource

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// ImageId is an opaque, monotonically assigned handle to an interned
// ImageData descriptor.
type ImageId uint32

// ImageViewId is an opaque, monotonically assigned handle to an interned
// ImageViewData descriptor.
type ImageViewId uint32

// BufferId is an opaque, monotonically assigned handle to an interned
// BufferData descriptor.
type BufferId uint32

// BufferViewId is an opaque, monotonically assigned handle to an interned
// BufferViewData descriptor.
type BufferViewId uint32

// Extent3D is the width/height/depth of an image.
type Extent3D struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

// ImageSubresourceRange is the (aspect, mip-range, layer-range) slice of
// an image addressed by a view.
type ImageSubresourceRange struct {
	AspectMask     vk.ImageAspectFlags
	BaseMipLevel   uint32
	LevelCount     uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

// BufferSubresourceRange is the (offset, size) slice of a buffer
// addressed by a view.
type BufferSubresourceRange struct {
	Offset uint64
	Size   uint64
}

// ImageData is the immutable descriptor of an image resource. Two calls to
// ResourceHandler.CreateImageId with value-equal ImageData intern to the
// same ImageId.
type ImageData struct {
	Name        string
	Flags       vk.ImageCreateFlags
	Type        vk.ImageType
	Format      vk.Format
	Extent      Extent3D
	MipLevels   uint32
	ArrayLayers uint32
	Samples     vk.SampleCountFlagBits
	Tiling      vk.ImageTiling
	Usage       vk.ImageUsageFlags
}

func (d ImageData) key() string {
	return fmt.Sprintf("%s|%d|%d|%d|%d,%d,%d|%d|%d|%d|%d|%d",
		d.Name, d.Flags, d.Type, d.Format,
		d.Extent.Width, d.Extent.Height, d.Extent.Depth,
		d.MipLevels, d.ArrayLayers, d.Samples, d.Tiling, d.Usage)
}

// ImageViewData is the immutable descriptor of a view onto an image. When
// Source is non-empty, the view is a multi-pass-index alias: View(i)
// resolves to Source[i] when i < len(Source), and to the view itself
// otherwise (see Resolve).
type ImageViewData struct {
	Image            ImageId
	ViewType         vk.ImageViewType
	Format           vk.Format
	SubresourceRange ImageSubresourceRange
	Source           []ImageViewId
}

func (d ImageViewData) key() string {
	return fmt.Sprintf("%d|%d|%d|%+v|%v", d.Image, d.ViewType, d.Format, d.SubresourceRange, d.Source)
}

// Resolve returns the physical view id backing this logical view for the
// given pass-index, per §3's multi-pass-index aliasing rule: i < len(src)
// picks src[i], otherwise the view resolves to itself.
func (d ImageViewData) Resolve(self ImageViewId, passIndex uint32) ImageViewId {
	if int(passIndex) < len(d.Source) {
		return d.Source[passIndex]
	}
	return self
}

// BufferData is the immutable descriptor of a buffer resource.
type BufferData struct {
	Name  string
	Size  uint64
	Usage vk.BufferUsageFlags
}

func (d BufferData) key() string {
	return fmt.Sprintf("%s|%d|%d", d.Name, d.Size, d.Usage)
}

// BufferViewData is the immutable descriptor of a view onto a buffer
// (or, for buffers without a format, simply an offset+size subresource).
type BufferViewData struct {
	Buffer BufferId
	Format vk.Format
	Range  BufferSubresourceRange
	Source []BufferViewId
}

func (d BufferViewData) key() string {
	return fmt.Sprintf("%d|%d|%+v|%v", d.Buffer, d.Format, d.Range, d.Source)
}

// Resolve mirrors ImageViewData.Resolve for buffer view aliases.
func (d BufferViewData) Resolve(self BufferViewId, passIndex uint32) BufferViewId {
	if int(passIndex) < len(d.Source) {
		return d.Source[passIndex]
	}
	return self
}
