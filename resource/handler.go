package resource

import (
	"sync"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"

	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/core"
)

// imageResources is the lazily-created Vulkan state backing one interned
// ImageId: the image, its device memory, and the views created against it.
type imageResources struct {
	image  vk.Image
	memory vk.DeviceMemory
	views  map[ImageViewId]vk.ImageView
}

type bufferResources struct {
	buffer vk.Buffer
	memory vk.DeviceMemory
	views  map[BufferViewId]vk.BufferView
}

// Handler interns resource descriptors and lazily creates/owns the
// Vulkan objects behind them, per §4.1. For a given id the same VkImage/
// VkImageView (or VkBuffer/VkBufferView) is returned until explicitly
// destroyed.
type Handler struct {
	mu sync.Mutex

	nextImageID      ImageId
	nextImageViewID  ImageViewId
	nextBufferID     BufferId
	nextBufferViewID BufferViewId

	imageKeys      map[string]ImageId
	imageData      map[ImageId]ImageData
	imageNames     map[ImageId]string
	imageViewKeys  map[string]ImageViewId
	imageViewData  map[ImageViewId]ImageViewData
	bufferKeys     map[string]BufferId
	bufferData     map[BufferId]BufferData
	bufferNames    map[BufferId]string
	bufferViewKeys map[string]BufferViewId
	bufferViewData map[BufferViewId]BufferViewData

	images  map[ImageId]*imageResources
	buffers map[BufferId]*bufferResources
}

// NewHandler creates an empty resource handler.
func NewHandler() *Handler {
	return &Handler{
		imageKeys:      map[string]ImageId{},
		imageData:      map[ImageId]ImageData{},
		imageNames:     map[ImageId]string{},
		imageViewKeys:  map[string]ImageViewId{},
		imageViewData:  map[ImageViewId]ImageViewData{},
		bufferKeys:     map[string]BufferId{},
		bufferData:     map[BufferId]BufferData{},
		bufferNames:    map[BufferId]string{},
		bufferViewKeys: map[string]BufferViewId{},
		bufferViewData: map[BufferViewId]BufferViewData{},
		images:         map[ImageId]*imageResources{},
		buffers:        map[BufferId]*bufferResources{},
	}
}

// CreateImageId interns data, returning the existing id when an
// identical descriptor was already registered.
func (h *Handler) CreateImageId(data ImageData) ImageId {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := data.key()
	if id, ok := h.imageKeys[key]; ok {
		return id
	}
	h.nextImageID++
	id := h.nextImageID
	h.imageKeys[key] = id
	h.imageData[id] = data
	name := data.Name
	if name == "" {
		name = uuid.NewString()
	}
	h.imageNames[id] = name
	return id
}

// ImageData returns the descriptor registered for id.
func (h *Handler) ImageData(id ImageId) (ImageData, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.imageData[id]
	return d, ok
}

// ImageName returns the debug name attached to id (the caller-supplied
// name, or a generated UUID when none was given).
func (h *Handler) ImageName(id ImageId) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.imageNames[id]
}

// CreateViewId interns a view descriptor.
func (h *Handler) CreateViewId(data ImageViewData) ImageViewId {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := data.key()
	if id, ok := h.imageViewKeys[key]; ok {
		return id
	}
	h.nextImageViewID++
	id := h.nextImageViewID
	h.imageViewKeys[key] = id
	h.imageViewData[id] = data
	return id
}

// ViewData returns the descriptor registered for id.
func (h *Handler) ViewData(id ImageViewId) (ImageViewData, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.imageViewData[id]
	return d, ok
}

// CreateBufferId interns a buffer descriptor.
func (h *Handler) CreateBufferId(data BufferData) BufferId {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := data.key()
	if id, ok := h.bufferKeys[key]; ok {
		return id
	}
	h.nextBufferID++
	id := h.nextBufferID
	h.bufferKeys[key] = id
	h.bufferData[id] = data
	name := data.Name
	if name == "" {
		name = uuid.NewString()
	}
	h.bufferNames[id] = name
	return id
}

// BufferData returns the descriptor registered for id.
func (h *Handler) BufferData(id BufferId) (BufferData, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.bufferData[id]
	return d, ok
}

// CreateBufferViewId interns a buffer view descriptor.
func (h *Handler) CreateBufferViewId(data BufferViewData) BufferViewId {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := data.key()
	if id, ok := h.bufferViewKeys[key]; ok {
		return id
	}
	h.nextBufferViewID++
	id := h.nextBufferViewID
	h.bufferViewKeys[key] = id
	h.bufferViewData[id] = data
	return id
}

// BufferViewData returns the descriptor registered for id.
func (h *Handler) BufferViewData(id BufferViewId) (BufferViewData, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.bufferViewData[id]
	return d, ok
}

// CreateImage lazily allocates the VkImage + device memory for id and
// binds them, caching the result for subsequent calls.
func (h *Handler) CreateImage(ctx *backend.Context, id ImageId) (vk.Image, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if res, ok := h.images[id]; ok {
		return res.image, nil
	}

	data, ok := h.imageData[id]
	if !ok {
		return nil, core.ErrUnknown
	}

	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		Flags:     data.Flags,
		ImageType: data.Type,
		Format:    data.Format,
		Extent: vk.Extent3D{
			Width:  data.Extent.Width,
			Height: data.Extent.Height,
			Depth:  data.Extent.Depth,
		},
		MipLevels:     data.MipLevels,
		ArrayLayers:   data.ArrayLayers,
		Samples:       data.Samples,
		Tiling:        data.Tiling,
		Usage:         data.Usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	var image vk.Image
	if res := vk.CreateImage(ctx.Device, &createInfo, ctx.Allocator, &image); res != vk.Success {
		core.LogError("CreateImage: vkCreateImage failed for %q with result %d", data.Name, res)
		return nil, core.ErrUnknown
	}

	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(ctx.Device, image, &requirements)
	requirements.Deref()

	memoryType, found := ctx.DeduceMemoryType(requirements.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if !found {
		core.LogError("CreateImage: no device-local memory type for %q", data.Name)
		return nil, core.ErrUnknown
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(ctx.Device, &allocateInfo, ctx.Allocator, &memory); res != vk.Success {
		core.LogError("CreateImage: vkAllocateMemory failed for %q with result %d", data.Name, res)
		return nil, core.ErrUnknown
	}

	if res := vk.BindImageMemory(ctx.Device, image, memory, 0); res != vk.Success {
		core.LogError("CreateImage: vkBindImageMemory failed for %q with result %d", data.Name, res)
		return nil, core.ErrUnknown
	}

	h.images[id] = &imageResources{image: image, memory: memory, views: map[ImageViewId]vk.ImageView{}}
	return image, nil
}

// CreateImageView lazily creates a VkImageView for viewID, first ensuring
// the backing image exists.
func (h *Handler) CreateImageView(ctx *backend.Context, viewID ImageViewId) (vk.ImageView, error) {
	viewData, ok := h.ViewData(viewID)
	if !ok {
		return nil, core.ErrUnknown
	}

	if _, err := h.CreateImage(ctx, viewData.Image); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	res := h.images[viewData.Image]
	if view, ok := res.views[viewID]; ok {
		return view, nil
	}

	sr := viewData.SubresourceRange
	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    res.image,
		ViewType: viewData.ViewType,
		Format:   viewData.Format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     sr.AspectMask,
			BaseMipLevel:   sr.BaseMipLevel,
			LevelCount:     sr.LevelCount,
			BaseArrayLayer: sr.BaseArrayLayer,
			LayerCount:     sr.LayerCount,
		},
	}

	var view vk.ImageView
	if result := vk.CreateImageView(ctx.Device, &createInfo, ctx.Allocator, &view); result != vk.Success {
		core.LogError("CreateImageView: vkCreateImageView failed with result %d", result)
		return nil, core.ErrUnknown
	}

	res.views[viewID] = view
	return view, nil
}

// ImageHandle returns the VkImage already created for id, without
// creating one. ok is false when CreateImage has never been called for
// id — callers issuing barriers rely on the resource having been created
// earlier, during pass Initialise or an earlier record step.
func (h *Handler) ImageHandle(id ImageId) (vk.Image, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	res, ok := h.images[id]
	if !ok {
		return nil, false
	}
	return res.image, true
}

// BufferHandle mirrors ImageHandle for buffers.
func (h *Handler) BufferHandle(id BufferId) (vk.Buffer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	res, ok := h.buffers[id]
	if !ok {
		return nil, false
	}
	return res.buffer, true
}

// DestroyImage destroys the VkImage (and its memory and any views still
// cached for it) backing id, if it was ever created.
func (h *Handler) DestroyImage(ctx *backend.Context, id ImageId) {
	h.mu.Lock()
	defer h.mu.Unlock()

	res, ok := h.images[id]
	if !ok {
		return
	}
	for viewID, view := range res.views {
		vk.DestroyImageView(ctx.Device, view, ctx.Allocator)
		delete(res.views, viewID)
	}
	if res.memory != nil {
		vk.FreeMemory(ctx.Device, res.memory, ctx.Allocator)
	}
	if res.image != nil {
		vk.DestroyImage(ctx.Device, res.image, ctx.Allocator)
	}
	delete(h.images, id)
}

// DestroyImageView destroys a single cached view without touching the
// underlying image.
func (h *Handler) DestroyImageView(ctx *backend.Context, viewID ImageViewId) {
	viewData, ok := h.ViewData(viewID)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	res, ok := h.images[viewData.Image]
	if !ok {
		return
	}
	view, ok := res.views[viewID]
	if !ok {
		return
	}
	vk.DestroyImageView(ctx.Device, view, ctx.Allocator)
	delete(res.views, viewID)
}

// Clear destroys every Vulkan object owned by the handler. Any id still
// outstanding at this point is logged as a leak, per §7's LeakOnShutdown
// — the process is not aborted.
func (h *Handler) Clear(ctx *backend.Context) {
	h.mu.Lock()
	leaked := len(h.images) + len(h.buffers)
	imageIDs := make([]ImageId, 0, len(h.images))
	for id := range h.images {
		imageIDs = append(imageIDs, id)
	}
	bufferIDs := make([]BufferId, 0, len(h.buffers))
	for id := range h.buffers {
		bufferIDs = append(bufferIDs, id)
	}
	h.mu.Unlock()

	if leaked > 0 {
		core.LogError("ResourceHandler.Clear: %d resource(s) still alive at shutdown", leaked)
	}

	for _, id := range imageIDs {
		h.DestroyImage(ctx, id)
	}
	for _, id := range bufferIDs {
		h.DestroyBuffer(ctx, id)
	}
}

// CreateBuffer lazily allocates the VkBuffer + device memory for id and
// binds them, caching the result for subsequent calls.
func (h *Handler) CreateBuffer(ctx *backend.Context, id BufferId) (vk.Buffer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if res, ok := h.buffers[id]; ok {
		return res.buffer, nil
	}

	data, ok := h.bufferData[id]
	if !ok {
		return nil, core.ErrUnknown
	}

	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(data.Size),
		Usage:       data.Usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var buffer vk.Buffer
	if res := vk.CreateBuffer(ctx.Device, &createInfo, ctx.Allocator, &buffer); res != vk.Success {
		core.LogError("CreateBuffer: vkCreateBuffer failed for %q with result %d", data.Name, res)
		return nil, core.ErrUnknown
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(ctx.Device, buffer, &requirements)
	requirements.Deref()

	memoryType, found := ctx.DeduceMemoryType(requirements.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if !found {
		core.LogError("CreateBuffer: no device-local memory type for %q", data.Name)
		return nil, core.ErrUnknown
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(ctx.Device, &allocateInfo, ctx.Allocator, &memory); res != vk.Success {
		core.LogError("CreateBuffer: vkAllocateMemory failed for %q with result %d", data.Name, res)
		return nil, core.ErrUnknown
	}

	if res := vk.BindBufferMemory(ctx.Device, buffer, memory, 0); res != vk.Success {
		core.LogError("CreateBuffer: vkBindBufferMemory failed for %q with result %d", data.Name, res)
		return nil, core.ErrUnknown
	}

	h.buffers[id] = &bufferResources{buffer: buffer, memory: memory, views: map[BufferViewId]vk.BufferView{}}
	return buffer, nil
}

// DestroyBuffer destroys the VkBuffer (and its memory and views) backing
// id, if it was ever created.
func (h *Handler) DestroyBuffer(ctx *backend.Context, id BufferId) {
	h.mu.Lock()
	defer h.mu.Unlock()

	res, ok := h.buffers[id]
	if !ok {
		return
	}
	for viewID, view := range res.views {
		vk.DestroyBufferView(ctx.Device, view, ctx.Allocator)
		delete(res.views, viewID)
	}
	if res.memory != nil {
		vk.FreeMemory(ctx.Device, res.memory, ctx.Allocator)
	}
	if res.buffer != nil {
		vk.DestroyBuffer(ctx.Device, res.buffer, ctx.Allocator)
	}
	delete(h.buffers, id)
}
