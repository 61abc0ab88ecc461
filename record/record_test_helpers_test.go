package record

import (
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/resource"
)

func newTestResourceHandler(t *testing.T) *resource.Handler {
	t.Helper()
	return resource.NewHandler()
}

func newTestView(t *testing.T, h *resource.Handler) resource.ImageViewId {
	t.Helper()
	img := h.CreateImageId(resource.ImageData{Name: "target", MipLevels: 1, ArrayLayers: 1})
	return h.CreateViewId(resource.ImageViewData{
		Image:            img,
		SubresourceRange: resource.ImageSubresourceRange{LevelCount: 1, LayerCount: 1},
	})
}

func stubLayoutState() resource.LayoutState {
	return resource.LayoutState{
		Layout: vk.ImageLayoutShaderReadOnlyOptimal,
		Access: vk.AccessFlags(vk.AccessShaderReadBit),
		Stage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
	}
}
