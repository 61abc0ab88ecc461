package runnable

import (
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/resource"
)

func TestMipLevelViewInternsDistinctViewsPerLevel(t *testing.T) {
	h := resource.NewHandler()
	img := h.CreateImageId(resource.ImageData{Name: "mipped", MipLevels: 4, ArrayLayers: 1})
	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)

	level0 := mipLevelView(h, img, aspect, 0, 0, 1)
	level1 := mipLevelView(h, img, aspect, 1, 0, 1)
	level0Again := mipLevelView(h, img, aspect, 0, 0, 1)

	if level0 == level1 {
		t.Fatalf("mipLevelView: level 0 and level 1 interned to the same view id %d", level0)
	}
	if level0 != level0Again {
		t.Fatalf("mipLevelView: identical (image, aspect, level, layer) interned to different ids: %d != %d", level0, level0Again)
	}

	data, ok := h.ViewData(level1)
	if !ok {
		t.Fatal("ViewData: expected the interned level-1 view to be found")
	}
	if data.SubresourceRange.BaseMipLevel != 1 || data.SubresourceRange.LevelCount != 1 {
		t.Errorf("ViewData(level1).SubresourceRange: got %+v, want BaseMipLevel=1 LevelCount=1", data.SubresourceRange)
	}
}
