package resource

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestLayerLayoutStatesSetGet(t *testing.T) {
	states := NewLayerLayoutStates()
	rng := ImageSubresourceRange{BaseMipLevel: 0, LevelCount: 4, BaseArrayLayer: 0, LayerCount: 1}
	want := LayoutState{Layout: vk.ImageLayoutShaderReadOnlyOptimal, Access: vk.AccessFlags(vk.AccessShaderReadBit)}

	states.Set(rng, want)
	got, ok := states.Get(rng)
	if !ok {
		t.Fatal("Get: expected a populated range to be found")
	}
	if !got.Equal(want) {
		t.Errorf("Get: got %+v, want %+v", got, want)
	}
}

func TestLayerLayoutStatesGetMergesAccessAcrossRange(t *testing.T) {
	states := NewLayerLayoutStates()
	states.Set(ImageSubresourceRange{BaseMipLevel: 0, LevelCount: 1, LayerCount: 1},
		LayoutState{Layout: vk.ImageLayoutGeneral, Access: vk.AccessFlags(vk.AccessShaderReadBit)})
	states.Set(ImageSubresourceRange{BaseMipLevel: 1, LevelCount: 1, LayerCount: 1},
		LayoutState{Layout: vk.ImageLayoutGeneral, Access: vk.AccessFlags(vk.AccessShaderWriteBit)})

	got, ok := states.Get(ImageSubresourceRange{BaseMipLevel: 0, LevelCount: 2, LayerCount: 1})
	if !ok {
		t.Fatal("Get: expected the combined range to be found")
	}
	want := vk.AccessFlags(vk.AccessShaderReadBit) | vk.AccessFlags(vk.AccessShaderWriteBit)
	if got.Access != want {
		t.Errorf("Get: access = %d, want merged mask %d", got.Access, want)
	}
}

func TestLayerLayoutStatesGetUntouchedRangeNotFound(t *testing.T) {
	states := NewLayerLayoutStates()
	if _, ok := states.Get(ImageSubresourceRange{LevelCount: 1, LayerCount: 1}); ok {
		t.Fatal("Get: expected an untouched range to report not-found")
	}
}
