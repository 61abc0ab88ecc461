package resource

import "testing"

func TestCreateImageIdInterning(t *testing.T) {
	h := NewHandler()
	data := ImageData{Name: "colour", Extent: Extent3D{Width: 1920, Height: 1080, Depth: 1}, MipLevels: 1, ArrayLayers: 1}

	first := h.CreateImageId(data)
	second := h.CreateImageId(data)
	if first != second {
		t.Fatalf("CreateImageId: identical descriptors interned to different ids: %d != %d", first, second)
	}

	other := data
	other.Extent.Width = 1280
	third := h.CreateImageId(other)
	if third == first {
		t.Fatalf("CreateImageId: distinct descriptors interned to the same id %d", first)
	}
}

func TestImageNameDefaultsToGeneratedUUID(t *testing.T) {
	h := NewHandler()
	id := h.CreateImageId(ImageData{})
	name := h.ImageName(id)
	if name == "" {
		t.Fatal("ImageName: expected a generated debug name for an unnamed descriptor, got empty string")
	}
}

func TestImageViewResolveAliasing(t *testing.T) {
	h := NewHandler()
	image := h.CreateImageId(ImageData{Name: "ping-pong"})

	src0 := h.CreateViewId(ImageViewData{Image: image})
	src1 := h.CreateViewId(ImageViewData{Image: image, SubresourceRange: ImageSubresourceRange{BaseMipLevel: 1}})
	alias := ImageViewData{Image: image, SubresourceRange: ImageSubresourceRange{BaseMipLevel: 2}, Source: []ImageViewId{src0, src1}}
	aliasID := h.CreateViewId(alias)

	if got := alias.Resolve(aliasID, 0); got != src0 {
		t.Errorf("Resolve(0): got %d, want %d", got, src0)
	}
	if got := alias.Resolve(aliasID, 1); got != src1 {
		t.Errorf("Resolve(1): got %d, want %d", got, src1)
	}
	if got := alias.Resolve(aliasID, 2); got != aliasID {
		t.Errorf("Resolve(2): got %d, want self %d", got, aliasID)
	}
}

func TestBufferDataKeyDistinguishesSize(t *testing.T) {
	h := NewHandler()
	small := h.CreateBufferId(BufferData{Name: "staging", Size: 1024})
	large := h.CreateBufferId(BufferData{Name: "staging", Size: 2048})
	if small == large {
		t.Fatal("CreateBufferId: descriptors differing only in size interned to the same id")
	}
}
