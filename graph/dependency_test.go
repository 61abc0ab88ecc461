package graph

import (
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/resource"
)

func newTestHandlerWithView(t *testing.T, mipLevels uint32) (*resource.Handler, resource.ImageViewId) {
	t.Helper()
	h := resource.NewHandler()
	img := h.CreateImageId(resource.ImageData{Name: "gbuffer", MipLevels: mipLevels, ArrayLayers: 1})
	view := h.CreateViewId(resource.ImageViewData{
		Image:            img,
		SubresourceRange: resource.ImageSubresourceRange{LevelCount: mipLevels, LayerCount: 1},
	})
	return h, view
}

func TestRangesOverlapSameImageOverlappingMips(t *testing.T) {
	h := resource.NewHandler()
	img := h.CreateImageId(resource.ImageData{Name: "shadow-atlas", MipLevels: 4, ArrayLayers: 1})
	lhs := h.CreateViewId(resource.ImageViewData{Image: img, SubresourceRange: resource.ImageSubresourceRange{BaseMipLevel: 0, LevelCount: 2, LayerCount: 1}})
	rhs := h.CreateViewId(resource.ImageViewData{Image: img, SubresourceRange: resource.ImageSubresourceRange{BaseMipLevel: 1, LevelCount: 2, LayerCount: 1}})

	lv, _ := h.ViewData(lhs)
	rv, _ := h.ViewData(rhs)
	if !rangesOverlap(lv, rv) {
		t.Fatal("rangesOverlap: expected overlapping mip ranges [0,2) and [1,3) to intersect")
	}
}

func TestRangesOverlapDisjointMips(t *testing.T) {
	h := resource.NewHandler()
	img := h.CreateImageId(resource.ImageData{Name: "shadow-atlas", MipLevels: 4, ArrayLayers: 1})
	lhs := h.CreateViewId(resource.ImageViewData{Image: img, SubresourceRange: resource.ImageSubresourceRange{BaseMipLevel: 0, LevelCount: 1, LayerCount: 1}})
	rhs := h.CreateViewId(resource.ImageViewData{Image: img, SubresourceRange: resource.ImageSubresourceRange{BaseMipLevel: 1, LevelCount: 1, LayerCount: 1}})

	lv, _ := h.ViewData(lhs)
	rv, _ := h.ViewData(rhs)
	if rangesOverlap(lv, rv) {
		t.Fatal("rangesOverlap: expected disjoint mip ranges [0,1) and [1,2) not to intersect")
	}
}

func TestRangesOverlapDifferentImagesNeverOverlap(t *testing.T) {
	h := resource.NewHandler()
	imgA := h.CreateImageId(resource.ImageData{Name: "a", MipLevels: 1, ArrayLayers: 1})
	imgB := h.CreateImageId(resource.ImageData{Name: "b", MipLevels: 1, ArrayLayers: 1})
	lhs := h.CreateViewId(resource.ImageViewData{Image: imgA, SubresourceRange: resource.ImageSubresourceRange{LevelCount: 1, LayerCount: 1}})
	rhs := h.CreateViewId(resource.ImageViewData{Image: imgB, SubresourceRange: resource.ImageSubresourceRange{LevelCount: 1, LayerCount: 1}})

	lv, _ := h.ViewData(lhs)
	rv, _ := h.ViewData(rhs)
	if rangesOverlap(lv, rv) {
		t.Fatal("rangesOverlap: views onto different images must never overlap")
	}
}

func TestBuildDependenciesProducerToConsumerEdge(t *testing.T) {
	h, view := newTestHandlerWithView(t, 1)

	producer := newFramePass("opaque", nil, nil)
	producer.Attachments = append(producer.Attachments, &Attachment{Pass: producer, Name: "colour", View: view, Flags: ColorAttachment | Output, LoadOp: vk.AttachmentLoadOpClear, StoreOp: vk.AttachmentStoreOpStore})

	consumer := newFramePass("tonemap", nil, nil)
	consumer.Attachments = append(consumer.Attachments, &Attachment{Pass: consumer, Name: "scene", View: view, Flags: Sampled | Input})

	deps, err := buildDependencies(h, []*FramePass{producer, consumer})
	if err != nil {
		t.Fatalf("buildDependencies: unexpected error: %v", err)
	}

	found := false
	for _, d := range deps {
		if d.SrcPass == producer && d.DstPass == consumer {
			found = true
		}
	}
	if !found {
		t.Fatal("buildDependencies: expected an edge from the colour-output pass to the sampled-input pass")
	}
}

func TestBuildDependenciesSelfInOutProducesLoopEdge(t *testing.T) {
	h, view := newTestHandlerWithView(t, 1)

	pass := newFramePass("bloom-accumulate", nil, nil)
	pass.Attachments = append(pass.Attachments, &Attachment{Pass: pass, Name: "accum", View: view, Flags: Storage | InOut})

	deps, err := buildDependencies(h, []*FramePass{pass})
	if err != nil {
		t.Fatalf("buildDependencies: unexpected error: %v", err)
	}

	found := false
	for _, d := range deps {
		if d.SrcPass == pass && d.DstPass == pass {
			found = true
		}
	}
	if !found {
		t.Fatal("buildDependencies: expected a self-loop edge for a self-referencing InOut attachment")
	}
}
