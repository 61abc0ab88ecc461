package record

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestNormaliseAspectPassesThroughWhenDeviceSupportsSeparateLayouts(t *testing.T) {
	depth := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	if got := normaliseAspect(depth, true); got != depth {
		t.Errorf("normaliseAspect: got %d, want unchanged %d", got, depth)
	}
}

func TestNormaliseAspectWidensDepthOnlyWithoutSeparateLayouts(t *testing.T) {
	depth := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	want := vk.ImageAspectFlags(vk.ImageAspectDepthBit) | vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	if got := normaliseAspect(depth, false); got != want {
		t.Errorf("normaliseAspect: got %d, want widened %d", got, want)
	}
}

func TestNormaliseAspectLeavesColourAspectUntouched(t *testing.T) {
	colour := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if got := normaliseAspect(colour, false); got != colour {
		t.Errorf("normaliseAspect: got %d, want unchanged %d", got, colour)
	}
}

func TestImageMemoryBarrierElidesWhenStateUnchanged(t *testing.T) {
	h := newTestResourceHandler(t)
	view := newTestView(t, h)

	c := New(h, nil)
	wanted := stubLayoutState()
	c.SetLayoutState(view, wanted)

	// Recording with force=false against an already-matching state must not
	// touch the command buffer at all; passing the zero value stands in for
	// "no driver calls happened".
	c.ImageMemoryBarrier(vk.CommandBuffer{}, view, wanted, false)

	got := c.GetLayoutState(view)
	if !got.Equal(wanted) {
		t.Errorf("GetLayoutState after elided barrier: got %+v, want %+v", got, wanted)
	}
}
