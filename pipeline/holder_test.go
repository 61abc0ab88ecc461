package pipeline

import (
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/graph"
)

func newTestHolder(bindPoint BindPoint) *Holder {
	return &Holder{
		bindPoint: bindPoint,
		sets:      map[uint32]vk.DescriptorSet{},
		pipelines: map[uint32]vk.Pipeline{},
	}
}

func TestVkBindPointMapsGraphicsAndCompute(t *testing.T) {
	if got := newTestHolder(Graphics).VkBindPoint(); got != vk.PipelineBindPointGraphics {
		t.Errorf("VkBindPoint(Graphics): got %v, want %v", got, vk.PipelineBindPointGraphics)
	}
	if got := newTestHolder(Compute).VkBindPoint(); got != vk.PipelineBindPointCompute {
		t.Errorf("VkBindPoint(Compute): got %v, want %v", got, vk.PipelineBindPointCompute)
	}
}

func TestSetPipelineThenPipelineRoundTrips(t *testing.T) {
	h := newTestHolder(Graphics)
	if _, ok := h.Pipeline(0); ok {
		t.Fatal("Pipeline: expected no cached pipeline before SetPipeline")
	}

	var p vk.Pipeline
	h.SetPipeline(0, p)
	got, ok := h.Pipeline(0)
	if !ok {
		t.Fatal("Pipeline: expected a cached pipeline after SetPipeline")
	}
	if got != p {
		t.Errorf("Pipeline: got %v, want %v", got, p)
	}
}

func TestDescriptorTypeMapsAttachmentUsage(t *testing.T) {
	cases := []struct {
		name string
		a    *graph.Attachment
		want vk.DescriptorType
	}{
		{"sampled", &graph.Attachment{Flags: graph.Sampled | graph.Input}, vk.DescriptorTypeCombinedImageSampler},
		{"uniform", &graph.Attachment{Flags: graph.Uniform | graph.Input}, vk.DescriptorTypeUniformBuffer},
		{"storage image", &graph.Attachment{Flags: graph.Storage | graph.Input, View: 1}, vk.DescriptorTypeStorageImage},
		{"storage buffer", &graph.Attachment{Flags: graph.Storage | graph.Input}, vk.DescriptorTypeStorageBuffer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := descriptorType(tc.a); got != tc.want {
				t.Errorf("descriptorType(%s): got %v, want %v", tc.name, got, tc.want)
			}
		})
	}
}

func TestCreateDescriptorSetWithoutPoolReturnsNil(t *testing.T) {
	h := newTestHolder(Graphics)
	set, err := h.CreateDescriptorSet(0)
	if err != nil {
		t.Fatalf("CreateDescriptorSet: unexpected error: %v", err)
	}
	if set != nil {
		t.Errorf("CreateDescriptorSet: expected a nil set when no descriptor pool was built, got %v", set)
	}
}
