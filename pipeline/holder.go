// Package pipeline implements PipelineHolder, the descriptor-set/pipeline
// lifetime shared by the graphics and compute RunnablePass kinds, per
// §4.8.
package pipeline

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/core"
	"github.com/spaghettifunk/crg/graph"
)

// BindPoint distinguishes a graphics pipeline holder from a compute one,
// which only changes the descriptor stage flags and the vkCmdBindPipeline
// bind point used by the owning RunnablePass.
type BindPoint int

const (
	Graphics BindPoint = iota
	Compute
)

// ProgramCreator lazily builds the shader stages for pass-index index,
// per §4.8's "injectable ProgramCreator(index) -> shader stages".
type ProgramCreator func(index uint32) ([]vk.PipelineShaderStageCreateInfo, error)

// Holder owns the descriptor-set layout, pipeline layout, descriptor
// pool, and a cache of one VkPipeline per pass-index (no pipeline is
// shared between pass-indices), per §4.8.
type Holder struct {
	ctx       *backend.Context
	bindPoint BindPoint
	maxSets   uint32

	setLayout      vk.DescriptorSetLayout
	pipelineLayout vk.PipelineLayout
	descriptorPool vk.DescriptorPool

	sets      map[uint32]vk.DescriptorSet
	pipelines map[uint32]vk.Pipeline
}

// New builds the descriptor-set layout and pipeline layout for pass's
// descriptor-bearing attachments (sampled/storage image, uniform/storage
// buffer), sized for up to maxSets concurrently-bound descriptor sets.
func New(ctx *backend.Context, pass *graph.FramePass, bindPoint BindPoint, maxSets uint32) (*Holder, error) {
	h := &Holder{
		ctx:       ctx,
		bindPoint: bindPoint,
		maxSets:   maxSets,
		sets:      map[uint32]vk.DescriptorSet{},
		pipelines: map[uint32]vk.Pipeline{},
	}

	stageFlags := vk.ShaderStageFlags(vk.ShaderStageAllGraphics)
	if bindPoint == Compute {
		stageFlags = vk.ShaderStageFlags(vk.ShaderStageComputeBit)
	}

	var bindings []vk.DescriptorSetLayoutBinding
	var poolSizes []vk.DescriptorPoolSize
	for _, a := range pass.Attachments {
		if !a.IsDescriptor() {
			continue
		}
		descType := descriptorType(a)
		bindings = append(bindings, vk.DescriptorSetLayoutBinding{
			Binding:         a.Binding,
			DescriptorType:  descType,
			DescriptorCount: 1,
			StageFlags:      stageFlags,
		})
		poolSizes = append(poolSizes, vk.DescriptorPoolSize{Type: descType, DescriptorCount: maxSets})
	}

	if len(bindings) > 0 {
		layoutInfo := vk.DescriptorSetLayoutCreateInfo{
			SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
			BindingCount: uint32(len(bindings)),
			PBindings:    bindings,
		}
		if res := vk.CreateDescriptorSetLayout(ctx.Device, &layoutInfo, ctx.Allocator, &h.setLayout); res != vk.Success {
			core.LogError("PipelineHolder %q: vkCreateDescriptorSetLayout failed with result %d", pass.Name, res)
			return nil, core.ErrUnknown
		}

		poolInfo := vk.DescriptorPoolCreateInfo{
			SType:         vk.StructureTypeDescriptorPoolCreateInfo,
			MaxSets:       maxSets,
			PoolSizeCount: uint32(len(poolSizes)),
			PPoolSizes:    poolSizes,
		}
		if res := vk.CreateDescriptorPool(ctx.Device, &poolInfo, ctx.Allocator, &h.descriptorPool); res != vk.Success {
			core.LogError("PipelineHolder %q: vkCreateDescriptorPool failed with result %d", pass.Name, res)
			return nil, core.ErrUnknown
		}
	}

	setLayouts := []vk.DescriptorSetLayout{}
	if h.setLayout != nil {
		setLayouts = append(setLayouts, h.setLayout)
	}
	layoutInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(setLayouts)),
		PSetLayouts:    setLayouts,
	}
	if res := vk.CreatePipelineLayout(ctx.Device, &layoutInfo, ctx.Allocator, &h.pipelineLayout); res != vk.Success {
		core.LogError("PipelineHolder %q: vkCreatePipelineLayout failed with result %d", pass.Name, res)
		return nil, core.ErrUnknown
	}

	return h, nil
}

func descriptorType(a *graph.Attachment) vk.DescriptorType {
	switch {
	case a.IsSampled():
		return vk.DescriptorTypeCombinedImageSampler
	case a.IsUniform():
		return vk.DescriptorTypeUniformBuffer
	case a.IsStorage() && a.View != 0:
		return vk.DescriptorTypeStorageImage
	default:
		return vk.DescriptorTypeStorageBuffer
	}
}

// CreateDescriptorSet allocates (on first call for index) and returns the
// descriptor set for pass-index index. It only allocates the set: no
// vkUpdateDescriptorSets writes are issued here, so the set's bindings
// are not filled in by this call.
func (h *Holder) CreateDescriptorSet(index uint32) (vk.DescriptorSet, error) {
	if set, ok := h.sets[index]; ok {
		return set, nil
	}
	if h.descriptorPool == nil {
		return nil, nil
	}

	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     h.descriptorPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{h.setLayout},
	}
	sets := make([]vk.DescriptorSet, 1)
	if res := vk.AllocateDescriptorSets(h.ctx.Device, &allocInfo, &sets[0]); res != vk.Success {
		core.LogError("PipelineHolder.CreateDescriptorSet(%d): vkAllocateDescriptorSets failed with result %d", index, res)
		return nil, core.ErrUnknown
	}
	h.sets[index] = sets[0]
	return sets[0], nil
}

// ResetPipeline destroys the cached VkPipeline for index immediately
// (there is no deferred-destroy queue) and removes it from the cache.
// Nothing rebuilds it: Pipeline reports no pipeline for index until
// SetPipeline stores a new one.
func (h *Holder) ResetPipeline(index uint32) {
	if p, ok := h.pipelines[index]; ok {
		vk.DestroyPipeline(h.ctx.Device, p, h.ctx.Allocator)
		delete(h.pipelines, index)
	}
}

// Pipeline returns the cached VkPipeline for index, if one has been built.
func (h *Holder) Pipeline(index uint32) (vk.Pipeline, bool) {
	p, ok := h.pipelines[index]
	return p, ok
}

// SetPipeline caches pipeline as the VkPipeline for pass-index index.
func (h *Holder) SetPipeline(index uint32, pipeline vk.Pipeline) {
	h.pipelines[index] = pipeline
}

// PipelineLayout returns the VkPipelineLayout built for this pass.
func (h *Holder) PipelineLayout() vk.PipelineLayout { return h.pipelineLayout }

// BindPoint returns whether this holder serves a graphics or compute
// pipeline.
func (h *Holder) BindPoint() BindPoint { return h.bindPoint }

// VkBindPoint returns the Vulkan bind point corresponding to BindPoint.
func (h *Holder) VkBindPoint() vk.PipelineBindPoint {
	if h.bindPoint == Compute {
		return vk.PipelineBindPointCompute
	}
	return vk.PipelineBindPointGraphics
}

// Destroy releases every Vulkan object owned by this holder.
func (h *Holder) Destroy() {
	for index := range h.pipelines {
		h.ResetPipeline(index)
	}
	if h.descriptorPool != nil {
		vk.DestroyDescriptorPool(h.ctx.Device, h.descriptorPool, h.ctx.Allocator)
	}
	if h.pipelineLayout != nil {
		vk.DestroyPipelineLayout(h.ctx.Device, h.pipelineLayout, h.ctx.Allocator)
	}
	if h.setLayout != nil {
		vk.DestroyDescriptorSetLayout(h.ctx.Device, h.setLayout, h.ctx.Allocator)
	}
}
