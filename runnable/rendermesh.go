package runnable

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/graph"
	"github.com/spaghettifunk/crg/pipeline"
	"github.com/spaghettifunk/crg/record"
	"github.com/spaghettifunk/crg/resource"
)

// MeshConfig bundles RenderMesh's draw-time tunables, per §4.7's
// "caller supplies vertex/index buffers, primitive count, cull mode;
// supports indexed, indirect-indexed, non-indexed drawing".
type MeshConfig struct {
	VertexBuffer   vk.Buffer
	VertexOffset   uint64
	IndexBuffer    vk.Buffer
	IndexOffset    uint64
	IndexType      vk.IndexType
	VertexCount    uint32
	IndexCount     uint32
	InstanceCount  uint32
	CullMode       vk.CullModeFlags
	IndirectBuffer vk.Buffer
	IndirectOffset uint64
	Indexed        bool
	Indirect       bool
}

// RenderMesh is a RenderPass driving an indexed or non-indexed mesh draw
// through a graphics PipelineHolder, per §4.7's RenderMesh row.
type RenderMesh struct {
	*RenderPass

	Holder *pipeline.Holder
	cfg    MeshConfig
	extent resource.Extent3D
}

// NewRenderMesh builds a RenderMesh runnable.
func NewRenderMesh(ctx *backend.Context, pass *graph.FramePass, rc *record.Context, extent resource.Extent3D, maxSets uint32, meshCfg MeshConfig, baseCfg Config) *RenderMesh {
	rm := &RenderMesh{cfg: meshCfg, extent: extent}
	rm.RenderPass = NewRenderPass(ctx, pass, rc, extent, baseCfg, rm.draw)
	rm.RenderPass.Base.cb.Initialise = rm.initialise(maxSets, rm.RenderPass.initialise)
	return rm
}

func (rm *RenderMesh) initialise(maxSets uint32, renderPassInit func() error) func() error {
	return func() error {
		if err := renderPassInit(); err != nil {
			return err
		}
		holder, err := pipeline.New(rm.Context(), rm.Pass, pipeline.Graphics, maxSets)
		if err != nil {
			return err
		}
		rm.Holder = holder
		return nil
	}
}

func (rm *RenderMesh) draw(cb vk.CommandBuffer, passIndex uint32) error {
	if pl, ok := rm.Holder.Pipeline(passIndex); ok {
		vk.CmdBindPipeline(cb, vk.PipelineBindPointGraphics, pl)
	}
	if set, err := rm.Holder.CreateDescriptorSet(passIndex); err == nil && set != nil {
		vk.CmdBindDescriptorSets(cb, vk.PipelineBindPointGraphics, rm.Holder.PipelineLayout(), 0, 1, []vk.DescriptorSet{set}, 0, nil)
	}

	viewport := vk.Viewport{Width: float32(rm.extent.Width), Height: float32(rm.extent.Height), MinDepth: 0, MaxDepth: 1}
	vk.CmdSetViewport(cb, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cb, 0, 1, []vk.Rect2D{{Extent: vk.Extent2D{Width: rm.extent.Width, Height: rm.extent.Height}}})

	if rm.cfg.VertexBuffer != nil {
		vk.CmdBindVertexBuffers(cb, 0, 1, []vk.Buffer{rm.cfg.VertexBuffer}, []vk.DeviceSize{vk.DeviceSize(rm.cfg.VertexOffset)})
	}

	instanceCount := rm.cfg.InstanceCount
	if instanceCount == 0 {
		instanceCount = 1
	}

	switch {
	case rm.cfg.Indirect && rm.cfg.Indexed:
		vk.CmdBindIndexBuffer(cb, rm.cfg.IndexBuffer, vk.DeviceSize(rm.cfg.IndexOffset), rm.cfg.IndexType)
		vk.CmdDrawIndexedIndirect(cb, rm.cfg.IndirectBuffer, vk.DeviceSize(rm.cfg.IndirectOffset), 1, 0)
	case rm.cfg.Indirect:
		vk.CmdDrawIndirect(cb, rm.cfg.IndirectBuffer, vk.DeviceSize(rm.cfg.IndirectOffset), 1, 0)
	case rm.cfg.Indexed:
		vk.CmdBindIndexBuffer(cb, rm.cfg.IndexBuffer, vk.DeviceSize(rm.cfg.IndexOffset), rm.cfg.IndexType)
		vk.CmdDrawIndexed(cb, rm.cfg.IndexCount, instanceCount, 0, 0, 0)
	default:
		vk.CmdDraw(cb, rm.cfg.VertexCount, instanceCount, 0, 0)
	}
	return nil
}

// Destroy releases the pipeline holder and the embedded RenderPass.
func (rm *RenderMesh) Destroy() {
	if rm.Holder != nil {
		rm.Holder.Destroy()
	}
	rm.RenderPass.Destroy()
}
