package runnable

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/graph"
	"github.com/spaghettifunk/crg/pipeline"
	"github.com/spaghettifunk/crg/record"
	"github.com/spaghettifunk/crg/resource"
)

// QuadConfig bundles RenderQuad's draw-time tunables, per §4.7's
// "instance count, indirect draw, texcoord flip config, optional
// depth-stencil state, optional record-pass-when-disabled".
type QuadConfig struct {
	InstanceCount      uint32
	IndirectBuffer     vk.Buffer
	IndirectOffset     uint64
	FlipTexcoordsX     bool
	FlipTexcoordsY     bool
	DepthStencilState  *vk.PipelineDepthStencilStateCreateInfo
	RecordWhenDisabled bool
}

// RenderQuad is a RenderPass driving a full-screen-triangle draw through
// a graphics PipelineHolder, per §4.7's RenderQuad row.
type RenderQuad struct {
	*RenderPass

	Holder *pipeline.Holder
	cfg    QuadConfig
	extent resource.Extent3D
}

// NewRenderQuad builds a RenderQuad runnable over a single full-screen
// triangle (no vertex buffer required: the vertex shader is expected to
// synthesize positions from gl_VertexIndex).
func NewRenderQuad(ctx *backend.Context, pass *graph.FramePass, rc *record.Context, extent resource.Extent3D, maxSets uint32, quadCfg QuadConfig, baseCfg Config) *RenderQuad {
	rq := &RenderQuad{cfg: quadCfg, extent: extent}
	rq.RenderPass = NewRenderPass(ctx, pass, rc, extent, baseCfg, rq.draw)
	rq.RenderPass.Base.cb.Initialise = rq.initialise(maxSets, rq.RenderPass.initialise)
	if quadCfg.RecordWhenDisabled {
		rq.RenderPass.Base.cb.RecordDisabled = func(cb vk.CommandBuffer, passIndex uint32) error {
			return rq.RenderPass.record(cb, passIndex)
		}
	}
	return rq
}

func (rq *RenderQuad) initialise(maxSets uint32, renderPassInit func() error) func() error {
	return func() error {
		if err := renderPassInit(); err != nil {
			return err
		}
		holder, err := pipeline.New(rq.Context(), rq.Pass, pipeline.Graphics, maxSets)
		if err != nil {
			return err
		}
		rq.Holder = holder
		return nil
	}
}

func (rq *RenderQuad) draw(cb vk.CommandBuffer, passIndex uint32) error {
	if pl, ok := rq.Holder.Pipeline(passIndex); ok {
		vk.CmdBindPipeline(cb, vk.PipelineBindPointGraphics, pl)
	}
	if set, err := rq.Holder.CreateDescriptorSet(passIndex); err == nil && set != nil {
		vk.CmdBindDescriptorSets(cb, vk.PipelineBindPointGraphics, rq.Holder.PipelineLayout(), 0, 1, []vk.DescriptorSet{set}, 0, nil)
	}

	viewport := vk.Viewport{Width: float32(rq.extent.Width), Height: float32(rq.extent.Height), MinDepth: 0, MaxDepth: 1}
	if rq.cfg.FlipTexcoordsY {
		viewport.Y = float32(rq.extent.Height)
		viewport.Height = -viewport.Height
	}
	vk.CmdSetViewport(cb, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cb, 0, 1, []vk.Rect2D{{Extent: vk.Extent2D{Width: rq.extent.Width, Height: rq.extent.Height}}})

	instanceCount := rq.cfg.InstanceCount
	if instanceCount == 0 {
		instanceCount = 1
	}

	if rq.cfg.IndirectBuffer != nil {
		vk.CmdDrawIndirect(cb, rq.cfg.IndirectBuffer, vk.DeviceSize(rq.cfg.IndirectOffset), 1, 0)
		return nil
	}

	vk.CmdDraw(cb, 3, instanceCount, 0, 0)
	return nil
}

// Destroy releases the pipeline holder and the embedded RenderPass.
func (rq *RenderQuad) Destroy() {
	if rq.Holder != nil {
		rq.Holder.Destroy()
	}
	rq.RenderPass.Destroy()
}
