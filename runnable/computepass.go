package runnable

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/graph"
	"github.com/spaghettifunk/crg/pipeline"
	"github.com/spaghettifunk/crg/record"
)

// DispatchSize is a fixed (x, y, z) compute dispatch.
type DispatchSize struct {
	X, Y, Z uint32
}

// ComputePass drives a PipelineHolder in the Compute bind point, either
// dispatching a fixed size, invoking a caller-supplied callback, or
// dispatching indirectly against an indirect-argument buffer, per §4.7's
// ComputePass row.
type ComputePass struct {
	*Base

	Holder *pipeline.Holder

	dispatch         DispatchSize
	dispatchCallback func(cb vk.CommandBuffer, passIndex uint32) DispatchSize
	indirectBuffer   vk.Buffer
	indirectOffset   uint64
}

// NewComputePass builds a fixed-size ComputePass runnable.
func NewComputePass(ctx *backend.Context, pass *graph.FramePass, rc *record.Context, cfg Config, maxSets uint32, dispatch DispatchSize) *ComputePass {
	cp := &ComputePass{dispatch: dispatch}
	cp.Base = NewBase(pass, ctx, rc, Callbacks{
		Initialise:    func() error { return cp.initialise(maxSets) },
		Record:        cp.record,
		IsComputePass: func() bool { return true },
	}, cfg)
	return cp
}

// NewComputePassWithCallback builds a ComputePass whose dispatch size is
// computed per-record by callback, per §4.7's "caller-provided callback".
func NewComputePassWithCallback(ctx *backend.Context, pass *graph.FramePass, rc *record.Context, cfg Config, maxSets uint32, callback func(cb vk.CommandBuffer, passIndex uint32) DispatchSize) *ComputePass {
	cp := &ComputePass{dispatchCallback: callback}
	cp.Base = NewBase(pass, ctx, rc, Callbacks{
		Initialise:    func() error { return cp.initialise(maxSets) },
		Record:        cp.record,
		IsComputePass: func() bool { return true },
	}, cfg)
	return cp
}

// NewComputePassIndirect builds a ComputePass that dispatches via
// vkCmdDispatchIndirect against an IndirectBuffer, per §4.7's
// "vkCmdDispatchIndirect against an IndirectBuffer".
func NewComputePassIndirect(ctx *backend.Context, pass *graph.FramePass, rc *record.Context, cfg Config, maxSets uint32, indirectBuffer vk.Buffer, offset uint64) *ComputePass {
	cp := &ComputePass{indirectBuffer: indirectBuffer, indirectOffset: offset}
	cp.Base = NewBase(pass, ctx, rc, Callbacks{
		Initialise:    func() error { return cp.initialise(maxSets) },
		Record:        cp.record,
		IsComputePass: func() bool { return true },
	}, cfg)
	return cp
}

func (cp *ComputePass) initialise(maxSets uint32) error {
	holder, err := pipeline.New(cp.Context(), cp.Pass, pipeline.Compute, maxSets)
	if err != nil {
		return err
	}
	cp.Holder = holder
	return nil
}

func (cp *ComputePass) record(cb vk.CommandBuffer, passIndex uint32) error {
	if pl, ok := cp.Holder.Pipeline(passIndex); ok {
		vk.CmdBindPipeline(cb, vk.PipelineBindPointCompute, pl)
	}
	if set, err := cp.Holder.CreateDescriptorSet(passIndex); err == nil && set != nil {
		vk.CmdBindDescriptorSets(cb, vk.PipelineBindPointCompute, cp.Holder.PipelineLayout(), 0, 1, []vk.DescriptorSet{set}, 0, nil)
	}

	switch {
	case cp.indirectBuffer != nil:
		vk.CmdDispatchIndirect(cb, cp.indirectBuffer, vk.DeviceSize(cp.indirectOffset))
	case cp.dispatchCallback != nil:
		d := cp.dispatchCallback(cb, passIndex)
		vk.CmdDispatch(cb, d.X, d.Y, d.Z)
	default:
		vk.CmdDispatch(cb, cp.dispatch.X, cp.dispatch.Y, cp.dispatch.Z)
	}
	return nil
}

// Destroy releases the pipeline holder and the shared Base lifecycle.
func (cp *ComputePass) Destroy() {
	if cp.Holder != nil {
		cp.Holder.Destroy()
	}
	cp.Base.Destroy()
}
