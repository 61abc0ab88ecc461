// Package runnable implements the concrete RunnablePass kinds (render
// pass, compute pass, copy/blit, mipmap generation, quad/mesh draws) atop
// the shared Base lifecycle, per §4.6/§4.7.
package runnable

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/core"
	"github.com/spaghettifunk/crg/graph"
	"github.com/spaghettifunk/crg/record"
	"github.com/spaghettifunk/crg/resource"
)

// LayoutTransition is the {from, needed, to} triple the base class stores
// per (passIndex, view), computed by RunnableGraph during compile, per
// §4.6/§4.9 step 4.
type LayoutTransition struct {
	From   resource.LayoutState
	Needed resource.LayoutState
	To     resource.LayoutState
}

// Callbacks are the user-supplied hooks driving a pass's behaviour, per
// §4.6's construction contract.
type Callbacks struct {
	Initialise       func() error
	GetPipelineState func() record.PipelineState
	Record           func(cb vk.CommandBuffer, passIndex uint32) error
	RecordDisabled   func(cb vk.CommandBuffer, passIndex uint32) error
	GetPassIndex     func() uint32
	IsEnabled        func() bool
	IsComputePass    func() bool
}

// Config bundles Base's per-pass tunables, per §4.6.
type Config struct {
	MaxPassCount uint32
	Resettable   bool
}

// Base is the shared lifecycle every concrete RunnablePass embeds: command
// pool/buffer/semaphore/fence/timer per pass-index, the pre/post-barrier
// insertion around the user Record callback, and submission, per §4.6.
type Base struct {
	Pass *graph.FramePass
	ctx  *backend.Context
	rc   *record.Context
	cb   Callbacks
	cfg  Config

	commandPool     vk.CommandPool
	commandBuffers  map[uint32]vk.CommandBuffer
	disabledBuffers map[uint32]vk.CommandBuffer
	semaphores      map[uint32]vk.Semaphore
	fences          map[uint32]vk.Fence
	timers          map[uint32]*record.Timer
	recorded        map[uint32]bool

	transitions map[uint32]map[resource.ImageViewId]LayoutTransition
}

// NewBase constructs the shared lifecycle for pass, per §4.6's
// "RunnablePass(pass, ctx, graph, Callbacks, Config)" contract.
func NewBase(pass *graph.FramePass, ctx *backend.Context, rc *record.Context, callbacks Callbacks, cfg Config) *Base {
	if cfg.MaxPassCount == 0 {
		cfg.MaxPassCount = 1
	}
	return &Base{
		Pass:            pass,
		ctx:             ctx,
		rc:              rc,
		cb:              callbacks,
		cfg:             cfg,
		commandBuffers:  map[uint32]vk.CommandBuffer{},
		disabledBuffers: map[uint32]vk.CommandBuffer{},
		semaphores:      map[uint32]vk.Semaphore{},
		fences:          map[uint32]vk.Fence{},
		timers:          map[uint32]*record.Timer{},
		recorded:        map[uint32]bool{},
		transitions:     map[uint32]map[resource.ImageViewId]LayoutTransition{},
	}
}

// Initialise creates the command pool, per-pass-index command buffers,
// semaphores, fences and timers, then invokes the user Initialise
// callback, per §4.6 step 1. It satisfies graph.Runnable, so a Base value
// (embedded in every concrete pass) can be returned directly from a
// graph.RunnableCreator.
func (b *Base) Initialise() error {
	poolInfo := vk.CommandPoolCreateInfo{
		SType: vk.StructureTypeCommandPoolCreateInfo,
		Flags: vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if res := vk.CreateCommandPool(b.ctx.Device, &poolInfo, b.ctx.Allocator, &b.commandPool); res != vk.Success {
		core.LogError("RunnablePass %q: vkCreateCommandPool failed with result %d", b.Pass.Name, res)
		return core.ErrUnknown
	}

	for i := uint32(0); i < b.cfg.MaxPassCount; i++ {
		if err := b.allocateBuffer(i, false); err != nil {
			return err
		}
		if b.cfg.Resettable {
			if err := b.allocateBuffer(i, true); err != nil {
				return err
			}
		}

		semInfo := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
		var sem vk.Semaphore
		if res := vk.CreateSemaphore(b.ctx.Device, &semInfo, b.ctx.Allocator, &sem); res != vk.Success {
			core.LogError("RunnablePass %q: vkCreateSemaphore failed with result %d", b.Pass.Name, res)
			return core.ErrUnknown
		}
		b.semaphores[i] = sem

		fenceInfo := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo, Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit)}
		var fence vk.Fence
		if res := vk.CreateFence(b.ctx.Device, &fenceInfo, b.ctx.Allocator, &fence); res != vk.Success {
			core.LogError("RunnablePass %q: vkCreateFence failed with result %d", b.Pass.Name, res)
			return core.ErrUnknown
		}
		b.fences[i] = fence

		timer, err := record.NewTimer(b.ctx, b.Pass.Name, 1)
		if err != nil {
			return err
		}
		b.timers[i] = timer
	}

	if b.cb.Initialise != nil {
		return b.cb.Initialise()
	}
	return nil
}

func (b *Base) allocateBuffer(index uint32, disabled bool) error {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        b.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	buffers := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(b.ctx.Device, &allocInfo, buffers); res != vk.Success {
		core.LogError("RunnablePass %q: vkAllocateCommandBuffers failed with result %d", b.Pass.Name, res)
		return core.ErrUnknown
	}
	if disabled {
		b.disabledBuffers[index] = buffers[0]
	} else {
		b.commandBuffers[index] = buffers[0]
	}
	return nil
}

// SetTransition stores the {from, needed, to} triple computed for
// (passIndex, view) by RunnableGraph, per §4.9 step 4.
func (b *Base) SetTransition(passIndex uint32, view resource.ImageViewId, t LayoutTransition) {
	m, ok := b.transitions[passIndex]
	if !ok {
		m = map[resource.ImageViewId]LayoutTransition{}
		b.transitions[passIndex] = m
	}
	m[view] = t
}

// IsEnabled reports whether this pass should record/submit its enabled
// command buffer this frame.
func (b *Base) IsEnabled() bool {
	if b.cb.IsEnabled == nil {
		return true
	}
	return b.cb.IsEnabled()
}

// RecordCurrent records the command buffer for the pass-index reported by
// the user's GetPassIndex callback (0 when absent), per §4.6 step 2.
func (b *Base) RecordCurrent() error {
	index := uint32(0)
	if b.cb.GetPassIndex != nil {
		index = b.cb.GetPassIndex()
	}
	return b.Record(index)
}

// RecordAll records the command buffer for every pass-index in
// [0, MaxPassCount).
func (b *Base) RecordAll() error {
	for i := uint32(0); i < b.cfg.MaxPassCount; i++ {
		if err := b.Record(i); err != nil {
			return err
		}
	}
	return nil
}

// Record begins the pass-index's command buffer, inserts every pre-pass
// barrier derived from its attachment transitions, invokes the user
// Record (or RecordDisabled) callback, inserts post-pass barriers for
// transitions whose `to` differs from `needed`, and ends the buffer.
func (b *Base) Record(index uint32) error {
	enabled := b.IsEnabled()
	cb := b.commandBuffers[index]
	if !enabled && b.cfg.Resettable {
		cb = b.disabledBuffers[index]
	}
	if cb == nil {
		return nil
	}

	beginInfo := vk.CommandBufferBeginInfo{SType: vk.StructureTypeCommandBufferBeginInfo}
	if res := vk.BeginCommandBuffer(cb, &beginInfo); res != vk.Success {
		core.LogError("RunnablePass %q: vkBeginCommandBuffer failed with result %d", b.Pass.Name, res)
		return core.ErrUnknown
	}

	timer := b.timers[index]
	if timer != nil {
		timer.BeginPass(cb, index)
	}

	for view, t := range b.transitions[index] {
		b.rc.ImageMemoryBarrier(cb, view, t.Needed, false)
	}

	var err error
	if enabled {
		if b.cb.Record != nil {
			err = b.cb.Record(cb, index)
		}
	} else if b.cb.RecordDisabled != nil {
		err = b.cb.RecordDisabled(cb, index)
	}

	for view, t := range b.transitions[index] {
		if !t.Needed.Equal(t.To) {
			b.rc.ImageMemoryBarrier(cb, view, t.To, false)
		}
		b.rc.RunImplicitTransition(cb, index, view)
	}

	if timer != nil {
		timer.EndPass(cb, index)
	}

	if res := vk.EndCommandBuffer(cb); res != vk.Success {
		core.LogError("RunnablePass %q: vkEndCommandBuffer failed with result %d", b.Pass.Name, res)
		return core.ErrUnknown
	}

	b.recorded[index] = true
	return err
}

// ResetCommandBuffer marks index's recording stale so the next Record
// call re-records it, per §4.6 step 4.
func (b *Base) ResetCommandBuffer(index uint32) {
	delete(b.recorded, index)
}

// Run submits pass-index's command buffer, waiting on toWait at the
// caller-supplied waitStage and signaling the pass's own semaphore,
// per §4.6 step 3.
func (b *Base) Run(index uint32, toWait vk.Semaphore, waitStage vk.PipelineStageFlags, queue vk.Queue) (vk.Semaphore, error) {
	enabled := b.IsEnabled()
	cb := b.commandBuffers[index]
	if !enabled && b.cfg.Resettable {
		cb = b.disabledBuffers[index]
	}
	if cb == nil {
		return nil, nil
	}

	signal := b.semaphores[index]
	fence := b.fences[index]
	vk.WaitForFences(b.ctx.Device, 1, []vk.Fence{fence}, vk.True, ^uint64(0))
	vk.ResetFences(b.ctx.Device, 1, []vk.Fence{fence})

	var waitSemaphores []vk.Semaphore
	var waitStages []vk.PipelineStageFlags
	if toWait != nil {
		waitSemaphores = []vk.Semaphore{toWait}
		waitStages = []vk.PipelineStageFlags{waitStage}
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(waitSemaphores)),
		PWaitSemaphores:      waitSemaphores,
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signal},
	}
	if res := vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, fence); res != vk.Success {
		core.LogError("RunnablePass %q: vkQueueSubmit failed with result %d", b.Pass.Name, res)
		return nil, core.ErrUnknown
	}

	if timer := b.timers[index]; timer != nil {
		timer.Start()
		timer.NotifyPassRender(index, false)
	}

	return signal, nil
}

// Destroy releases every Vulkan object owned by this pass's lifecycle.
func (b *Base) Destroy() {
	for _, timer := range b.timers {
		timer.Destroy()
	}
	for _, fence := range b.fences {
		vk.DestroyFence(b.ctx.Device, fence, b.ctx.Allocator)
	}
	for _, sem := range b.semaphores {
		vk.DestroySemaphore(b.ctx.Device, sem, b.ctx.Allocator)
	}
	if b.commandPool != nil {
		vk.DestroyCommandPool(b.ctx.Device, b.commandPool, b.ctx.Allocator)
	}
}

// Context returns the backend context this pass was constructed with, for
// use by concrete pass kinds building their own Vulkan objects
// (pipelines, render passes, framebuffers).
func (b *Base) Context() *backend.Context { return b.ctx }

// RecordContext returns the record.Context this pass transitions
// resources through.
func (b *Base) RecordContext() *record.Context { return b.rc }
