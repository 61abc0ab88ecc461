// Package runnablegraph implements RunnableGraph, the top-level object
// produced by compiling a FrameGraph: it resolves view aliases and
// layout transitions across the whole DAG, then drives recording and
// submission in the breadth-first node order of graph.RootNode.Flatten,
// per §4.9.
package runnablegraph

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/core"
	"github.com/spaghettifunk/crg/graph"
	"github.com/spaghettifunk/crg/record"
	"github.com/spaghettifunk/crg/resource"
	"github.com/spaghettifunk/crg/runnable"
)

// transitionSetter is satisfied by every concrete runnable.* pass kind
// (they all embed *runnable.Base), letting RunnableGraph hand each pass
// its precomputed per-(passIndex, view) LayoutTransition without knowing
// which concrete kind it is, per §4.9 step 4.
type transitionSetter interface {
	SetTransition(passIndex uint32, view resource.ImageViewId, t runnable.LayoutTransition)
}

type recorder interface {
	RecordAll() error
	Run(index uint32, toWait vk.Semaphore, waitStage vk.PipelineStageFlags, queue vk.Queue) (vk.Semaphore, error)
}

// Graph is the compiled, runnable form of a graph.FrameGraph, per §4.9.
type Graph struct {
	ctx      *backend.Context
	compiled *graph.CompiledGraph
	record   *record.Context
	order    []*graph.Node
}

// New resolves compiled into a runnable DAG: it finishes §4.9's steps 3-4
// (view-alias precomputation and per-(passIndex, view) LayoutTransition
// resolution) and stores the breadth-first node order (from
// graph.RootNode.Flatten) that recording and Run walk.
//
// rc must be the same record.Context passed to FrameGraph.Compile, so
// every pass's Base.RecordContext() shares the one layout/access state
// table this Graph seeds from FinalImageLayouts and resolves transitions
// against.
func New(ctx *backend.Context, compiled *graph.CompiledGraph, rc *record.Context) (*Graph, error) {
	rg := &Graph{
		ctx:      ctx,
		compiled: compiled,
		record:   rc,
	}

	for view, state := range compiled.FinalImageLayouts {
		rg.record.SetLayoutState(view, state)
	}

	order := compiled.Root.Flatten()
	rg.order = order

	for _, node := range order {
		runnablePass, ok := node.Pass.GetRunnable().(transitionSetter)
		if !ok {
			continue
		}
		for _, t := range node.Transitions {
			for passIndex := uint32(0); passIndex < node.Pass.MaxPassCount; passIndex++ {
				view := t.Input.ResolveView(passIndex)
				from := rg.record.GetLayoutState(view)
				needed := desiredLayoutState(t.Input)
				to := rg.finalLayoutFor(view, needed)
				runnablePass.SetTransition(passIndex, view, runnable.LayoutTransition{From: from, Needed: needed, To: to})
			}
		}
	}

	return rg, nil
}

func (rg *Graph) finalLayoutFor(view resource.ImageViewId, fallback resource.LayoutState) resource.LayoutState {
	if state, ok := rg.compiled.FinalImageLayouts[view]; ok {
		return state
	}
	return fallback
}

// desiredLayoutState derives the LayoutState an attachment's usage
// implies: a sampled/uniform read wants ShaderReadOnly, a colour/depth
// target wants its Color/DepthStencilAttachmentOptimal layout, and a
// transfer attachment wants TransferSrc/Dst, per §3's attachment-flags to
// layout mapping.
func desiredLayoutState(a *graph.Attachment) resource.LayoutState {
	switch {
	case a.IsSampled():
		return resource.LayoutState{Layout: vk.ImageLayoutShaderReadOnlyOptimal, Access: vk.AccessFlags(vk.AccessShaderReadBit), Stage: vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)}
	case a.IsColourInput() || a.IsColourOutput():
		access := vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit)
		return resource.LayoutState{Layout: vk.ImageLayoutColorAttachmentOptimal, Access: access, Stage: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)}
	case a.IsDepthInput() || a.IsDepthOutput() || a.IsStencilInput() || a.IsStencilOutput():
		access := vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit) | vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
		stage := vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit) | vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit)
		return resource.LayoutState{Layout: vk.ImageLayoutDepthStencilAttachmentOptimal, Access: access, Stage: stage}
	case a.IsTransferInput():
		return resource.LayoutState{Layout: vk.ImageLayoutTransferSrcOptimal, Access: vk.AccessFlags(vk.AccessTransferReadBit), Stage: vk.PipelineStageFlags(vk.PipelineStageTransferBit)}
	case a.IsTransferOutput():
		return resource.LayoutState{Layout: vk.ImageLayoutTransferDstOptimal, Access: vk.AccessFlags(vk.AccessTransferWriteBit), Stage: vk.PipelineStageFlags(vk.PipelineStageTransferBit)}
	case a.IsStorage():
		return resource.LayoutState{Layout: vk.ImageLayoutGeneral, Access: vk.AccessFlags(vk.AccessShaderReadBit) | vk.AccessFlags(vk.AccessShaderWriteBit), Stage: vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)}
	default:
		return resource.Undefined
	}
}

// Record records every pass's command buffers for all of its pass-indices
// (RecordAll), per §4.9 step 5's "record()".
func (rg *Graph) Record() error {
	for _, node := range rg.order {
		r, ok := node.Pass.GetRunnable().(recorder)
		if !ok {
			continue
		}
		if err := r.RecordAll(); err != nil {
			core.LogError("RunnableGraph: recording %q failed: %v", node.Pass.Name, err)
			return err
		}
	}
	return nil
}

// Run submits every pass's command buffer for every pass-index, in the
// node order New stored, as one linear chain: each submission waits on
// the semaphore signalled by the one before it (the first waits on
// toWait), and the last signalled semaphore is returned, per §4.9 step 5.
func (rg *Graph) Run(toWait vk.Semaphore, queue vk.Queue) (vk.Semaphore, error) {
	var last vk.Semaphore
	waitStage := vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	for _, node := range rg.order {
		r, ok := node.Pass.GetRunnable().(recorder)
		if !ok {
			continue
		}
		for passIndex := uint32(0); passIndex < node.Pass.MaxPassCount; passIndex++ {
			sem, err := r.Run(passIndex, toWait, waitStage, queue)
			if err != nil {
				return nil, err
			}
			if sem != nil {
				toWait = sem
				last = sem
			}
		}
	}
	return last, nil
}

// GetImageView resolves view through the resource handler, lazily
// creating the VkImageView if needed, per §4.9's "getImageView" accessor.
func (rg *Graph) GetImageView(view resource.ImageViewId) (vk.ImageView, error) {
	return rg.compiled.Graph.Resources().CreateImageView(rg.ctx, view)
}

// GetCurrentLayoutState returns the record context's current layout state
// for view, per §4.9's "getCurrentLayoutState" accessor.
func (rg *Graph) GetCurrentLayoutState(view resource.ImageViewId) resource.LayoutState {
	return rg.record.GetLayoutState(view)
}

// GetFinalLayoutState returns the externally-declared final layout for
// view, or resource.Undefined when the graph never declared one, per
// §4.9's "getFinalLayoutState" accessor.
func (rg *Graph) GetFinalLayoutState(view resource.ImageViewId) resource.LayoutState {
	state, ok := rg.compiled.FinalImageLayouts[view]
	if !ok {
		return resource.Undefined
	}
	return state
}

// CreateSampler builds a VkSampler from desc, per §4.9's "createSampler"
// accessor. Callers are responsible for destroying the returned sampler.
func (rg *Graph) CreateSampler(desc graph.SamplerDesc) (vk.Sampler, error) {
	createInfo := vk.SamplerCreateInfo{
		SType:        vk.StructureTypeSamplerCreateInfo,
		MagFilter:    desc.MagFilter,
		MinFilter:    desc.MinFilter,
		MipmapMode:   desc.MipmapMode,
		AddressModeU: desc.AddressU,
		AddressModeV: desc.AddressV,
		AddressModeW: desc.AddressW,
		MinLod:       desc.MinLod,
		MaxLod:       desc.MaxLod,
	}
	var sampler vk.Sampler
	if res := vk.CreateSampler(rg.ctx.Device, &createInfo, rg.ctx.Allocator, &sampler); res != vk.Success {
		core.LogError("RunnableGraph.CreateSampler: vkCreateSampler failed with result %d", res)
		return nil, core.ErrUnknown
	}
	return sampler, nil
}

// Destroy releases the resource handler's Vulkan objects, logging (per
// §7 LeakOnShutdown) rather than aborting on anything still outstanding.
func (rg *Graph) Destroy() {
	rg.compiled.Graph.Resources().Clear(rg.ctx)
}
