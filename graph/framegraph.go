package graph

import (
	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/core"
	"github.com/spaghettifunk/crg/record"
	"github.com/spaghettifunk/crg/resource"
)

// FrameGraph is the root declarative object of the compiler: the entry
// point for describing resources and passes, per §1/§4.1.
type FrameGraph struct {
	Name      string
	resources *resource.Handler
	root      *FramePassGroup
	passNames map[string]*FramePass

	finalImageLayouts map[resource.ImageViewId]resource.LayoutState
	finalBufferStates map[resource.BufferViewId]resource.AccessState
	signal            *ChangeSignal
}

// New creates an empty frame graph named name.
func New(name string) *FrameGraph {
	fg := &FrameGraph{
		Name:              name,
		resources:         resource.NewHandler(),
		passNames:         map[string]*FramePass{},
		finalImageLayouts: map[resource.ImageViewId]resource.LayoutState{},
		finalBufferStates: map[resource.BufferViewId]resource.AccessState{},
		signal:            NewChangeSignal(),
	}
	fg.root = newFramePassGroup(name, nil, fg)
	return fg
}

// Resources exposes the resource handler backing this graph's image and
// buffer descriptors, per §4.1.
func (fg *FrameGraph) Resources() *resource.Handler { return fg.resources }

// Root returns the top-level pass group new passes attach to absent an
// explicit CreatePassGroup call.
func (fg *FrameGraph) Root() *FramePassGroup { return fg.root }

// OnChange exposes the graph's ChangeSignal so callers can observe
// structural edits such as newly registered passes.
func (fg *FrameGraph) OnChange() *ChangeSignal { return fg.signal }

func (fg *FrameGraph) hasPassNamed(name string) bool {
	_, ok := fg.passNames[name]
	return ok
}

func (fg *FrameGraph) registerPass(pass *FramePass) {
	fg.passNames[pass.Name] = pass
	fg.signal.Emit(pass)
}

// AddInput declares the layout/access an image view is expected to be in
// before the graph runs, seeding the RecordContext's image-state table at
// compile time (§4.5).
func (fg *FrameGraph) AddInput(view resource.ImageViewId, state resource.LayoutState) {
	fg.finalImageLayouts[view] = state
}

// AddOutput declares the layout/access an image view must be left in once
// the graph finishes recording, per §4.9's final-layout contract.
func (fg *FrameGraph) AddOutput(view resource.ImageViewId, state resource.LayoutState) {
	fg.finalImageLayouts[view] = state
}

// AddInputBuffer / AddOutputBuffer mirror AddInput/AddOutput for buffer
// views.
func (fg *FrameGraph) AddInputBuffer(view resource.BufferViewId, state resource.AccessState) {
	fg.finalBufferStates[view] = state
}

func (fg *FrameGraph) AddOutputBuffer(view resource.BufferViewId, state resource.AccessState) {
	fg.finalBufferStates[view] = state
}

// CompiledGraph is the immutable result of Compile: a frame graph's passes
// resolved into dependency edges and an executable node DAG, ready to be
// handed to runnablegraph.New, per §4.4/§4.9.
type CompiledGraph struct {
	Graph             *FrameGraph
	Passes            []*FramePass
	Dependencies      []*Dependencies
	Root              *RootNode
	FinalImageLayouts map[resource.ImageViewId]resource.LayoutState
	FinalBufferStates map[resource.BufferViewId]resource.AccessState
}

// Compile solves dependencies across every registered pass, builds the
// execution DAG, and returns the result a RunnableGraph is constructed
// from. It does not create any Vulkan object itself beyond each pass's
// RunnableCreator: per-resource VkImage/VkImageView creation still happens
// lazily via the resource Handler, per §4.1/§4.5.
//
// rc is the record.Context every pass's Base will route barriers through;
// runnablegraph.New is expected to be handed the same instance so the
// layout/access state a pass observes at record time matches the state
// RunnableGraph resolved transitions against, per §4.9 step 4.
func (fg *FrameGraph) Compile(ctx *backend.Context, rc *record.Context) (*CompiledGraph, error) {
	passes := fg.root.AllPasses()
	if len(passes) == 0 {
		return nil, core.ErrEmptyGraph
	}

	deps, err := buildDependencies(fg.resources, passes)
	if err != nil {
		return nil, err
	}
	populateDependsOnCaches(passes, deps)

	root, err := buildGraph(passes, deps)
	if err != nil {
		return nil, err
	}
	if len(root.Roots) == 0 {
		return nil, core.ErrNoRoot
	}

	for _, pass := range passes {
		if _, err := pass.CreateRunnable(ctx, rc); err != nil {
			return nil, err
		}
	}

	return &CompiledGraph{
		Graph:             fg,
		Passes:            passes,
		Dependencies:      deps,
		Root:              root,
		FinalImageLayouts: fg.finalImageLayouts,
		FinalBufferStates: fg.finalBufferStates,
	}, nil
}
